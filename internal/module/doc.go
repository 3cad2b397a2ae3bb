// Package module orchestrates one load/unload cycle of the bridge:
// HAL handle acquisition, parameter gateway registration and helper
// spawn on load, the same steps reversed on unload.
package module
