// Package engine hosts the simulation driver and the Core API: the fixed
// per-tick composition of arbiter -> recovery -> kinematics over an owned
// fleet, the auto-pilot that assigns random targets to idle vehicles, and
// the narrow command surface (spawn, setTarget, tick, snapshot, ...) that
// external collaborators use instead of touching the fleet directly.
package engine
