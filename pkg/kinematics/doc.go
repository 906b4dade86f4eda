// Package kinematics advances one AGV along its current edge for one tick:
// bounded acceleration toward a target speed, braking-distance arrival on
// the final edge, snap-to-arrival to avoid creeping, and the node-arrival
// commit that rotates the path and refreshes reservations. Advance is only
// called when arbitration has returned MOVE.
package kinematics
