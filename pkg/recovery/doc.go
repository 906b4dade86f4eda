// Package recovery implements the deadlock-recovery ladder applied to a
// WAITING or REPATH_HEAD_ON vehicle: timed retry, ranked detour, and
// step-back reversal. All path mutation driven by the arbiter's verdict
// flows through this package; kinematics only ever advances along
// whatever path recovery leaves behind.
package recovery
