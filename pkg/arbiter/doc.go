// Package arbiter implements traffic arbitration: a pure function from one
// AGV's state, the fleet snapshot, and the positions of its current and
// next node to a verdict of MOVE, WAIT, or REPATH_HEAD_ON. Arbitrate has no
// side effects and no dependency on wall-clock time; the same inputs
// always produce the same verdict.
package arbiter
