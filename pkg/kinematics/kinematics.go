package kinematics

import (
	"math"

	"github.com/openfleet/agvsim/pkg/fleet"
	"github.com/openfleet/agvsim/pkg/graph"
)

// snapRemainingPixels and snapSpeedThreshold implement the creep-avoidance
// rule: on the final edge, close enough and slow enough counts as arrived.
const (
	snapRemainingPixels = 10.0
	snapSpeedThreshold  = 0.5
	brakingMarginPixels = 5.0
)

// Advance moves a along its current edge by one tick's worth of bounded
// acceleration and commits arrival if progress reaches 1. It is a no-op if
// a has no path or either endpoint is missing from g, matching the
// infallible-on-malformed-state policy the rest of the simulation follows.
func Advance(a *fleet.AGV, g *graph.Graph) {
	if len(a.Path) == 0 {
		return
	}
	nextID := a.Path[0]
	curNode, ok := g.Node(a.CurrentNode)
	if !ok {
		return
	}
	nextNode, ok := g.Node(nextID)
	if !ok {
		return
	}
	edgeDist, err := g.Distance(a.CurrentNode, nextID)
	if err != nil || edgeDist <= 0 {
		return
	}

	a.CurrentSpeed = nextSpeed(a, edgeDist)
	a.ProgressDistance += a.CurrentSpeed
	a.Progress = clamp01(a.ProgressDistance / edgeDist)

	if onFinalEdge(a) {
		remaining := edgeDist - a.ProgressDistance
		if remaining < snapRemainingPixels && a.CurrentSpeed < snapSpeedThreshold {
			a.Progress = 1
		}
	}

	a.Orientation = headingDegrees(curNode, nextNode)
	a.X = lerp(float64(curNode.X), float64(nextNode.X), a.Progress)
	a.Y = lerp(float64(curNode.Y), float64(nextNode.Y), a.Progress)

	if a.Progress >= 1 {
		commitArrival(a, nextNode, nextID)
	}
}

// nextSpeed computes the bounded-acceleration speed for this tick: the
// target is maxSpeed unless this is the final edge and the braking
// distance for the remaining stretch calls for a stop.
func nextSpeed(a *fleet.AGV, edgeDist float64) float64 {
	targetSpeed := a.Config.MaxSpeed
	if onFinalEdge(a) {
		remaining := edgeDist - a.ProgressDistance
		braking := (a.CurrentSpeed * a.CurrentSpeed) / (2 * a.Config.Deceleration)
		if remaining <= braking+brakingMarginPixels {
			targetSpeed = 0
		}
	}

	speed := a.CurrentSpeed
	switch {
	case speed < targetSpeed:
		speed += a.Config.Acceleration
		if speed > targetSpeed {
			speed = targetSpeed
		}
	case speed > targetSpeed:
		speed -= a.Config.Deceleration
		if speed < targetSpeed {
			speed = targetSpeed
		}
	}
	return clamp(speed, 0, a.Config.MaxSpeed)
}

// Decelerate reduces a's speed by one deceleration step, floored at zero.
// It is the motion side-effect of a WAIT verdict: the vehicle sheds speed
// every tick it waits, independent of whatever path mutation recovery
// applies to it. A REPATH_HEAD_ON verdict does not change speed.
func Decelerate(a *fleet.AGV) {
	a.CurrentSpeed = clamp(a.CurrentSpeed-a.Config.Deceleration, 0, a.Config.MaxSpeed)
}

func onFinalEdge(a *fleet.AGV) bool {
	return len(a.Path) == 1
}

// commitArrival applies the node-arrival transition: snaps position to the
// arrived node, rotates the path, and advances status.
func commitArrival(a *fleet.AGV, arrivedNode graph.Node, arrivedID string) {
	a.X = float64(arrivedNode.X)
	a.Y = float64(arrivedNode.Y)
	a.PreviousNode = a.CurrentNode
	a.CurrentNode = arrivedID
	a.Path = a.Path[1:]
	a.Progress = 0
	a.ProgressDistance = 0

	if len(a.Path) == 0 {
		a.Status = fleet.StatusCompleted
		a.TargetNode = ""
		a.CurrentSpeed = 0
	} else {
		a.Status = fleet.StatusMoving
	}
	a.UpdateReservations()
}

func headingDegrees(from, to graph.Node) float64 {
	return math.Atan2(float64(to.Y-from.Y), float64(to.X-from.X)) * 180 / math.Pi
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}
