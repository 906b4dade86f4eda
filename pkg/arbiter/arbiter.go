package arbiter

import (
	"fmt"
	"math"

	"github.com/openfleet/agvsim/pkg/fleet"
	"github.com/openfleet/agvsim/pkg/graph"
)

// tieSlackPixels is the distance within which two AGVs converging on the
// same node are considered tied, broken by lower id.
const tieSlackPixels = 5.0

// mergeYieldMarginPixels is how much further from the shared target node
// ego must be, relative to the other AGV, before R4 fires.
const mergeYieldMarginPixels = 15.0

// proximityNodeRadiusPixels bounds R3: an AGV holding ego's destination node
// makes ego wait while it is within this distance of ego's current node.
const proximityNodeRadiusPixels = 60.0

// progressAtNodeThreshold is how close to 0 Progress must be for an AGV to
// be considered "at" its current node rather than mid-edge.
const progressAtNodeThreshold = 0.05

// Arbitrate evaluates rules R0-R5 in order against every other AGV in the
// snapshot and returns the first verdict that fires, or MOVE if none do.
// ego must have a non-empty path; nextNode must be the graph.Node for
// ego.Path[0] and egoNode the graph.Node for ego.CurrentNode.
func Arbitrate(ego fleet.AGV, snap fleet.Snapshot, egoNode, nextNode graph.Node) Verdict {
	if len(ego.Path) == 0 {
		return moveVerdict()
	}
	others := snap.Others(ego.ID)

	if v, ok := checkR0(ego, others, nextNode); ok {
		return v
	}
	if v, ok := checkR1(ego, others); ok {
		return v
	}
	if v, ok := checkR2a(ego, others); ok {
		return v
	}
	if v, ok := checkR2b(ego, others, nextNode); ok {
		return v
	}
	if v, ok := checkR3(ego, others, egoNode); ok {
		return v
	}
	if v, ok := checkR4(ego, others, nextNode); ok {
		return v
	}
	if v, ok := checkR5(ego, others, egoNode, nextNode); ok {
		return v
	}
	return moveVerdict()
}

// checkR0 implements the reservation block: ego is resting at its current
// node and some other AGV has leased ego's intended next node.
func checkR0(ego fleet.AGV, others []fleet.AGV, nextNode graph.Node) (Verdict, bool) {
	if ego.Progress >= progressAtNodeThreshold {
		return Verdict{}, false
	}
	for _, other := range others {
		if containsString(other.ReservedNodes, nextNode.ID) {
			return waitVerdict(fmt.Sprintf("Node %s Reserved", nextNode.ID), other.ID), true
		}
	}
	return Verdict{}, false
}

// checkR1 implements head-on detection: ego and other are each other's
// next node, i.e. crossing paths on the same edge in opposite directions.
func checkR1(ego fleet.AGV, others []fleet.AGV) (Verdict, bool) {
	for _, other := range others {
		otherNext, hasNext := other.NextNode()
		if !hasNext {
			continue
		}
		if ego.Path[0] == other.CurrentNode && otherNext == ego.CurrentNode {
			return repathHeadOnVerdict(other.ID, graph.NewEdgeKey(ego.CurrentNode, ego.Path[0])), true
		}
	}
	return Verdict{}, false
}

// checkR2a implements stationary-occupant detection: the destination node
// is already held by another AGV that is itself resting there.
func checkR2a(ego fleet.AGV, others []fleet.AGV) (Verdict, bool) {
	if ego.Progress >= progressAtNodeThreshold {
		return Verdict{}, false
	}
	for _, other := range others {
		if other.CurrentNode == ego.Path[0] && other.Progress < progressAtNodeThreshold {
			return waitVerdict("Dest Occupied", other.ID), true
		}
	}
	return Verdict{}, false
}

// checkR2b implements entry contention: two AGVs converging on the same
// node from rest, resolved by distance, then by lower id on a near tie.
func checkR2b(ego fleet.AGV, others []fleet.AGV, nextNode graph.Node) (Verdict, bool) {
	if ego.Progress >= progressAtNodeThreshold {
		return Verdict{}, false
	}
	distEgo := distance(ego.X, ego.Y, float64(nextNode.X), float64(nextNode.Y))
	for _, other := range others {
		otherNext, hasNext := other.NextNode()
		if !hasNext || otherNext != ego.Path[0] {
			continue
		}
		distOther := distance(other.X, other.Y, float64(nextNode.X), float64(nextNode.Y))
		otherWins := distOther < distEgo-tieSlackPixels ||
			(math.Abs(distOther-distEgo) <= tieSlackPixels && other.ID < ego.ID)
		if otherWins {
			return waitVerdict("Yield Entry", other.ID), true
		}
	}
	return Verdict{}, false
}

// checkR3 implements moving-occupant-near detection: another AGV currently
// holds ego's destination node and is within proximityNodeRadiusPixels of
// ego's current node.
func checkR3(ego fleet.AGV, others []fleet.AGV, egoNode graph.Node) (Verdict, bool) {
	for _, other := range others {
		if other.CurrentNode != ego.Path[0] {
			continue
		}
		if distance(float64(egoNode.X), float64(egoNode.Y), other.X, other.Y) < proximityNodeRadiusPixels {
			return waitVerdict(fmt.Sprintf("Waiting Node %s", ego.Path[0]), other.ID), true
		}
	}
	return Verdict{}, false
}

// checkR4 implements mid-edge merge: two AGVs converging on the same node
// while underway, with the farther-back one yielding.
func checkR4(ego fleet.AGV, others []fleet.AGV, nextNode graph.Node) (Verdict, bool) {
	if ego.Progress < progressAtNodeThreshold {
		return Verdict{}, false
	}
	distEgo := distance(ego.X, ego.Y, float64(nextNode.X), float64(nextNode.Y))
	for _, other := range others {
		otherNext, hasNext := other.NextNode()
		if !hasNext || otherNext != ego.Path[0] {
			continue
		}
		distOther := distance(other.X, other.Y, float64(nextNode.X), float64(nextNode.Y))
		if distEgo > distOther+mergeYieldMarginPixels {
			return waitVerdict("Merge Yield", other.ID), true
		}
	}
	return Verdict{}, false
}

// checkR5 implements the forward-looking proximity sensor: something
// within the safety envelope, ahead of ego's heading, that a physics step
// would bring closer still.
func checkR5(ego fleet.AGV, others []fleet.AGV, egoNode, nextNode graph.Node) (Verdict, bool) {
	heading := math.Atan2(float64(nextNode.Y-egoNode.Y), float64(nextNode.X-egoNode.X))
	futureX := ego.X + math.Cos(heading)*ego.CurrentSpeed
	futureY := ego.Y + math.Sin(heading)*ego.CurrentSpeed

	for _, other := range others {
		distNow := distance(ego.X, ego.Y, other.X, other.Y)
		if distNow >= ego.Config.SafetyDistance {
			continue
		}
		angleToOther := math.Atan2(other.Y-ego.Y, other.X-ego.X)
		if math.Abs(normalizeAngle(angleToOther-heading)) > math.Pi/2 {
			continue
		}
		distFuture := distance(futureX, futureY, other.X, other.Y)
		if distFuture < distNow {
			return waitVerdict("Front Sensor", other.ID), true
		}
	}
	return Verdict{}, false
}

func distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}

// normalizeAngle maps a radian difference into (-pi, pi].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
