package recovery

import (
	"sort"

	"github.com/openfleet/agvsim/pkg/fleet"
	"github.com/openfleet/agvsim/pkg/graph"
	"github.com/openfleet/agvsim/pkg/kinematics"
)

// RetryInterval is the number of ticks an AGV remains WAITING before the
// recovery ladder re-evaluates its situation.
const RetryInterval = 60

// MaxRetriesPerRank is the retry budget spent at one pathRank before the
// ladder advances to the next rank or, jointly with a stuck blocker,
// triggers step-back.
const MaxRetriesPerRank = 3

// atNodeProgressThreshold is how close to 0 Progress must be for an AGV to
// be treated as resting at its current node rather than mid-edge, for the
// purposes of path mutation.
const atNodeProgressThreshold = 0.05

// stepBackProgressThreshold is the step-back-specific mid-edge cutoff: past
// this point reversing on the current edge is cheaper than waiting for the
// edge to finish.
const stepBackProgressThreshold = 0.1

// HandleWait applies one tick of the WAIT verdict: decelerate, advance the
// wait timer, and once RetryInterval ticks have elapsed, attempt step-back
// or a ranked detour that avoids a's blocked next node. blocker is the AGV
// the arbiter identified as the obstruction; its status decides whether
// step-back is taken.
func HandleWait(a *fleet.AGV, g *graph.Graph, blocker fleet.AGV) {
	kinematics.Decelerate(a)
	a.Status = fleet.StatusWaiting
	a.WaitTimer++

	if a.WaitTimer <= RetryInterval {
		return
	}
	a.WaitTimer = 0
	a.RetryCount++

	blockerStuck := blocker.Status == fleet.StatusWaiting || blocker.Status == fleet.StatusBlocked
	if a.RetryCount >= MaxRetriesPerRank && blockerStuck {
		stepBack(a, g)
		a.RetryCount = 0
		return
	}

	if a.RetryCount >= MaxRetriesPerRank {
		a.PathRank++
	}
	blockedNext, ok := a.NextNode()
	if !ok {
		a.Status = fleet.StatusBlocked
		return
	}
	avoidNodes := map[string]bool{blockedNext: true}
	if !applyPlannedPath(a, g, avoidNodes, nil, fleet.StatusDetour, fleet.StatusRepathing) {
		a.WaitTimer = 0
		a.Status = fleet.StatusWaiting
	}
}

// HandleHeadOn applies the REPATH_HEAD_ON verdict: replan immediately,
// avoiding the offending edge, reversing on the current edge first if the
// vehicle is already underway.
func HandleHeadOn(a *fleet.AGV, g *graph.Graph, avoidEdge graph.EdgeKey) {
	avoidEdges := map[graph.EdgeKey]bool{avoidEdge: true}
	if !applyPlannedPath(a, g, nil, avoidEdges, fleet.StatusRepathing, fleet.StatusRepathing) {
		a.Status = fleet.StatusBlocked
		return
	}
	a.PathRank = 0
}

// applyPlannedPath replans from a's effective position toward its target,
// avoiding the given nodes and edges. If a is resting at its current node
// (progress below atNodeProgressThreshold) the new path replaces Path
// outright and atNodeStatus is applied. Otherwise the vehicle is mid-edge
// and must finish crossing it in reverse: the turn-on-edge construction
// swaps currentNode and next-node identities, inverts progress, and
// prepends the old current node to the continuation, applying
// midEdgeStatus. Returns false, leaving a untouched, if no path exists.
func applyPlannedPath(a *fleet.AGV, g *graph.Graph, avoidNodes map[string]bool, avoidEdges map[graph.EdgeKey]bool, atNodeStatus, midEdgeStatus fleet.Status) bool {
	if a.Progress < atNodeProgressThreshold {
		newPath := g.FindPath(a.CurrentNode, a.TargetNode, avoidNodes, avoidEdges)
		if len(newPath) == 0 {
			return false
		}
		a.Path = newPath
		a.Status = atNodeStatus
		a.UpdateReservations()
		return true
	}

	if len(a.Path) == 0 {
		return false
	}
	continuation := g.FindPath(a.CurrentNode, a.TargetNode, avoidNodes, avoidEdges)
	if len(continuation) == 0 {
		return false
	}
	turnOnEdge(a, g, continuation)
	a.Status = midEdgeStatus
	a.UpdateReservations()
	return true
}

// turnOnEdge performs the mid-edge direction reversal: currentNode and the
// former next node swap identities, progress inverts so the vehicle
// retraces its physical position without discontinuity, and the old
// current node is prepended to continuation to resume the soft path.
func turnOnEdge(a *fleet.AGV, g *graph.Graph, continuation []string) {
	oldCurrent := a.CurrentNode
	farEnd := a.Path[0]
	edgeDist, err := g.Distance(oldCurrent, farEnd)
	if err != nil {
		return
	}

	a.CurrentNode = farEnd
	a.Progress = 1 - a.Progress
	a.ProgressDistance = edgeDist * a.Progress
	a.Path = append([]string{oldCurrent}, continuation...)
}

// stepBack applies the step-back maneuver: reverse on the current edge if
// far enough along it, otherwise retreat to the previous node or any other
// neighbor, then replan from the retreat point to the original target.
func stepBack(a *fleet.AGV, g *graph.Graph) {
	if a.Progress > stepBackProgressThreshold && len(a.Path) > 0 {
		continuation := g.FindPath(a.CurrentNode, a.TargetNode, nil, nil)
		if len(continuation) == 0 {
			return
		}
		turnOnEdge(a, g, continuation)
		a.Status = fleet.StatusRepathing
		a.UpdateReservations()
		return
	}

	retreat := retreatNode(a, g)
	if retreat == "" {
		return
	}
	continuation := g.FindPath(retreat, a.TargetNode, nil, nil)
	a.Path = append([]string{retreat}, continuation...)
	a.Status = fleet.StatusDetour
	a.UpdateReservations()
}

// retreatNode picks where a should fall back to: its previous node if
// still adjacent, otherwise any neighbor other than its current next node.
// Neighbors are considered in id order so the choice is deterministic.
func retreatNode(a *fleet.AGV, g *graph.Graph) string {
	if a.PreviousNode != "" && g.AreAdjacent(a.CurrentNode, a.PreviousNode) {
		return a.PreviousNode
	}

	blocked, _ := a.NextNode()
	var candidates []string
	for _, nb := range g.Neighbors(a.CurrentNode) {
		if nb.Neighbor != blocked {
			candidates = append(candidates, nb.Neighbor)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.Strings(candidates)
	return candidates[0]
}
