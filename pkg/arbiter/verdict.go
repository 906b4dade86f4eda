package arbiter

import "github.com/openfleet/agvsim/pkg/graph"

// Action is the arbitration outcome for one AGV on one tick.
type Action int

const (
	ActionMove Action = iota
	ActionWait
	ActionRepathHeadOn
)

func (a Action) String() string {
	switch a {
	case ActionMove:
		return "MOVE"
	case ActionWait:
		return "WAIT"
	case ActionRepathHeadOn:
		return "REPATH_HEAD_ON"
	default:
		return "UNKNOWN"
	}
}

// Verdict is the result of arbitrating one AGV against the fleet snapshot.
type Verdict struct {
	Action Action
	Reason string

	// HasBlocker and BlockerID identify the other AGV responsible for a
	// WAIT or REPATH_HEAD_ON verdict, when applicable.
	HasBlocker bool
	BlockerID  int

	// HasAvoidEdge and AvoidEdge carry the offending edge a
	// REPATH_HEAD_ON verdict must route around.
	HasAvoidEdge bool
	AvoidEdge    graph.EdgeKey
}

func moveVerdict() Verdict {
	return Verdict{Action: ActionMove}
}

func waitVerdict(reason string, blockerID int) Verdict {
	return Verdict{Action: ActionWait, Reason: reason, HasBlocker: true, BlockerID: blockerID}
}

func repathHeadOnVerdict(blockerID int, avoid graph.EdgeKey) Verdict {
	return Verdict{
		Action:       ActionRepathHeadOn,
		Reason:       "Head-On Collision",
		HasBlocker:   true,
		BlockerID:    blockerID,
		HasAvoidEdge: true,
		AvoidEdge:    avoid,
	}
}
