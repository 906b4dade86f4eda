package recovery

import (
	"testing"

	"github.com/openfleet/agvsim/pkg/fleet"
	"github.com/openfleet/agvsim/pkg/graph"
)

func corridor() *graph.Graph {
	return graph.Build(graph.MapData{
		Nodes: []graph.Node{
			{ID: "A", X: 0, Y: 0},
			{ID: "B", X: 100, Y: 0},
			{ID: "C", X: 200, Y: 0},
			{ID: "D", X: 300, Y: 0},
		},
		Edges: []graph.Edge{
			{Source: "A", Target: "B", Weight: 100},
			{Source: "B", Target: "C", Weight: 100},
			{Source: "C", Target: "D", Weight: 100},
		},
	})
}

func diamond() *graph.Graph {
	return graph.Build(graph.MapData{
		Nodes: []graph.Node{
			{ID: "A", X: 0, Y: 0},
			{ID: "B", X: 100, Y: 0},
			{ID: "C", X: 200, Y: 0},
			{ID: "D", X: 100, Y: -100},
		},
		Edges: []graph.Edge{
			{Source: "A", Target: "B", Weight: 100},
			{Source: "B", Target: "C", Weight: 100},
			{Source: "A", Target: "D", Weight: 100},
			{Source: "D", Target: "C", Weight: 100},
		},
	})
}

func cfg() fleet.Config {
	return fleet.Config{MaxSpeed: 1.4, Acceleration: 0.10, Deceleration: 0.15, SafetyDistance: 35, HardBorrowLength: 1}
}

func agvAt(id int, node string, path []string, target string) *fleet.AGV {
	a := fleet.New(id, node, 0, 0, "#fff", cfg())
	a.Path = path
	a.TargetNode = target
	a.Status = fleet.StatusMoving
	a.UpdateReservations()
	return a
}

func TestHandleWait_AccumulatesBelowRetryInterval(t *testing.T) {
	g := corridor()
	a := agvAt(1, "A", []string{"B"}, "D")
	blocker := *agvAt(2, "B", []string{"C"}, "D")
	blocker.Status = fleet.StatusMoving

	for i := 0; i < RetryInterval; i++ {
		HandleWait(a, g, blocker)
	}
	if a.Status != fleet.StatusWaiting {
		t.Fatalf("Status = %v, want WAITING before the retry interval elapses", a.Status)
	}
	if a.RetryCount != 0 {
		t.Errorf("RetryCount = %d, want 0 before the timer expires", a.RetryCount)
	}
	if a.CurrentSpeed != 0 {
		t.Errorf("CurrentSpeed = %v, want 0 after repeated deceleration from rest", a.CurrentSpeed)
	}
}

func TestHandleWait_DetoursAfterTimerExpires(t *testing.T) {
	g := diamond()
	a := agvAt(1, "A", []string{"B", "C"}, "C")
	blocker := *agvAt(2, "B", nil, "")
	blocker.Status = fleet.StatusWaiting

	for i := 0; i <= RetryInterval; i++ {
		HandleWait(a, g, blocker)
	}

	if a.RetryCount != 1 {
		t.Errorf("RetryCount = %d, want 1 after the first expiry", a.RetryCount)
	}
	if a.WaitTimer != 0 {
		t.Errorf("WaitTimer = %d, want reset to 0", a.WaitTimer)
	}
	if a.Path[0] == "B" {
		t.Errorf("Path = %v, expected the detour to avoid B", a.Path)
	}
	if a.Status != fleet.StatusDetour {
		t.Errorf("Status = %v, want DETOUR", a.Status)
	}
}

func TestHandleWait_StepBackAfterRetryBudgetWithStuckBlocker(t *testing.T) {
	g := diamond()
	a := agvAt(1, "A", []string{"B", "C"}, "C")
	a.PreviousNode = ""
	blocker := *agvAt(2, "B", nil, "")
	blocker.Status = fleet.StatusWaiting

	// Each retry fires on the (RetryInterval+1)-th consecutive WAIT call, so
	// the step-back fires on the last call of this loop.
	ticks := (RetryInterval + 1) * MaxRetriesPerRank
	for i := 0; i < ticks; i++ {
		HandleWait(a, g, blocker)
	}

	if a.RetryCount != 0 {
		t.Errorf("RetryCount = %d, want reset to 0 after step-back fires", a.RetryCount)
	}
	if a.Status != fleet.StatusDetour && a.Status != fleet.StatusRepathing {
		t.Errorf("Status = %v, want DETOUR or REPATHING after step-back", a.Status)
	}
}

func TestHandleWait_NoDetourFoundStaysWaiting(t *testing.T) {
	g := graph.Build(graph.MapData{
		Nodes: []graph.Node{
			{ID: "A", X: 0, Y: 0},
			{ID: "B", X: 100, Y: 0},
		},
		Edges: []graph.Edge{
			{Source: "A", Target: "B", Weight: 100},
		},
	})
	a := agvAt(1, "A", []string{"B"}, "B")
	blocker := *agvAt(2, "B", nil, "")
	blocker.Status = fleet.StatusMoving

	for i := 0; i <= RetryInterval; i++ {
		HandleWait(a, g, blocker)
	}

	if a.Status != fleet.StatusWaiting {
		t.Errorf("Status = %v, want WAITING when no detour exists", a.Status)
	}
	if len(a.Path) != 1 || a.Path[0] != "B" {
		t.Errorf("Path = %v, should be left untouched when replanning fails", a.Path)
	}
}

func TestHandleHeadOn_AtNodeReplacesPath(t *testing.T) {
	g := diamond()
	a := agvAt(1, "A", []string{"B", "C"}, "C")

	HandleHeadOn(a, g, graph.NewEdgeKey("A", "B"))

	if a.Status != fleet.StatusRepathing {
		t.Fatalf("Status = %v, want REPATHING", a.Status)
	}
	if a.PathRank != 0 {
		t.Errorf("PathRank = %d, want reset to 0", a.PathRank)
	}
	if a.Path[0] == "B" {
		t.Errorf("Path = %v, expected the A-B edge to be avoided", a.Path)
	}
}

func TestHandleHeadOn_MidEdgeTurnsOnEdge(t *testing.T) {
	g := diamond()
	a := agvAt(1, "A", []string{"B", "C"}, "C")
	a.Progress = 0.4
	a.ProgressDistance = 40

	HandleHeadOn(a, g, graph.NewEdgeKey("A", "B"))

	if a.CurrentNode != "B" {
		t.Fatalf("CurrentNode = %q, want B (turn-on-edge swaps to the far end)", a.CurrentNode)
	}
	if a.Progress != 0.6 {
		t.Errorf("Progress = %v, want 0.6 (inverted from 0.4)", a.Progress)
	}
	if len(a.Path) == 0 || a.Path[0] != "A" {
		t.Fatalf("Path = %v, want to prepend the original current node A", a.Path)
	}
	if a.Status != fleet.StatusRepathing {
		t.Errorf("Status = %v, want REPATHING", a.Status)
	}
}

func TestHandleHeadOn_NoPathBlocksAGV(t *testing.T) {
	g := graph.Build(graph.MapData{
		Nodes: []graph.Node{
			{ID: "A", X: 0, Y: 0},
			{ID: "B", X: 100, Y: 0},
		},
		Edges: []graph.Edge{
			{Source: "A", Target: "B", Weight: 100},
		},
	})
	a := agvAt(1, "A", []string{"B"}, "B")

	HandleHeadOn(a, g, graph.NewEdgeKey("A", "B"))

	if a.Status != fleet.StatusBlocked {
		t.Errorf("Status = %v, want BLOCKED when no detour avoids the only edge", a.Status)
	}
}

// TestHandleWait_ReservationBoundHolds checks invariant 3 across a full
// WAIT/detour cycle: reservations never exceed HardBorrowLength.
func TestHandleWait_ReservationBoundHolds(t *testing.T) {
	g := diamond()
	a := agvAt(1, "A", []string{"B", "C"}, "C")
	blocker := *agvAt(2, "B", nil, "")
	blocker.Status = fleet.StatusWaiting

	for i := 0; i < RetryInterval*4; i++ {
		HandleWait(a, g, blocker)
		if len(a.ReservedNodes) > a.Config.HardBorrowLength {
			t.Fatalf("tick %d: ReservedNodes = %v exceeds HardBorrowLength %d", i, a.ReservedNodes, a.Config.HardBorrowLength)
		}
	}
}
