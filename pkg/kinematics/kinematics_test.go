package kinematics

import (
	"math"
	"testing"

	"github.com/openfleet/agvsim/pkg/fleet"
	"github.com/openfleet/agvsim/pkg/graph"
	"pgregory.net/rapid"
)

func straightLine() *graph.Graph {
	return graph.Build(graph.MapData{
		Nodes: []graph.Node{
			{ID: "A", X: 0, Y: 0, Label: "A"},
			{ID: "B", X: 100, Y: 0, Label: "B"},
			{ID: "C", X: 200, Y: 0, Label: "C"},
		},
		Edges: []graph.Edge{
			{Source: "A", Target: "B", Weight: 100},
			{Source: "B", Target: "C", Weight: 100},
		},
	})
}

func cfg() fleet.Config {
	return fleet.Config{MaxSpeed: 1.4, Acceleration: 0.10, Deceleration: 0.15, SafetyDistance: 35, HardBorrowLength: 1}
}

func TestAdvance_AcceleratesTowardMaxSpeed(t *testing.T) {
	g := straightLine()
	a := fleet.New(1, "A", 0, 0, "#fff", cfg())
	a.Path = []string{"B", "C"}
	a.Status = fleet.StatusMoving

	Advance(a, g)
	if a.CurrentSpeed != cfg().Acceleration {
		t.Errorf("first tick speed = %v, want %v", a.CurrentSpeed, cfg().Acceleration)
	}
	if a.Progress <= 0 {
		t.Error("expected some progress after advancing")
	}
}

func TestAdvance_NeverExceedsMaxSpeed(t *testing.T) {
	g := straightLine()
	a := fleet.New(1, "A", 0, 0, "#fff", cfg())
	a.Path = []string{"B", "C"}
	a.Status = fleet.StatusMoving

	for i := 0; i < 1000 && len(a.Path) > 1; i++ {
		Advance(a, g)
		if a.CurrentSpeed > a.Config.MaxSpeed+1e-9 {
			t.Fatalf("tick %d: speed %v exceeds max %v", i, a.CurrentSpeed, a.Config.MaxSpeed)
		}
	}
}

func TestAdvance_ArrivesAndRotatesPath(t *testing.T) {
	g := straightLine()
	a := fleet.New(1, "A", 0, 0, "#fff", cfg())
	a.Path = []string{"B"}
	a.Status = fleet.StatusMoving
	a.Config.HardBorrowLength = 1

	for i := 0; i < 2000 && a.Status != fleet.StatusCompleted; i++ {
		Advance(a, g)
	}

	if a.Status != fleet.StatusCompleted {
		t.Fatalf("AGV never completed after 2000 ticks, status=%v progress=%v", a.Status, a.Progress)
	}
	if a.CurrentNode != "B" || a.CurrentSpeed != 0 {
		t.Errorf("arrival state = node %s speed %v, want B and 0", a.CurrentNode, a.CurrentSpeed)
	}
	if a.X != 100 || a.Y != 0 {
		t.Errorf("arrival position = (%v, %v), want (100, 0)", a.X, a.Y)
	}
	if len(a.ReservedNodes) != 0 {
		t.Errorf("completed AGV must release reservations, got %v", a.ReservedNodes)
	}
}

func TestAdvance_StopsBeforeArrival(t *testing.T) {
	g := straightLine()
	a := fleet.New(1, "A", 0, 0, "#fff", cfg())
	a.Path = []string{"B"}
	a.Status = fleet.StatusMoving

	var lastSpeedBeforeArrival float64
	var remainingBeforeArrival float64
	for i := 0; i < 2000 && a.Status != fleet.StatusCompleted; i++ {
		prevProgress := a.Progress
		prevSpeed := a.CurrentSpeed
		Advance(a, g)
		if a.Status == fleet.StatusCompleted {
			remainingBeforeArrival = 100 * (1 - prevProgress)
			lastSpeedBeforeArrival = prevSpeed
			break
		}
	}

	bound := math.Sqrt(2*0.15*remainingBeforeArrival) + 1.0
	if lastSpeedBeforeArrival > bound {
		t.Errorf("speed before arrival %v exceeds braking bound %v for remaining %v",
			lastSpeedBeforeArrival, bound, remainingBeforeArrival)
	}
}

func TestAdvance_NoPathIsNoOp(t *testing.T) {
	g := straightLine()
	a := fleet.New(1, "A", 0, 0, "#fff", cfg())
	Advance(a, g)
	if a.Progress != 0 || a.CurrentSpeed != 0 {
		t.Error("Advance with no path should be a no-op")
	}
}

func TestAdvance_MissingNodeIsNoOp(t *testing.T) {
	g := straightLine()
	a := fleet.New(1, "A", 0, 0, "#fff", cfg())
	a.Path = []string{"NOPE"}
	Advance(a, g)
	if a.Progress != 0 || a.CurrentSpeed != 0 {
		t.Error("Advance toward an unknown node should be a no-op")
	}
}

// TestProperty_SpeedNeverExceedsBounds checks invariant 5 from the
// engine's testable properties: 0 <= currentSpeed <= maxSpeed, and the
// per-tick delta never exceeds max(acceleration, deceleration).
func TestProperty_SpeedNeverExceedsBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := straightLine()
		c := fleet.Config{
			MaxSpeed:         rapid.Float64Range(0.5, 5).Draw(t, "maxSpeed"),
			Acceleration:     rapid.Float64Range(0.01, 1).Draw(t, "accel"),
			Deceleration:     rapid.Float64Range(0.01, 1).Draw(t, "decel"),
			SafetyDistance:   35,
			HardBorrowLength: 1,
		}
		a := fleet.New(1, "A", 0, 0, "#fff", c)
		a.Path = []string{"B", "C"}
		a.Status = fleet.StatusMoving

		maxDelta := math.Max(c.Acceleration, c.Deceleration)
		for i := 0; i < 200 && len(a.Path) > 0; i++ {
			prevSpeed := a.CurrentSpeed
			Advance(a, g)
			if a.CurrentSpeed < -1e-9 || a.CurrentSpeed > c.MaxSpeed+1e-9 {
				t.Fatalf("tick %d: speed %v out of bounds [0, %v]", i, a.CurrentSpeed, c.MaxSpeed)
			}
			if math.Abs(a.CurrentSpeed-prevSpeed) > maxDelta+1e-9 {
				t.Fatalf("tick %d: speed delta %v exceeds max(accel, decel) %v",
					i, math.Abs(a.CurrentSpeed-prevSpeed), maxDelta)
			}
		}
	})
}

// TestProperty_NoTeleportation checks invariant 4: displacement per tick
// never exceeds currentSpeed by more than the snap-to-arrival epsilon.
func TestProperty_NoTeleportation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := straightLine()
		a := fleet.New(1, "A", 0, 0, "#fff", cfg())
		a.Path = []string{"B", "C"}
		a.Status = fleet.StatusMoving

		for i := 0; i < 500 && len(a.Path) > 0; i++ {
			prevX, prevY, prevSpeed := a.X, a.Y, a.CurrentSpeed
			Advance(a, g)
			displacement := math.Hypot(a.X-prevX, a.Y-prevY)
			if displacement > prevSpeed+10+1e-9 {
				t.Fatalf("tick %d: displacement %v exceeds speed %v + snap epsilon", i, displacement, prevSpeed)
			}
		}
	})
}
