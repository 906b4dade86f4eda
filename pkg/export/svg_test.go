package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/openfleet/agvsim/pkg/fleet"
	"github.com/openfleet/agvsim/pkg/graph"
)

func TestRenderSVG_ProducesWellFormedDocument(t *testing.T) {
	g := graph.Build(testMap())
	cfg := fleet.Config{MaxSpeed: 1.4, HardBorrowLength: 1}
	a := fleet.New(1, "A", 10, 0, "#ff00ff", cfg)
	a.Status = fleet.StatusMoving
	snap := fleet.NewSnapshot(0, []*fleet.AGV{a})

	var buf bytes.Buffer
	RenderSVG(&buf, g, snap, DefaultSVGOptions())
	out := buf.String()

	if !strings.Contains(out, "<svg") {
		t.Fatalf("output missing <svg> root element: %s", out)
	}
	if !strings.Contains(out, "</svg>") {
		t.Errorf("output missing closing </svg>: %s", out)
	}
}

func TestRenderSVG_EmptyGraphStillProducesCanvas(t *testing.T) {
	g := graph.Build(graph.MapData{})
	snap := fleet.NewSnapshot(0, nil)

	var buf bytes.Buffer
	RenderSVG(&buf, g, snap, DefaultSVGOptions())

	if !strings.Contains(buf.String(), "<svg") {
		t.Errorf("expected a canvas even for an empty graph")
	}
}

func TestHeadingTip_ZeroDegreesPointsPositiveX(t *testing.T) {
	x, y := headingTip(0, 0, 0, 10)
	if x <= 0 {
		t.Errorf("x = %d, want > 0 at heading 0", x)
	}
	if y != 0 {
		t.Errorf("y = %d, want 0 at heading 0", y)
	}
}

func TestSaveSVGToFile_WritesFile(t *testing.T) {
	g := graph.Build(testMap())
	snap := fleet.NewSnapshot(0, nil)
	path := t.TempDir() + "/graph.svg"
	if err := SaveSVGToFile(g, snap, DefaultSVGOptions(), path); err != nil {
		t.Fatalf("SaveSVGToFile: %v", err)
	}
}
