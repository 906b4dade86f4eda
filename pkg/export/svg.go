package export

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	svg "github.com/ajstarks/svgo"

	"github.com/openfleet/agvsim/pkg/fleet"
	"github.com/openfleet/agvsim/pkg/graph"
)

// SVGOptions controls the rendered canvas. The zero value is not usable;
// start from DefaultSVGOptions.
type SVGOptions struct {
	Margin     int
	AGVRadius  int
	NodeRadius int
	ShowLabels bool
	ShowLegend bool
	Title      string
}

// DefaultSVGOptions returns sane defaults for a quick render.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		Margin:     40,
		AGVRadius:  9,
		NodeRadius: 6,
		ShowLabels: true,
		ShowLegend: true,
		Title:      "agvsim",
	}
}

// statusFill maps an AGV status to a marker fill color, independent of the
// AGV's own Color (which identifies the vehicle, not its state).
func statusFill(s fleet.Status) string {
	switch s {
	case fleet.StatusIdle:
		return "#9e9e9e"
	case fleet.StatusMoving:
		return "#2e7d32"
	case fleet.StatusWaiting:
		return "#f9a825"
	case fleet.StatusBlocked:
		return "#c62828"
	case fleet.StatusRepathing, fleet.StatusDetour:
		return "#6a1b9a"
	case fleet.StatusCompleted:
		return "#1565c0"
	default:
		return "#000000"
	}
}

// bounds computes the pixel extent of a node set.
func bounds(nodes []graph.Node) (minX, minY, maxX, maxY int) {
	if len(nodes) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = nodes[0].X, nodes[0].Y
	maxX, maxY = nodes[0].X, nodes[0].Y
	for _, n := range nodes[1:] {
		if n.X < minX {
			minX = n.X
		}
		if n.Y < minY {
			minY = n.Y
		}
		if n.X > maxX {
			maxX = n.X
		}
		if n.Y > maxY {
			maxY = n.Y
		}
	}
	return
}

// RenderSVG writes an SVG projection of the graph and the AGVs in snap to w.
// Nodes and edges are drawn at their real map coordinates; AGVs are drawn at
// their continuous (X, Y) position with a heading tick and a fill color
// keyed by status.
func RenderSVG(w io.Writer, g *graph.Graph, snap fleet.Snapshot, opt SVGOptions) {
	ids := g.NodeIDs()
	sort.Strings(ids)
	nodes := make([]graph.Node, 0, len(ids))
	for _, id := range ids {
		n, _ := g.Node(id)
		nodes = append(nodes, n)
	}
	minX, minY, maxX, maxY := bounds(nodes)
	width := (maxX - minX) + 2*opt.Margin
	height := (maxY - minY) + 2*opt.Margin
	if width <= 0 {
		width = 2 * opt.Margin
	}
	if height <= 0 {
		height = 2 * opt.Margin
	}
	offX := opt.Margin - minX
	offY := opt.Margin - minY

	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:#ffffff")
	if opt.Title != "" {
		canvas.Text(opt.Margin, 20, opt.Title, "font-family:sans-serif;font-size:16px;font-weight:bold")
	}

	drawEdges(canvas, g, ids, offX, offY)
	drawNodes(canvas, nodes, offX, offY, opt)
	drawAGVs(canvas, snap, offX, offY, opt)
	if opt.ShowLegend {
		drawLegend(canvas, height-90, opt)
	}

	canvas.End()
}

func drawEdges(canvas *svg.SVG, g *graph.Graph, ids []string, offX, offY int) {
	seen := make(map[graph.EdgeKey]bool)
	for _, id := range ids {
		for _, nb := range g.Neighbors(id) {
			key := graph.NewEdgeKey(id, nb.Neighbor)
			if seen[key] {
				continue
			}
			seen[key] = true
			na, _ := g.Node(id)
			nbNode, _ := g.Node(nb.Neighbor)
			canvas.Line(na.X+offX, na.Y+offY, nbNode.X+offX, nbNode.Y+offY, "stroke:#bdbdbd;stroke-width:2")
		}
	}
}

func drawNodes(canvas *svg.SVG, nodes []graph.Node, offX, offY int, opt SVGOptions) {
	for _, n := range nodes {
		canvas.Circle(n.X+offX, n.Y+offY, opt.NodeRadius, "fill:#424242")
		if opt.ShowLabels {
			label := n.Label
			if label == "" {
				label = n.ID
			}
			canvas.Text(n.X+offX+opt.NodeRadius+3, n.Y+offY+4, label, "font-family:sans-serif;font-size:11px;fill:#212121")
		}
	}
}

func drawAGVs(canvas *svg.SVG, snap fleet.Snapshot, offX, offY int, opt SVGOptions) {
	for _, a := range snap.All() {
		cx, cy := int(a.X)+offX, int(a.Y)+offY
		fill := statusFill(a.Status)
		canvas.Circle(cx, cy, opt.AGVRadius, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:2", fill, a.Color))
		tipX, tipY := headingTip(cx, cy, a.Orientation, opt.AGVRadius+8)
		canvas.Line(cx, cy, tipX, tipY, "stroke:#000000;stroke-width:1.5")
		if opt.ShowLabels {
			canvas.Text(cx+opt.AGVRadius+3, cy-opt.AGVRadius, fmt.Sprintf("#%d %s", a.ID, a.Status), "font-family:sans-serif;font-size:10px;fill:#000000")
		}
	}
}

// headingTip returns the endpoint of a short segment from (cx, cy) pointing
// in the direction of degrees, where 0 degrees is +X and angles increase
// clockwise to match AGV.Orientation's screen-space convention.
func headingTip(cx, cy int, degrees float64, length int) (int, int) {
	rad := degrees * math.Pi / 180
	dx := math.Cos(rad) * float64(length)
	dy := math.Sin(rad) * float64(length)
	return cx + int(dx), cy + int(dy)
}

func drawLegend(canvas *svg.SVG, y int, opt SVGOptions) {
	entries := []struct {
		label string
		color string
	}{
		{"idle", statusFill(fleet.StatusIdle)},
		{"moving", statusFill(fleet.StatusMoving)},
		{"waiting", statusFill(fleet.StatusWaiting)},
		{"blocked", statusFill(fleet.StatusBlocked)},
		{"repathing/detour", statusFill(fleet.StatusRepathing)},
		{"completed", statusFill(fleet.StatusCompleted)},
	}
	x := opt.Margin
	for _, e := range entries {
		canvas.Circle(x, y, 6, "fill:"+e.color)
		canvas.Text(x+12, y+4, e.label, "font-family:sans-serif;font-size:11px;fill:#212121")
		y += 16
	}
}

// SaveSVGToFile renders the graph and snapshot to path.
func SaveSVGToFile(g *graph.Graph, snap fleet.Snapshot, opt SVGOptions, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	RenderSVG(f, g, snap, opt)
	return nil
}
