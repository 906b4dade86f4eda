package mapgen

import (
	"math"
	"sort"

	"github.com/openfleet/agvsim/pkg/graph"
	"github.com/openfleet/agvsim/pkg/rng"
	"github.com/openfleet/agvsim/pkg/simerr"
)

const (
	minNodeCount = 5
	maxNodeCount = 200

	canvasPadding  = 50
	minNodeSpacing = 80
	maxAttempts    = 2000

	baseCanvasArea = 800 * 600
	areaPerNode    = minNodeSpacing * minNodeSpacing * 2.5
	canvasAspect   = 4.0 / 3.0
)

// Generate produces a MapData for the given seed string and requested node
// count. The seed determines node placement and edge weighting entirely;
// the same seed and count always yield the same map. N must be in
// [5, 200]; Generate may place fewer than N nodes if rejection sampling
// cannot find room for all of them within the attempt budget — the
// resulting map is still usable.
func Generate(seed string, n int) (graph.MapData, error) {
	if n < minNodeCount || n > maxNodeCount {
		return graph.MapData{}, simerr.New(simerr.KindInvalidConfigValue,
			"node count must be in [%d, %d], got %d", minNodeCount, maxNodeCount, n)
	}

	source := rng.NewSource(rng.SeedFromString(seed))

	width, height := canvasDimensions(n)
	nodes := placeNodes(source, n, width, height)
	edges := connectNodes(source, nodes)

	return graph.MapData{Nodes: nodes, Edges: edges}, nil
}

// canvasDimensions computes the 4:3 canvas sized to comfortably fit n nodes
// at the minimum spacing requirement.
func canvasDimensions(n int) (width, height int) {
	area := math.Max(baseCanvasArea, float64(n)*areaPerNode)
	w := math.Sqrt(area * canvasAspect)
	h := w / canvasAspect
	return int(math.Round(w)), int(math.Round(h))
}

// placeNodes rejection-samples up to n node positions inside a padded box,
// discarding any candidate closer than minNodeSpacing to an already-placed
// node. It gives up after maxAttempts regardless of how many nodes have
// been placed.
func placeNodes(source *rng.Source, n, width, height int) []graph.Node {
	nodes := make([]graph.Node, 0, n)

	minX, maxX := canvasPadding, width-canvasPadding
	minY, maxY := canvasPadding, height-canvasPadding

	for attempt := 0; attempt < maxAttempts && len(nodes) < n; attempt++ {
		x := source.IntRange(minX, maxX)
		y := source.IntRange(minY, maxY)

		if tooClose(nodes, x, y) {
			continue
		}

		id := labelFor(len(nodes))
		nodes = append(nodes, graph.Node{ID: id, X: x, Y: y, Label: id})
	}

	return nodes
}

func tooClose(nodes []graph.Node, x, y int) bool {
	for _, n := range nodes {
		dx := float64(x - n.X)
		dy := float64(y - n.Y)
		if math.Sqrt(dx*dx+dy*dy) < minNodeSpacing {
			return true
		}
	}
	return false
}

// labelFor returns the placement-order label for the i-th node placed:
// A, B, ..., Z, A1, B1, ..., Z1, A2, ...
func labelFor(i int) string {
	letter := rune('A' + i%26)
	suffix := i / 26
	if suffix == 0 {
		return string(letter)
	}
	return string(letter) + itoa(suffix)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// connectNodes attempts to connect each node to its K nearest unconnected
// neighbors, K = 2 plus a one-in-somewhat-often-drawn bonus neighbor. Each
// unordered pair is added at most once. The resulting graph need not be
// connected.
func connectNodes(source *rng.Source, nodes []graph.Node) []graph.Edge {
	edges := []graph.Edge{}
	seen := make(map[graph.EdgeKey]bool)

	for _, n := range nodes {
		k := 2
		if source.Float64() > 0.6 {
			k = 3
		}

		neighbors := nearestTo(n, nodes)
		added := 0
		for _, cand := range neighbors {
			if added >= k {
				break
			}
			key := graph.NewEdgeKey(n.ID, cand.node.ID)
			if seen[key] {
				continue
			}
			seen[key] = true

			weight := int(math.Round(cand.dist * (0.8 + source.Float64()*1.2)))
			if weight < 1 {
				weight = 1
			}
			edges = append(edges, graph.Edge{Source: n.ID, Target: cand.node.ID, Weight: weight})
			added++
		}
	}

	return edges
}

type candidate struct {
	node graph.Node
	dist float64
}

// nearestTo returns every other node sorted by ascending distance from n.
func nearestTo(n graph.Node, nodes []graph.Node) []candidate {
	cands := make([]candidate, 0, len(nodes)-1)
	for _, other := range nodes {
		if other.ID == n.ID {
			continue
		}
		dx := float64(other.X - n.X)
		dy := float64(other.Y - n.Y)
		cands = append(cands, candidate{node: other, dist: math.Sqrt(dx*dx + dy*dy)})
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
	return cands
}
