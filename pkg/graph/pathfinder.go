package graph

import (
	"container/heap"
	"sort"
)

// EdgeKey identifies an undirected edge by its two endpoints, normalized so
// A <= B. It is used to build avoid-edge sets passed into the pathfinder.
type EdgeKey struct {
	A string
	B string
}

// NewEdgeKey builds a normalized EdgeKey from an unordered pair.
func NewEdgeKey(a, b string) EdgeKey {
	if a > b {
		a, b = b, a
	}
	return EdgeKey{A: a, B: b}
}

// FindPath runs a constrained single-source Dijkstra search from start to
// goal. Any node id present in avoidNodes is treated as absent from the
// graph; any undirected edge present in avoidEdges is skipped in both
// directions. The returned sequence excludes the start node — it is the
// sequence of steps to take — and is empty if goal is unreachable.
//
// Tie-breaking: when multiple predecessors yield equal distance, the first
// one discovered wins. Determinism only matters for a fixed graph and
// query; equal-cost alternatives are not disambiguated further.
func (g *Graph) FindPath(start, goal string, avoidNodes map[string]bool, avoidEdges map[EdgeKey]bool) []string {
	if start == goal {
		return nil
	}
	if !g.HasNode(start) || !g.HasNode(goal) || avoidNodes[start] || avoidNodes[goal] {
		return nil
	}

	dist := map[string]float64{start: 0}
	prev := map[string]string{}
	visited := map[string]bool{}

	pq := &priorityQueue{{node: start, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)
		if visited[cur.node] {
			continue
		}
		visited[cur.node] = true

		if cur.node == goal {
			break
		}

		for _, nb := range g.adjacency[cur.node] {
			if avoidNodes[nb.Neighbor] || visited[nb.Neighbor] {
				continue
			}
			if avoidEdges[NewEdgeKey(cur.node, nb.Neighbor)] {
				continue
			}
			alt := dist[cur.node] + float64(nb.Weight)
			if d, ok := dist[nb.Neighbor]; !ok || alt < d {
				dist[nb.Neighbor] = alt
				prev[nb.Neighbor] = cur.node
				heap.Push(pq, pqItem{node: nb.Neighbor, dist: alt})
			}
		}
	}

	if _, reached := dist[goal]; !reached {
		return nil
	}

	return reconstructPath(prev, start, goal)
}

// reconstructPath walks the predecessor map from goal back to start and
// returns the sequence of steps excluding start. Callers must only invoke
// this once dist[goal] is known reachable, so the predecessor chain is
// guaranteed to terminate at start.
func reconstructPath(prev map[string]string, start, goal string) []string {
	path := []string{}
	for node := goal; node != start; node = prev[node] {
		path = append([]string{node}, path...)
	}
	return path
}

// FindAllPaths enumerates up to limit simple (acyclic) paths from start to
// goal via depth-first search, visiting neighbors in ascending edge-weight
// order, and returns them sorted by total cost ascending. The excluded-start
// convention matches FindPath. This is exponential in the worst case; limit
// is the safety valve and callers should prefer FindPath for large graphs,
// reserving this for ranked detour fallback.
func (g *Graph) FindAllPaths(start, goal string, avoidNodes map[string]bool, avoidEdges map[EdgeKey]bool, limit int) [][]string {
	if limit <= 0 {
		limit = 10
	}
	if !g.HasNode(start) || !g.HasNode(goal) || avoidNodes[start] || avoidNodes[goal] {
		return nil
	}

	type found struct {
		path []string
		cost int
	}
	var results []found
	visited := map[string]bool{start: true}
	var path []string

	var dfs func(node string, cost int)
	dfs = func(node string, cost int) {
		if len(results) >= limit {
			return
		}
		if node == goal {
			results = append(results, found{path: append([]string(nil), path...), cost: cost})
			return
		}

		neighbors := append([]neighborEdge(nil), g.adjacency[node]...)
		sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].Weight < neighbors[j].Weight })

		for _, nb := range neighbors {
			if len(results) >= limit {
				return
			}
			if avoidNodes[nb.Neighbor] || visited[nb.Neighbor] {
				continue
			}
			if avoidEdges[NewEdgeKey(node, nb.Neighbor)] {
				continue
			}
			visited[nb.Neighbor] = true
			path = append(path, nb.Neighbor)
			dfs(nb.Neighbor, cost+nb.Weight)
			path = path[:len(path)-1]
			visited[nb.Neighbor] = false
		}
	}

	dfs(start, 0)

	sort.Slice(results, func(i, j int) bool { return results[i].cost < results[j].cost })

	out := make([][]string, len(results))
	for i, r := range results {
		out[i] = r.path
	}
	return out
}

// pqItem is one entry in the Dijkstra priority queue.
type pqItem struct {
	node string
	dist float64
}

// priorityQueue is a min-heap of pqItem ordered by distance, implementing
// container/heap.Interface. A linear-scan priority queue would also be
// adequate at the node counts this simulation targets (N <= 200), but the
// heap keeps FindPath close to textbook Dijkstra.
type priorityQueue []pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool   { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int)        { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}
