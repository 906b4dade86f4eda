// Package graph provides the warehouse floor topology: a weighted undirected
// graph of nodes and edges, plus the pathfinding queries the rest of the
// simulation runs against it — a constrained single-source shortest path and
// a bounded enumeration of ranked simple-path alternatives used for detour
// planning. This package defines the graph representation and pathfinder,
// independent of any particular vehicle or fleet state.
package graph
