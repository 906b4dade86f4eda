// Package mapgen builds a warehouse floor map: a set of nodes placed by
// Poisson-like rejection sampling over a canvas sized to the requested node
// count, and a sparse weighted undirected graph connecting each node to its
// nearest neighbors. Generation is deterministic for a given seed and node
// count, driven entirely by the package's own rng.Source.
package mapgen
