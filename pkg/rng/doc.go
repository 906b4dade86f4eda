// Package rng provides the deterministic pseudo-random generator used to seed
// map generation and auto-pilot decisions in the AGV fleet simulation.
//
// # Overview
//
// The engine must reproduce byte-identical maps and auto-pilot choices across
// independent implementations given the same seed string. This rules out
// math/rand (its algorithm and stream are not specified across Go versions,
// let alone across languages) in favor of a small, fully-specified 32-bit
// generator.
//
// # Seed Derivation
//
// A configuration seed string is reduced to a 32-bit integer using the
// polynomial hash:
//
//	h = (h*31 + c) for each byte c, truncated to 32 bits, then absolute value
//
// # Generator
//
// Each draw runs the mixing steps:
//
//	t = (state += 0x6D2B79F5)
//	t = (t ^ (t >> 15)) * (t | 1)
//	t ^= t + (t ^ (t >> 7)) * (t | 61)
//	return ((t ^ (t >> 14)) >> 0) / 2^32
//
// producing a float64 in [0, 1). This is the mulberry32 generator; it is not
// cryptographically secure and must never be used outside simulation.
//
// # Usage
//
//	source := rng.NewSource(rng.SeedFromString("warehouse-42"))
//	x := source.Float64()
//	i := source.IntRange(0, 9)
//
// # Thread Safety
//
// A Source is not safe for concurrent use. The engine owns a single Source
// and draws from it only during its own tick or command-handling code path.
package rng
