// Package export renders a read-only projection of a fleet snapshot for
// external collaborators that need something to look at outside the
// interactive viewport: an SVG render of the live graph and AGVs, and a
// plain JSON dump of the same data. Neither format feeds back into the
// simulation; export is output-only.
package export
