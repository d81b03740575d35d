// Package dynamo provides the geometric primitives shared by every part of
// the simulation.
//
//   - [Vector]: 2D value type with guarded normalization
//   - [Region]: half-open axis-aligned rectangle
//   - [Quadrant]: one of the four equal subdivisions of a [Region]
//
// # Coordinates
//
// Coordinates follow screen convention: X grows to the right and Y grows
// downward, so the "north" half of a region is the one with the smaller Y.
//
// # Region membership
//
// A region covers [Origin.X, Origin.X+Width) x [Origin.Y, Origin.Y+Height).
// The far edges are excluded, and a point lying exactly on a quadrant
// midline belongs to the east or south side:
//
//	world := dynamo.NewRegion(dynamo.Vector{}, 700, 700)
//	q, ok := world.QuadrantOf(dynamo.Vector{X: 350, Y: 100}) // NE, true
package dynamo
