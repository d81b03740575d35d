// Package quadtree implements the Barnes-Hut spatial index.
//
// A [Tree] covers a [dynamo.Region] and owns four child slots, one per
// quadrant. Each slot is empty, a leaf holding a particle, or an internal
// slot owning a subtree over the quadrant's subregion. Every node keeps the
// total mass and center of mass of the particles routed through it, so a
// distant subtree can stand in for all of its particles as one body.
//
// Trees are built once per step and only read afterwards:
//
//	t := quadtree.New(world)
//	for _, p := range particles {
//		t.Insert(p)
//	}
//	f := t.AccumulateForce(particles[0], law, 0.5)
//
// # Degenerate input
//
// Two particles at the same position cannot be separated by subdivision.
// Such particles share one leaf (a bucket), as do particles that meet below
// the depth cutoff set with [WithMaxDepth]. Bucket members are summed
// exactly, one force evaluation each.
//
// # Thread safety
//
// Insert must not run concurrently with anything else. Once insertion is
// finished, AccumulateForce may be called from any number of goroutines.
package quadtree
