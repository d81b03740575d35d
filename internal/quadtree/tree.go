package quadtree

import (
	"github.com/san-kum/quadsim/internal/dynamo"
	"github.com/san-kum/quadsim/internal/particle"
	"github.com/san-kum/quadsim/internal/physics"
)

// DefaultMaxDepth bounds subdivision. A 1e12-wide world still resolves
// features of about 4e-3 at this depth.
const DefaultMaxDepth = 48

type SlotKind uint8

const (
	Empty SlotKind = iota
	Leaf
	Internal
)

func (k SlotKind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Leaf:
		return "leaf"
	case Internal:
		return "internal"
	}
	return "unknown"
}

type slot struct {
	kind   SlotKind
	bodies []particle.Particle // one particle, or several for a bucket leaf
	child  *Tree
}

type Tree struct {
	region       dynamo.Region
	totalMass    float64
	centerOfMass dynamo.Vector
	count        int
	level        int
	maxDepth     int
	children     [4]slot
}

type Option func(*Tree)

// WithMaxDepth sets the deepest level at which a subtree may be created.
// Negative values are treated as zero.
func WithMaxDepth(n int) Option {
	return func(t *Tree) {
		if n < 0 {
			n = 0
		}
		t.maxDepth = n
	}
}

func New(region dynamo.Region, opts ...Option) *Tree {
	t := &Tree{region: region, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Insert adds p to the tree. It returns false, leaving the tree untouched,
// when p lies outside the tree's region.
func (t *Tree) Insert(p particle.Particle) bool {
	if !t.region.Contains(p.Position) {
		return false
	}
	t.insert(p)
	return true
}

func (t *Tree) insert(p particle.Particle) {
	t.absorb(p)

	q := t.route(p.Position)
	s := &t.children[q]

	switch s.kind {
	case Empty:
		s.kind = Leaf
		s.bodies = []particle.Particle{p}
	case Leaf:
		sub := t.region.Subregion(q)
		if s.bodies[0].Position == p.Position || t.level >= t.maxDepth || !splittable(sub) {
			s.bodies = append(s.bodies, p)
			return
		}
		child := &Tree{region: sub, level: t.level + 1, maxDepth: t.maxDepth}
		for _, b := range s.bodies {
			child.insert(b)
		}
		child.insert(p)
		*s = slot{kind: Internal, child: child}
	case Internal:
		s.child.insert(p)
	}
}

func (t *Tree) absorb(p particle.Particle) {
	m := t.totalMass + p.Mass
	t.centerOfMass = t.centerOfMass.Scale(t.totalMass).Add(p.Position.Scale(p.Mass)).Scale(1 / m)
	t.totalMass = m
	t.count++
}

// route picks the quadrant by comparing against the center only. Children
// trust their parent's containment check, since a subregion's far edge can
// round below the parent's.
func (t *Tree) route(pos dynamo.Vector) dynamo.Quadrant {
	c := t.region.Center()
	q := dynamo.NW
	if pos.X >= c.X {
		q |= dynamo.NE
	}
	if pos.Y >= c.Y {
		q |= dynamo.SW
	}
	return q
}

// splittable reports whether halving r still yields distinct midlines.
func splittable(r dynamo.Region) bool {
	c := r.Center()
	return c.X > r.Origin.X && c.Y > r.Origin.Y
}

// AccumulateForce returns the velocity increment on p from every particle
// in the tree except p itself, matched by ID.
//
// A node is treated as a single body at its center of mass when
// size/distance <= theta. theta = 0 always opens nodes and reproduces direct
// summation. When the approximated node lies on p's insertion path, p's own
// mass is taken out of the aggregate first; this assumes p was inserted.
func (t *Tree) AccumulateForce(p particle.Particle, law physics.Law, theta float64) physics.Force {
	var f physics.Force
	t.accumulate(physics.BodyOf(p), p, law, theta, t.region.Contains(p.Position), &f)
	return f
}

// accumulate adds t's pull on p to f. onPath reports whether insertion
// routed p through t.
func (t *Tree) accumulate(subject physics.Body, p particle.Particle, law physics.Law, theta float64, onPath bool, f *physics.Force) {
	if t.count == 0 {
		return
	}

	d := t.centerOfMass.Distance(p.Position)
	if d > 0 && t.region.Size()/d <= theta {
		if !onPath {
			f.Add(law.Between(subject, physics.Body{Mass: t.totalMass, Position: t.centerOfMass}))
			return
		}
		if agg, ok := t.aggregateWithout(p); ok {
			f.Add(law.Between(subject, agg))
			return
		}
	}

	route := t.route(p.Position)
	for i := range t.children {
		s := &t.children[i]
		switch s.kind {
		case Leaf:
			for _, b := range s.bodies {
				if b.ID == p.ID {
					continue
				}
				f.Add(law.Between(subject, physics.BodyOf(b)))
			}
		case Internal:
			s.child.accumulate(subject, p, law, theta, onPath && dynamo.Quadrant(i) == route, f)
		}
	}
}

// residualFloor bounds how small the rest of a node may be, relative to its
// total, before removing p's mass by subtraction stops being exact enough.
const residualFloor = 1e-8

// aggregateWithout is the node's aggregate with p removed. It reports false
// when p dominates the node and the node has to be opened instead.
func (t *Tree) aggregateWithout(p particle.Particle) (physics.Body, bool) {
	m := t.totalMass - p.Mass
	if m <= t.totalMass*residualFloor {
		return physics.Body{}, false
	}
	pos := t.centerOfMass.Scale(t.totalMass).Sub(p.Position.Scale(p.Mass)).Scale(1 / m)
	return physics.Body{Mass: m, Position: pos}, true
}

func (t *Tree) Region() dynamo.Region       { return t.region }
func (t *Tree) TotalMass() float64          { return t.totalMass }
func (t *Tree) CenterOfMass() dynamo.Vector { return t.centerOfMass }
func (t *Tree) Len() int                    { return t.count }
func (t *Tree) Level() int                  { return t.level }

func (t *Tree) Slot(q dynamo.Quadrant) SlotKind { return t.children[q].kind }

// Bodies returns the particles stored directly in a leaf slot.
func (t *Tree) Bodies(q dynamo.Quadrant) []particle.Particle {
	return t.children[q].bodies
}

// Child returns the subtree of an internal slot, or nil.
func (t *Tree) Child(q dynamo.Quadrant) *Tree {
	return t.children[q].child
}

// Walk visits t and every subtree depth first. Returning false from fn
// skips the node's children.
func (t *Tree) Walk(fn func(*Tree) bool) {
	if !fn(t) {
		return
	}
	for i := range t.children {
		if c := t.children[i].child; c != nil {
			c.Walk(fn)
		}
	}
}

// Depth is the level of the deepest subtree, zero for a tree without
// internal slots.
func (t *Tree) Depth() int {
	depth := 0
	t.Walk(func(n *Tree) bool {
		if n.level > depth {
			depth = n.level
		}
		return true
	})
	return depth
}

// Nodes counts t and all its subtrees.
func (t *Tree) Nodes() int {
	n := 0
	t.Walk(func(*Tree) bool {
		n++
		return true
	})
	return n
}
