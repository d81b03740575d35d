package quadtree_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/quadsim/internal/dynamo"
	"github.com/san-kum/quadsim/internal/particle"
	"github.com/san-kum/quadsim/internal/physics"
	"github.com/san-kum/quadsim/internal/quadtree"
)

func at(id uint64, mass, x, y float64) particle.Particle {
	return particle.Particle{ID: id, Mass: mass, Diameter: 1, Position: dynamo.Vector{X: x, Y: y}}
}

func build(region dynamo.Region, ps []particle.Particle, opts ...quadtree.Option) *quadtree.Tree {
	t := quadtree.New(region, opts...)
	for _, p := range ps {
		Expect(t.Insert(p)).To(BeTrue(), "insert %v", p)
	}
	return t
}

// members collects every particle stored below t.
func members(t *quadtree.Tree) []particle.Particle {
	var out []particle.Particle
	for _, q := range dynamo.Quadrants {
		switch t.Slot(q) {
		case quadtree.Leaf:
			out = append(out, t.Bodies(q)...)
		case quadtree.Internal:
			out = append(out, members(t.Child(q))...)
		}
	}
	return out
}

var _ = Describe("Tree", func() {
	var world dynamo.Region

	BeforeEach(func() {
		world = dynamo.NewRegion(dynamo.Vector{}, 100, 100)
	})

	Describe("a new tree", func() {
		It("starts empty", func() {
			t := quadtree.New(world)
			Expect(t.TotalMass()).To(BeZero())
			Expect(t.CenterOfMass()).To(Equal(dynamo.Vector{}))
			Expect(t.Len()).To(BeZero())
			for _, q := range dynamo.Quadrants {
				Expect(t.Slot(q)).To(Equal(quadtree.Empty))
			}
		})
	})

	Describe("Insert", func() {
		It("places one particle per quadrant as leaves", func() {
			t := build(world, []particle.Particle{
				at(1, 1, 10, 10),
				at(2, 1, 90, 10),
				at(3, 1, 10, 90),
				at(4, 1, 90, 90),
			})

			Expect(t.Slot(dynamo.NW)).To(Equal(quadtree.Leaf))
			Expect(t.Slot(dynamo.NE)).To(Equal(quadtree.Leaf))
			Expect(t.Slot(dynamo.SW)).To(Equal(quadtree.Leaf))
			Expect(t.Slot(dynamo.SE)).To(Equal(quadtree.Leaf))
			Expect(t.Bodies(dynamo.NE)[0].ID).To(Equal(uint64(2)))
			Expect(t.TotalMass()).To(Equal(4.0))
		})

		It("puts four equal corner masses' center at the region center", func() {
			t := build(world, []particle.Particle{
				at(1, 5, 0, 0),
				at(2, 5, 99, 0),
				at(3, 5, 0, 99),
				at(4, 5, 99, 99),
			})
			c := t.CenterOfMass()
			Expect(c.X).To(BeNumerically("~", 49.5, 1e-9))
			Expect(c.Y).To(BeNumerically("~", 49.5, 1e-9))

			inset := build(world, []particle.Particle{
				at(1, 1, 10, 10),
				at(2, 1, 90, 10),
				at(3, 1, 10, 90),
				at(4, 1, 90, 90),
			})
			Expect(inset.CenterOfMass().ApproxEqual(world.Center(), 1e-9)).To(BeTrue())
		})

		It("turns an occupied leaf into a subtree holding both particles", func() {
			t := build(world, []particle.Particle{
				at(1, 2, 10, 10),
				at(2, 3, 30, 30),
			})

			Expect(t.Slot(dynamo.NW)).To(Equal(quadtree.Internal))
			child := t.Child(dynamo.NW)
			Expect(child.Region()).To(Equal(dynamo.NewRegion(dynamo.Vector{}, 50, 50)))
			Expect(child.TotalMass()).To(Equal(5.0))
			Expect(child.Level()).To(Equal(1))
			Expect(child.Slot(dynamo.NW)).To(Equal(quadtree.Leaf))
			Expect(child.Slot(dynamo.SE)).To(Equal(quadtree.Leaf))

			want := dynamo.Vector{X: (2*10 + 3*30) / 5.0, Y: (2*10 + 3*30) / 5.0}
			Expect(t.CenterOfMass().ApproxEqual(want, 1e-12)).To(BeTrue())
			Expect(child.CenterOfMass().ApproxEqual(want, 1e-12)).To(BeTrue())
		})

		It("subdivides as deep as needed to separate close particles", func() {
			t := build(world, []particle.Particle{
				at(1, 1, 1, 1),
				at(2, 1, 1.2, 1.2),
			})
			Expect(t.Depth()).To(BeNumerically(">=", 7))
			Expect(members(t)).To(HaveLen(2))
		})

		It("drops particles outside the region and leaves the tree untouched", func() {
			// Tree-level behaviour only: the step driver clamps or rejects
			// such particles before they get here.
			t := quadtree.New(world)
			Expect(t.Insert(at(1, 1, -1, 50))).To(BeFalse())
			Expect(t.Insert(at(2, 1, 100, 50))).To(BeFalse())
			Expect(t.TotalMass()).To(BeZero())
			Expect(t.Len()).To(BeZero())
		})

		It("keeps every node's aggregate equal to the particles below it", func() {
			gen := particle.NewSeededGenerator(11)
			ps, err := gen.Many(500, world, 100, 90, 1)
			Expect(err).NotTo(HaveOccurred())

			t := build(world, ps)

			sum := 0.0
			for _, p := range ps {
				sum += p.Mass
			}
			Expect(t.TotalMass()).To(BeNumerically("~", sum, sum*1e-9))
			Expect(t.Len()).To(Equal(len(ps)))

			t.Walk(func(n *quadtree.Tree) bool {
				below := members(n)
				com, mass := physics.CenterOfMass(below)
				Expect(n.Len()).To(Equal(len(below)))
				Expect(n.TotalMass()).To(BeNumerically("~", mass, mass*1e-9))
				Expect(n.CenterOfMass().ApproxEqual(com, 1e-9)).To(BeTrue())
				for _, p := range below {
					Expect(n.Region().Contains(p.Position)).To(BeTrue())
				}
				return true
			})
		})

		Context("with coincident particles", func() {
			It("stores them in one bucket leaf without subdividing", func() {
				t := build(world, []particle.Particle{
					at(1, 1, 42, 42),
					at(2, 1, 42, 42),
					at(3, 1, 42, 42),
				})
				Expect(t.Depth()).To(BeZero())
				Expect(t.Slot(dynamo.NW)).To(Equal(quadtree.Leaf))
				Expect(t.Bodies(dynamo.NW)).To(HaveLen(3))
				Expect(t.TotalMass()).To(Equal(3.0))
			})

			It("still separates a later particle from the bucket", func() {
				t := build(world, []particle.Particle{
					at(1, 1, 42, 42),
					at(2, 1, 42, 42),
					at(3, 1, 10, 10),
				})
				Expect(t.Slot(dynamo.NW)).To(Equal(quadtree.Internal))
				Expect(members(t)).To(HaveLen(3))
			})

			It("stops at the depth cutoff for near-coincident particles", func() {
				x := 42.0
				t := build(world, []particle.Particle{
					at(1, 1, x, x),
					at(2, 1, math.Nextafter(x, 100), x),
					at(3, 1, x, math.Nextafter(x, 100)),
				}, quadtree.WithMaxDepth(3))
				Expect(t.Depth()).To(BeNumerically("<=", 3))
				Expect(members(t)).To(HaveLen(3))
			})

			It("terminates with the default cutoff too", func() {
				x := 42.0
				t := build(world, []particle.Particle{
					at(1, 1, x, x),
					at(2, 1, math.Nextafter(x, 100), math.Nextafter(x, 100)),
				})
				Expect(t.Depth()).To(BeNumerically("<=", quadtree.DefaultMaxDepth))
				Expect(members(t)).To(HaveLen(2))
			})
		})
	})

	Describe("AccumulateForce", func() {
		var law physics.Law

		BeforeEach(func() {
			law = physics.Law{Gravity: 1, Epsilon: 0.5, Scale: 1}
		})

		It("matches direct summation when every node is opened", func() {
			gen := particle.NewSeededGenerator(5)
			ps, err := gen.Many(8, world, 10, 50, 1)
			Expect(err).NotTo(HaveOccurred())
			t := build(world, ps)

			for _, p := range ps {
				got := t.AccumulateForce(p, law, 0)
				want := physics.DirectAccumulate(p, ps, law)
				Expect(got.Interactions).To(Equal(len(ps) - 1))
				Expect(got.Delta.ApproxEqual(want.Delta, 1e-12*(1+want.Delta.Magnitude()))).To(BeTrue(),
					"particle %d: tree %v, direct %v", p.ID, got.Delta, want.Delta)
			}
		})

		It("uses a single aggregate body per particle with an infinite opening angle", func() {
			gen := particle.NewSeededGenerator(9)
			ps, err := gen.Many(64, world, 10, 50, 1)
			Expect(err).NotTo(HaveOccurred())
			t := build(world, ps)

			for _, p := range ps {
				f := t.AccumulateForce(p, law, math.Inf(1))
				Expect(f.Interactions).To(Equal(1))
				Expect(f.Delta.IsFinite()).To(BeTrue())
			}
		})

		It("excludes the aggregate's own contribution when approximating", func() {
			a := at(1, 1, 20, 20)
			b := at(2, 3, 80, 80)
			t := build(world, []particle.Particle{a, b})

			got := t.AccumulateForce(a, law, math.Inf(1))
			want := law.Between(physics.BodyOf(a), physics.BodyOf(b))
			Expect(got.Interactions).To(Equal(1))
			Expect(got.Delta.ApproxEqual(want, 1e-12)).To(BeTrue())
		})

		It("does not attract a lone particle to itself", func() {
			p := at(1, 1, 20, 20)
			t := build(world, []particle.Particle{p})
			for _, theta := range []float64{0, 0.5, math.Inf(1)} {
				f := t.AccumulateForce(p, law, theta)
				Expect(f.Delta.IsZero()).To(BeTrue())
				Expect(f.Interactions).To(BeZero())
			}
		})

		It("gives distinct coincident particles zero mutual force, never NaN", func() {
			unsoftened := physics.Law{Gravity: 1, Epsilon: 0, Scale: 1}
			a := at(1, 1, 30, 30)
			b := at(2, 1, 30, 30)
			t := build(world, []particle.Particle{a, b})

			f := t.AccumulateForce(a, unsoftened, 0)
			Expect(f.Interactions).To(Equal(1))
			Expect(f.Delta.IsZero()).To(BeTrue())
		})

		It("opens nodes a heavy particle dominates instead of losing the rest", func() {
			for _, big := range []float64{1e6, 1e15, 1e17} {
				heavy := at(1, big, 10, 10)
				light := at(2, 1, 90, 90)
				ps := []particle.Particle{heavy, light}
				t := build(world, ps)

				got := t.AccumulateForce(heavy, law, math.Inf(1))
				want := physics.DirectAccumulate(heavy, ps, law)
				Expect(got.Interactions).To(Equal(1), "mass %g", big)
				Expect(got.Delta.ApproxEqual(want.Delta, 1e-9*want.Delta.Magnitude())).To(BeTrue(),
					"mass %g: tree %v, direct %v", big, got.Delta, want.Delta)

				got = t.AccumulateForce(light, law, math.Inf(1))
				want = physics.DirectAccumulate(light, ps, law)
				Expect(got.Delta.ApproxEqual(want.Delta, 1e-9*want.Delta.Magnitude())).To(BeTrue(),
					"mass %g: tree %v, direct %v", big, got.Delta, want.Delta)
			}
		})

		It("removes a particle's own mass along the path it was inserted by", func() {
			// the east child's far edge rounds to just below the parent's,
			// so the subject is routed into a child that does not contain it
			region := dynamo.NewRegion(dynamo.Vector{X: 0.3, Y: 0}, 0.7, 0.7)
			edge := at(1, 1, math.Nextafter(1, 0), 0.1)
			heavy := at(2, 100, 0.65, 0.34)
			t := build(region, []particle.Particle{edge, heavy})

			ne := t.Child(dynamo.NE)
			Expect(ne).NotTo(BeNil())
			Expect(ne.Region().Contains(edge.Position)).To(BeFalse())

			got := t.AccumulateForce(edge, law, 0.9)
			want := law.Between(physics.BodyOf(edge), physics.BodyOf(heavy))
			Expect(got.Interactions).To(Equal(1))
			Expect(got.Delta.ApproxEqual(want, 1e-9*want.Magnitude())).To(BeTrue(),
				"tree %v, direct %v", got.Delta, want)
		})

		It("needs fewer evaluations than direct summation for large sets", func() {
			big := dynamo.NewRegion(dynamo.Vector{}, 1000, 1000)
			gen := particle.NewSeededGenerator(21)
			ps, err := gen.Many(2000, big, 10, 10, 1)
			Expect(err).NotTo(HaveOccurred())
			t := build(big, ps)

			total := 0
			for _, p := range ps {
				total += t.AccumulateForce(p, law, 0.5).Interactions
			}
			mean := float64(total) / float64(len(ps))
			Expect(mean).To(BeNumerically("<", float64(len(ps)-1)/4))
		})

		It("approaches direct summation as theta shrinks", func() {
			gen := particle.NewSeededGenerator(33)
			ps, err := gen.Many(200, world, 10, 20, 1)
			Expect(err).NotTo(HaveOccurred())
			t := build(world, ps)

			errAt := func(theta float64) float64 {
				worst := 0.0
				for _, p := range ps {
					got := t.AccumulateForce(p, law, theta).Delta
					want := physics.DirectAccumulate(p, ps, law).Delta
					worst = math.Max(worst, got.Distance(want)/want.Magnitude())
				}
				return worst
			}
			coarse, fine := errAt(1.0), errAt(0.2)
			Expect(fine).To(BeNumerically("<=", coarse))
			Expect(errAt(1e-9)).To(BeNumerically("<", 1e-9))
		})
	})
})
