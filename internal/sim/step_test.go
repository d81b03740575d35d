package sim

import (
	"math"
	"testing"

	"github.com/san-kum/quadsim/internal/dynamo"
	"github.com/san-kum/quadsim/internal/particle"
	"github.com/san-kum/quadsim/internal/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var world = dynamo.NewRegion(dynamo.Vector{}, 700, 700)

func testParams() Params {
	p := DefaultParams()
	p.Law = physics.Law{Gravity: 1, Epsilon: 1, Scale: 1}
	return p
}

func generate(t testing.TB, seed int64, n int) []particle.Particle {
	t.Helper()
	ps, err := particle.NewSeededGenerator(seed).Many(n, world, 100, 10, 10)
	require.NoError(t, err)
	return ps
}

func TestStep_PreservesOrderAndLength(t *testing.T) {
	ps := generate(t, 1, 100)
	out, _, err := Step(ps, world, testParams())
	require.NoError(t, err)
	require.Len(t, out, len(ps))
	for i := range ps {
		assert.Equal(t, ps[i].ID, out[i].ID)
		assert.Equal(t, ps[i].Mass, out[i].Mass)
		assert.Equal(t, ps[i].Diameter, out[i].Diameter)
		assert.Equal(t, ps[i].Color, out[i].Color)
	}
}

func TestStep_DoesNotMutateInput(t *testing.T) {
	ps := generate(t, 2, 50)
	before := make([]particle.Particle, len(ps))
	copy(before, ps)

	_, _, err := Step(ps, world, testParams())
	require.NoError(t, err)
	assert.Equal(t, before, ps)
}

func TestStep_ZeroGravity(t *testing.T) {
	ps := generate(t, 3, 40)
	for i := range ps {
		ps[i].Velocity = dynamo.Vector{X: float64(i%5) - 2, Y: 0.25 * float64(i%3)}
	}
	params := testParams()
	params.Law.Gravity = 0

	out, _, err := Step(ps, world, params)
	require.NoError(t, err)
	for i := range ps {
		assert.Equal(t, ps[i].Velocity, out[i].Velocity)
		assert.Equal(t, ps[i].Position.Add(ps[i].Velocity), out[i].Position)
	}
}

func TestStep_SmallOpeningAngleMatchesDirect(t *testing.T) {
	ps := generate(t, 4, 8)

	exact := testParams()
	exact.Method = Direct
	want, _, err := Step(ps, world, exact)
	require.NoError(t, err)

	for _, theta := range []float64{0, 1e-9} {
		params := testParams()
		params.OpeningAngle = theta
		got, _, err := Step(ps, world, params)
		require.NoError(t, err)

		for i := range want {
			assert.True(t, got[i].Velocity.ApproxEqual(want[i].Velocity, 1e-6),
				"theta %g particle %d: %v vs %v", theta, i, got[i].Velocity, want[i].Velocity)
			assert.True(t, got[i].Position.ApproxEqual(want[i].Position, 1e-6))
		}
	}
}

func TestStep_InfiniteOpeningAngleUsesOneBodyPerParticle(t *testing.T) {
	ps := generate(t, 5, 200)
	params := testParams()
	params.OpeningAngle = math.Inf(1)

	_, stats, err := Step(ps, world, params)
	require.NoError(t, err)
	assert.Equal(t, len(ps), stats.Interactions)
	assert.Equal(t, 1.0, stats.MeanInteractions(len(ps)))
}

func TestStep_DirectMethodCountsAllPairs(t *testing.T) {
	ps := generate(t, 6, 30)
	params := testParams()
	params.Method = Direct

	_, stats, err := Step(ps, world, params)
	require.NoError(t, err)
	assert.Equal(t, 30*29, stats.Interactions)
	assert.Zero(t, stats.TreeNodes)
}

func TestStep_IndependentOfWorkerCount(t *testing.T) {
	ps := generate(t, 7, 500)

	serial := testParams()
	serial.Workers = 1
	a, _, err := Step(ps, world, serial)
	require.NoError(t, err)

	parallel := testParams()
	parallel.Workers = 8
	b, _, err := Step(ps, world, parallel)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestStep_Deterministic(t *testing.T) {
	ps := generate(t, 8, 300)
	a, _, err := Step(ps, world, testParams())
	require.NoError(t, err)
	b, _, err := Step(ps, world, testParams())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestStep_PairAttracts(t *testing.T) {
	ids := &particle.IDSource{}
	a, err := particle.New(ids, 1e30, 1, dynamo.Vector{X: 100, Y: 100}, dynamo.Vector{}, particle.Color{})
	require.NoError(t, err)
	b, err := particle.New(ids, 1e30, 1, dynamo.Vector{X: 103, Y: 104}, dynamo.Vector{}, particle.Color{})
	require.NoError(t, err)

	params := testParams()
	params.Law = physics.Law{Gravity: 6.6743e-11, Epsilon: 0, Scale: 1}
	params.Bounds = Reject

	out, _, err := Step([]particle.Particle{a, b}, dynamo.NewRegion(dynamo.Vector{}, 1e20, 1e20), params)
	require.NoError(t, err)

	v := out[0].Velocity
	require.True(t, v.IsFinite())
	dir := v.Normalize()
	assert.InDelta(t, 0.6, dir.X, 1e-12)
	assert.InDelta(t, 0.8, dir.Y, 1e-12)
	assert.InEpsilon(t, 6.6743e-11*1e30/125, v.Magnitude(), 1e-9)

	// equal masses: equal and opposite increments
	assert.True(t, out[1].Velocity.ApproxEqual(v.Scale(-1), v.Magnitude()*1e-12))
}

func TestStep_CoincidentParticlesStayFinite(t *testing.T) {
	ps := []particle.Particle{
		{ID: 1, Mass: 1, Diameter: 1, Position: dynamo.Vector{X: 10, Y: 10}},
		{ID: 2, Mass: 1, Diameter: 1, Position: dynamo.Vector{X: 10, Y: 10}},
		{ID: 3, Mass: 1, Diameter: 1, Position: dynamo.Vector{X: 10, Y: 10}},
		{ID: 4, Mass: 1, Diameter: 1, Position: dynamo.Vector{X: 20, Y: 10}},
	}
	params := testParams()
	params.Law.Epsilon = 0

	out, _, err := Step(ps, world, params)
	require.NoError(t, err)
	for _, p := range out {
		assert.True(t, p.Position.IsFinite())
		assert.True(t, p.Velocity.IsFinite())
	}
}

func TestStep_BoundsPolicy(t *testing.T) {
	ps := []particle.Particle{
		{ID: 1, Mass: 1, Diameter: 1, Position: dynamo.Vector{X: 10, Y: 10}},
		{ID: 2, Mass: 1, Diameter: 1, Position: dynamo.Vector{X: 900, Y: -5}},
	}
	params := testParams()
	params.Law.Gravity = 0

	t.Run("clamp", func(t *testing.T) {
		params.Bounds = Clamp
		out, stats, err := Step(ps, world, params)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Clamped)
		assert.True(t, world.Contains(out[1].Position), "clamped particle must stay in the index")
		assert.Equal(t, 0.0, out[1].Position.Y)
	})

	t.Run("reject", func(t *testing.T) {
		params.Bounds = Reject
		_, _, err := Step(ps, world, params)
		assert.ErrorIs(t, err, dynamo.ErrOutOfBounds)
	})

	t.Run("clamped particle still feels and exerts force", func(t *testing.T) {
		p := testParams()
		p.Bounds = Clamp
		out, stats, err := Step(ps, world, p)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Interactions)
		assert.NotZero(t, out[0].Velocity.X)
	})
}

func TestStep_RejectsBadInput(t *testing.T) {
	good := generate(t, 9, 3)

	tests := []struct {
		name   string
		mutate func(ps []particle.Particle, p *Params, w *dynamo.Region)
		want   error
	}{
		{"negative gravity", func(_ []particle.Particle, p *Params, _ *dynamo.Region) { p.Law.Gravity = -1 }, dynamo.ErrParameterBounds},
		{"negative epsilon", func(_ []particle.Particle, p *Params, _ *dynamo.Region) { p.Law.Epsilon = -1 }, dynamo.ErrParameterBounds},
		{"NaN opening angle", func(_ []particle.Particle, p *Params, _ *dynamo.Region) { p.OpeningAngle = math.NaN() }, dynamo.ErrParameterBounds},
		{"unknown method", func(_ []particle.Particle, p *Params, _ *dynamo.Region) { p.Method = "fmm" }, dynamo.ErrParameterBounds},
		{"empty world", func(_ []particle.Particle, _ *Params, w *dynamo.Region) { w.Width = 0 }, dynamo.ErrEmptyWorld},
		{"zero mass", func(ps []particle.Particle, _ *Params, _ *dynamo.Region) { ps[1].Mass = 0 }, dynamo.ErrParameterBounds},
		{"NaN velocity", func(ps []particle.Particle, _ *Params, _ *dynamo.Region) { ps[2].Velocity.X = math.NaN() }, dynamo.ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := make([]particle.Particle, len(good))
			copy(ps, good)
			params := testParams()
			w := world
			tt.mutate(ps, &params, &w)

			_, _, err := Step(ps, w, params)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStep_Empty(t *testing.T) {
	out, stats, err := Step(nil, world, testParams())
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, stats.Interactions)
}

func BenchmarkStep_BarnesHut1000(b *testing.B) {
	ps := generate(b, 1, 1000)
	params := testParams()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = Step(ps, world, params)
	}
}

func BenchmarkStep_Direct1000(b *testing.B) {
	ps := generate(b, 1, 1000)
	params := testParams()
	params.Method = Direct

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = Step(ps, world, params)
	}
}
