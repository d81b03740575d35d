package sim

import (
	"context"
	"runtime"

	"github.com/san-kum/quadsim/internal/particle"
	"golang.org/x/sync/errgroup"
)

// minParallel is the particle count below which forces are summed inline.
const minParallel = 64

// forEach calls fn for every index in [0, n), splitting the range into one
// contiguous chunk per worker. fn must only write state owned by its index.
func forEach(n, workers int, fn func(i int)) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if n < minParallel || workers == 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				fn(i)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Seeder builds the initial particle set for one ensemble member.
type Seeder func(seed int64) ([]particle.Particle, error)

// Ensemble runs independent simulations of the same world and parameters,
// one per seed.
type Ensemble struct {
	base      *Simulator
	numRuns   int
	seedStart int64
}

func NewEnsemble(s *Simulator, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{base: s, numRuns: numRuns, seedStart: seedStart}
}

// Run executes every member concurrently. Members run their force loops on
// a single worker and without the base simulator's metrics, which are
// stateful. The first failure cancels the remaining members.
func (e *Ensemble) Run(ctx context.Context, seed Seeder, cfg RunConfig) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			initial, err := seed(e.seedStart + int64(i))
			if err != nil {
				return err
			}

			params := e.base.params
			params.Workers = 1
			s := New(e.base.world, params, WithLogger(e.base.log))

			results[i], err = s.Run(ctx, initial, cfg)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
