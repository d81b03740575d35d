package dynamo

import (
	"errors"
	"math"
	"testing"
)

func TestRegion_QuadrantOf(t *testing.T) {
	r := NewRegion(Vector{}, 100, 100)

	tests := []struct {
		name string
		p    Vector
		want Quadrant
	}{
		{"nw", Vector{25, 25}, NW},
		{"ne", Vector{75, 25}, NE},
		{"sw", Vector{25, 75}, SW},
		{"se", Vector{75, 75}, SE},
		{"origin", Vector{0, 0}, NW},
		{"vertical midline", Vector{50, 10}, NE},
		{"horizontal midline", Vector{10, 50}, SW},
		{"center", Vector{50, 50}, SE},
		{"just below center", Vector{math.Nextafter(50, 0), math.Nextafter(50, 0)}, NW},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.QuadrantOf(tt.p)
			if !ok {
				t.Fatalf("QuadrantOf(%v) reported outside", tt.p)
			}
			if got != tt.want {
				t.Errorf("QuadrantOf(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestRegion_QuadrantOfMidlineIsStable(t *testing.T) {
	r := NewRegion(Vector{-10, -10}, 20, 20)
	p := r.Center()
	first, _ := r.QuadrantOf(p)
	for i := 0; i < 100; i++ {
		if q, _ := r.QuadrantOf(p); q != first {
			t.Fatalf("call %d: got %v, first call gave %v", i, q, first)
		}
	}
}

func TestRegion_QuadrantOfOutside(t *testing.T) {
	r := NewRegion(Vector{}, 100, 100)
	for _, p := range []Vector{{-10, 110}, {100, 50}, {50, 100}, {-1e-12, 0}, {math.NaN(), 1}} {
		if _, ok := r.QuadrantOf(p); ok {
			t.Errorf("QuadrantOf(%v) should be outside", p)
		}
	}
}

func TestRegion_SubregionsTileParent(t *testing.T) {
	r := NewRegion(Vector{10, 20}, 64, 32)

	var area float64
	for _, q := range Quadrants {
		sub := r.Subregion(q)
		if sub.Width != 32 || sub.Height != 16 {
			t.Errorf("%v: size %gx%g, want 32x16", q, sub.Width, sub.Height)
		}
		area += sub.Width * sub.Height

		// every subregion maps back to its own quadrant
		got, ok := r.QuadrantOf(sub.Origin)
		if !ok || got != q {
			t.Errorf("origin of %v classified as %v (ok=%v)", q, got, ok)
		}
	}
	if area != r.Width*r.Height {
		t.Errorf("areas sum to %g, want %g", area, r.Width*r.Height)
	}

	if o := r.Subregion(SE).Origin; o != (Vector{42, 36}) {
		t.Errorf("SE origin = %v, want (42, 36)", o)
	}
}

func TestRegion_Clamp(t *testing.T) {
	r := NewRegion(Vector{}, 700, 700)

	tests := []struct {
		in Vector
	}{
		{Vector{-5, 10}},
		{Vector{700, 700}},
		{Vector{1e9, -1e9}},
		{Vector{350, 350}},
	}
	for _, tt := range tests {
		got := r.Clamp(tt.in)
		if !r.Contains(got) {
			t.Errorf("Clamp(%v) = %v, not inside %v", tt.in, got, r)
		}
	}
	if got := r.Clamp(Vector{350, 350}); got != (Vector{350, 350}) {
		t.Errorf("inside point moved to %v", got)
	}
}

func TestRegion_Validate(t *testing.T) {
	if err := NewRegion(Vector{}, 1, 1).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, r := range []Region{
		NewRegion(Vector{}, 0, 1),
		NewRegion(Vector{}, 1, -1),
		NewRegion(Vector{}, math.NaN(), 1),
		NewRegion(Vector{}, math.Inf(1), 1),
	} {
		if err := r.Validate(); !errors.Is(err, ErrEmptyWorld) {
			t.Errorf("Validate(%v) = %v, want ErrEmptyWorld", r, err)
		}
	}
	if err := NewRegion(Vector{math.NaN(), 0}, 1, 1).Validate(); !errors.Is(err, ErrParameterBounds) {
		t.Errorf("NaN origin: got %v", err)
	}
}

func TestStepError(t *testing.T) {
	err := &StepError{Step: 150, ID: 7, Wrapped: ErrInvalidState}
	expected := "step 150 (particle 7): dynamo: invalid state (NaN or Inf detected)"
	if err.Error() != expected {
		t.Errorf("StepError.Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, ErrInvalidState) {
		t.Error("StepError should unwrap to ErrInvalidState")
	}
}
