package dynamo

import (
	"fmt"
	"math"
)

type Quadrant uint8

const (
	NW Quadrant = iota
	NE
	SW
	SE
)

// Quadrants lists every quadrant in slot order.
var Quadrants = [4]Quadrant{NW, NE, SW, SE}

func (q Quadrant) String() string {
	switch q {
	case NW:
		return "NW"
	case NE:
		return "NE"
	case SW:
		return "SW"
	case SE:
		return "SE"
	}
	return fmt.Sprintf("Quadrant(%d)", uint8(q))
}

// Region is an axis-aligned rectangle covering
// [Origin.X, Origin.X+Width) x [Origin.Y, Origin.Y+Height).
type Region struct {
	Origin Vector  `json:"origin" yaml:"origin"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

func NewRegion(origin Vector, width, height float64) Region {
	return Region{Origin: origin, Width: width, Height: height}
}

func (r Region) Validate() error {
	if !r.Origin.IsFinite() {
		return fmt.Errorf("region origin %v: %w", r.Origin, ErrParameterBounds)
	}
	if !(r.Width > 0) || !(r.Height > 0) || math.IsInf(r.Width, 0) || math.IsInf(r.Height, 0) {
		return fmt.Errorf("region size %gx%g: %w", r.Width, r.Height, ErrEmptyWorld)
	}
	return nil
}

func (r Region) Center() Vector {
	return Vector{r.Origin.X + r.Width/2, r.Origin.Y + r.Height/2}
}

// Size is the longest side, used as "s" in the opening-angle test.
func (r Region) Size() float64 { return math.Max(r.Width, r.Height) }

func (r Region) Contains(p Vector) bool {
	return p.X >= r.Origin.X && p.X < r.Origin.X+r.Width &&
		p.Y >= r.Origin.Y && p.Y < r.Origin.Y+r.Height
}

// QuadrantOf returns the quadrant of r holding p, or false when p lies
// outside r. Points on the vertical midline go east, points on the
// horizontal midline go south.
func (r Region) QuadrantOf(p Vector) (Quadrant, bool) {
	if !r.Contains(p) {
		return 0, false
	}
	c := r.Center()
	q := NW
	if p.X >= c.X {
		q |= NE
	}
	if p.Y >= c.Y {
		q |= SW
	}
	return q, true
}

// Subregion returns the half-width, half-height rectangle for q. The four
// subregions tile r exactly.
func (r Region) Subregion(q Quadrant) Region {
	hw, hh := r.Width/2, r.Height/2
	o := r.Origin
	if q&NE != 0 {
		o.X += hw
	}
	if q&SW != 0 {
		o.Y += hh
	}
	return Region{Origin: o, Width: hw, Height: hh}
}

// Clamp returns the point of r nearest to p. Far edges are excluded, so a
// coordinate at or past them lands on the largest float below the edge.
func (r Region) Clamp(p Vector) Vector {
	return Vector{
		clampHalfOpen(p.X, r.Origin.X, r.Origin.X+r.Width),
		clampHalfOpen(p.Y, r.Origin.Y, r.Origin.Y+r.Height),
	}
}

func clampHalfOpen(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v >= hi {
		return math.Nextafter(hi, lo)
	}
	return v
}

func (r Region) String() string {
	return fmt.Sprintf("[%g,%g)x[%g,%g)", r.Origin.X, r.Origin.X+r.Width, r.Origin.Y, r.Origin.Y+r.Height)
}
