package dynamo

import (
	"fmt"
	"math"
)

type Vector struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func (v Vector) Add(o Vector) Vector { return Vector{v.X + o.X, v.Y + o.Y} }
func (v Vector) Sub(o Vector) Vector { return Vector{v.X - o.X, v.Y - o.Y} }

func (v Vector) Scale(factor float64) Vector {
	return Vector{v.X * factor, v.Y * factor}
}

func (v Vector) Dot(o Vector) float64 { return v.X*o.X + v.Y*o.Y }

func (v Vector) Magnitude() float64 { return math.Hypot(v.X, v.Y) }

func (v Vector) Distance(o Vector) float64 { return v.Sub(o).Magnitude() }

// Unit returns v divided by its magnitude. The second result is false for
// the zero vector, in which case the zero vector is returned.
func (v Vector) Unit() (Vector, bool) {
	m := v.Magnitude()
	if m == 0 {
		return Vector{}, false
	}
	return Vector{v.X / m, v.Y / m}, true
}

// Normalize is Unit without the flag. The zero vector normalizes to itself.
func (v Vector) Normalize() Vector {
	u, _ := v.Unit()
	return u
}

func (v Vector) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

func (v Vector) IsZero() bool { return v.X == 0 && v.Y == 0 }

// ApproxEqual reports whether both components differ by at most tol.
func (v Vector) ApproxEqual(o Vector, tol float64) bool {
	return math.Abs(v.X-o.X) <= tol && math.Abs(v.Y-o.Y) <= tol
}

func (v Vector) String() string {
	return fmt.Sprintf("(%g, %g)", v.X, v.Y)
}
