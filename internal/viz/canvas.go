package viz

import (
	"strings"

	"github.com/san-kum/quadsim/internal/dynamo"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a grid of braille cells. Each cell holds 2x4 dots, so a canvas
// of Width x Height cells has (Width*2) x (Height*4) addressable pixels.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
	return c
}

// Pixels is the canvas size in dots.
func (c *Canvas) Pixels() (int, int) { return c.Width * 2, c.Height * 4 }

// Set turns on the dot at pixel (x, y). Out of range pixels are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Projection maps a world region onto the pixels of a canvas. Both use
// screen orientation, so no axis is flipped.
type Projection struct {
	World         dynamo.Region
	Width, Height int
}

func NewProjection(world dynamo.Region, c *Canvas) Projection {
	w, h := c.Pixels()
	return Projection{World: world, Width: w, Height: h}
}

// Pixel returns the pixel for world point p and whether it lies inside the
// world.
func (pr Projection) Pixel(p dynamo.Vector) (int, int, bool) {
	if !pr.World.Contains(p) {
		return 0, 0, false
	}
	fx := (p.X - pr.World.Origin.X) / pr.World.Width
	fy := (p.Y - pr.World.Origin.Y) / pr.World.Height
	x := min(int(fx*float64(pr.Width)), pr.Width-1)
	y := min(int(fy*float64(pr.Height)), pr.Height-1)
	return x, y, true
}

// DrawRegion outlines r. The far edges are drawn one pixel inside so that
// neighbouring cells share a border.
func (c *Canvas) DrawRegion(pr Projection, r dynamo.Region) {
	x0, y0, ok := pr.Pixel(r.Origin)
	if !ok {
		return
	}
	fx := (r.Origin.X + r.Width - pr.World.Origin.X) / pr.World.Width
	fy := (r.Origin.Y + r.Height - pr.World.Origin.Y) / pr.World.Height
	x1 := min(int(fx*float64(pr.Width)), pr.Width-1)
	y1 := min(int(fy*float64(pr.Height)), pr.Height-1)

	c.DrawLine(x0, y0, x1, y0)
	c.DrawLine(x1, y0, x1, y1)
	c.DrawLine(x1, y1, x0, y1)
	c.DrawLine(x0, y1, x0, y0)
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
