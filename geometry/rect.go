// Package geometry maps margins between document space and preview space.
//
// Document space is measured in PDF points with the origin at the top-left
// corner of a page. Preview space is the pixel grid of a rasterized page.
// Everything here is a pure function of its inputs except Model, which holds
// the operator's current margins.
package geometry

import (
	"fmt"
	"math"
)

// Size is a width and height, in points or pixels depending on context.
type Size struct {
	W float64 `json:"width"`
	H float64 `json:"height"`
}

// Valid reports whether both dimensions are positive and finite.
func (s Size) Valid() bool {
	return s.W > 0 && s.H > 0 && !math.IsInf(s.W, 0) && !math.IsInf(s.H, 0)
}

func (s Size) String() string {
	return fmt.Sprintf("%gx%g", s.W, s.H)
}

// Rect is an axis-aligned rectangle given by its top-left (X0,Y0) and
// bottom-right (X1,Y1) corners.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns the width of the rectangle.
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the height of the rectangle.
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.X1 <= r.X0 || r.Y1 <= r.Y0 }

// Intersect returns the overlap of r and s. The result may be Empty.
func (r Rect) Intersect(s Rect) Rect {
	return Rect{
		X0: math.Max(r.X0, s.X0),
		Y0: math.Max(r.Y0, s.Y0),
		X1: math.Min(r.X1, s.X1),
		Y1: math.Min(r.Y1, s.Y1),
	}
}

// In reports whether r lies entirely inside s.
func (r Rect) In(s Rect) bool {
	return r.X0 >= s.X0 && r.Y0 >= s.Y0 && r.X1 <= s.X1 && r.Y1 <= s.Y1
}

func (r Rect) String() string {
	return fmt.Sprintf("(%g,%g,%g,%g)", r.X0, r.Y0, r.X1, r.Y1)
}

// Bounds returns the rectangle (0,0,W,H).
func (s Size) Bounds() Rect {
	return Rect{X1: s.W, Y1: s.H}
}

// Edge names one side of a page.
type Edge int

const (
	Left Edge = iota
	Top
	Right
	Bottom
)

// Edges lists the four edges in the order every function here emits them.
var Edges = [4]Edge{Left, Top, Right, Bottom}

func (e Edge) String() string {
	switch e {
	case Left:
		return "left"
	case Top:
		return "top"
	case Right:
		return "right"
	case Bottom:
		return "bottom"
	}
	return fmt.Sprintf("Edge(%d)", int(e))
}

// ParseEdge is the inverse of Edge.String.
func ParseEdge(s string) (Edge, error) {
	for _, e := range Edges {
		if e.String() == s {
			return e, nil
		}
	}
	return 0, fmt.Errorf("geometry: unknown edge %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (e Edge) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Edge) UnmarshalText(b []byte) error {
	v, err := ParseEdge(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// EdgeRect is a rectangle produced for one page edge.
type EdgeRect struct {
	Edge Edge `json:"edge"`
	Rect
}
