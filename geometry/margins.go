package geometry

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lvillar/marginblank"
)

// Margins holds the four band widths in points. The same values apply to
// every page of a document.
type Margins struct {
	Left   float64 `json:"left" yaml:"left"`
	Top    float64 `json:"top" yaml:"top"`
	Right  float64 `json:"right" yaml:"right"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
}

// Get returns the width for edge e.
func (m Margins) Get(e Edge) float64 {
	switch e {
	case Left:
		return m.Left
	case Top:
		return m.Top
	case Right:
		return m.Right
	case Bottom:
		return m.Bottom
	}
	return 0
}

// With returns a copy of m with edge e set to v.
func (m Margins) With(e Edge, v float64) Margins {
	switch e {
	case Left:
		m.Left = v
	case Top:
		m.Top = v
	case Right:
		m.Right = v
	case Bottom:
		m.Bottom = v
	}
	return m
}

// IsZero reports whether no band would be blanked.
func (m Margins) IsZero() bool {
	return m.Left <= 0 && m.Top <= 0 && m.Right <= 0 && m.Bottom <= 0
}

// Clamp pulls every value into [0, max]. NaN becomes 0.
func (m Margins) Clamp(max float64) Margins {
	for _, e := range Edges {
		m = m.With(e, clamp(m.Get(e), max))
	}
	return m
}

func clamp(v, max float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// Validate returns an InvalidMargin error naming the first edge outside [0, max].
func (m Margins) Validate(max float64) error {
	for _, e := range Edges {
		v := m.Get(e)
		if math.IsNaN(v) || v < 0 || v > max {
			return marginblank.NewError(marginblank.KindInvalidMargin, "Validate", "",
				fmt.Errorf("%s margin %g outside [0, %g]", e, v, max))
		}
	}
	return nil
}

func (m Margins) String() string {
	return fmt.Sprintf("left=%.2f top=%.2f right=%.2f bottom=%.2f", m.Left, m.Top, m.Right, m.Bottom)
}

// ParseMargins reads "left,top,right,bottom" or a single value applied to
// all four edges.
func ParseMargins(s string) (Margins, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 1 && len(parts) != 4 {
		return Margins{}, marginblank.NewError(marginblank.KindInvalidMargin, "ParseMargins", "",
			fmt.Errorf("want 1 or 4 comma-separated values, got %d", len(parts)))
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Margins{}, marginblank.NewError(marginblank.KindInvalidMargin, "ParseMargins", "", err)
		}
		vals[i] = v
	}
	if len(vals) == 1 {
		return Margins{vals[0], vals[0], vals[0], vals[0]}, nil
	}
	return Margins{Left: vals[0], Top: vals[1], Right: vals[2], Bottom: vals[3]}, nil
}
