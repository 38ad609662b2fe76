package geometry

// Transform converts between document space and the pixel grid of one
// rendered page. X and Y scale independently because the bitmap dimensions
// are rounded.
type Transform struct {
	SX, SY float64 // pixels per point
}

// NewTransform returns the transform for a page rendered at img pixels.
// The zero Transform is returned when either size is invalid.
func NewTransform(page, img Size) Transform {
	if !page.Valid() || !img.Valid() {
		return Transform{}
	}
	return Transform{SX: img.W / page.W, SY: img.H / page.H}
}

// Valid reports whether the transform can be inverted.
func (t Transform) Valid() bool { return t.SX > 0 && t.SY > 0 }

// ToPixel maps a document-space point to pixel space.
func (t Transform) ToPixel(x, y float64) (px, py float64) {
	return x * t.SX, y * t.SY
}

// ToDocument maps a pixel-space point to document space.
func (t Transform) ToDocument(px, py float64) (x, y float64) {
	if !t.Valid() {
		return 0, 0
	}
	return px / t.SX, py / t.SY
}

// MarginAt returns the margin width for edge e whose band boundary lies at
// pixel (px, py) in an image of size img. It is the inverse of MapMargins
// for a single edge; the result is not clamped.
func (t Transform) MarginAt(e Edge, px, py float64, img Size) float64 {
	x, y := t.ToDocument(px, py)
	w, h := t.ToDocument(img.W, img.H)
	switch e {
	case Left:
		return x
	case Top:
		return y
	case Right:
		return w - x
	case Bottom:
		return h - y
	}
	return 0
}
