package geometry

// MapMargins converts margins into pixel rectangles over a page of size page
// rendered at img pixels. Edges with a zero margin produce nothing; the rest
// are returned in Edges order and may overlap each other. Each rectangle is
// cut to the image bounds.
func MapMargins(m Margins, page, img Size) []EdgeRect {
	t := NewTransform(page, img)
	if !t.Valid() {
		return nil
	}
	return bands(m, img, t.SX, t.SY)
}

// FillRects returns the document-space rectangles to blank on a page of the
// given size. Margins wider than the page are cut at the page boundary, so an
// oversized margin blanks the whole page or strip instead of failing.
func FillRects(m Margins, page Size) []EdgeRect {
	if !page.Valid() {
		return nil
	}
	return bands(m, page, 1, 1)
}

// bands lays out the four edge bands over a w×h area, converting margin
// widths by sx and sy first.
func bands(m Margins, area Size, sx, sy float64) []EdgeRect {
	w, h := area.W, area.H
	bounds := area.Bounds()
	var out []EdgeRect
	for _, e := range Edges {
		v := m.Get(e)
		if !(v > 0) {
			continue
		}
		var r Rect
		switch e {
		case Left:
			r = Rect{0, 0, v * sx, h}
		case Top:
			r = Rect{0, 0, w, v * sy}
		case Right:
			r = Rect{w - v*sx, 0, w, h}
		case Bottom:
			r = Rect{0, h - v*sy, w, h}
		}
		r = r.Intersect(bounds)
		if r.Empty() {
			continue
		}
		out = append(out, EdgeRect{Edge: e, Rect: r})
	}
	return out
}
