package document

import (
	"math"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/lvillar/marginblank/geometry"
)

// Page is one page of a document. Index is 0-based; Number is 1-based for display.
//
// Size is the page as a viewer shows it: the crop box (or the media box when
// there is none) clipped to the media box, with the page rotation applied.
// Box is that same visible area in PDF user space (origin bottom-left, before
// rotation) and Rotate is the clockwise display rotation in degrees.
type Page struct {
	Index  int           `json:"index"`
	Size   geometry.Size `json:"size"`
	Box    geometry.Rect `json:"box"`
	Rotate int           `json:"rotate"`
}

// Number returns the 1-based page number.
func (p Page) Number() int { return p.Index + 1 }

// ToUser maps r from document space (points, origin top-left of the page as
// displayed) into the page's PDF user space.
func (p Page) ToUser(r geometry.Rect) geometry.Rect {
	ax, ay := p.toUser(r.X0, r.Y0)
	bx, by := p.toUser(r.X1, r.Y1)
	return geometry.Rect{
		X0: math.Min(ax, bx), Y0: math.Min(ay, by),
		X1: math.Max(ax, bx), Y1: math.Max(ay, by),
	}
}

func (p Page) toUser(x, y float64) (float64, float64) {
	b := p.Box
	switch p.Rotate {
	case 90:
		return b.X0 + y, b.Y0 + x
	case 180:
		return b.X1 - x, b.Y0 + y
	case 270:
		return b.X1 - y, b.Y1 - x
	}
	return b.X0 + x, b.Y1 - y
}

// normalizeRotation maps any multiple of 90 into 0, 90, 180 or 270.
func normalizeRotation(r int) int {
	r %= 360
	if r < 0 {
		r += 360
	}
	return r - r%90
}

func userRect(r *types.Rectangle) geometry.Rect {
	if r == nil {
		return geometry.Rect{}
	}
	return geometry.Rect{
		X0: math.Min(r.LL.X, r.UR.X), Y0: math.Min(r.LL.Y, r.UR.Y),
		X1: math.Max(r.LL.X, r.UR.X), Y1: math.Max(r.LL.Y, r.UR.Y),
	}
}

// pageFromBoundaries derives the visible geometry of page index i.
func pageFromBoundaries(i int, pb model.PageBoundaries) Page {
	media := userRect(pb.MediaBox())
	box := media
	if crop := userRect(pb.CropBox()); !crop.Empty() {
		if vis := crop.Intersect(media); !vis.Empty() {
			box = vis
		}
	}
	rot := normalizeRotation(pb.Rot)
	size := geometry.Size{W: box.Width(), H: box.Height()}
	if rot%180 != 0 {
		size.W, size.H = size.H, size.W
	}
	return Page{Index: i, Size: size, Box: box, Rotate: rot}
}
