// Package preview rasterizes a page for display and paints the margin
// overlay on top of it.
package preview

import (
	"context"
	"fmt"
	"image"

	"github.com/lvillar/marginblank"
	"github.com/lvillar/marginblank/document"
	"github.com/lvillar/marginblank/geometry"
)

// Rasterizer renders page (0-based) of the PDF at path, scaled uniformly by
// scale pixels per point.
type Rasterizer interface {
	Rasterize(ctx context.Context, path string, page int, scale float64) (image.Image, error)
}

// Image is a rendered page. The bitmap may differ from Scale's nominal size
// by a pixel because the renderer rounds on its own; Size reports the actual
// bitmap size and is what overlays must be mapped against.
type Image struct {
	Page     document.Page
	Scale    geometry.Scale
	Viewport geometry.Size
	Bitmap   image.Image
}

// Size returns the bitmap dimensions in pixels.
func (im *Image) Size() geometry.Size {
	b := im.Bitmap.Bounds()
	return geometry.Size{W: float64(b.Dx()), H: float64(b.Dy())}
}

// Overlay maps m onto this image.
func (im *Image) Overlay(m geometry.Margins) []geometry.EdgeRect {
	return geometry.MapMargins(m, im.Page.Size, im.Size())
}

// Render rasterizes page index of doc to fit the viewport.
func Render(ctx context.Context, r Rasterizer, doc *document.Document, index int, viewport geometry.Size, fitFraction float64) (*Image, error) {
	page, err := doc.Page(index)
	if err != nil {
		return nil, err
	}
	scale, err := geometry.ComputeScale(viewport, page.Size, fitFraction)
	if err != nil {
		return nil, err
	}
	bm, err := r.Rasterize(ctx, doc.Path, index, scale.Factor)
	if err != nil {
		return nil, marginblank.NewError(marginblank.KindRender, "Render", doc.Path,
			fmt.Errorf("page %d: %w", page.Number(), err))
	}
	if b := bm.Bounds(); b.Dx() < 1 || b.Dy() < 1 {
		return nil, marginblank.NewError(marginblank.KindRender, "Render", doc.Path,
			fmt.Errorf("page %d: empty bitmap", page.Number()))
	}
	return &Image{Page: page, Scale: scale, Viewport: viewport, Bitmap: bm}, nil
}
