package preview

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"

	"github.com/lvillar/marginblank"
)

// Fitz rasterizes pages with MuPDF. The most recently used document stays
// open until a different path is requested or Close is called. MuPDF
// documents are not safe for concurrent use, so calls are serialized.
type Fitz struct {
	mu   sync.Mutex
	path string
	doc  *fitz.Document
}

// NewFitz returns a MuPDF-backed Rasterizer.
func NewFitz() *Fitz {
	return &Fitz{}
}

// Rasterize implements Rasterizer.
func (f *Fitz) Rasterize(ctx context.Context, path string, page int, scale float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.doc == nil || f.path != path {
		if f.doc != nil {
			f.doc.Close()
			f.doc = nil
		}
		doc, err := fitz.New(path)
		if err != nil {
			return nil, fmt.Errorf("preview: opening %s: %w", path, err)
		}
		f.doc, f.path = doc, path
	}
	if page < 0 || page >= f.doc.NumPage() {
		return nil, marginblank.NewError(marginblank.KindPageIndex, "Rasterize", path,
			fmt.Errorf("page index %d out of range [0, %d)", page, f.doc.NumPage()))
	}

	img, err := f.doc.ImageDPI(page, scale*marginblank.PointsPerInch)
	if err != nil {
		return nil, fmt.Errorf("preview: rendering page %d: %w", page+1, err)
	}
	// Rendering cannot be interrupted; drop the result if nobody wants it.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return img, nil
}

// Close releases the open document, if any.
func (f *Fitz) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.doc == nil {
		return nil
	}
	err := f.doc.Close()
	f.doc, f.path = nil, ""
	return err
}
