// Package redact writes a copy of a PDF with opaque bands painted over the
// page margins.
//
// The source is parsed with pdfcpu and each page's content is wrapped between
// a saved graphics state and a trailing fill stream, so bands land on top of
// whatever the page draws. Bands are placed on the page's visible area (crop
// box within the media box) in the orientation the page is displayed. The
// source file is never modified. The fill is visual only: text under a band
// is still present in the page content.
package redact

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/lvillar/marginblank"
	"github.com/lvillar/marginblank/document"
	"github.com/lvillar/marginblank/geometry"
)

// RGBColor represents an RGB color value.
type RGBColor struct {
	R, G, B int
}

// White is the default fill, matching a blank sheet.
var White = RGBColor{255, 255, 255}

// Options tunes a redaction run.
type Options struct {
	Color  *RGBColor    // fill color (default: White)
	Logger *slog.Logger // default: slog.Default()
}

func (o *Options) defaults() {
	if o.Color == nil {
		c := White
		o.Color = &c
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// PageFill lists the rectangles painted on one page, in document space.
type PageFill struct {
	Page  int                 `json:"page"` // 1-based
	Size  geometry.Size       `json:"size"`
	Rects []geometry.EdgeRect `json:"rects"`
}

// Result describes a completed redaction.
type Result struct {
	Path  string     `json:"path,omitempty"`
	Pages []PageFill `json:"pages"`
}

// Plan returns the fills each page receives for margins m. Pages are
// independent: each uses its own size, and bands wider than the page are cut
// at the page boundary.
func Plan(m geometry.Margins, pages []document.Page) []PageFill {
	out := make([]PageFill, 0, len(pages))
	for _, p := range pages {
		out = append(out, PageFill{
			Page:  p.Number(),
			Size:  p.Size,
			Rects: geometry.FillRects(m, p.Size),
		})
	}
	return out
}

// ApplyToFile blanks the margins of src and saves the result to dst. The
// output is first written to a temporary file next to dst and renamed into
// place, so a failed run leaves no file at dst.
func ApplyToFile(ctx context.Context, src, dst string, m geometry.Margins, opts Options) (*Result, error) {
	opts.defaults()
	if err := sameFile(src, dst); err != nil {
		return nil, err
	}

	unlock := lockPath(dst)
	defer unlock()

	fills, err := blank(ctx, src, m, opts, func(pdf *model.Context) error {
		return writePDFToFile(pdf, dst)
	})
	if err != nil {
		return nil, err
	}
	opts.Logger.Info("redact: saved", "src", src, "dst", dst, "pages", len(fills), "margins", m.String())
	return &Result{Path: dst, Pages: fills}, nil
}

// Apply blanks the margins of src and writes the result to w. Nothing is
// written to w unless the whole document was produced.
func Apply(ctx context.Context, w io.Writer, src string, m geometry.Margins, opts Options) (*Result, error) {
	opts.defaults()
	var buf bytes.Buffer
	fills, err := blank(ctx, src, m, opts, func(pdf *model.Context) error {
		return api.WriteContext(pdf, &buf)
	})
	if err != nil {
		return nil, err
	}
	if _, err := buf.WriteTo(w); err != nil {
		return nil, marginblank.NewError(marginblank.KindRedactionWrite, "Redact", src, err)
	}
	return &Result{Pages: fills}, nil
}

// blank paints the fills for m onto every page of src and hands the modified
// context to write. Errors from write are reported as RedactionWriteError.
func blank(ctx context.Context, src string, m geometry.Margins, opts Options, write func(*model.Context) error) (fills []PageFill, err error) {
	if err := ctx.Err(); err != nil {
		return nil, marginblank.NewError(marginblank.KindRedactionWrite, "Redact", src, err)
	}
	if src == "" {
		return nil, marginblank.NewError(marginblank.KindNoFileSelected, "Redact", "", nil)
	}
	f, err := os.Open(src)
	if err != nil {
		return nil, marginblank.NewError(marginblank.KindDocumentOpen, "Open", src, err)
	}
	defer f.Close()

	doc, pdf, err := document.ReadContext(f, src)
	if err != nil {
		return nil, err
	}

	// pdfcpu reports some malformed structures by panicking.
	defer func() {
		if r := recover(); r != nil {
			fills = nil
			err = marginblank.NewError(marginblank.KindRedactionWrite, "Redact", src, fmt.Errorf("processing pages: %v", r))
		}
	}()

	if err := api.OptimizeContext(pdf); err != nil {
		return nil, marginblank.NewError(marginblank.KindRedactionWrite, "Redact", src, fmt.Errorf("optimizing: %w", err))
	}

	for _, page := range doc.Pages() {
		if err := ctx.Err(); err != nil {
			return nil, marginblank.NewError(marginblank.KindRedactionWrite, "Redact", src, err)
		}
		rects := geometry.FillRects(m, page.Size)
		if err := paintPage(pdf, page, rects, *opts.Color); err != nil {
			return nil, marginblank.NewError(marginblank.KindRedactionWrite, "Redact", src,
				fmt.Errorf("page %d: %w", page.Number(), err))
		}
		fills = append(fills, PageFill{Page: page.Number(), Size: page.Size, Rects: rects})
		opts.Logger.Debug("redact: page", "page", page.Number(), "size", page.Size.String(),
			"rotate", page.Rotate, "fills", len(rects))
	}

	if err := ctx.Err(); err != nil {
		return nil, marginblank.NewError(marginblank.KindRedactionWrite, "Redact", src, err)
	}
	if err := write(pdf); err != nil {
		return nil, marginblank.NewError(marginblank.KindRedactionWrite, "Redact", src, err)
	}
	return fills, nil
}

// paintPage wraps the page content as "q <original> Q <fills>". The original
// content streams are referenced, not rewritten.
func paintPage(pdf *model.Context, page document.Page, rects []geometry.EdgeRect, c RGBColor) error {
	if len(rects) == 0 {
		return nil
	}
	d, _, _, err := pdf.PageDict(page.Number(), false)
	if err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("missing page dictionary")
	}

	var original types.Array
	if o, found := d.Find("Contents"); found && o != nil {
		switch v := o.(type) {
		case types.IndirectRef:
			obj, err := pdf.Dereference(v)
			if err != nil {
				return err
			}
			if arr, ok := obj.(types.Array); ok {
				original = append(original, arr...)
			} else if obj != nil {
				original = append(original, v)
			}
		case types.Array:
			original = append(original, v...)
		default:
			return fmt.Errorf("unsupported /Contents of type %T", o)
		}
	}

	pre, err := pdf.StreamDictIndRef([]byte("q\n"))
	if err != nil {
		return err
	}
	post, err := pdf.StreamDictIndRef(fillContent(page, rects, c))
	if err != nil {
		return err
	}

	contents := types.Array{*pre}
	contents = append(contents, original...)
	contents = append(contents, *post)
	d.Update("Contents", contents)
	return nil
}

// fillContent renders rects as content stream operators in the page's user
// space.
func fillContent(page document.Page, rects []geometry.EdgeRect, c RGBColor) []byte {
	var b strings.Builder
	b.WriteString("Q\nq\n")
	fmt.Fprintf(&b, "%.4f %.4f %.4f rg\n", channel(c.R), channel(c.G), channel(c.B))
	for _, r := range rects {
		u := page.ToUser(r.Rect)
		fmt.Fprintf(&b, "%.2f %.2f %.2f %.2f re f\n", u.X0, u.Y0, u.Width(), u.Height())
	}
	b.WriteString("Q\n")
	return []byte(b.String())
}

func channel(v int) float64 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 1
	}
	return float64(v) / 255
}

// writePDFToFile writes the PDF to a temporary file in the target directory
// and renames it to filename once complete.
func writePDFToFile(pdf *model.Context, filename string) error {
	f, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".*.tmp")
	if err != nil {
		return fmt.Errorf("redact: creating %s: %w", filename, err)
	}
	tmp := f.Name()
	if err := api.WriteContext(pdf, f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("redact: writing %s: %w", filename, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("redact: closing %s: %w", filename, err)
	}
	if err := os.Rename(tmp, filename); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("redact: renaming to %s: %w", filename, err)
	}
	return nil
}

func sameFile(src, dst string) error {
	a, errA := filepath.Abs(src)
	b, errB := filepath.Abs(dst)
	if errA == nil && errB == nil && a == b {
		return marginblank.NewError(marginblank.KindRedactionWrite, "Redact", dst,
			fmt.Errorf("output would overwrite the source document"))
	}
	return nil
}

// pathLocks serializes runs that write the same output file.
var pathLocks sync.Map // absolute path -> *sync.Mutex

func lockPath(p string) (unlock func()) {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	v, _ := pathLocks.LoadOrStore(p, new(sync.Mutex))
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
