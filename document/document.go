// Package document opens PDF files and exposes their page geometry.
//
// Parsing and validation are done with pdfcpu; only page geometry is kept, so
// a Document is cheap to hold and safe to share between goroutines once opened.
package document

import (
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/lvillar/marginblank"
)

// Document is an opened PDF: its source path and the visible geometry of
// every page.
type Document struct {
	Path    string
	Version string
	pages   []Page
}

// Open reads and validates the PDF at path. An empty path is reported as
// NoFileSelected; anything that cannot be parsed as a PDF with at least one
// page as DocumentOpenError.
func Open(path string) (*Document, error) {
	if path == "" {
		return nil, marginblank.NewError(marginblank.KindNoFileSelected, "Open", "", nil)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, marginblank.NewError(marginblank.KindDocumentOpen, "Open", path, err)
	}
	defer f.Close()
	doc, _, err := read(f, path)
	return doc, err
}

// Read parses a PDF from rs. name is recorded as the document path.
func Read(rs io.ReadSeeker, name string) (*Document, error) {
	doc, _, err := ReadContext(rs, name)
	return doc, err
}

// ReadContext is Read that also hands back the validated pdfcpu context, for
// callers that go on to modify the file.
func ReadContext(rs io.ReadSeeker, name string) (*Document, *model.Context, error) {
	doc, ctx, err := read(rs, name)
	if err != nil {
		return nil, nil, err
	}
	return doc, ctx, nil
}

func read(rs io.ReadSeeker, name string) (*Document, *model.Context, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, nil, marginblank.NewError(marginblank.KindDocumentOpen, "Open", name, fmt.Errorf("reading: %w", err))
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, nil, marginblank.NewError(marginblank.KindDocumentOpen, "Open", name, fmt.Errorf("validating: %w", err))
	}
	bounds, err := ctx.PageBoundaries(nil)
	if err != nil {
		return nil, nil, marginblank.NewError(marginblank.KindDocumentOpen, "Open", name, fmt.Errorf("page boxes: %w", err))
	}
	if len(bounds) == 0 {
		return nil, nil, marginblank.NewError(marginblank.KindDocumentOpen, "Open", name, fmt.Errorf("document has no pages"))
	}

	doc := &Document{Path: name, Version: ctx.VersionString()}
	for i, pb := range bounds {
		p := pageFromBoundaries(i, pb)
		if !p.Size.Valid() {
			return nil, nil, marginblank.NewError(marginblank.KindDocumentOpen, "Open", name,
				fmt.Errorf("page %d has invalid size %s", i+1, p.Size))
		}
		doc.pages = append(doc.pages, p)
	}
	return doc, ctx, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return len(d.pages)
}

// Page returns the page at 0-based index i.
func (d *Document) Page(i int) (Page, error) {
	if i < 0 || i >= len(d.pages) {
		return Page{}, marginblank.NewError(marginblank.KindPageIndex, "Page", d.Path,
			fmt.Errorf("page index %d out of range [0, %d)", i, len(d.pages)))
	}
	return d.pages[i], nil
}

// Pages returns a copy of the page list.
func (d *Document) Pages() []Page {
	return append([]Page(nil), d.pages...)
}
