// Package pdftest writes small fixture PDFs for tests.
package pdftest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/lvillar/marginblank/geometry"
)

// Letter is a US Letter page in points.
var Letter = geometry.Size{W: 612, H: 792}

// Write creates a PDF at path with one labelled page per size.
func Write(t testing.TB, path string, sizes ...geometry.Size) {
	t.Helper()
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Helvetica", "", 14)
	for i, s := range sizes {
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: s.W, Ht: s.H})
		pdf.Text(20, 30, fmt.Sprintf("Page %d of %d", i+1, len(sizes)))
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatalf("creating test PDF: %v", err)
	}
}

// Temp writes a PDF named name into a fresh temporary directory and returns
// its path.
func Temp(t testing.TB, name string, sizes ...geometry.Size) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	Write(t, path, sizes...)
	return path
}

// Rewrite runs path through pdfcpu with its default configuration and
// returns the new file. The result uses a cross-reference stream and object
// streams instead of a classic xref table.
func Rewrite(t testing.TB, path string) string {
	t.Helper()
	out := derived(path, "xrefstream")
	if err := api.OptimizeFile(path, out, model.NewDefaultConfiguration()); err != nil {
		t.Fatalf("rewriting %s: %v", path, err)
	}
	return out
}

// Rotate sets a clockwise display rotation of deg on the given 1-based pages
// (all pages when none are given) and returns the new file.
func Rotate(t testing.TB, path string, deg int, pages ...int) string {
	t.Helper()
	out := derived(path, "rot"+strconv.Itoa(deg))
	if err := api.RotateFile(path, out, deg, selection(pages), model.NewDefaultConfiguration()); err != nil {
		t.Fatalf("rotating %s: %v", path, err)
	}
	return out
}

// Crop sets the crop box of the given 1-based pages (all pages when none are
// given) to the user space rectangle box and returns the new file.
func Crop(t testing.TB, path string, box geometry.Rect, pages ...int) string {
	t.Helper()
	b, err := api.Box(fmt.Sprintf("[%g %g %g %g]", box.X0, box.Y0, box.X1, box.Y1), types.POINTS)
	if err != nil {
		t.Fatal(err)
	}
	out := derived(path, "crop")
	if err := api.CropFile(path, out, selection(pages), b, model.NewDefaultConfiguration()); err != nil {
		t.Fatalf("cropping %s: %v", path, err)
	}
	return out
}

func derived(path, tag string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + tag + ext
}

func selection(pages []int) []string {
	var sel []string
	for _, p := range pages {
		sel = append(sel, strconv.Itoa(p))
	}
	return sel
}

// NotPDF writes a plain text file with a .pdf extension.
func NotPDF(t testing.TB, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("this is not a PDF document\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// PageContent returns the decoded content stream of 1-based page n.
func PageContent(t testing.TB, path string, n int) string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	ctx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		t.Fatalf("pdfcpu read %s: %v", path, err)
	}
	r, err := pdfcpu.ExtractPageContent(ctx, n)
	if err != nil {
		t.Fatalf("page %d content: %v", n, err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
