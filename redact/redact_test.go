package redact_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/lvillar/marginblank"
	"github.com/lvillar/marginblank/document"
	"github.com/lvillar/marginblank/geometry"
	"github.com/lvillar/marginblank/internal/pdftest"
	"github.com/lvillar/marginblank/redact"
)

var approx = cmpopts.EquateApprox(0, 0.01)

func TestPlanMixedSizes(t *testing.T) {
	pages := []document.Page{
		{Index: 0, Size: geometry.Size{W: 612, H: 792}},
		{Index: 1, Size: geometry.Size{W: 300, H: 300}},
	}
	got := redact.Plan(geometry.Margins{Left: 50}, pages)
	want := []redact.PageFill{
		{Page: 1, Size: pages[0].Size, Rects: []geometry.EdgeRect{{Edge: geometry.Left, Rect: geometry.Rect{X1: 50, Y1: 792}}}},
		{Page: 2, Size: pages[1].Size, Rects: []geometry.EdgeRect{{Edge: geometry.Left, Rect: geometry.Rect{X1: 50, Y1: 300}}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Plan mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanOverBlanking(t *testing.T) {
	got := redact.Plan(geometry.Margins{Left: 150}, []document.Page{{Size: geometry.Size{W: 100, H: 100}}})
	want := []geometry.EdgeRect{{Edge: geometry.Left, Rect: geometry.Rect{X1: 100, Y1: 100}}}
	if diff := cmp.Diff(want, got[0].Rects); diff != "" {
		t.Errorf("Plan mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyToFileMixedSizes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "report.pdf")
	pdftest.Write(t, src, pdftest.Letter, geometry.Size{W: 300, H: 300})
	dst := marginblank.RedactedPath(src)

	res, err := redact.ApplyToFile(context.Background(), src, dst, geometry.Margins{Left: 50}, redact.Options{})
	if err != nil {
		t.Fatalf("ApplyToFile: %v", err)
	}
	if res.Path != filepath.Join(dir, "report_blanked.pdf") {
		t.Errorf("Path = %q", res.Path)
	}

	want := []redact.PageFill{
		{Page: 1, Size: pdftest.Letter, Rects: []geometry.EdgeRect{{Edge: geometry.Left, Rect: geometry.Rect{X1: 50, Y1: 792}}}},
		{Page: 2, Size: geometry.Size{W: 300, H: 300}, Rects: []geometry.EdgeRect{{Edge: geometry.Left, Rect: geometry.Rect{X1: 50, Y1: 300}}}},
	}
	if diff := cmp.Diff(want, res.Pages, approx); diff != "" {
		t.Errorf("fills mismatch (-want +got):\n%s", diff)
	}

	out, err := document.Open(dst)
	if err != nil {
		t.Fatalf("reading blanked PDF: %v", err)
	}
	if out.PageCount() != 2 {
		t.Fatalf("expected 2 pages, got %d", out.PageCount())
	}
	for i, p := range out.Pages() {
		if diff := cmp.Diff(want[i].Size, p.Size, approx); diff != "" {
			t.Errorf("page %d size (-want +got):\n%s", i+1, diff)
		}
		content := pdftest.PageContent(t, dst, i+1)
		if n := strings.Count(content, " re f"); n != 1 {
			t.Errorf("page %d: %d filled rectangles in content, want 1:\n%s", i+1, n, content)
		}
	}

	// The source is left alone.
	orig, err := document.Open(src)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(pdftest.PageContent(t, src, 1), " re f"); got != 0 {
		t.Errorf("source page gained %d fills", got)
	}
	if orig.PageCount() != 2 {
		t.Errorf("source has %d pages", orig.PageCount())
	}
}

func TestApplyZeroMarginsDrawsNothing(t *testing.T) {
	src := pdftest.Temp(t, "plain.pdf", pdftest.Letter, pdftest.Letter)
	dst := marginblank.RedactedPath(src)

	res, err := redact.ApplyToFile(context.Background(), src, dst, geometry.Margins{}, redact.Options{})
	if err != nil {
		t.Fatalf("ApplyToFile: %v", err)
	}
	for _, p := range res.Pages {
		if len(p.Rects) != 0 {
			t.Errorf("page %d: %d fills with zero margins", p.Page, len(p.Rects))
		}
	}
	for n := 1; n <= 2; n++ {
		if c := pdftest.PageContent(t, dst, n); strings.Contains(c, " re f") {
			t.Errorf("page %d has fill operators:\n%s", n, c)
		}
	}
}

func TestApplyAllEdges(t *testing.T) {
	src := pdftest.Temp(t, "all.pdf", pdftest.Letter)
	dst := marginblank.RedactedPath(src)

	m := geometry.Margins{Left: 36, Top: 72, Right: 18, Bottom: 9}
	res, err := redact.ApplyToFile(context.Background(), src, dst, m, redact.Options{Color: &redact.RGBColor{}})
	if err != nil {
		t.Fatalf("ApplyToFile: %v", err)
	}
	if len(res.Pages[0].Rects) != 4 {
		t.Fatalf("expected 4 fills, got %v", res.Pages[0].Rects)
	}
	if n := strings.Count(pdftest.PageContent(t, dst, 1), " re f"); n != 4 {
		t.Errorf("%d fills in content, want 4", n)
	}
}

func TestApplyToWriter(t *testing.T) {
	src := pdftest.Temp(t, "in.pdf", pdftest.Letter)

	var buf bytes.Buffer
	res, err := redact.Apply(context.Background(), &buf, src, geometry.Margins{Top: 20}, redact.Options{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Path != "" {
		t.Errorf("Path = %q for writer output", res.Path)
	}
	doc, err := document.Read(bytes.NewReader(buf.Bytes()), "out.pdf")
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if doc.PageCount() != 1 {
		t.Errorf("expected 1 page, got %d", doc.PageCount())
	}
}

func TestApplyNotAPDFWritesNothing(t *testing.T) {
	src := pdftest.NotPDF(t, "notes.pdf")
	dst := marginblank.RedactedPath(src)

	_, err := redact.ApplyToFile(context.Background(), src, dst, geometry.Margins{Left: 10}, redact.Options{})
	if !errors.Is(err, marginblank.ErrDocumentOpen) {
		t.Fatalf("got %v, want DocumentOpenError", err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Errorf("artifact exists after failure: %v", err)
	}
	entries, _ := os.ReadDir(filepath.Dir(dst))
	if len(entries) != 1 {
		t.Errorf("directory has leftovers: %v", entries)
	}
}

func TestApplyRefusesToOverwriteSource(t *testing.T) {
	src := pdftest.Temp(t, "same.pdf", pdftest.Letter)
	_, err := redact.ApplyToFile(context.Background(), src, src, geometry.Margins{Left: 10}, redact.Options{})
	if !errors.Is(err, marginblank.ErrRedactionWrite) {
		t.Fatalf("got %v, want RedactionWriteError", err)
	}
}

func TestApplyCancelled(t *testing.T) {
	src := pdftest.Temp(t, "in.pdf", pdftest.Letter)
	dst := marginblank.RedactedPath(src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := redact.ApplyToFile(ctx, src, dst, geometry.Margins{Left: 10}, redact.Options{})
	if !errors.Is(err, context.Canceled) || !errors.Is(err, marginblank.ErrRedactionWrite) {
		t.Fatalf("got %v", err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Errorf("artifact exists after cancel")
	}
}

// assertSameGeometry checks that dst shows the same pages as src and that the
// fills reported for each page match that page's visible size.
func assertSameGeometry(t *testing.T, src, dst string, res *redact.Result) {
	t.Helper()
	in, err := document.Open(src)
	if err != nil {
		t.Fatal(err)
	}
	out, err := document.Open(dst)
	if err != nil {
		t.Fatalf("reading blanked PDF: %v", err)
	}
	if diff := cmp.Diff(in.Pages(), out.Pages(), approx); diff != "" {
		t.Errorf("output pages differ from source (-src +dst):\n%s", diff)
	}
	if len(res.Pages) != in.PageCount() {
		t.Fatalf("%d page fills for %d pages", len(res.Pages), in.PageCount())
	}
	for i, p := range in.Pages() {
		if diff := cmp.Diff(p.Size, res.Pages[i].Size, approx); diff != "" {
			t.Errorf("page %d fill size (-page +fill):\n%s", i+1, diff)
		}
	}
}

func TestApplyXRefStreamSource(t *testing.T) {
	plain := pdftest.Temp(t, "plain.pdf", pdftest.Letter, geometry.Size{W: 300, H: 300})
	src := pdftest.Rewrite(t, plain)
	dst := marginblank.RedactedPath(src)

	res, err := redact.ApplyToFile(context.Background(), src, dst, geometry.Margins{Left: 50, Bottom: 20}, redact.Options{})
	if err != nil {
		t.Fatalf("ApplyToFile: %v", err)
	}
	assertSameGeometry(t, src, dst, res)
	for n := 1; n <= 2; n++ {
		if c := pdftest.PageContent(t, dst, n); strings.Count(c, " re f") != 2 {
			t.Errorf("page %d: want 2 fills in content:\n%s", n, c)
		}
	}
	if c := pdftest.PageContent(t, dst, 2); !strings.Contains(c, "Page 2 of 2") {
		t.Errorf("page 2 lost its original content:\n%s", c)
	}
}

func TestApplyRotatedPage(t *testing.T) {
	plain := pdftest.Temp(t, "rot.pdf", pdftest.Letter, pdftest.Letter)
	src := pdftest.Rotate(t, plain, 90, 2)
	dst := marginblank.RedactedPath(src)

	res, err := redact.ApplyToFile(context.Background(), src, dst, geometry.Margins{Left: 50}, redact.Options{})
	if err != nil {
		t.Fatalf("ApplyToFile: %v", err)
	}
	assertSameGeometry(t, src, dst, res)

	want := []geometry.EdgeRect{{Edge: geometry.Left, Rect: geometry.Rect{X1: 50, Y1: 612}}}
	if diff := cmp.Diff(want, res.Pages[1].Rects, approx); diff != "" {
		t.Errorf("rotated page fills (-want +got):\n%s", diff)
	}
	// The displayed left edge of a page rotated 90 degrees is the bottom of
	// its user space.
	if c := pdftest.PageContent(t, dst, 2); !strings.Contains(c, "0.00 0.00 612.00 50.00 re f") {
		t.Errorf("rotated page fill not on the displayed left edge:\n%s", c)
	}
	if c := pdftest.PageContent(t, dst, 1); !strings.Contains(c, "0.00 0.00 50.00 792.00 re f") {
		t.Errorf("upright page fill misplaced:\n%s", c)
	}
}

func TestApplyCroppedPage(t *testing.T) {
	plain := pdftest.Temp(t, "crop.pdf", pdftest.Letter)
	src := pdftest.Crop(t, plain, geometry.Rect{X0: 100, Y0: 100, X1: 512, Y1: 692})
	dst := marginblank.RedactedPath(src)

	res, err := redact.ApplyToFile(context.Background(), src, dst, geometry.Margins{Left: 50}, redact.Options{})
	if err != nil {
		t.Fatalf("ApplyToFile: %v", err)
	}
	assertSameGeometry(t, src, dst, res)

	want := []geometry.EdgeRect{{Edge: geometry.Left, Rect: geometry.Rect{X1: 50, Y1: 592}}}
	if diff := cmp.Diff(want, res.Pages[0].Rects, approx); diff != "" {
		t.Errorf("cropped page fills (-want +got):\n%s", diff)
	}
	if c := pdftest.PageContent(t, dst, 1); !strings.Contains(c, "100.00 100.00 50.00 592.00 re f") {
		t.Errorf("fill not on the crop box:\n%s", c)
	}
}

func TestApplyFillColor(t *testing.T) {
	src := pdftest.Temp(t, "color.pdf", pdftest.Letter)
	dst := marginblank.RedactedPath(src)

	_, err := redact.ApplyToFile(context.Background(), src, dst, geometry.Margins{Top: 10},
		redact.Options{Color: &redact.RGBColor{R: 255}})
	if err != nil {
		t.Fatalf("ApplyToFile: %v", err)
	}
	if c := pdftest.PageContent(t, dst, 1); !strings.Contains(c, "1.0000 0.0000 0.0000 rg") {
		t.Errorf("fill color missing:\n%s", c)
	}
}
