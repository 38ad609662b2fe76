package document_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/lvillar/marginblank/document"
	"github.com/lvillar/marginblank/geometry"
	"github.com/lvillar/marginblank/internal/pdftest"
)

var approx = cmpopts.EquateApprox(0, 0.01)

func TestToUser(t *testing.T) {
	// A Letter media box with the visible area offset from the origin.
	box := geometry.Rect{X0: 10, Y0: 20, X1: 622, Y1: 812}
	left := geometry.Rect{X0: 0, Y0: 0, X1: 50, Y1: 100}

	tests := []struct {
		rotate int
		want   geometry.Rect
	}{
		{0, geometry.Rect{X0: 10, Y0: 712, X1: 60, Y1: 812}},
		{90, geometry.Rect{X0: 10, Y0: 20, X1: 110, Y1: 70}},
		{180, geometry.Rect{X0: 572, Y0: 20, X1: 622, Y1: 120}},
		{270, geometry.Rect{X0: 522, Y0: 762, X1: 622, Y1: 812}},
	}
	for _, tt := range tests {
		p := document.Page{Box: box, Rotate: tt.rotate}
		if diff := cmp.Diff(tt.want, p.ToUser(left), approx); diff != "" {
			t.Errorf("rotate %d: ToUser mismatch (-want +got):\n%s", tt.rotate, diff)
		}
	}
}

func TestToUserCoversVisibleArea(t *testing.T) {
	box := geometry.Rect{X1: 612, Y1: 792}
	for _, rot := range []int{0, 90, 180, 270} {
		size := geometry.Size{W: 612, H: 792}
		if rot%180 != 0 {
			size.W, size.H = size.H, size.W
		}
		p := document.Page{Size: size, Box: box, Rotate: rot}
		if diff := cmp.Diff(box, p.ToUser(size.Bounds()), approx); diff != "" {
			t.Errorf("rotate %d: full page maps to (-want +got):\n%s", rot, diff)
		}
	}
}

func TestOpenRotatedPage(t *testing.T) {
	src := pdftest.Temp(t, "rot.pdf", pdftest.Letter, pdftest.Letter)
	path := pdftest.Rotate(t, src, 90, 2)

	doc, err := document.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	want := []document.Page{
		{Index: 0, Size: pdftest.Letter, Box: pdftest.Letter.Bounds(), Rotate: 0},
		{Index: 1, Size: geometry.Size{W: 792, H: 612}, Box: pdftest.Letter.Bounds(), Rotate: 90},
	}
	if diff := cmp.Diff(want, doc.Pages(), approx); diff != "" {
		t.Errorf("pages mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenCroppedPage(t *testing.T) {
	src := pdftest.Temp(t, "crop.pdf", pdftest.Letter)
	crop := geometry.Rect{X0: 100, Y0: 100, X1: 512, Y1: 692}
	path := pdftest.Crop(t, src, crop)

	doc, err := document.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	p, err := doc.Page(0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(p.Size.W-412) > 0.01 || math.Abs(p.Size.H-592) > 0.01 {
		t.Errorf("size %v, want 412x592", p.Size)
	}
	if diff := cmp.Diff(crop, p.Box, approx); diff != "" {
		t.Errorf("box mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenXRefStream(t *testing.T) {
	src := pdftest.Temp(t, "plain.pdf", pdftest.Letter, geometry.Size{W: 300, H: 300})
	path := pdftest.Rewrite(t, src)

	doc, err := document.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if doc.PageCount() != 2 {
		t.Fatalf("expected 2 pages, got %d", doc.PageCount())
	}
	p, _ := doc.Page(1)
	if diff := cmp.Diff(geometry.Size{W: 300, H: 300}, p.Size, approx); diff != "" {
		t.Errorf("page 2 size (-want +got):\n%s", diff)
	}
}
