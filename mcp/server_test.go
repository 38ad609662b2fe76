package mcp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lvillar/marginblank"
	"github.com/lvillar/marginblank/convert"
	"github.com/lvillar/marginblank/geometry"
	"github.com/lvillar/marginblank/internal/pdftest"
	marginmcp "github.com/lvillar/marginblank/mcp"
	"github.com/lvillar/marginblank/session"
)

var testImpl = &mcp.Implementation{Name: "marginblank-test", Version: "0.1.0"}

type whiteRasterizer struct{}

func (whiteRasterizer) Rasterize(_ context.Context, _ string, _ int, scale float64) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, int(612*scale+0.5), int(792*scale+0.5)))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img, nil
}

// shortRasterizer renders one pixel short of the nominal size on each side,
// as a rasterizer that truncates instead of rounding would.
type shortRasterizer struct{}

func (shortRasterizer) Rasterize(ctx context.Context, path string, page int, scale float64) (image.Image, error) {
	full, _ := whiteRasterizer{}.Rasterize(ctx, path, page, scale)
	b := full.Bounds()
	return full.(*image.RGBA).SubImage(image.Rect(0, 0, b.Dx()-1, b.Dy()-1)), nil
}

func connect(t *testing.T, opts ...session.Option) *mcp.ClientSession {
	t.Helper()
	srv := marginmcp.NewServer(nil, opts...)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.MCP().Run(ctx, serverT) }()

	client := mcp.NewClient(testImpl, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { cs.Close() })
	return cs
}

func call(t *testing.T, cs *mcp.ClientSession, name string, args any) *mcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	return res
}

func lastText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty content")
	}
	tc, ok := res.Content[len(res.Content)-1].(*mcp.TextContent)
	if !ok {
		t.Fatalf("last content is %T, want TextContent", res.Content[len(res.Content)-1])
	}
	return tc.Text
}

func TestListTools(t *testing.T) {
	cs := connect(t)
	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	want := map[string]bool{
		"pdf_page_sizes": true, "plan_redaction": true, "blank_pdf": true,
		"blank_and_convert": true, "preview_page": true,
	}
	for _, tool := range res.Tools {
		delete(want, tool.Name)
	}
	for name := range want {
		t.Errorf("missing tool %q", name)
	}
}

func TestPageSizes(t *testing.T) {
	src := pdftest.Temp(t, "mixed.pdf", pdftest.Letter, geometry.Size{W: 300, H: 300})
	cs := connect(t)

	res := call(t, cs, "pdf_page_sizes", map[string]any{"path": src})
	if res.IsError {
		t.Fatalf("tool error: %s", lastText(t, res))
	}
	var resp struct {
		Pages []struct {
			Page   int     `json:"page"`
			Width  float64 `json:"width"`
			Height float64 `json:"height"`
		} `json:"pages"`
	}
	if err := json.Unmarshal([]byte(lastText(t, res)), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(resp.Pages))
	}
	if resp.Pages[1].Page != 2 || resp.Pages[1].Width != 300 || resp.Pages[1].Height != 300 {
		t.Errorf("page 2 = %+v", resp.Pages[1])
	}
}

func TestPlanRedaction(t *testing.T) {
	src := pdftest.Temp(t, "mixed.pdf", pdftest.Letter, geometry.Size{W: 300, H: 300})
	cs := connect(t)

	res := call(t, cs, "plan_redaction", map[string]any{
		"path":    src,
		"margins": map[string]any{"left": 50},
	})
	if res.IsError {
		t.Fatalf("tool error: %s", lastText(t, res))
	}
	var resp struct {
		Pages []struct {
			Rects []geometry.EdgeRect `json:"rects"`
		} `json:"pages"`
	}
	if err := json.Unmarshal([]byte(lastText(t, res)), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []geometry.Rect{{X0: 0, Y0: 0, X1: 50, Y1: 792}, {X0: 0, Y0: 0, X1: 50, Y1: 300}}
	for i, p := range resp.Pages {
		if len(p.Rects) != 1 || p.Rects[0].Rect != want[i] {
			t.Errorf("page %d rects = %v, want %v", i+1, p.Rects, want[i])
		}
	}
	if _, err := os.Stat(marginblank.RedactedPath(src)); !os.IsNotExist(err) {
		t.Errorf("plan_redaction wrote output: %v", err)
	}
}

func TestBlankPDF(t *testing.T) {
	src := pdftest.Temp(t, "report.pdf", pdftest.Letter)
	cs := connect(t)

	res := call(t, cs, "blank_pdf", map[string]any{
		"path":    src,
		"margins": map[string]any{"top": 36, "bottom": 36},
	})
	if res.IsError {
		t.Fatalf("tool error: %s", lastText(t, res))
	}
	want := filepath.Join(filepath.Dir(src), "report_blanked.pdf")
	if !strings.Contains(lastText(t, res), want) {
		t.Errorf("response %s does not name %s", lastText(t, res), want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("output missing: %v", err)
	}
}

func TestBlankPDFNotAPDF(t *testing.T) {
	src := pdftest.NotPDF(t, "notes.pdf")
	cs := connect(t)

	res := call(t, cs, "blank_pdf", map[string]any{"path": src, "margins": map[string]any{"left": 10}})
	if !res.IsError {
		t.Fatal("expected tool error")
	}
	if _, err := os.Stat(marginblank.RedactedPath(src)); !os.IsNotExist(err) {
		t.Errorf("artifact written for invalid source: %v", err)
	}
}

func TestBlankAndConvertReportsConversionFailure(t *testing.T) {
	src := pdftest.Temp(t, "report.pdf", pdftest.Letter)
	failing := convert.Func(func(context.Context, string) (string, error) {
		return "", errors.New("soffice crashed")
	})
	cs := connect(t, session.WithConverter(failing))

	res := call(t, cs, "blank_and_convert", map[string]any{"path": src, "margins": map[string]any{"left": 20}})
	if res.IsError {
		t.Fatalf("conversion failure should not fail the tool: %s", lastText(t, res))
	}
	var resp struct {
		Redacted struct {
			Path string `json:"path"`
		} `json:"redacted"`
		ConversionError string `json:"conversion_error"`
	}
	if err := json.Unmarshal([]byte(lastText(t, res)), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Redacted.Path != marginblank.RedactedPath(src) {
		t.Errorf("redacted path = %q", resp.Redacted.Path)
	}
	if !strings.Contains(resp.ConversionError, "soffice crashed") {
		t.Errorf("conversion_error = %q", resp.ConversionError)
	}
}

func TestPreviewPage(t *testing.T) {
	src := pdftest.Temp(t, "report.pdf", pdftest.Letter)
	cs := connect(t, session.WithRasterizer(whiteRasterizer{}))

	res := call(t, cs, "preview_page", map[string]any{
		"path":    src,
		"margins": map[string]any{"left": 72},
		"width":   400,
		"height":  400,
	})
	if res.IsError {
		t.Fatalf("tool error: %s", lastText(t, res))
	}
	img, ok := res.Content[0].(*mcp.ImageContent)
	if !ok {
		t.Fatalf("first content is %T, want ImageContent", res.Content[0])
	}
	if img.MIMEType != "image/png" || len(img.Data) == 0 {
		t.Errorf("image content = %s, %d bytes", img.MIMEType, len(img.Data))
	}
	if !strings.Contains(lastText(t, res), `"left"`) {
		t.Errorf("overlay missing left band: %s", lastText(t, res))
	}
}

func TestPreviewPageOverlayMatchesImage(t *testing.T) {
	src := pdftest.Temp(t, "report.pdf", pdftest.Letter)
	cs := connect(t, session.WithRasterizer(shortRasterizer{}))

	res := call(t, cs, "preview_page", map[string]any{
		"path":    src,
		"margins": map[string]any{"left": 72, "bottom": 36},
		"width":   400,
		"height":  400,
	})
	if res.IsError {
		t.Fatalf("tool error: %s", lastText(t, res))
	}
	content := res.Content[0].(*mcp.ImageContent)
	img, err := png.Decode(bytes.NewReader(content.Data))
	if err != nil {
		t.Fatal(err)
	}
	w, h := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())

	var got struct {
		Image   geometry.Size       `json:"image"`
		Overlay []geometry.EdgeRect `json:"overlay"`
	}
	if err := json.Unmarshal([]byte(lastText(t, res)), &got); err != nil {
		t.Fatal(err)
	}
	if got.Image != (geometry.Size{W: w, H: h}) {
		t.Errorf("reported image %v, png is %gx%g", got.Image, w, h)
	}
	bounds := geometry.Size{W: w, H: h}.Bounds()
	for _, r := range got.Overlay {
		if !r.Rect.In(bounds) {
			t.Errorf("%s band %v outside %gx%g image", r.Edge, r.Rect, w, h)
		}
	}
	for _, r := range got.Overlay {
		if r.Edge == geometry.Left && r.Y1 != h {
			t.Errorf("left band height %g, image height %g", r.Y1, h)
		}
		if r.Edge == geometry.Bottom && r.X1 != w {
			t.Errorf("bottom band width %g, image width %g", r.X1, w)
		}
	}
}

func TestPreviewPageOutOfRange(t *testing.T) {
	src := pdftest.Temp(t, "report.pdf", pdftest.Letter)
	cs := connect(t, session.WithRasterizer(whiteRasterizer{}))

	res := call(t, cs, "preview_page", map[string]any{"path": src, "page": 3})
	if !res.IsError {
		t.Fatal("expected tool error for page 3 of 1")
	}
}

func TestPagesResource(t *testing.T) {
	src := pdftest.Temp(t, "mixed.pdf", pdftest.Letter, geometry.Size{W: 300, H: 300})
	cs := connect(t)

	res, err := cs.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: "pdf://pages?path=" + url.QueryEscape(src)})
	if err != nil {
		t.Fatalf("ReadResource: %v", err)
	}
	if len(res.Contents) != 1 || !strings.Contains(res.Contents[0].Text, `"pageCount": 2`) {
		t.Errorf("contents = %+v", res.Contents)
	}
}
