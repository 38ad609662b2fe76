package mcp

import (
	"bytes"
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lvillar/marginblank"
	"github.com/lvillar/marginblank/geometry"
	"github.com/lvillar/marginblank/redact"
	"github.com/lvillar/marginblank/session"
)

// RegisterDefaultTools adds all built-in tools to the server.
func RegisterDefaultTools(s *Server) {
	addTool(s, pageSizesTool(), s.handlePageSizes)
	addTool(s, planTool(), s.handlePlan)
	addTool(s, blankTool(), s.handleBlank)
	addTool(s, blankAndConvertTool(), s.handleBlankAndConvert)
	addTool(s, previewTool(), s.handlePreview)
}

var (
	pathProp    = map[string]any{"type": "string", "description": "Path to the PDF file"}
	marginsProp = map[string]any{
		"type":        "object",
		"description": "Band widths in points (72 points = 1 inch), each between 0 and the configured maximum (default 200)",
		"properties": map[string]any{
			"left":   map[string]any{"type": "number"},
			"top":    map[string]any{"type": "number"},
			"right":  map[string]any{"type": "number"},
			"bottom": map[string]any{"type": "number"},
		},
	}
)

type fileReq struct {
	Path    string           `json:"path"`
	Margins geometry.Margins `json:"margins"`
}

// open starts a throwaway session on r.Path with r.Margins applied.
func (s *Server) open(r fileReq) (*session.Session, error) {
	sess := session.New(s.opts...)
	if _, err := sess.Load(r.Path); err != nil {
		return nil, err
	}
	if _, err := sess.SetMargins(r.Margins); err != nil {
		return nil, err
	}
	return sess, nil
}

// --- pdf_page_sizes ---

func pageSizesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "pdf_page_sizes",
		Description: "List the size of every page of a PDF in points. Pages may differ in size.",
		InputSchema: inputSchema(map[string]any{"path": pathProp}, []string{"path"}),
	}
}

type pageSize struct {
	Page   int     `json:"page"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s *Server) handlePageSizes(_ context.Context, r fileReq) (any, []mcp.Content, error) {
	sess, err := s.open(fileReq{Path: r.Path})
	if err != nil {
		return nil, nil, err
	}
	defer sess.Close()
	var out []pageSize
	for _, p := range sess.Document().Pages() {
		out = append(out, pageSize{Page: p.Number(), Width: p.Size.W, Height: p.Size.H})
	}
	return map[string]any{"path": r.Path, "pages": out}, nil, nil
}

// --- plan_redaction ---

func planTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "plan_redaction",
		Description: "Show the rectangles that blank_pdf would paint on each page for the given margins, without writing anything.",
		InputSchema: inputSchema(map[string]any{"path": pathProp, "margins": marginsProp}, []string{"path", "margins"}),
	}
}

func (s *Server) handlePlan(_ context.Context, r fileReq) (any, []mcp.Content, error) {
	sess, err := s.open(r)
	if err != nil {
		return nil, nil, err
	}
	defer sess.Close()
	m := sess.Margins().Snapshot()
	return redact.Result{Pages: redact.Plan(m, sess.Document().Pages())}, nil, nil
}

// --- blank_pdf ---

func blankTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "blank_pdf",
		Description: "Paint opaque white bands over the margins of every page and save the result next to the source as <name>_blanked.pdf. The text under the bands is not removed.",
		InputSchema: inputSchema(map[string]any{"path": pathProp, "margins": marginsProp}, []string{"path", "margins"}),
	}
}

func (s *Server) handleBlank(ctx context.Context, r fileReq) (any, []mcp.Content, error) {
	sess, err := s.open(r)
	if err != nil {
		return nil, nil, err
	}
	defer sess.Close()
	res, err := sess.Commit(ctx)
	if err != nil {
		return nil, nil, err
	}
	return res, nil, nil
}

// --- blank_and_convert ---

func blankAndConvertTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "blank_and_convert",
		Description: "Blank the margins like blank_pdf, then convert the blanked PDF to an editable DOCX (<name>_blanked.docx). If only the conversion fails, the blanked PDF is still reported.",
		InputSchema: inputSchema(map[string]any{"path": pathProp, "margins": marginsProp}, []string{"path", "margins"}),
	}
}

type convertResp struct {
	*session.Outcome
	ConversionError string `json:"conversion_error,omitempty"`
}

func (s *Server) handleBlankAndConvert(ctx context.Context, r fileReq) (any, []mcp.Content, error) {
	sess, err := s.open(r)
	if err != nil {
		return nil, nil, err
	}
	defer sess.Close()
	out, err := sess.CommitAndConvert(ctx)
	if err != nil && !errors.Is(err, marginblank.ErrConversion) {
		return nil, nil, err
	}
	resp := convertResp{Outcome: out}
	if err != nil {
		resp.ConversionError = marginblank.Message(err)
	}
	return resp, nil, nil
}

// --- preview_page ---

func previewTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "preview_page",
		Description: "Render one page as PNG, fitted to width x height pixels, with the margin bands outlined in red.",
		InputSchema: inputSchema(map[string]any{
			"path":    pathProp,
			"margins": marginsProp,
			"page":    map[string]any{"type": "integer", "description": "1-based page number (default 1)"},
			"width":   map[string]any{"type": "number", "description": "Viewport width in pixels (default 800)"},
			"height":  map[string]any{"type": "number", "description": "Viewport height in pixels (default 1000)"},
		}, []string{"path"}),
	}
}

type previewReq struct {
	fileReq
	Page   int     `json:"page"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s *Server) handlePreview(ctx context.Context, r previewReq) (any, []mcp.Content, error) {
	if r.Page == 0 {
		r.Page = 1
	}
	if r.Width == 0 && r.Height == 0 {
		r.Width, r.Height = 800, 1000
	}
	sess, err := s.open(r.fileReq)
	if err != nil {
		return nil, nil, err
	}
	defer sess.Close()
	if _, err := sess.Seek(r.Page - 1); err != nil {
		return nil, nil, err
	}

	viewport := geometry.Size{W: r.Width, H: r.Height}
	var buf bytes.Buffer
	p, err := sess.WritePreviewPNG(ctx, viewport, &buf)
	if err != nil {
		return nil, nil, err
	}
	resp := map[string]any{
		"page":    r.Page,
		"scale":   p.Image.Scale,
		"image":   p.Image.Size(),
		"overlay": p.Overlay,
	}
	return resp, []mcp.Content{&mcp.ImageContent{Data: buf.Bytes(), MIMEType: "image/png"}}, nil
}
