package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lvillar/marginblank"
	"github.com/lvillar/marginblank/document"
)

// RegisterDefaultResources adds the pdf://pages resource, which lists page
// sizes: pdf://pages?path=/path/to/file.pdf
func RegisterDefaultResources(s *Server) {
	s.srv.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "pdf://pages{?path}",
		Name:        "PDF Page Info",
		Description: "Page count and the size of every page in points.",
		MIMEType:    "application/json",
	}, handlePagesResource)
}

func extractPathFromURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	path := u.Query().Get("path")
	if path == "" {
		return "", fmt.Errorf("missing 'path' parameter in URI")
	}
	return path, nil
}

func handlePagesResource(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	path, err := extractPathFromURI(uri)
	if err != nil {
		return nil, err
	}
	doc, err := document.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s", marginblank.Message(err))
	}

	var pages []pageSize
	for _, p := range doc.Pages() {
		pages = append(pages, pageSize{Page: p.Number(), Width: p.Size.W, Height: p.Size.H})
	}
	data, err := json.MarshalIndent(map[string]any{
		"path":      path,
		"pageCount": doc.PageCount(),
		"pages":     pages,
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: "application/json", Text: string(data)}},
	}, nil
}
