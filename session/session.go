// Package session is the single-document workflow: load a PDF, move between
// pages, adjust margins, preview, then commit the blanked copy and optionally
// convert it.
//
// A Session is safe for concurrent use. Margins are read once at the start of
// each preview or commit, so an operation never sees a half-applied update.
package session

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"math"
	"sync"

	"github.com/lvillar/marginblank"
	"github.com/lvillar/marginblank/document"
	"github.com/lvillar/marginblank/geometry"
	"github.com/lvillar/marginblank/preview"
	"github.com/lvillar/marginblank/redact"
)

// Session holds the current document, the current page and the margins.
type Session struct {
	cfg     config
	margins *geometry.Model
	worker  *preview.Worker

	mu     sync.Mutex
	cursor *document.Cursor
}

// New returns an empty Session.
//
// Example:
//
//	s := session.New(
//	    session.WithRasterizer(preview.NewFitz()),
//	    session.WithConverter(&convert.Soffice{}),
//	)
func New(opts ...Option) *Session {
	cfg := newConfig(opts)
	s := &Session{
		cfg:     cfg,
		margins: geometry.NewModel(cfg.maxMargin, cfg.policy),
	}
	if cfg.rasterizer != nil {
		s.worker = preview.NewWorker(cfg.rasterizer, cfg.logger)
	}
	return s
}

// State is a snapshot of what an operator sees.
type State struct {
	Path     string           `json:"path,omitempty"`
	Pages    int              `json:"pages"`
	Current  int              `json:"current"` // 1-based, 0 when nothing is loaded
	Label    string           `json:"label,omitempty"`
	PageSize geometry.Size    `json:"page_size"`
	Margins  geometry.Margins `json:"margins"`
	Max      float64          `json:"max_margin"`
}

// Load opens path and makes its first page current. On failure the
// previously loaded document, if any, stays loaded.
func (s *Session) Load(path string) (*document.Document, error) {
	doc, err := document.Open(path)
	if err != nil {
		s.cfg.logger.Warn("session: load failed", "path", path, "error", err)
		return nil, err
	}
	s.mu.Lock()
	s.cursor = document.NewCursor(doc)
	s.mu.Unlock()
	s.cfg.logger.Info("session: loaded", "path", path, "pages", doc.PageCount())
	return doc, nil
}

// Document returns the loaded document, or nil.
func (s *Session) Document() *document.Document {
	c := s.currentCursor()
	if c == nil {
		return nil
	}
	return c.Document()
}

// State returns the current state.
func (s *Session) State() State {
	st := State{Margins: s.margins.Snapshot(), Max: s.margins.Max()}
	c := s.currentCursor()
	if c == nil {
		return st
	}
	p := c.Current()
	st.Path = c.Document().Path
	st.Pages = c.Document().PageCount()
	st.Current = p.Number()
	st.Label = c.Label()
	st.PageSize = p.Size
	return st
}

// Next moves to the next page; on the last page it stays put.
func (s *Session) Next() (document.Page, error) {
	c, err := s.requireCursor("Next")
	if err != nil {
		return document.Page{}, err
	}
	c.Next()
	return c.Current(), nil
}

// Prev moves to the previous page; on the first page it stays put.
func (s *Session) Prev() (document.Page, error) {
	c, err := s.requireCursor("Prev")
	if err != nil {
		return document.Page{}, err
	}
	c.Prev()
	return c.Current(), nil
}

// Seek makes 0-based page index current.
func (s *Session) Seek(index int) (document.Page, error) {
	c, err := s.requireCursor("Seek")
	if err != nil {
		return document.Page{}, err
	}
	return c.Seek(index)
}

// Margins returns the margins model.
func (s *Session) Margins() *geometry.Model { return s.margins }

// SetMargins replaces all four margins.
func (s *Session) SetMargins(m geometry.Margins) (geometry.Margins, error) {
	return s.margins.Set(m)
}

// SetEdge changes one margin.
func (s *Session) SetEdge(e geometry.Edge, v float64) (geometry.Margins, error) {
	return s.margins.SetEdge(e, v)
}

// DragEdge sets margin e from a band boundary dragged to pixel (px, py) on
// the preview of the current page fitted to viewport. The margin policy
// applies as for SetEdge.
func (s *Session) DragEdge(viewport geometry.Size, e geometry.Edge, px, py float64) (geometry.Margins, error) {
	c, err := s.requireCursor("DragEdge")
	if err != nil {
		return geometry.Margins{}, err
	}
	page := c.Current()
	sc, err := geometry.ComputeScale(viewport, page.Size, s.cfg.fitFraction)
	if err != nil {
		return s.margins.Snapshot(), err
	}
	img := sc.Image()
	v := geometry.NewTransform(page.Size, img).MarginAt(e, px, py, img)
	return s.margins.SetEdge(e, math.Max(v, 0))
}

// ResetMargins sets every margin to zero.
func (s *Session) ResetMargins() {
	s.margins.Reset()
}

// Overlay computes the preview geometry for the current page in a viewport
// without rendering: the scale and the nominal bitmap size, with the
// overlay bands mapped onto it.
func (s *Session) Overlay(viewport geometry.Size) (geometry.Scale, []geometry.EdgeRect, error) {
	c, err := s.requireCursor("Overlay")
	if err != nil {
		return geometry.Scale{}, nil, err
	}
	page := c.Current()
	m := s.margins.Snapshot()
	sc, err := geometry.ComputeScale(viewport, page.Size, s.cfg.fitFraction)
	if err != nil {
		return geometry.Scale{}, nil, err
	}
	return sc, geometry.MapMargins(m, page.Size, sc.Image()), nil
}

// Preview is a rendered page and the overlay for the margins at the time
// the preview started.
type Preview struct {
	Image   *preview.Image
	Margins geometry.Margins
	Overlay []geometry.EdgeRect
}

// Preview renders the current page to fit viewport. A newer Preview call
// cancels an older one still rendering.
func (s *Session) Preview(ctx context.Context, viewport geometry.Size) (*Preview, error) {
	c, err := s.requireCursor("Preview")
	if err != nil {
		return nil, err
	}
	if s.worker == nil {
		return nil, marginblank.NewError(marginblank.KindRender, "Preview", "", errors.New("no rasterizer configured"))
	}
	m := s.margins.Snapshot()
	res := s.worker.Render(ctx, preview.Request{
		Doc:         c.Document(),
		Page:        c.Current().Index,
		Viewport:    viewport,
		FitFraction: s.cfg.fitFraction,
		Margins:     m,
	})
	if res.Err != nil {
		err := res.Err
		if marginblank.KindOf(err) == marginblank.KindUnknown {
			// Superseded or cancelled renders surface as context errors.
			err = marginblank.NewError(marginblank.KindRender, "Preview", c.Document().Path, err)
		}
		return nil, err
	}
	return &Preview{Image: res.Image, Margins: m, Overlay: res.Overlay}, nil
}

// WritePreviewPNG renders the current page with the overlay painted on and
// encodes it as PNG. The returned Preview describes the bitmap written.
func (s *Session) WritePreviewPNG(ctx context.Context, viewport geometry.Size, w io.Writer) (*Preview, error) {
	p, err := s.Preview(ctx, viewport)
	if err != nil {
		return nil, err
	}
	img := preview.Composite(p.Image.Bitmap, p.Overlay, preview.DefaultStyle)
	if err := png.Encode(w, img); err != nil {
		return nil, marginblank.NewError(marginblank.KindRender, "Preview", "", fmt.Errorf("encoding png: %w", err))
	}
	return p, nil
}

// Commit writes the blanked copy of the loaded document next to it, named
// by marginblank.RedactedPath.
func (s *Session) Commit(ctx context.Context) (*redact.Result, error) {
	c, err := s.requireCursor("Commit")
	if err != nil {
		return nil, err
	}
	src := c.Document().Path
	m := s.margins.Snapshot()
	fill := s.cfg.fillColor
	s.cfg.logger.Info("session: commit", "src", src, "margins", m.String())
	res, err := redact.ApplyToFile(ctx, src, marginblank.RedactedPath(src), m, redact.Options{
		Color:  &fill,
		Logger: s.cfg.logger,
	})
	if err != nil {
		s.cfg.logger.Error("session: commit failed", "src", src, "error", err)
		return nil, err
	}
	return res, nil
}

// Outcome is the result of CommitAndConvert.
type Outcome struct {
	Redacted  *redact.Result `json:"redacted"`
	Converted string         `json:"converted,omitempty"`
}

// CommitAndConvert commits, then passes the blanked copy to the converter.
// When only the conversion fails, the returned Outcome still carries the
// blanked copy and the error is a ConversionError.
func (s *Session) CommitAndConvert(ctx context.Context) (*Outcome, error) {
	res, err := s.Commit(ctx)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Redacted: res}
	if s.cfg.converter == nil {
		return out, marginblank.NewError(marginblank.KindConversion, "Convert", res.Path, errors.New("no converter configured"))
	}

	cctx, cancel := context.WithTimeout(ctx, s.cfg.convertTimeout)
	defer cancel()
	converted, err := s.cfg.converter.Convert(cctx, res.Path)
	if err != nil {
		if marginblank.KindOf(err) != marginblank.KindConversion {
			err = marginblank.NewError(marginblank.KindConversion, "Convert", res.Path, err)
		}
		s.cfg.logger.Error("session: conversion failed", "src", res.Path, "error", err)
		return out, err
	}
	out.Converted = converted
	s.cfg.logger.Info("session: converted", "dst", converted)
	return out, nil
}

// Close stops any preview in flight.
func (s *Session) Close() {
	if s.worker != nil {
		s.worker.Stop()
	}
}

func (s *Session) currentCursor() *document.Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

func (s *Session) requireCursor(op string) (*document.Cursor, error) {
	c := s.currentCursor()
	if c == nil {
		return nil, marginblank.NewError(marginblank.KindNoFileSelected, op, "", nil)
	}
	return c, nil
}
