package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lvillar/marginblank"
	"github.com/lvillar/marginblank/geometry"
	"github.com/lvillar/marginblank/redact"
	"github.com/lvillar/marginblank/session"
)

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session)

func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, sess, ok := s.lookup(r)
		if !ok {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown session", Kind: "NotFound"})
			return
		}
		h(w, r, sess)
	}
}

type createResp struct {
	ID uuid.UUID `json:"id"`
	session.State
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}
	sess := session.New(s.opts...)
	if _, err := sess.Load(req.Path); err != nil {
		sess.Close()
		writeError(w, err)
		return
	}
	id := s.add(sess)
	writeJSON(w, http.StatusCreated, createResp{ID: id, State: sess.State()})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, sess.State())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, _, _ := s.lookup(r)
	sess, ok := s.remove(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "unknown session", Kind: "NotFound"})
		return
	}
	sess.Close()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNext(w http.ResponseWriter, _ *http.Request, sess *session.Session) {
	if _, err := sess.Next(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

func (s *Server) handlePrev(w http.ResponseWriter, _ *http.Request, sess *session.Session) {
	if _, err := sess.Prev(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		writeBadRequest(w, fmt.Errorf("page number: %w", err))
		return
	}
	if _, err := sess.Seek(n - 1); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

func (s *Server) handleGetMargins(w http.ResponseWriter, _ *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, sess.Margins().Snapshot())
}

func (s *Server) handleSetMargins(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var m geometry.Margins
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeBadRequest(w, err)
		return
	}
	got, err := sess.SetMargins(m)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, got)
}

func (s *Server) handleSetEdge(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	e, err := geometry.ParseEdge(chi.URLParam(r, "edge"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req struct {
		Value float64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}
	got, err := sess.SetEdge(e, req.Value)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, got)
}

// handleDragEdge sets a margin from a band boundary dragged on the preview.
// The viewport comes from the w and h query parameters, the pixel position
// from the body.
func (s *Server) handleDragEdge(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	e, err := geometry.ParseEdge(chi.URLParam(r, "edge"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	viewport, err := viewportParam(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}
	got, err := sess.DragEdge(viewport, e, req.X, req.Y)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, got)
}

func (s *Server) handleResetMargins(w http.ResponseWriter, _ *http.Request, sess *session.Session) {
	sess.ResetMargins()
	writeJSON(w, http.StatusOK, sess.Margins().Snapshot())
}

type overlayResp struct {
	Page    int                 `json:"page"`
	Scale   geometry.Scale      `json:"scale"`
	Overlay []geometry.EdgeRect `json:"overlay"`
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	viewport, err := viewportParam(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	sc, bands, err := sess.Overlay(viewport)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overlayResp{Page: sess.State().Current, Scale: sc, Overlay: bands})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	viewport, err := viewportParam(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	// Rendered fully before the header goes out so errors still map to JSON.
	var buf bytes.Buffer
	if _, err := sess.WritePreviewPNG(r.Context(), viewport, &buf); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

type commitResp struct {
	Redacted        *redact.Result `json:"redacted"`
	Converted       string         `json:"converted,omitempty"`
	ConversionError string         `json:"conversion_error,omitempty"`
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req struct {
		Convert bool `json:"convert"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, err)
			return
		}
	}

	if !req.Convert {
		res, err := sess.Commit(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, commitResp{Redacted: res})
		return
	}

	out, err := sess.CommitAndConvert(r.Context())
	if err != nil && !errors.Is(err, marginblank.ErrConversion) {
		writeError(w, err)
		return
	}
	resp := commitResp{Redacted: out.Redacted, Converted: out.Converted}
	if err != nil {
		resp.ConversionError = marginblank.Message(err)
	}
	writeJSON(w, http.StatusOK, resp)
}

func viewportParam(r *http.Request) (geometry.Size, error) {
	q := r.URL.Query()
	w, err := strconv.ParseFloat(q.Get("w"), 64)
	if err != nil {
		return geometry.Size{}, fmt.Errorf("w: %w", err)
	}
	h, err := strconv.ParseFloat(q.Get("h"), 64)
	if err != nil {
		return geometry.Size{}, fmt.Errorf("h: %w", err)
	}
	return geometry.Size{W: w, H: h}, nil
}
