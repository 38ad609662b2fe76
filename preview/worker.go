package preview

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lvillar/marginblank/document"
	"github.com/lvillar/marginblank/geometry"
)

// Request asks for one page rendered to fit Viewport with Margins overlaid.
type Request struct {
	Doc         *document.Document
	Page        int // 0-based
	Viewport    geometry.Size
	FitFraction float64
	Margins     geometry.Margins
}

// Result is the outcome of a Request. Overlay is mapped against the actual
// bitmap size of Image.
type Result struct {
	Seq     uint64
	Image   *Image
	Overlay []geometry.EdgeRect
	Err     error
}

// Worker renders previews off the caller's goroutine. Each Submit cancels the
// request before it, so only the latest page/viewport is ever worked on.
type Worker struct {
	r      Rasterizer
	logger *slog.Logger

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker returns a Worker rendering with r.
func NewWorker(r Rasterizer, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{r: r, logger: logger}
}

// Submit starts rendering req and returns a channel that receives exactly
// one Result. A superseded request receives its context error.
func (w *Worker) Submit(ctx context.Context, req Request) <-chan Result {
	ctx, cancel := context.WithCancel(ctx)

	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	w.seq++
	seq := w.seq
	w.cancel = cancel
	w.mu.Unlock()

	out := make(chan Result, 1)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer cancel()
		res := Result{Seq: seq}
		img, err := Render(ctx, w.r, req.Doc, req.Page, req.Viewport, req.FitFraction)
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			res.Err = err
			w.logger.Debug("preview: render failed", "seq", seq, "page", req.Page+1, "error", err)
		} else {
			res.Image = img
			res.Overlay = img.Overlay(req.Margins)
		}
		out <- res
	}()
	return out
}

// Render submits req and waits for its result.
func (w *Worker) Render(ctx context.Context, req Request) Result {
	select {
	case res := <-w.Submit(ctx, req):
		return res
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	}
}

// Stop cancels the in-flight request and waits for it to finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Unlock()
	w.wg.Wait()
}
