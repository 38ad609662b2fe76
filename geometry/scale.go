package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/lvillar/marginblank"
)

// ErrViewportNotReady is returned while the viewport has no size yet. Callers
// retry once layout has happened.
var ErrViewportNotReady = errors.New("geometry: viewport has not been laid out")

// Scale is a uniform page-to-pixel factor and the bitmap size it produces.
type Scale struct {
	Factor float64 `json:"factor"`
	ImgW   int     `json:"img_width"`
	ImgH   int     `json:"img_height"`
}

// Image returns the bitmap size as a Size.
func (s Scale) Image() Size {
	return Size{W: float64(s.ImgW), H: float64(s.ImgH)}
}

// ComputeScale fits a page of the given size into the viewport, preserving
// aspect ratio, then shrinks it by fitFraction to leave some space around it.
func ComputeScale(viewport, page Size, fitFraction float64) (Scale, error) {
	if !viewport.Valid() {
		return Scale{}, marginblank.NewError(marginblank.KindRender, "ComputeScale", "",
			fmt.Errorf("%w: viewport %s", ErrViewportNotReady, viewport))
	}
	if !page.Valid() {
		return Scale{}, marginblank.NewError(marginblank.KindRender, "ComputeScale", "",
			fmt.Errorf("invalid page size %s", page))
	}
	if !(fitFraction > 0 && fitFraction <= 1) {
		return Scale{}, marginblank.NewError(marginblank.KindRender, "ComputeScale", "",
			fmt.Errorf("fit fraction %g outside (0, 1]", fitFraction))
	}

	f := math.Min(viewport.W/page.W, viewport.H/page.H) * fitFraction
	return Scale{
		Factor: f,
		ImgW:   atLeastOne(page.W * f),
		ImgH:   atLeastOne(page.H * f),
	}, nil
}

func atLeastOne(v float64) int {
	n := int(math.Round(v))
	if n < 1 {
		return 1
	}
	return n
}
