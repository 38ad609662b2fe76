package preview

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/lvillar/marginblank/geometry"
)

// Style is how overlay bands are painted on a preview.
type Style struct {
	Fill         color.Color // translucent band fill
	Outline      color.Color
	OutlineWidth int
}

// DefaultStyle is a half-transparent white band with a 2px red outline.
var DefaultStyle = Style{
	Fill:         color.NRGBA{R: 255, G: 255, B: 255, A: 128},
	Outline:      color.NRGBA{R: 255, A: 255},
	OutlineWidth: 2,
}

// Composite returns a new image with base drawn first and each overlay band
// painted on top. base is not modified, so repeated calls never accumulate
// bands from earlier margins.
func Composite(base image.Image, bands []geometry.EdgeRect, st Style) *image.RGBA {
	b := base.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), base, b.Min, draw.Src)

	fill := image.NewUniform(st.Fill)
	line := image.NewUniform(st.Outline)
	for _, band := range bands {
		r := pixelRect(band.Rect).Intersect(dst.Bounds())
		if r.Empty() {
			continue
		}
		draw.Draw(dst, r, fill, image.Point{}, draw.Over)
		for _, edge := range outline(r, st.OutlineWidth) {
			draw.Draw(dst, edge, line, image.Point{}, draw.Over)
		}
	}
	return dst
}

func pixelRect(r geometry.Rect) image.Rectangle {
	return image.Rect(
		int(math.Round(r.X0)), int(math.Round(r.Y0)),
		int(math.Round(r.X1)), int(math.Round(r.Y1)),
	)
}

// outline returns the four strips of width w just inside r.
func outline(r image.Rectangle, w int) []image.Rectangle {
	if w <= 0 {
		return nil
	}
	return []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, min(r.Min.Y+w, r.Max.Y)),
		image.Rect(r.Min.X, max(r.Max.Y-w, r.Min.Y), r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, min(r.Min.X+w, r.Max.X), r.Max.Y),
		image.Rect(max(r.Max.X-w, r.Min.X), r.Min.Y, r.Max.X, r.Max.Y),
	}
}
