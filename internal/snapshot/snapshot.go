// Package snapshot rasterises spectrum surfaces to images with
// tdewolff/canvas.
package snapshot

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/olivier-w/sharepreview/internal/visualizer"
)

// Background is painted behind every frame.
var Background = color.NRGBA{R: 12, G: 14, B: 24, A: 255}

// Surface records fills in pixels and rasterises them on demand.
type Surface struct {
	visualizer.DisplayList
}

// New returns a surface of width by height pixels.
func New(width, height float64) *Surface {
	s := &Surface{}
	s.Resize(width, height)
	return s
}

// Image renders the surface on its own.
func (s *Surface) Image() *image.RGBA {
	return Stack(s)
}

// Stack renders surfaces top to bottom into one image as wide as the widest.
func Stack(surfaces ...visualizer.Surface) *image.RGBA {
	var width, height float64
	for _, s := range surfaces {
		w, h := s.Size()
		width = max(width, w)
		height += h
	}
	if width <= 0 || height <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}

	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	ctx.SetFillColor(Background)
	ctx.DrawPath(0, 0, canvas.Rectangle(width, height))

	// canvas puts the origin bottom-left; ops use top-left.
	var top float64
	for _, s := range surfaces {
		_, h := s.Size()
		for _, op := range s.Ops() {
			ctx.SetFillColor(color.NRGBA{R: op.Color.R, G: op.Color.G, B: op.Color.B, A: op.Color.A})
			y := height - (top + op.Y + op.H)
			ctx.DrawPath(op.X, y, shape(op))
		}
		top += h
	}
	return rasterizer.Draw(c, canvas.DPMM(1), canvas.DefaultColorSpace)
}

func shape(op visualizer.Op) *canvas.Path {
	r := min(op.Radius, op.W/2, op.H/2)
	if r <= 0 {
		return canvas.Rectangle(op.W, op.H)
	}
	return canvas.RoundedRectangle(op.W, op.H, r)
}

// WritePNG encodes the stacked surfaces as PNG.
func WritePNG(w io.Writer, surfaces ...visualizer.Surface) error {
	if len(surfaces) == 0 {
		return errors.New("snapshot: nothing to render")
	}
	if err := png.Encode(w, Stack(surfaces...)); err != nil {
		return fmt.Errorf("snapshot: encoding png: %w", err)
	}
	return nil
}

// SavePNG writes the stacked surfaces to path.
func SavePNG(path string, surfaces ...visualizer.Surface) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WritePNG(f, surfaces...)
}
