package visualizer

import "image/color"

// Op is one recorded fill. Coordinates are in surface units with the origin
// at the top-left corner.
type Op struct {
	X, Y, W, H float64
	Radius     float64
	Color      color.RGBA // straight, not premultiplied, alpha
}

// Surface is a drawable target for the spectrum renderer.
type Surface interface {
	Size() (width, height float64)
	Resize(width, height float64)
	Clear()
	FillRoundedRect(x, y, w, h, radius float64, c color.Color)
	// DrawMirrored replaces the contents with src flipped about the
	// horizontal axis.
	DrawMirrored(src Surface)
	Ops() []Op
}

// DisplayList is a Surface that records fills. Backends embed it and
// rasterise the recorded ops when they are presented.
type DisplayList struct {
	width, height float64
	ops           []Op
}

func (d *DisplayList) Size() (float64, float64) { return d.width, d.height }

func (d *DisplayList) Resize(width, height float64) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	d.width, d.height = width, height
	d.ops = d.ops[:0]
}

func (d *DisplayList) Clear() { d.ops = d.ops[:0] }

func (d *DisplayList) FillRoundedRect(x, y, w, h, radius float64, c color.Color) {
	if w <= 0 || h <= 0 {
		return
	}
	d.ops = append(d.ops, Op{X: x, Y: y, W: w, H: h, Radius: radius, Color: toRGBA(c)})
}

func (d *DisplayList) DrawMirrored(src Surface) {
	d.ops = d.ops[:0]
	if src == nil {
		return
	}
	sw, sh := src.Size()
	if sw <= 0 || sh <= 0 {
		return
	}
	sx, sy := d.width/sw, d.height/sh
	for _, op := range src.Ops() {
		d.ops = append(d.ops, Op{
			X:      op.X * sx,
			Y:      d.height - (op.Y+op.H)*sy,
			W:      op.W * sx,
			H:      op.H * sy,
			Radius: op.Radius,
			Color:  op.Color,
		})
	}
}

// Ops returns the recorded fills in draw order. The slice is reused by the
// next frame.
func (d *DisplayList) Ops() []Op { return d.ops }

func toRGBA(c color.Color) color.RGBA {
	if c == nil {
		return color.RGBA{}
	}
	if rgba, ok := c.(color.RGBA); ok {
		return rgba
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return color.RGBA{R: n.R, G: n.G, B: n.B, A: n.A}
}
