package visualizer

import (
	"image/color"
	"testing"
)

func TestDisplayListMirrorFlipsAndScales(t *testing.T) {
	src := &DisplayList{}
	src.Resize(100, 50)
	src.FillRoundedRect(10, 30, 5, 20, 2, color.RGBA{R: 1, A: 255})

	dst := &DisplayList{}
	dst.Resize(200, 100)
	dst.DrawMirrored(src)

	ops := dst.Ops()
	if len(ops) != 1 {
		t.Fatalf("Ops() = %d, want 1", len(ops))
	}
	want := Op{X: 20, Y: 0, W: 10, H: 40, Radius: 2, Color: color.RGBA{R: 1, A: 255}}
	if ops[0] != want {
		t.Fatalf("mirrored op = %+v, want %+v", ops[0], want)
	}
}

func TestDisplayListIgnoresEmptyFills(t *testing.T) {
	d := &DisplayList{}
	d.Resize(10, 10)
	d.FillRoundedRect(0, 0, 0, 5, 0, color.White)
	d.FillRoundedRect(0, 0, 5, -1, 0, color.White)
	if got := len(d.Ops()); got != 0 {
		t.Fatalf("Ops() = %d, want 0", got)
	}
	d.FillRoundedRect(0, 0, 5, 5, 0, color.NRGBA{R: 200, A: 128})
	if got := d.Ops()[0].Color; got != (color.RGBA{R: 200, A: 128}) {
		t.Fatalf("stored color = %+v, want straight alpha", got)
	}
	d.Resize(-3, 4)
	if w, h := d.Size(); w != 0 || h != 4 || len(d.Ops()) != 0 {
		t.Fatalf("after Resize: size %vx%v ops %d", w, h, len(d.Ops()))
	}
}
