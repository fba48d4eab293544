package visualizer

import (
	"image/color"
	"strings"
	"testing"
)

func plainCells(cols, rows int) *CellSurface {
	s := NewCellSurface(4, 8)
	s.profile = colorNone
	w, h := s.PixelSize(cols, rows)
	s.Resize(w, h)
	return s
}

func TestCellSurfaceHalfBlocks(t *testing.T) {
	s := plainCells(3, 2)
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	s.FillRoundedRect(0, 12, 4, 4, 0, white) // lower half of row 1, col 0
	s.FillRoundedRect(4, 4, 4, 12, 0, white) // col 1 from the lower half of row 0
	s.FillRoundedRect(8, 0, 4, 16, 0, white) // col 2 full height

	got := s.Render()
	want := " ▄█\n▄██"
	if got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
}

func TestCellSurfaceThinBarsStillShow(t *testing.T) {
	s := plainCells(2, 1)
	s.FillRoundedRect(5, 0, 1, 8, 0, color.RGBA{G: 255, A: 255})
	if got := s.Render(); got != " █" {
		t.Fatalf("Render() = %q, want %q", got, " █")
	}
}

func TestCellSurfaceColourOutput(t *testing.T) {
	s := plainCells(1, 1)
	s.profile = colorTrueColor
	s.FillRoundedRect(0, 0, 4, 4, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	s.FillRoundedRect(0, 4, 4, 4, 0, color.RGBA{R: 40, G: 50, B: 60, A: 255})

	got := s.Render()
	for _, part := range []string{"\x1b[38;2;10;20;30m", "\x1b[48;2;40;50;60m", "▀", "\x1b[0m"} {
		if !strings.Contains(got, part) {
			t.Fatalf("Render() = %q, missing %q", got, part)
		}
	}
}

func TestCellSurfaceGrid(t *testing.T) {
	s := NewCellSurface(0, 0)
	w, h := s.PixelSize(80, 12)
	if w != 640 || h != 192 {
		t.Fatalf("PixelSize() = %vx%v, want 640x192", w, h)
	}
	s.Resize(w, h)
	if cols, rows := s.Grid(); cols != 80 || rows != 12 {
		t.Fatalf("Grid() = %dx%d, want 80x12", cols, rows)
	}
	empty := NewCellSurface(8, 16)
	if got := empty.Render(); got != "" {
		t.Fatalf("Render() on empty surface = %q, want empty", got)
	}
}

func TestDetectColorProfile(t *testing.T) {
	env := func(vars map[string]string) func(string) (string, bool) {
		return func(k string) (string, bool) {
			v, ok := vars[k]
			return v, ok
		}
	}
	cases := []struct {
		vars map[string]string
		want colorProfile
	}{
		{map[string]string{"NO_COLOR": "", "COLORTERM": "truecolor"}, colorNone},
		{map[string]string{"COLORTERM": "24bit", "TERM": "xterm"}, colorTrueColor},
		{map[string]string{"TERM": "xterm-256color"}, colorANSI256},
		{map[string]string{"TERM": "vt100"}, colorANSI16},
		{map[string]string{"TERM": "dumb"}, colorNone},
	}
	for _, c := range cases {
		if got := detectColorProfile(env(c.vars)); got != c.want {
			t.Fatalf("detectColorProfile(%v) = %v, want %v", c.vars, got, c.want)
		}
	}
}

func TestHeatColorEndpoints(t *testing.T) {
	if got := heatColor(-1); got != heatStops[0] {
		t.Fatalf("heatColor(-1) = %+v, want %+v", got, heatStops[0])
	}
	if got := heatColor(2); got != heatStops[len(heatStops)-1] {
		t.Fatalf("heatColor(2) = %+v, want %+v", got, heatStops[len(heatStops)-1])
	}
	if got := backgroundSequence("\x1b[31m"); got != "\x1b[41m" {
		t.Fatalf("backgroundSequence(16 colour) = %q", got)
	}
}

func TestCellSurfaceOpacityDims(t *testing.T) {
	s := plainCells(1, 1)
	s.profile = colorTrueColor
	s.SetOpacity(0.5)
	s.FillRoundedRect(0, 0, 4, 8, 0, color.RGBA{R: 200, G: 100, B: 50, A: 255})
	if got := s.Render(); !strings.Contains(got, "\x1b[38;2;99;49;24m") {
		t.Fatalf("Render() = %q, want colour at half intensity", got)
	}
}
