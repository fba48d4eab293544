package visualizer

import (
	"image/color"
	"math"
	"strings"
)

// CellSurface is a Surface measured in pixels and presented as terminal
// rows. Every cell is split into an upper and a lower half so bars get twice
// the vertical resolution of the grid.
type CellSurface struct {
	DisplayList

	cellW, cellH float64
	profile      colorProfile
	opacity      float64

	cover []bool
	fill  []color.RGBA
}

// NewCellSurface returns an empty surface whose cells are cellW by cellH
// pixels.
func NewCellSurface(cellW, cellH float64) *CellSurface {
	if cellW <= 0 {
		cellW = 8
	}
	if cellH <= 0 {
		cellH = 16
	}
	return &CellSurface{cellW: cellW, cellH: cellH, profile: currentColorProfile(), opacity: 1}
}

// SetOpacity scales the alpha of everything presented, so a reflection can
// sit dimmer than the bars it mirrors.
func (s *CellSurface) SetOpacity(a float64) {
	s.opacity = clamp01(a)
}

// Grid returns the number of columns and rows the current size covers.
func (s *CellSurface) Grid() (cols, rows int) {
	w, h := s.Size()
	return int(w / s.cellW), int(h / s.cellH)
}

// PixelSize converts a cell grid to surface units.
func (s *CellSurface) PixelSize(cols, rows int) (float64, float64) {
	return float64(max(cols, 0)) * s.cellW, float64(max(rows, 0)) * s.cellH
}

// Render rasterises the recorded ops. The result has exactly rows lines of
// cols cells each.
func (s *CellSurface) Render() string {
	cols, rows := s.Grid()
	if cols <= 0 || rows <= 0 {
		return ""
	}
	s.rasterise(cols, rows*2)

	var sb strings.Builder
	sb.Grow(rows * cols * 4)
	ansi := newANSIState(s.profile)
	for row := range rows {
		if row > 0 {
			ansi.reset(&sb)
			sb.WriteByte('\n')
		}
		for col := range cols {
			top := (row*2)*cols + col
			bottom := top + cols
			upper, lower := s.cover[top], s.cover[bottom]
			switch {
			case upper && lower && s.fill[top] == s.fill[bottom]:
				ansi.clearBackground(&sb)
				ansi.set(&sb, s.fill[top])
				sb.WriteString("█")
			case upper && lower:
				ansi.set(&sb, s.fill[top])
				ansi.setBackground(&sb, s.fill[bottom])
				sb.WriteString("▀")
			case upper:
				ansi.clearBackground(&sb)
				ansi.set(&sb, s.fill[top])
				sb.WriteString("▀")
			case lower:
				ansi.clearBackground(&sb)
				ansi.set(&sb, s.fill[bottom])
				sb.WriteString("▄")
			default:
				ansi.clearBackground(&sb)
				sb.WriteByte(' ')
			}
		}
	}
	ansi.reset(&sb)
	return sb.String()
}

// rasterise marks every half cell that an op covers at least halfway. Later
// ops paint over earlier ones.
func (s *CellSurface) rasterise(cols, halves int) {
	n := cols * halves
	if cap(s.cover) < n {
		s.cover = make([]bool, n)
		s.fill = make([]color.RGBA, n)
	}
	s.cover = s.cover[:n]
	s.fill = s.fill[:n]
	clear(s.cover)

	subH := s.cellH / 2
	for _, op := range s.Ops() {
		if op.Color.A == 0 {
			continue
		}
		c := op.Color
		c.A = uint8(float64(c.A) * s.opacity)
		c = flatten(c)
		needX := math.Min(op.W, s.cellW) / 2
		needY := math.Min(op.H, subH) / 2
		c0 := max(int(math.Floor(op.X/s.cellW)), 0)
		c1 := min(int(math.Ceil((op.X+op.W)/s.cellW)), cols)
		r0 := max(int(math.Floor(op.Y/subH)), 0)
		r1 := min(int(math.Ceil((op.Y+op.H)/subH)), halves)
		for r := r0; r < r1; r++ {
			top := float64(r) * subH
			if overlap(op.Y, op.H, top, subH) < needY {
				continue
			}
			for col := c0; col < c1; col++ {
				if overlap(op.X, op.W, float64(col)*s.cellW, s.cellW) < needX {
					continue
				}
				s.cover[r*cols+col] = true
				s.fill[r*cols+col] = c
			}
		}
	}
}

func overlap(a, aLen, b, bLen float64) float64 {
	return math.Min(a+aLen, b+bLen) - math.Max(a, b)
}
