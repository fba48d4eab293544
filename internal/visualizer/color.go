package visualizer

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"strings"
	"sync"
)

type colorProfile uint8

const (
	colorNone colorProfile = iota
	colorANSI16
	colorANSI256
	colorTrueColor
)

var (
	profileOnce sync.Once
	profile     colorProfile
	seqCache    sync.Map
)

func currentColorProfile() colorProfile {
	profileOnce.Do(func() {
		profile = detectColorProfile(os.LookupEnv)
	})
	return profile
}

func detectColorProfile(lookup func(string) (string, bool)) colorProfile {
	if _, disabled := lookup("NO_COLOR"); disabled {
		return colorNone
	}
	term, _ := lookup("TERM")
	colorTerm, _ := lookup("COLORTERM")
	term = strings.ToLower(term)
	colorTerm = strings.ToLower(colorTerm)
	switch {
	case strings.Contains(colorTerm, "truecolor"), strings.Contains(colorTerm, "24bit"):
		return colorTrueColor
	case strings.Contains(term, "256color"):
		return colorANSI256
	case term == "", term == "dumb":
		return colorNone
	default:
		return colorANSI16
	}
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	t = clamp01(t)
	mix := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t) }
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

// gradient stops for bar levels, quiet to loud.
var heatStops = []color.RGBA{
	{R: 24, G: 36, B: 96, A: 255},
	{R: 40, G: 132, B: 255, A: 255},
	{R: 64, G: 224, B: 208, A: 255},
	{R: 255, G: 214, B: 102, A: 255},
	{R: 255, G: 92, B: 120, A: 255},
}

func heatColor(t float64) color.RGBA {
	t = clamp01(t)
	seg := t * float64(len(heatStops)-1)
	i := int(seg)
	if i >= len(heatStops)-1 {
		return heatStops[len(heatStops)-1]
	}
	return lerpColor(heatStops[i], heatStops[i+1], seg-float64(i))
}

// flatten composites c over black; terminals have no alpha.
func flatten(c color.RGBA) color.RGBA {
	a := float64(c.A) / 255
	return color.RGBA{R: uint8(float64(c.R) * a), G: uint8(float64(c.G) * a), B: uint8(float64(c.B) * a), A: 255}
}

type ansiState struct {
	profile    colorProfile
	current    uint32
	background uint32
}

const noColor = ^uint32(0)

func newANSIState(p colorProfile) ansiState {
	return ansiState{profile: p, current: noColor, background: noColor}
}

func (s *ansiState) set(sb *strings.Builder, c color.RGBA) {
	if s.profile == colorNone {
		return
	}
	key := uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
	if key == s.current {
		return
	}
	sb.WriteString(colorSequence(s.profile, c))
	s.current = key
}

func (s *ansiState) setBackground(sb *strings.Builder, c color.RGBA) {
	if s.profile == colorNone {
		return
	}
	key := uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
	if key == s.background {
		return
	}
	sb.WriteString(backgroundSequence(colorSequence(s.profile, c)))
	s.background = key
}

func (s *ansiState) clearBackground(sb *strings.Builder) {
	if s.profile == colorNone || s.background == noColor {
		return
	}
	sb.WriteString("\x1b[49m")
	s.background = noColor
}

func (s *ansiState) reset(sb *strings.Builder) {
	if s.profile == colorNone || (s.current == noColor && s.background == noColor) {
		return
	}
	sb.WriteString("\x1b[0m")
	s.current = noColor
	s.background = noColor
}

// backgroundSequence turns a foreground SGR sequence into its background
// counterpart.
func backgroundSequence(fg string) string {
	switch {
	case strings.HasPrefix(fg, "\x1b[38;"):
		return "\x1b[48;" + fg[len("\x1b[38;"):]
	case len(fg) == len("\x1b[30m") && fg[2] == '3':
		return "\x1b[4" + fg[3:]
	}
	return fg
}

var ansi16 = []color.RGBA{
	{R: 0, G: 0, B: 0},
	{R: 205, G: 49, B: 49},
	{R: 13, G: 188, B: 121},
	{R: 229, G: 229, B: 16},
	{R: 36, G: 114, B: 200},
	{R: 188, G: 63, B: 188},
	{R: 17, G: 168, B: 205},
	{R: 229, G: 229, B: 229},
}

func colorSequence(p colorProfile, c color.RGBA) string {
	key := uint32(p)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
	if seq, ok := seqCache.Load(key); ok {
		return seq.(string)
	}

	var seq string
	switch p {
	case colorTrueColor:
		seq = fmt.Sprintf("\x1b[38;2;%d;%d;%dm", c.R, c.G, c.B)
	case colorANSI256:
		r := int(c.R) * 5 / 255
		g := int(c.G) * 5 / 255
		b := int(c.B) * 5 / 255
		seq = fmt.Sprintf("\x1b[38;5;%dm", 16+36*r+6*g+b)
	case colorANSI16:
		best := 0
		bestDist := math.MaxFloat64
		for i, q := range ansi16 {
			dr := float64(c.R) - float64(q.R)
			dg := float64(c.G) - float64(q.G)
			db := float64(c.B) - float64(q.B)
			if d := dr*dr + dg*dg + db*db; d < bestDist {
				bestDist = d
				best = i
			}
		}
		seq = fmt.Sprintf("\x1b[%dm", 30+best)
	}

	seqCache.Store(key, seq)
	return seq
}
