package ui

import "github.com/charmbracelet/harmonica"

// springField eases a set of gauge needles towards their targets.
type springField struct {
	spring harmonica.Spring
	pos    []float64
	vel    []float64
}

func newSpringField(fps int, n int, frequency, damping float64) springField {
	return springField{
		spring: harmonica.NewSpring(harmonica.FPS(max(fps, 1)), frequency, damping),
		pos:    make([]float64, n),
		vel:    make([]float64, n),
	}
}

// step moves needle i one frame towards target and returns its position,
// clamped to [0, 1].
func (s *springField) step(i int, target float64) float64 {
	p, v := s.spring.Update(s.pos[i], s.vel[i], target)
	s.pos[i] = p
	s.vel[i] = v
	return max(0, min(p, 1))
}

func (s *springField) reset() {
	clear(s.pos)
	clear(s.vel)
}
