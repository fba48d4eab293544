package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/olivier-w/sharepreview/internal/visualizer"
)

// gaugeFloor is the quietest level the loudness gauge shows.
const gaugeFloor = -60.0

func newProgressBar() progress.Model {
	return progress.New(
		progress.WithScaledGradient("#3A7BD5", "#00D2FF"),
		progress.WithoutPercentage(),
	)
}

func newGauge() progress.Model {
	return progress.New(
		progress.WithScaledGradient("#40E0D0", "#FF5C78"),
		progress.WithoutPercentage(),
	)
}

func progressRatio(elapsed, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return max(0, min(elapsed/total, 1))
}

// gaugeLevel maps a loudness reading onto [0, 1] between gaugeFloor and
// 0 LUFS. Unavailable readings sit at zero.
func gaugeLevel(lufs float64) float64 {
	if !visualizer.Available(lufs) {
		return 0
	}
	return max(0, min((lufs-gaugeFloor)/-gaugeFloor, 1))
}

func renderVolumePercent(vol float64) string {
	return fmt.Sprintf("vol %d%%", int(vol*100+0.5))
}
