package main

import (
	"errors"
	"fmt"
	"math"

	"github.com/olivier-w/sharepreview/internal/analyser"
	"github.com/olivier-w/sharepreview/internal/media"
	"github.com/olivier-w/sharepreview/internal/visualizer"
)

// config holds everything the command line can set.
type config struct {
	// path is the audio file to preview
	path string
	// variant picks the bar mapping, "advanced" or "simple"
	variant string
	// desktopBars and mobileBars override the variant's bar counts (0 keeps them)
	desktopBars int
	mobileBars  int
	// gap is the space between bars in pixels, negative keeps the variant's
	gap float64
	// smoothing overrides the exponential smoothing factor (0 keeps it)
	smoothing float64
	// fps is the frame rate of the visualizers
	fps int
	// cellPx is the width of one terminal column in pixels
	cellPx int
	// fftSize is the analyser window
	fftSize int
	// lufs is a loudness value computed elsewhere. NaN means unset.
	lufs float64
	// measure computes the track loudness when lufs is unset
	measure bool
	// png switches to headless mode and names the output image
	png string
	// frames is how many frames the headless mode renders
	frames int
	// width and height are the headless frame size in pixels
	width  int
	height int
	// volume is the initial playback volume in [0, 1]
	volume float64
	// debugLog names a file for log output while the TUI runs
	debugLog string

	spectrum visualizer.SpectrumConfig
}

func newZeroConfig() config {
	return config{
		variant: visualizer.VariantAdvanced.String(),
		gap:     -1,
		fps:     30,
		cellPx:  8,
		fftSize: analyser.DefaultFFTSize,
		lufs:    math.NaN(),
		measure: true,
		frames:  90,
		width:   1020,
		height:  240,
		volume:  0.8,
	}
}

// Sanitize validates the flags and resolves the spectrum configuration.
func (cfg *config) Sanitize() error {
	if cfg.path == "" {
		return errors.New("no audio file given")
	}
	if err := media.CheckFile(cfg.path); err != nil {
		return err
	}

	v, err := visualizer.ParseVariant(cfg.variant)
	if err != nil {
		return err
	}
	sc := visualizer.DefaultSpectrumConfig(v)
	if cfg.desktopBars != 0 {
		sc.DesktopBars = cfg.desktopBars
	}
	if cfg.mobileBars != 0 {
		sc.MobileBars = cfg.mobileBars
	}
	if cfg.gap >= 0 {
		sc.BarGap = cfg.gap
	}
	if cfg.smoothing != 0 {
		sc.Smoothing = cfg.smoothing
	}
	if err := sc.Validate(); err != nil {
		return err
	}
	cfg.spectrum = sc

	if err := (analyser.Options{FFTSize: cfg.fftSize}).Validate(); err != nil {
		return err
	}

	switch {
	case cfg.fps < 1 || cfg.fps > 240:
		return fmt.Errorf("frame rate %d out of range [1, 240]", cfg.fps)
	case cfg.cellPx < 1:
		return errors.New("cell width must be at least 1 pixel")
	case cfg.frames < 1:
		return errors.New("at least one frame is required")
	case cfg.width < 1 || cfg.height < 1:
		return fmt.Errorf("invalid snapshot size %dx%d", cfg.width, cfg.height)
	case math.IsInf(cfg.lufs, 0):
		return errors.New("loudness must be finite")
	}

	cfg.volume = max(0, min(cfg.volume, 1))
	return nil
}

func (cfg config) hasLUFS() bool {
	return !math.IsNaN(cfg.lufs)
}

// measurePath is the file to measure in the background, if any.
func (cfg config) measurePath() string {
	if cfg.hasLUFS() || !cfg.measure {
		return ""
	}
	return cfg.path
}
