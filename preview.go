package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"github.com/olivier-w/sharepreview/internal/analyser"
	"github.com/olivier-w/sharepreview/internal/player"
	"github.com/olivier-w/sharepreview/internal/ui"
)

// runPreview plays the file in the terminal preview page.
func runPreview(ctx context.Context, cfg config) error {
	an, err := analyser.New(analyser.Options{
		FFTSize:    cfg.fftSize,
		SampleRate: player.PlaybackSampleRate,
		Channels:   player.PlaybackChannels,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create analyser")
	}

	p, err := player.New(cfg.path, player.Options{Tap: an.Write, Volume: cfg.volume})
	if err != nil {
		return errors.Wrap(err, "failed to create player")
	}
	defer p.Close()

	model, err := ui.New(p, player.ReadMetadata(cfg.path), an, ui.Options{
		Spectrum:      cfg.spectrum,
		FPS:           cfg.fps,
		CellPx:        cfg.cellPx,
		ServerLUFS:    cfg.lufs,
		HasServerLUFS: cfg.hasLUFS(),
		MeasurePath:   cfg.measurePath(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to build preview")
	}

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
