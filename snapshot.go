package main

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/olivier-w/sharepreview/internal/analyser"
	"github.com/olivier-w/sharepreview/internal/loudness"
	"github.com/olivier-w/sharepreview/internal/player"
	"github.com/olivier-w/sharepreview/internal/snapshot"
	"github.com/olivier-w/sharepreview/internal/visualizer"
)

// mobileMaxWidth matches the preview page breakpoint.
const mobileMaxWidth = 700

// renderSnapshot decodes the first cfg.frames frames of audio, drives the
// visualizers with them and writes the last frame and its mirror to cfg.png.
// The loudness readings are printed to out.
func renderSnapshot(ctx context.Context, cfg config, out io.Writer) error {
	src, err := player.Open(cfg.path)
	if err != nil {
		return errors.Wrap(err, "failed to open audio")
	}
	defer src.Close()

	an, err := analyser.New(analyser.Options{
		FFTSize:    cfg.fftSize,
		SampleRate: src.SampleRate(),
		Channels:   src.ChannelCount(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to create analyser")
	}

	clock := visualizer.NewFrameClock()
	frame := snapshot.New(0, 0)
	mirror := snapshot.New(0, 0)
	spectrum, err := visualizer.NewSpectrumRenderer(cfg.spectrum, clock, frame, mirror)
	if err != nil {
		return errors.Wrap(err, "failed to create spectrum renderer")
	}
	defer spectrum.Close()
	spectrum.OnBreakpointChange(cfg.width <= mobileMaxWidth)
	spectrum.OnResize(float64(cfg.width), float64(cfg.height))

	meter := visualizer.NewLoudnessMeter(clock)
	defer meter.Close()
	if cfg.hasLUFS() {
		meter.SetServerLUFS(cfg.lufs, true)
	} else if cfg.measure {
		v, err := player.MeasureFile(ctx, cfg.path)
		switch {
		case err == nil:
			meter.SetServerLUFS(v, true)
		case errors.Is(err, loudness.ErrTooQuiet):
		default:
			return errors.Wrap(err, "failed to measure loudness")
		}
	}

	spectrum.SetAnalyser(an)
	meter.SetAnalyser(an)
	spectrum.SetPlaying(true)
	meter.SetPlaying(true)

	frameBytes := src.ChannelCount() * 2
	chunk := make([]byte, max(src.SampleRate()/cfg.fps, 1)*frameBytes)
	rendered := 0
	for rendered < cfg.frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := io.ReadFull(src, chunk)
		an.Write(chunk[:n])
		clock.Advance()
		rendered++
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return errors.Wrap(err, "failed to decode audio")
		}
	}

	if err := snapshot.SavePNG(cfg.png, frame, mirror); err != nil {
		return errors.Wrapf(err, "failed to write %s", cfg.png)
	}

	r := meter.Reading()
	server := visualizer.FormatLUFS(r.Server)
	if !r.HasServer {
		server = "—"
	}
	fmt.Fprintf(out, "frames: %d\nbars:   %d\nnow:    %s\npeak:   %s\ntrack:  %s\n",
		rendered, spectrum.BarCount(),
		visualizer.FormatLUFS(r.Current), visualizer.FormatLUFS(r.Peak), server)
	return nil
}
