package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/integrii/flaggy"
)

// AppName is the app name
const AppName = "sharepreview"

// AppDesc is the app description
const AppDesc = "Terminal audio preview with a spectrum and a loudness meter"

var version = "unknown"

func main() {
	log.SetFlags(0)

	cfg := newZeroConfig()
	doFlags(&cfg)

	chk(cfg.Sanitize(), "invalid config")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if cfg.png != "" {
		chk(renderSnapshot(ctx, cfg, os.Stdout), "failed to render snapshot")
		return
	}

	// stdout belongs to the TUI; log to a file or nowhere.
	if cfg.debugLog != "" {
		f, err := tea.LogToFile(cfg.debugLog, AppName)
		chk(err, "failed to open debug log")
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}
	err := runPreview(ctx, cfg)
	log.SetOutput(os.Stderr)
	chk(err, "failed to run preview")
}

func doFlags(cfg *config) {
	parser := flaggy.NewParser(AppName)
	parser.Description = AppDesc
	parser.Version = version

	parser.AddPositionalValue(&cfg.path, "file", 1, true, "audio file (.mp3, .wav, .flac, .ogg)")

	parser.String(&cfg.variant, "v", "variant", "spectrum variant (advanced, simple)")
	parser.Int(&cfg.desktopBars, "b", "bars", "bar count on wide layouts (0 for the variant default)")
	parser.Int(&cfg.mobileBars, "mb", "mobile-bars", "bar count on narrow layouts (0 for the variant default)")
	parser.Float64(&cfg.gap, "g", "gap", "gap between bars in pixels (negative for the variant default)")
	parser.Float64(&cfg.smoothing, "s", "smoothing", "bar smoothing factor (0, 1]")
	parser.Int(&cfg.fps, "f", "fps", "frame rate")
	parser.Int(&cfg.cellPx, "c", "cell-px", "pixels per terminal column, used for the mobile breakpoint")
	parser.Int(&cfg.fftSize, "n", "fft", "analyser fft size (power of two, 32 to 32768)")
	parser.Float64(&cfg.lufs, "l", "lufs", "track loudness computed elsewhere")
	parser.Bool(&cfg.measure, "m", "measure", "measure the track loudness when --lufs is not given")
	parser.Float64(&cfg.volume, "vol", "volume", "initial volume (0, 1]")
	parser.String(&cfg.png, "p", "png", "render a snapshot to this PNG instead of playing")
	parser.Int(&cfg.frames, "fr", "frames", "frames to render before the snapshot")
	parser.Int(&cfg.width, "wd", "width", "snapshot width in pixels")
	parser.Int(&cfg.height, "ht", "height", "snapshot height in pixels")
	parser.String(&cfg.debugLog, "", "debug-log", "write log output to this file")

	chk(parser.Parse(), "failed to parse arguments")
}

func chk(err error, wrap string) {
	if err != nil {
		log.Fatalln(wrap+": ", err)
	}
}
