package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/sharepreview/internal/loudness"
	"github.com/olivier-w/sharepreview/internal/player"
	"github.com/olivier-w/sharepreview/internal/util"
	"github.com/olivier-w/sharepreview/internal/visualizer"
)

// mobileMaxWidth is the widest layout, in pixels, that still counts as
// mobile.
const mobileMaxWidth = 700

// Playback is the part of the player the preview page drives.
type Playback interface {
	TogglePause()
	Paused() bool
	Seek(delta time.Duration) error
	Restart() error
	AdjustVolume(delta float64)
	Volume() float64
	Position() time.Duration
	Duration() time.Duration
	Done() <-chan struct{}
	Close()
}

// Analyser is the live analysis node fed by the player tap.
type Analyser interface {
	visualizer.AnalysisNode
	Reset()
}

// Options configures the preview page.
type Options struct {
	Spectrum visualizer.SpectrumConfig
	FPS      int
	CellPx   int // horizontal pixels per terminal column

	// ServerLUFS is shown as is when HasServerLUFS is set. Otherwise, if
	// MeasurePath is not empty, it is measured in the background.
	ServerLUFS    float64
	HasServerLUFS bool
	MeasurePath   string
}

// Model is the Bubbletea model for the preview page.
type Model struct {
	playback Playback
	metadata player.Metadata
	analyser Analyser
	opts     Options

	clock    *visualizer.FrameClock
	spectrum *visualizer.SpectrumRenderer
	meter    *visualizer.LoudnessMeter
	surface  *visualizer.CellSurface
	mirror   *visualizer.CellSurface

	progress progress.Model
	gauge    progress.Model
	needles  springField
	spinner  spinner.Model

	done     <-chan struct{}
	elapsed  time.Duration
	duration time.Duration
	volume   float64
	paused   bool
	ended    bool
	loop     LoopMode

	width, height int
	mobile        bool
	showMirror    bool
	measuring     bool
	measureErr    error
	measureCtx    context.Context
	cancelMeasure context.CancelFunc
	quitting      bool
}

// New builds the page around an already started playback.
func New(p Playback, meta player.Metadata, a Analyser, opts Options) (Model, error) {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.CellPx <= 0 {
		opts.CellPx = 8
	}

	clock := visualizer.NewFrameClock()
	cellH := float64(opts.CellPx * 2)
	surface := visualizer.NewCellSurface(float64(opts.CellPx), cellH)
	mirror := visualizer.NewCellSurface(float64(opts.CellPx), cellH)
	mirror.SetOpacity(0.45)

	spectrum, err := visualizer.NewSpectrumRenderer(opts.Spectrum, clock, surface, mirror)
	if err != nil {
		return Model{}, err
	}
	meter := visualizer.NewLoudnessMeter(clock)
	meter.SetServerLUFS(opts.ServerLUFS, opts.HasServerLUFS)

	s := spinner.New()
	s.Spinner = spinner.Dot

	m := Model{
		playback:   p,
		metadata:   meta,
		analyser:   a,
		opts:       opts,
		clock:      clock,
		spectrum:   spectrum,
		meter:      meter,
		surface:    surface,
		mirror:     mirror,
		progress:   newProgressBar(),
		gauge:      newGauge(),
		needles:    newSpringField(opts.FPS, 1, 6.0, 0.8),
		spinner:    s,
		done:       p.Done(),
		duration:   p.Duration(),
		volume:     p.Volume(),
		paused:     p.Paused(),
		showMirror: true,
	}
	if !opts.HasServerLUFS && opts.MeasurePath != "" {
		m.measuring = true
		m.measureCtx, m.cancelMeasure = context.WithCancel(context.Background())
	}

	if a != nil {
		spectrum.SetAnalyser(a)
		meter.SetAnalyser(a)
	}
	m.syncPlaying()
	return m, nil
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		frameCmd(m.opts.FPS),
		tickCmd(),
		checkDone(m.done),
		tea.SetWindowTitle(windowTitle(m.metadata.Title, m.paused)),
	}
	if m.measuring {
		cmds = append(cmds, m.spinner.Tick, measureCmd(m.measureCtx, m.opts.MeasurePath))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m.handleMsg(msg)
}

func (m Model) handleMsg(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case frameMsg:
		if m.quitting {
			return m, nil
		}
		m.clock.Advance()
		r := m.meter.Reading()
		m.needles.step(0, gaugeLevel(r.Current))
		return m, frameCmd(m.opts.FPS)

	case tickMsg:
		if m.quitting {
			return m, nil
		}
		m.elapsed = m.playback.Position()
		m.volume = m.playback.Volume()
		if paused := m.playback.Paused(); paused != m.paused {
			m.paused = paused
			m.syncPlaying()
		}
		return m, tickCmd()

	case serverLUFSMsg:
		m.measuring = false
		if msg.err != nil {
			if !errors.Is(msg.err, context.Canceled) {
				log.Printf("measuring loudness: %v", msg.err)
			}
			if !errors.Is(msg.err, loudness.ErrTooQuiet) {
				m.measureErr = msg.err
			}
			return m, nil
		}
		m.meter.SetServerLUFS(msg.value, true)
		return m, nil

	case spinner.TickMsg:
		if !m.measuring {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case playbackEndedMsg:
		if msg.done != m.done {
			return m, nil
		}
		if m.loop == LoopTrack {
			return m.restart()
		}
		m.ended = true
		m.elapsed = m.duration
		m.syncPlaying()
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if isQuit(msg) {
		return m.quit()
	}
	switch msg.String() {
	case " ":
		if m.ended {
			return m.restart()
		}
		m.playback.TogglePause()
		m.paused = m.playback.Paused()
		m.syncPlaying()
		return m, tea.SetWindowTitle(windowTitle(m.metadata.Title, m.paused))
	case "left", "h":
		m.seek(-5 * time.Second)
	case "right", "l":
		m.seek(5 * time.Second)
	case "+", "=", "up", "k":
		m.playback.AdjustVolume(0.05)
		m.volume = m.playback.Volume()
	case "-", "down", "j":
		m.playback.AdjustVolume(-0.05)
		m.volume = m.playback.Volume()
	case "m":
		m.showMirror = !m.showMirror
		m.layout()
	case "o":
		m.loop = m.loop.Next()
	case "r":
		return m.restart()
	}
	return m, nil
}

func (m *Model) seek(delta time.Duration) {
	if m.ended {
		return
	}
	if err := m.playback.Seek(delta); err != nil {
		log.Printf("seek: %v", err)
		return
	}
	if m.analyser != nil {
		m.analyser.Reset()
	}
	m.elapsed = m.playback.Position()
}

func (m Model) restart() (Model, tea.Cmd) {
	if err := m.playback.Restart(); err != nil {
		log.Printf("restart: %v", err)
		return m, nil
	}
	if m.analyser != nil {
		m.analyser.Reset()
	}
	m.ended = false
	m.paused = false
	m.elapsed = 0
	m.syncPlaying()

	cmds := []tea.Cmd{tea.SetWindowTitle(windowTitle(m.metadata.Title, false))}
	if done := m.playback.Done(); done != m.done {
		m.done = done
		cmds = append(cmds, checkDone(done))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) quit() (Model, tea.Cmd) {
	m.quitting = true
	if m.cancelMeasure != nil {
		m.cancelMeasure()
	}
	m.spectrum.Close()
	m.meter.Close()
	m.playback.Close()
	return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
}

// syncPlaying starts the visualizers while audio is audible and parks them
// otherwise.
func (m *Model) syncPlaying() {
	playing := !m.paused && !m.ended
	m.spectrum.SetPlaying(playing)
	m.meter.SetPlaying(playing)
	if !playing {
		m.needles.reset()
	}
}

// chromeLines is the number of rows the page uses besides the visualizer.
const chromeLines = 13

func (m *Model) layout() {
	cols := max(m.width-4, 10)
	m.progress.Width = max(cols-16, 10)
	m.gauge.Width = max(cols-32, 10)

	m.mobile = m.width*m.opts.CellPx <= mobileMaxWidth
	m.spectrum.OnBreakpointChange(m.mobile)

	rows := max(m.height-chromeLines, 3)
	barRows, mirrorRows := rows, 0
	if m.showMirror {
		mirrorRows = max(rows/3, 1)
		barRows = max(rows-mirrorRows, 2)
	}
	w, h := m.surface.PixelSize(cols, barRows)
	m.spectrum.OnResize(w, h)
	mw, mh := m.mirror.PixelSize(cols, mirrorRows)
	m.mirror.Resize(mw, mh)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n  " + headerStyle.Render("sharepreview") + "\n\n")
	b.WriteString("  " + titleStyle.Render(m.metadata.Title) + "\n")
	if sub := subtitle(m.metadata); sub != "" {
		b.WriteString("  " + artistStyle.Render(sub) + "\n")
	}
	b.WriteString("\n")

	writeIndented(&b, m.surface.Render())
	if m.showMirror {
		writeIndented(&b, m.mirror.Render())
	}
	b.WriteString("\n")

	elapsed := util.FormatDuration(m.elapsed)
	total := util.FormatDuration(m.duration)
	b.WriteString(fmt.Sprintf("  %s %s %s\n\n",
		timeStyle.Render(elapsed),
		m.progress.ViewAs(progressRatio(m.elapsed.Seconds(), m.duration.Seconds())),
		timeStyle.Render(total)))

	b.WriteString(m.loudnessView())
	b.WriteString("\n  " + m.statusLine() + "\n\n")
	b.WriteString("  " + helpStyle.Render(helpText(m.mobile)) + "\n")
	return b.String()
}

func (m Model) loudnessView() string {
	r := m.meter.Reading()
	needle := max(0, min(m.needles.pos[0], 1))

	var b strings.Builder
	b.WriteString("  " + meterLabelStyle.Render("now") + meterValueStyle.Render(visualizer.FormatLUFS(r.Current)) +
		"  " + m.gauge.ViewAs(needle) + "\n")
	b.WriteString("  " + meterLabelStyle.Render("peak") + meterValueStyle.Render(visualizer.FormatLUFS(r.Peak)) + "\n")

	server := visualizer.FormatLUFS(r.Server)
	switch {
	case m.measuring:
		server = m.spinner.View() + "measuring"
	case !r.HasServer && m.measureErr != nil:
		server = "error"
	case !r.HasServer:
		server = "—"
	}
	b.WriteString("  " + meterLabelStyle.Render("track") + meterValueStyle.Render(server) + "\n")
	return b.String()
}

func (m Model) statusLine() string {
	icon, text := "▶", "playing"
	switch {
	case m.ended:
		icon, text = "■", "ended"
	case m.paused:
		icon, text = "❚❚", "paused"
	}
	left := icon + "  " + text
	if li := m.loop.Icon(); li != "" {
		left += "  " + li
	}
	vol := renderVolumePercent(m.volume)
	gap := max(m.width-len(left)-len(vol)-4, 2)
	return statusStyle.Render(left) + strings.Repeat(" ", gap) + statusStyle.Render(vol)
}

func subtitle(meta player.Metadata) string {
	switch {
	case meta.Artist != "" && meta.Album != "":
		return meta.Artist + " - " + meta.Album
	case meta.Artist != "":
		return meta.Artist
	default:
		return meta.Album
	}
}

func writeIndented(b *strings.Builder, block string) {
	if block == "" {
		return
	}
	for line := range strings.SplitSeq(block, "\n") {
		b.WriteString("  " + line + "\n")
	}
}

func windowTitle(title string, paused bool) string {
	if paused {
		return "⏸ " + title + " — sharepreview"
	}
	return "▶ " + title + " — sharepreview"
}
