package visualizer

import (
	"errors"
	"fmt"
	"image/color"
	"math"
)

// Variant picks one of the two renderer presets.
type Variant uint8

const (
	// VariantAdvanced spreads bars logarithmically from 20 Hz to 20 kHz.
	VariantAdvanced Variant = iota
	// VariantSimple spreads bars linearly over the bins.
	VariantSimple
)

func (v Variant) String() string {
	if v == VariantSimple {
		return "simple"
	}
	return "advanced"
}

// ParseVariant accepts "advanced" or "simple".
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "", "advanced", "log":
		return VariantAdvanced, nil
	case "simple", "linear":
		return VariantSimple, nil
	}
	return VariantAdvanced, fmt.Errorf("unknown variant %q", s)
}

// SpectrumConfig holds the renderer options. It is resolved once per mount.
type SpectrumConfig struct {
	Mapping        Mapping
	DesktopBars    int
	MobileBars     int
	BarGap         float64
	PeakDecayRate  float64 // multiplier applied per frame once the hold ends
	PeakHoldFrames int
	Smoothing      float64 // exponential smoothing coefficient, (0,1]
	PeakMarker     float64 // marker thickness in surface units
}

// DefaultSpectrumConfig returns the preset for v.
func DefaultSpectrumConfig(v Variant) SpectrumConfig {
	cfg := SpectrumConfig{
		Mapping:        MappingLog,
		DesktopBars:    255,
		MobileBars:     50,
		BarGap:         1,
		PeakDecayRate:  0.95,
		PeakHoldFrames: 30,
		Smoothing:      0.15,
		PeakMarker:     2,
	}
	if v == VariantSimple {
		cfg.Mapping = MappingLinear
		cfg.DesktopBars = 150
		cfg.BarGap = 2
		cfg.Smoothing = 0.2
	}
	return cfg
}

// Validate reports the first unusable option.
func (c SpectrumConfig) Validate() error {
	switch {
	case c.DesktopBars < 1 || c.MobileBars < 1:
		return errors.New("bar count must be at least 1")
	case c.BarGap < 0:
		return errors.New("bar gap must not be negative")
	case c.Smoothing <= 0 || c.Smoothing > 1:
		return fmt.Errorf("smoothing factor %v out of range (0, 1]", c.Smoothing)
	case c.PeakDecayRate < 0 || c.PeakDecayRate > 1:
		return fmt.Errorf("peak decay rate %v out of range [0, 1]", c.PeakDecayRate)
	case c.PeakHoldFrames < 0:
		return errors.New("peak hold must not be negative")
	}
	return nil
}

// RenderState is the renderer's lifecycle state.
type RenderState uint8

const (
	Idle RenderState = iota
	Active
)

func (s RenderState) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

var peakColor = color.RGBA{R: 255, G: 252, B: 210, A: 255}

// SpectrumRenderer turns analyser magnitudes into a smoothed, boosted bar
// chart with peak markers and keeps a mirrored copy on a second surface.
// It is not safe for concurrent use; the frame loop owns it.
type SpectrumRenderer struct {
	cfg     SpectrumConfig
	sched   Scheduler
	surface Surface
	mirror  Surface

	node    AnalysisNode
	playing bool
	mobile  bool
	closed  bool

	width, height float64

	freq     []byte
	smoothed []float64
	peaks    []float64
	peakHold []int
	heights  []float64

	handle    Handle
	scheduled bool
}

// NewSpectrumRenderer creates an idle renderer. surface and mirror may be
// nil, in which case only the numeric state is updated.
func NewSpectrumRenderer(cfg SpectrumConfig, sched Scheduler, surface, mirror Surface) (*SpectrumRenderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("spectrum config: %w", err)
	}
	r := &SpectrumRenderer{
		cfg:     cfg,
		sched:   sched,
		surface: surface,
		mirror:  mirror,
	}
	r.allocate(r.BarCount())
	return r, nil
}

// SetAnalyser swaps the analysis node. nil puts the renderer in Idle.
func (r *SpectrumRenderer) SetAnalyser(n AnalysisNode) {
	r.cancel()
	r.node = n
	r.sync()
}

// SetPlaying starts or stops the frame loop.
func (r *SpectrumRenderer) SetPlaying(playing bool) {
	if playing == r.playing {
		return
	}
	r.cancel()
	r.playing = playing
	r.sync()
}

// OnResize updates the drawing geometry. Bar state is kept.
func (r *SpectrumRenderer) OnResize(width, height float64) {
	r.width, r.height = math.Max(width, 0), math.Max(height, 0)
	if r.surface != nil {
		r.surface.Resize(r.width, r.height)
	}
	if r.mirror != nil {
		r.mirror.Resize(r.width, r.height)
	}
}

// OnBreakpointChange switches between the mobile and desktop bar counts.
// A different count discards all bar state.
func (r *SpectrumRenderer) OnBreakpointChange(mobile bool) {
	if mobile == r.mobile {
		return
	}
	r.mobile = mobile
	r.allocate(r.BarCount())
}

// BarCount is the number of bars for the current device class.
func (r *SpectrumRenderer) BarCount() int {
	if r.mobile {
		return r.cfg.MobileBars
	}
	return r.cfg.DesktopBars
}

// State reports whether the frame loop is running.
func (r *SpectrumRenderer) State() RenderState {
	if r.active() {
		return Active
	}
	return Idle
}

// Close cancels the pending frame and clears both surfaces.
func (r *SpectrumRenderer) Close() {
	r.closed = true
	r.cancel()
	r.idle()
}

func (r *SpectrumRenderer) active() bool {
	return !r.closed && r.playing && r.node != nil
}

func (r *SpectrumRenderer) sync() {
	if !r.active() {
		r.idle()
		return
	}
	r.allocate(r.BarCount())
	r.schedule()
}

func (r *SpectrumRenderer) schedule() {
	if r.scheduled || r.sched == nil {
		return
	}
	r.handle = r.sched.ScheduleNext(r.frame)
	r.scheduled = true
}

func (r *SpectrumRenderer) cancel() {
	if !r.scheduled {
		return
	}
	if r.sched != nil {
		r.sched.Cancel(r.handle)
	}
	r.scheduled = false
}

func (r *SpectrumRenderer) frame() {
	r.scheduled = false
	if !r.active() {
		return
	}
	r.Step()
	r.schedule()
}

func (r *SpectrumRenderer) idle() {
	if r.surface != nil {
		r.surface.Clear()
	}
	if r.mirror != nil {
		r.mirror.Clear()
	}
	r.reset()
}

// allocate makes every per-bar slice exactly n long. Existing state is only
// kept when the length already matches.
func (r *SpectrumRenderer) allocate(n int) {
	if len(r.smoothed) == n && len(r.peaks) == n && len(r.peakHold) == n && len(r.heights) == n {
		return
	}
	r.smoothed = make([]float64, n)
	r.peaks = make([]float64, n)
	r.peakHold = make([]int, n)
	r.heights = make([]float64, n)
}

func (r *SpectrumRenderer) reset() {
	clear(r.smoothed)
	clear(r.peaks)
	clear(r.peakHold)
	clear(r.heights)
}

// Step renders one frame. It is a no-op while Idle.
func (r *SpectrumRenderer) Step() {
	n := r.BarCount()
	r.allocate(n)
	if !r.active() {
		return
	}

	bins := r.node.FrequencyBinCount()
	if bins <= 0 {
		return
	}
	if cap(r.freq) < bins {
		r.freq = make([]byte, bins)
	}
	r.freq = r.freq[:bins]
	r.node.ByteFrequencyData(r.freq)
	sampleRate := nodeSampleRate(r.node)

	draw := r.surface != nil && r.width > 0 && r.height > 0
	if draw {
		r.surface.Clear()
	}

	slot := r.width / float64(n)
	barWidth := slot - r.cfg.BarGap
	radius := math.Min(barWidth/2, 2)
	alpha := r.cfg.Smoothing

	for i := range n {
		var bin int
		if r.cfg.Mapping == MappingLinear {
			bin = LinearBin(i, n, bins)
		} else {
			bin = LogBin(i, n, bins, sampleRate)
		}

		adjusted := shape(float64(r.freq[bin]), i, n)

		s := r.smoothed[i]*(1-alpha) + adjusted*alpha
		if math.IsNaN(s) || s < 0 {
			s = 0
		} else if s > 255 {
			s = 255
		}
		r.smoothed[i] = s

		level := s / 255
		h := level * r.height
		r.heights[i] = h

		switch {
		case h > r.peaks[i]:
			r.peaks[i] = h
			r.peakHold[i] = r.cfg.PeakHoldFrames
		case r.peakHold[i] > 0:
			r.peakHold[i]--
		default:
			r.peaks[i] *= r.cfg.PeakDecayRate
		}
		if r.peaks[i] > r.height {
			r.peaks[i] = r.height
		} else if r.peaks[i] < 0 || math.IsNaN(r.peaks[i]) {
			r.peaks[i] = 0
		}

		if !draw || barWidth <= 0 {
			continue
		}
		x := float64(i) * slot
		if h > 0 {
			r.surface.FillRoundedRect(x, r.height-h, barWidth, h, radius, barColor(level))
		}
		if r.peaks[i] > 0 {
			markerY := math.Max(r.height-r.peaks[i]-r.cfg.PeakMarker, 0)
			r.surface.FillRoundedRect(x, markerY, barWidth, r.cfg.PeakMarker, 0, peakColor)
		}
	}

	if draw && r.mirror != nil {
		r.mirror.DrawMirrored(r.surface)
	}
}

// barColor grows brighter and more opaque with level.
func barColor(level float64) color.RGBA {
	c := heatColor(level)
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: uint8(255 * (0.35 + 0.65*clamp01(level)))}
}

// Heights returns a copy of the bar heights of the last frame.
func (r *SpectrumRenderer) Heights() []float64 { return append([]float64(nil), r.heights...) }

// Smoothed returns a copy of the smoothed 0-255 bar values.
func (r *SpectrumRenderer) Smoothed() []float64 { return append([]float64(nil), r.smoothed...) }

// Peaks returns a copy of the peak marker heights.
func (r *SpectrumRenderer) Peaks() []float64 { return append([]float64(nil), r.peaks...) }

// PeakHolds returns a copy of the remaining hold frames per bar.
func (r *SpectrumRenderer) PeakHolds() []int { return append([]int(nil), r.peakHold...) }
