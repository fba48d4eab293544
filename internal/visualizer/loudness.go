package visualizer

import (
	"fmt"
	"math"
)

const (
	// LUFSFloor is the reading used for silence or an inactive meter.
	LUFSFloor = -100.0

	kWeightingOffset = -0.691
	loudnessHold     = 60
	loudnessDecay    = 0.98
	loudnessRelease  = 0.1
)

// Reading is what the meter exposes for display.
type Reading struct {
	Current   float64
	Peak      float64
	Server    float64
	HasServer bool
}

// LoudnessMeter estimates short-term loudness from the analyser's time-domain
// buffer and keeps a held, decaying peak next to it.
type LoudnessMeter struct {
	sched Scheduler
	node  AnalysisNode

	playing bool
	closed  bool

	samples []byte
	current float64
	peak    float64
	hold    int

	server    float64
	hasServer bool

	handle    Handle
	scheduled bool
}

// NewLoudnessMeter returns an idle meter pinned to the floor.
func NewLoudnessMeter(sched Scheduler) *LoudnessMeter {
	return &LoudnessMeter{
		sched:   sched,
		current: LUFSFloor,
		peak:    LUFSFloor,
	}
}

// SetAnalyser swaps the analysis node. nil resets the meter.
func (m *LoudnessMeter) SetAnalyser(n AnalysisNode) {
	m.cancel()
	m.node = n
	m.sync()
}

// SetPlaying starts or stops metering.
func (m *LoudnessMeter) SetPlaying(playing bool) {
	if playing == m.playing {
		return
	}
	m.cancel()
	m.playing = playing
	m.sync()
}

// SetServerLUFS stores the externally measured loudness. It is displayed as
// is and never recomputed.
func (m *LoudnessMeter) SetServerLUFS(v float64, ok bool) {
	m.server, m.hasServer = v, ok && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Close cancels the pending frame and pins the readings to the floor.
func (m *LoudnessMeter) Close() {
	m.closed = true
	m.cancel()
	m.reset()
}

func (m *LoudnessMeter) active() bool {
	return !m.closed && m.playing && m.node != nil
}

func (m *LoudnessMeter) sync() {
	if !m.active() {
		m.reset()
		return
	}
	m.schedule()
}

func (m *LoudnessMeter) reset() {
	m.current = LUFSFloor
	m.peak = LUFSFloor
	m.hold = 0
}

func (m *LoudnessMeter) schedule() {
	if m.scheduled || m.sched == nil {
		return
	}
	m.handle = m.sched.ScheduleNext(m.frame)
	m.scheduled = true
}

func (m *LoudnessMeter) cancel() {
	if !m.scheduled {
		return
	}
	if m.sched != nil {
		m.sched.Cancel(m.handle)
	}
	m.scheduled = false
}

func (m *LoudnessMeter) frame() {
	m.scheduled = false
	if !m.active() {
		return
	}
	m.Step()
	m.schedule()
}

// Step reads one time-domain buffer and updates the readings.
func (m *LoudnessMeter) Step() {
	if !m.active() {
		m.reset()
		return
	}
	size := m.node.FFTSize()
	if size <= 0 {
		m.Observe(LUFSFloor)
		return
	}
	if cap(m.samples) < size {
		m.samples = make([]byte, size)
	}
	m.samples = m.samples[:size]
	m.node.ByteTimeDomainData(m.samples)
	m.Observe(MeasureLUFS(m.samples))
}

// Observe feeds one instantaneous reading through the peak hold. A new peak
// is held for 60 frames, counting the frame that set it, and then decays
// towards the current value. The decay scales the peak's height above
// LUFSFloor by 0.98 and subtracts 0.1 LU, rather than scaling the raw LUFS
// value, which would pull a negative peak upwards.
func (m *LoudnessMeter) Observe(lufs float64) {
	if math.IsNaN(lufs) || lufs < LUFSFloor {
		lufs = LUFSFloor
	}
	m.current = lufs

	if lufs > m.peak {
		m.peak = lufs
		m.hold = loudnessHold
		return
	}
	if m.hold > 0 {
		m.hold--
	}
	if m.hold == 0 {
		// Decay the height above the floor so the peak always falls.
		decayed := LUFSFloor + (m.peak-LUFSFloor)*loudnessDecay - loudnessRelease
		m.peak = math.Max(decayed, m.current)
	}
}

// Reading returns the current display values.
func (m *LoudnessMeter) Reading() Reading {
	return Reading{
		Current:   m.current,
		Peak:      m.peak,
		Server:    m.server,
		HasServer: m.hasServer,
	}
}

// MeasureLUFS computes an approximate loudness from unsigned 8-bit samples
// centred at 128. Silence maps to LUFSFloor.
func MeasureLUFS(samples []byte) float64 {
	if len(samples) == 0 {
		return LUFSFloor
	}
	var sum float64
	for _, s := range samples {
		v := (float64(s) - 128) / 128
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	db := 20 * math.Log10(rms)
	if math.IsInf(db, 0) || math.IsNaN(db) {
		return LUFSFloor
	}
	return math.Max(db+kWeightingOffset, LUFSFloor)
}

// Available reports whether v is a real reading rather than the floor.
func Available(v float64) bool {
	return v > LUFSFloor && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FormatLUFS renders a reading, or a dash when it is unavailable.
func FormatLUFS(v float64) string {
	if !Available(v) {
		return "—"
	}
	return fmt.Sprintf("%.1f LUFS", v)
}
