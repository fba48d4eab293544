// Package analyser turns the player's PCM tap into frequency and
// time-domain snapshots with the semantics of a Web Audio AnalyserNode.
package analyser

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/bits"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

const (
	DefaultFFTSize     = 4096
	DefaultSmoothing   = 0.8
	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0
	DefaultSampleRate  = 48000
	DefaultChannels    = 2

	minFFTSize = 32
	maxFFTSize = 32768
)

// ErrFFTSize is returned for sizes that are not a power of two in
// [32, 32768].
var ErrFFTSize = errors.New("fft size must be a power of two between 32 and 32768")

// Options configures an Analyser. Zero fields take the defaults.
type Options struct {
	FFTSize     int
	Smoothing   float64
	MinDecibels float64
	MaxDecibels float64
	SampleRate  int
	Channels    int // interleaved channels in the PCM handed to Write
}

func (o Options) withDefaults() Options {
	if o.FFTSize == 0 {
		o.FFTSize = DefaultFFTSize
	}
	if o.Smoothing == 0 {
		o.Smoothing = DefaultSmoothing
	}
	if o.MinDecibels == 0 && o.MaxDecibels == 0 {
		o.MinDecibels, o.MaxDecibels = DefaultMinDecibels, DefaultMaxDecibels
	}
	if o.SampleRate == 0 {
		o.SampleRate = DefaultSampleRate
	}
	if o.Channels == 0 {
		o.Channels = DefaultChannels
	}
	return o
}

// Validate reports the first unusable option.
func (o Options) Validate() error {
	switch {
	case o.FFTSize < minFFTSize || o.FFTSize > maxFFTSize || bits.OnesCount(uint(o.FFTSize)) != 1:
		return fmt.Errorf("%w: got %d", ErrFFTSize, o.FFTSize)
	case o.Smoothing < 0 || o.Smoothing > 1:
		return fmt.Errorf("smoothing %v out of range [0, 1]", o.Smoothing)
	case o.MinDecibels >= o.MaxDecibels:
		return fmt.Errorf("min decibels %v must be below max decibels %v", o.MinDecibels, o.MaxDecibels)
	case o.SampleRate <= 0:
		return fmt.Errorf("invalid sample rate %d", o.SampleRate)
	case o.Channels <= 0:
		return fmt.Errorf("invalid channel count %d", o.Channels)
	}
	return nil
}

// Analyser is safe for one writer (the audio path) and one reader (the frame
// loop) at the same time.
type Analyser struct {
	opts Options
	in   *ring

	mu       sync.Mutex
	fft      *fourier.FFT
	frame    []float64
	coeffs   []complex128
	smoothed []float64
	mono     []float64

	computed bool
	at       uint64
}

// New returns an analyser for opts.
func New(opts Options) (*Analyser, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	n := opts.FFTSize
	return &Analyser{
		opts:     opts,
		in:       newRing(n),
		fft:      fourier.NewFFT(n),
		frame:    make([]float64, n),
		coeffs:   make([]complex128, n/2+1),
		smoothed: make([]float64, n/2),
	}, nil
}

func (a *Analyser) FFTSize() int           { return a.opts.FFTSize }
func (a *Analyser) FrequencyBinCount() int { return a.opts.FFTSize / 2 }
func (a *Analyser) SampleRate() float64    { return float64(a.opts.SampleRate) }

// Write consumes interleaved signed 16-bit little-endian PCM and mixes it
// down to mono. A trailing partial frame is dropped.
func (a *Analyser) Write(p []byte) {
	frameBytes := 2 * a.opts.Channels
	frames := len(p) / frameBytes
	if frames == 0 {
		return
	}

	a.mu.Lock()
	if cap(a.mono) < frames {
		a.mono = make([]float64, frames)
	}
	mono := a.mono[:frames]
	for i := range frames {
		var sum float64
		for ch := range a.opts.Channels {
			off := i*frameBytes + ch*2
			sum += float64(int16(binary.LittleEndian.Uint16(p[off:])))
		}
		mono[i] = sum / float64(a.opts.Channels) / 32768
	}
	a.in.write(mono)
	a.mu.Unlock()
}

// WriteSamples appends mono samples in [-1, 1].
func (a *Analyser) WriteSamples(samples []float64) {
	a.in.write(samples)
}

// Reset drops the sample history and the smoothing state.
func (a *Analyser) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.in.clear()
	clear(a.smoothed)
	a.computed = false
}

// ByteTimeDomainData fills dst with the latest waveform as unsigned bytes
// centred at 128.
func (a *Analyser) ByteTimeDomainData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.in.latest(a.frame)
	n := min(len(dst), len(a.frame))
	for i := range n {
		v := math.Floor(128 * (1 + a.frame[i]))
		dst[i] = clampByte(v)
	}
}

// FloatFrequencyData fills dst with the smoothed spectrum in decibels.
func (a *Analyser) FloatFrequencyData(dst []float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.analyse()
	n := min(len(dst), len(a.smoothed))
	for i := range n {
		dst[i] = toDecibels(a.smoothed[i])
	}
}

// ByteFrequencyData fills dst with the smoothed spectrum scaled from
// [MinDecibels, MaxDecibels] onto [0, 255].
func (a *Analyser) ByteFrequencyData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.analyse()
	lo, hi := a.opts.MinDecibels, a.opts.MaxDecibels
	scale := 255 / (hi - lo)
	n := min(len(dst), len(a.smoothed))
	for i := range n {
		db := toDecibels(a.smoothed[i])
		dst[i] = clampByte(math.Floor(scale * (db - lo)))
	}
}

// analyse recomputes the smoothed magnitudes when new samples arrived since
// the previous call. Callers hold mu.
func (a *Analyser) analyse() {
	at := a.in.latest(a.frame)
	if a.computed && at == a.at {
		return
	}
	a.computed, a.at = true, at

	window.Blackman(a.frame)
	a.coeffs = a.fft.Coefficients(a.coeffs, a.frame)

	tau := a.opts.Smoothing
	norm := 1 / float64(a.opts.FFTSize)
	for k := range a.smoothed {
		c := a.coeffs[k]
		mag := math.Hypot(real(c), imag(c)) * norm
		s := tau*a.smoothed[k] + (1-tau)*mag
		if math.IsNaN(s) || math.IsInf(s, 0) {
			s = 0
		}
		a.smoothed[k] = s
	}
}

func toDecibels(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(v)
}

func clampByte(v float64) byte {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 255:
		return 255
	}
	return byte(v)
}
