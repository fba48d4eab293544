// Package loudness measures integrated programme loudness as defined by
// ITU-R BS.1770: K-weighted mean square over 400 ms blocks with an absolute
// gate at -70 LUFS and a relative gate 10 LU below the ungated level.
package loudness

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/cwbudde/algo-dsp/measure/loudness"
)

// ErrTooQuiet is returned when no block passes the gates, including for
// empty input.
var ErrTooQuiet = errors.New("loudness: no audio above the gating threshold")

// Meter accumulates interleaved PCM and reports its integrated loudness.
type Meter struct {
	m        *loudness.Meter
	channels int
	gains    []float64

	stepLen int // frames per 100 ms gating step
	frames  int

	frame   []float64
	partial []byte // bytes of an incomplete frame carried between writes
}

// NewMeter returns a meter for PCM at rate Hz with the given channel count.
func NewMeter(rate, channels int) (*Meter, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("loudness: invalid sample rate %d", rate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("loudness: invalid channel count %d", channels)
	}
	m := &Meter{
		m: loudness.NewMeter(
			loudness.WithSampleRate(float64(rate)),
			loudness.WithChannels(channels),
		),
		channels: channels,
		gains:    channelGains(channels),
		stepLen:  max(int(math.Round(0.1*float64(rate))), 1),
		frame:    make([]float64, channels),
	}
	m.m.StartIntegration()
	return m, nil
}

// channelGains follows the 5.1 layout L R C LFE Ls Rs: the LFE channel is
// ignored and the surrounds count 1.41 times in power. The weights are
// applied as amplitude gains ahead of the K-weighting filters.
func channelGains(channels int) []float64 {
	g := make([]float64, channels)
	for i := range g {
		g[i] = 1
	}
	if channels == 6 {
		g[3] = 0
		g[4] = math.Sqrt(1.41)
		g[5] = math.Sqrt(1.41)
	}
	return g
}

// Write consumes interleaved signed 16-bit little-endian PCM. It never
// fails; the error is there to satisfy io.Writer.
func (m *Meter) Write(p []byte) (int, error) {
	n := len(p)
	frameSize := 2 * m.channels
	if len(m.partial) > 0 {
		need := frameSize - len(m.partial)
		if len(p) < need {
			m.partial = append(m.partial, p...)
			return n, nil
		}
		m.partial = append(m.partial, p[:need]...)
		m.addFrame(m.partial)
		m.partial = m.partial[:0]
		p = p[need:]
	}
	for len(p) >= frameSize {
		m.addFrame(p[:frameSize])
		p = p[frameSize:]
	}
	m.partial = append(m.partial, p...)
	return n, nil
}

func (m *Meter) addFrame(frame []byte) {
	for ch := range m.channels {
		s := float64(int16(binary.LittleEndian.Uint16(frame[ch*2:]))) / 32768
		m.frame[ch] = s * m.gains[ch]
	}
	m.m.ProcessSample(m.frame)
	m.frames++
}

// Blocks returns how many gating blocks have been produced, one per 100 ms
// of audio. Each covers the 400 ms ending at its step.
func (m *Meter) Blocks() int { return m.frames / m.stepLen }

// Integrated returns the gated loudness in LUFS.
func (m *Meter) Integrated() (float64, error) {
	v := m.m.Integrated()
	if math.IsInf(v, -1) || math.IsNaN(v) {
		return 0, ErrTooQuiet
	}
	return v, nil
}

// Measure reads r to the end and returns its integrated loudness.
func Measure(ctx context.Context, r io.Reader, rate, channels int) (float64, error) {
	m, err := NewMeter(rate, channels)
	if err != nil {
		return 0, err
	}
	buf := make([]byte, 64*1024)
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := r.Read(buf)
		m.Write(buf[:n])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("reading audio: %w", err)
		}
	}
	return m.Integrated()
}
