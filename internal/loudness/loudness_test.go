package loudness

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func tone(rate, channels int, amplitude, seconds float64) []byte {
	frames := int(float64(rate) * seconds)
	out := make([]byte, 0, frames*channels*2)
	for i := range frames {
		v := int16(math.Round(amplitude * 32767 * math.Sin(2*math.Pi*997*float64(i)/float64(rate))))
		for range channels {
			out = binary.LittleEndian.AppendUint16(out, uint16(v))
		}
	}
	return out
}

func integrated(t *testing.T, rate, channels int, pcm []byte) float64 {
	t.Helper()
	m, err := NewMeter(rate, channels)
	if err != nil {
		t.Fatalf("NewMeter() error = %v", err)
	}
	m.Write(pcm)
	got, err := m.Integrated()
	if err != nil {
		t.Fatalf("Integrated() error = %v", err)
	}
	return got
}

func TestFullScaleSineInOneChannel(t *testing.T) {
	got := integrated(t, 48000, 1, tone(48000, 1, 1, 3))
	if math.Abs(got-(-3.26)) > 0.05 {
		t.Fatalf("Integrated() = %.3f, want -3.26", got)
	}
}

func TestStereoAddsBothChannels(t *testing.T) {
	got := integrated(t, 48000, 2, tone(48000, 2, 0.1, 3))
	if math.Abs(got-(-20.25)) > 0.05 {
		t.Fatalf("Integrated() = %.3f, want -20.25", got)
	}
}

func TestFiltersFollowSampleRate(t *testing.T) {
	got := integrated(t, 44100, 1, tone(44100, 1, 0.1, 3))
	if math.Abs(got-(-23.26)) > 0.05 {
		t.Fatalf("Integrated() at 44.1 kHz = %.3f, want -23.26", got)
	}
}

func TestRelativeGateDropsQuietPassages(t *testing.T) {
	pcm := append(tone(48000, 1, 0.1, 3), tone(48000, 1, 0.001, 3)...)
	got := integrated(t, 48000, 1, pcm)
	if got < -23.6 || got > -23.3 {
		t.Fatalf("Integrated() = %.3f, want close to the loud passage (-23.45)", got)
	}
}

func TestSilenceIsTooQuiet(t *testing.T) {
	m, err := NewMeter(48000, 2)
	if err != nil {
		t.Fatalf("NewMeter() error = %v", err)
	}
	m.Write(make([]byte, 48000*4))
	if got := m.Blocks(); got != 10 {
		t.Fatalf("Blocks() after one second = %d, want 10", got)
	}
	if _, err := m.Integrated(); !errors.Is(err, ErrTooQuiet) {
		t.Fatalf("Integrated() error = %v, want ErrTooQuiet", err)
	}
}

func TestWriteHandlesSplitFrames(t *testing.T) {
	pcm := tone(48000, 2, 0.1, 1)
	whole := integrated(t, 48000, 2, pcm)

	m, err := NewMeter(48000, 2)
	if err != nil {
		t.Fatalf("NewMeter() error = %v", err)
	}
	for i := 0; i < len(pcm); i += 3 {
		m.Write(pcm[i:min(i+3, len(pcm))])
	}
	split, err := m.Integrated()
	if err != nil {
		t.Fatalf("Integrated() error = %v", err)
	}
	if split != whole {
		t.Fatalf("split writes = %v, want %v", split, whole)
	}
}

func TestNewMeterRejectsInvalidFormat(t *testing.T) {
	if _, err := NewMeter(0, 2); err == nil {
		t.Fatal("NewMeter(0, 2) error = nil")
	}
	if _, err := NewMeter(48000, 0); err == nil {
		t.Fatal("NewMeter(48000, 0) error = nil")
	}
}

func TestMeasureStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Measure(ctx, bytes.NewReader(tone(48000, 1, 0.1, 1)), 48000, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Measure() error = %v, want context.Canceled", err)
	}
}

func TestSurroundLayoutWeightsChannels(t *testing.T) {
	mono := tone(48000, 1, 0.1, 3)
	place := func(ch int) []byte {
		out := make([]byte, 0, len(mono)*6)
		var frame [12]byte
		for i := 0; i < len(mono); i += 2 {
			clear(frame[:])
			copy(frame[ch*2:], mono[i:i+2])
			out = append(out, frame[:]...)
		}
		return out
	}

	if got := integrated(t, 48000, 6, place(2)); math.Abs(got-(-23.26)) > 0.05 {
		t.Fatalf("centre = %.3f, want -23.26", got)
	}
	if got := integrated(t, 48000, 6, place(4)); math.Abs(got-(-21.77)) > 0.05 {
		t.Fatalf("left surround = %.3f, want -21.77", got)
	}

	m, err := NewMeter(48000, 6)
	if err != nil {
		t.Fatalf("NewMeter() error = %v", err)
	}
	m.Write(place(3))
	if _, err := m.Integrated(); !errors.Is(err, ErrTooQuiet) {
		t.Fatalf("LFE only: Integrated() error = %v, want ErrTooQuiet", err)
	}
}
