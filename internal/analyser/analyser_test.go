package analyser

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestNewRejectsInvalidFFTSize(t *testing.T) {
	for _, size := range []int{16, 1000, 65536, -4} {
		_, err := New(Options{FFTSize: size})
		if !errors.Is(err, ErrFFTSize) {
			t.Fatalf("New(FFTSize=%d) error = %v, want ErrFFTSize", size, err)
		}
	}
}

func TestNewDefaults(t *testing.T) {
	a, err := New(Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := a.FFTSize(); got != DefaultFFTSize {
		t.Fatalf("FFTSize() = %d, want %d", got, DefaultFFTSize)
	}
	if got := a.FrequencyBinCount(); got != DefaultFFTSize/2 {
		t.Fatalf("FrequencyBinCount() = %d, want %d", got, DefaultFFTSize/2)
	}
	if got := a.SampleRate(); got != DefaultSampleRate {
		t.Fatalf("SampleRate() = %v, want %v", got, DefaultSampleRate)
	}
}

func TestSilenceIsZeroSpectrumAndCentredWaveform(t *testing.T) {
	a, err := New(Options{FFTSize: 256})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	a.WriteSamples(make([]float64, 512))

	freq := make([]byte, a.FrequencyBinCount())
	a.ByteFrequencyData(freq)
	for i, v := range freq {
		if v != 0 {
			t.Fatalf("freq[%d] = %d, want 0", i, v)
		}
	}

	wave := make([]byte, a.FFTSize())
	a.ByteTimeDomainData(wave)
	for i, v := range wave {
		if v != 128 {
			t.Fatalf("wave[%d] = %d, want 128", i, v)
		}
	}
}

func TestSinePeaksAtItsBin(t *testing.T) {
	const (
		size = 1024
		rate = 48000
		bin  = 64
	)
	a, err := New(Options{FFTSize: size, SampleRate: rate})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	freq := float64(rate) * bin / size
	samples := make([]float64, size)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/rate)
	}
	a.WriteSamples(samples)

	out := make([]byte, a.FrequencyBinCount())
	a.ByteFrequencyData(out)
	best := 0
	for i, v := range out {
		if v > out[best] {
			best = i
		}
	}
	if best != bin {
		t.Fatalf("peak bin = %d, want %d", best, bin)
	}
	if out[bin] == 0 {
		t.Fatalf("freq[%d] = 0, want a visible level", bin)
	}
}

func TestFrequencyDataIsStableWithoutNewSamples(t *testing.T) {
	a, err := New(Options{FFTSize: 256})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	samples := make([]float64, 256)
	for i := range samples {
		samples[i] = math.Sin(float64(i) / 3)
	}
	a.WriteSamples(samples)

	first := make([]float64, a.FrequencyBinCount())
	second := make([]float64, a.FrequencyBinCount())
	a.FloatFrequencyData(first)
	a.FloatFrequencyData(second)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("bin %d changed from %v to %v without new input", i, first[i], second[i])
		}
	}
}

func TestWriteMixesStereoPCM(t *testing.T) {
	a, err := New(Options{FFTSize: 32, Channels: 2})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	pcm := make([]byte, 4*8+1) // trailing partial frame is ignored
	for i := range 8 {
		binary.LittleEndian.PutUint16(pcm[i*4:], uint16(int16(16384)))
		binary.LittleEndian.PutUint16(pcm[i*4+2:], uint16(int16(16384)))
	}
	a.Write(pcm)

	wave := make([]byte, a.FFTSize())
	a.ByteTimeDomainData(wave)
	if got := wave[len(wave)-1]; got != 192 {
		t.Fatalf("last sample = %d, want 192", got)
	}
	if got := wave[0]; got != 128 {
		t.Fatalf("unfilled history = %d, want 128", got)
	}

	a.Reset()
	a.ByteTimeDomainData(wave)
	if got := wave[len(wave)-1]; got != 128 {
		t.Fatalf("after Reset last sample = %d, want 128", got)
	}
}

func TestRingKeepsMostRecentSamples(t *testing.T) {
	r := newRing(4)
	r.write([]float64{1, 2, 3})
	r.write([]float64{4, 5, 6})

	dst := make([]float64, 4)
	if got := r.latest(dst); got != 6 {
		t.Fatalf("latest() counter = %d, want 6", got)
	}
	want := []float64{3, 4, 5, 6}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("latest()[%d] = %v, want %v", i, dst[i], want[i])
		}
	}
}
