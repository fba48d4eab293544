package visualizer

import "math"

const (
	minFrequency = 20.0
	maxFrequency = 20000.0

	// Boost is the overall gain applied on top of the per-bar curve.
	Boost = 1.5
)

// Mapping selects how display bars are spread over the frequency bins.
type Mapping uint8

const (
	MappingLog Mapping = iota
	MappingLinear
)

func (m Mapping) String() string {
	if m == MappingLinear {
		return "linear"
	}
	return "log"
}

// LinearBin maps bar i of n onto a bin of an evenly spaced spectrum.
func LinearBin(i, n, bins int) int {
	if n <= 0 || bins <= 0 {
		return 0
	}
	return clampIndex(int(math.Floor(float64(i)/float64(n)*float64(bins))), bins)
}

// LogBin maps bar i of n onto the bin nearest to its frequency on a
// 20 Hz - 20 kHz logarithmic axis.
func LogBin(i, n, bins int, sampleRate float64) int {
	if n <= 0 || bins <= 0 {
		return 0
	}
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	t := 0.0
	if n > 1 {
		t = float64(i) / float64(n-1)
	}
	f := minFrequency * math.Pow(maxFrequency/minFrequency, t)
	nyquist := sampleRate / 2
	return clampIndex(int(math.Round(f/nyquist*float64(bins-1))), bins)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

// Gain returns the frequency-dependent gain for bar i of n. Bass is
// attenuated, the midrange gets a gentle lift and treble a strong boost.
func Gain(i, n int) float64 {
	if n <= 0 {
		return 1
	}
	return gainAt(float64(i) / float64(n))
}

func gainAt(p float64) float64 {
	const (
		lowCut   = 0.6
		midLift  = 0.5
		highGain = 3.5
		highExp  = 2.2
	)
	mid := math.Sin(math.Pi * p)
	return 1 - math.Pow(1-p, 1.5)*lowCut + midLift*mid*mid + math.Pow(p, highExp)*highGain
}

// band is a two-segment power law: x below Threshold is raised to Below,
// x above it to Above, both segments meeting at (Threshold, Threshold).
type band struct {
	Threshold float64
	Below     float64
	Above     float64
}

var (
	lowBand  = band{Threshold: 0.55, Below: 0.9, Above: 1.4}
	midBand  = band{Threshold: 0.45, Below: 0.8, Above: 1.25}
	highBand = band{Threshold: 0.35, Below: 0.7, Above: 1.1}
)

func bandFor(p float64) band {
	switch {
	case p < 0.3:
		return lowBand
	case p < 0.7:
		return midBand
	default:
		return highBand
	}
}

func (b band) apply(x float64) float64 {
	t := b.Threshold
	if x < t {
		return t * math.Pow(x/t, b.Below)
	}
	return t + (1-t)*math.Pow((x-t)/(1-t), b.Above)
}

// Compress maps a normalised magnitude x in [0,1] through the band selected
// by bar position p. Quiet input is expanded, loud input compressed.
func Compress(x, p float64) float64 {
	if math.IsNaN(x) || x <= 0 {
		return 0
	}
	if x > 1 {
		x = 1
	}
	return bandFor(p).apply(x)
}

// shape runs gain, boost and compression on a raw 0-255 magnitude for bar i
// of n and returns the adjusted 0-255 value.
func shape(raw float64, i, n int) float64 {
	p := float64(i) / float64(n)
	boosted := raw * gainAt(p) * Boost
	v := Compress(boosted/255, p) * 255
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
