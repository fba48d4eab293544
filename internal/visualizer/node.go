package visualizer

const defaultSampleRate = 44100

// AnalysisNode is a live frequency/time-domain tap on the playing audio.
// Buffers are snapshots of the latest analysis frame and are read-only to
// the visualizers.
type AnalysisNode interface {
	FrequencyBinCount() int
	ByteFrequencyData(dst []byte)
	FFTSize() int
	ByteTimeDomainData(dst []byte)
	SampleRate() float64
}

func nodeSampleRate(n AnalysisNode) float64 {
	sr := n.SampleRate()
	if sr <= 0 {
		return defaultSampleRate
	}
	return sr
}
