package visualizer

// constNode reports the same magnitude in every bin and a fixed waveform.
type constNode struct {
	bins  int
	level byte
	wave  []byte
	rate  float64
}

func (n *constNode) FrequencyBinCount() int { return n.bins }

func (n *constNode) ByteFrequencyData(dst []byte) {
	for i := range dst {
		dst[i] = n.level
	}
}

func (n *constNode) FFTSize() int { return len(n.wave) }

func (n *constNode) ByteTimeDomainData(dst []byte) { copy(dst, n.wave) }

func (n *constNode) SampleRate() float64 { return n.rate }

func silentWave(size int) []byte {
	w := make([]byte, size)
	for i := range w {
		w[i] = 128
	}
	return w
}
