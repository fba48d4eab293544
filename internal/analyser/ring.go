package analyser

import "sync"

// ring is a thread-safe circular buffer of mono samples.
type ring struct {
	mu      sync.Mutex
	buf     []float64
	w       int    // write position
	len     int    // current fill level
	written uint64 // samples written since the last clear
}

func newRing(size int) *ring {
	return &ring{buf: make([]float64, size)}
}

// write appends samples, overwriting the oldest ones when full.
func (r *ring) write(p []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := len(r.buf)
	if len(p) > size {
		p = p[len(p)-size:]
	}
	for _, v := range p {
		r.buf[r.w] = v
		r.w = (r.w + 1) % size
	}
	r.len = min(r.len+len(p), size)
	r.written += uint64(len(p))
}

// latest copies the most recent len(dst) samples into dst, oldest first.
// Missing history is zero. It returns the write counter at the time of the
// copy.
func (r *ring) latest(dst []float64) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := len(r.buf)
	n := min(len(dst), r.len)
	pad := len(dst) - n
	clear(dst[:pad])
	start := (r.w - n + size) % size
	for i := range n {
		dst[pad+i] = r.buf[(start+i)%size]
	}
	return r.written
}

func (r *ring) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w = 0
	r.len = 0
	r.written = 0
}
