package visualizer

// Handle identifies a scheduled frame callback.
type Handle uint64

// Scheduler queues work for the next display frame.
type Scheduler interface {
	ScheduleNext(cb func()) Handle
	Cancel(h Handle)
}

// FrameClock is a Scheduler driven by explicit Advance calls. The UI advances
// it from its frame tick; tests advance it by hand.
//
// Callbacks scheduled while Advance is running wait for the following call,
// so a callback that reschedules itself runs once per frame.
type FrameClock struct {
	next    Handle
	pending map[Handle]func()
	order   []Handle
	frame   uint64
}

// NewFrameClock returns an idle clock.
func NewFrameClock() *FrameClock {
	return &FrameClock{pending: make(map[Handle]func())}
}

func (c *FrameClock) ScheduleNext(cb func()) Handle {
	c.next++
	h := c.next
	c.pending[h] = cb
	c.order = append(c.order, h)
	return h
}

func (c *FrameClock) Cancel(h Handle) {
	delete(c.pending, h)
}

// Advance runs every callback that was pending when it was called.
func (c *FrameClock) Advance() {
	c.frame++
	due := c.order
	c.order = nil
	for _, h := range due {
		cb, ok := c.pending[h]
		if !ok {
			continue
		}
		delete(c.pending, h)
		cb()
	}
}

// Pending reports how many callbacks are waiting for the next frame.
func (c *FrameClock) Pending() int { return len(c.pending) }

// Frame returns the number of frames advanced so far.
func (c *FrameClock) Frame() uint64 { return c.frame }
