// Package player plays a single audio file through oto and taps the PCM it
// hands to the device.
package player

import (
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Tap receives every chunk of 48 kHz stereo s16le PCM handed to the audio
// device. It runs on the audio goroutine and must not block.
type Tap func(pcm []byte)

// Options configures a Player.
type Options struct {
	Tap    Tap
	Volume float64 // initial volume; zero means 0.8
	Paused bool    // open without starting playback
}

// countingReader tracks the output position and feeds the tap.
type countingReader struct {
	reader io.Reader
	tap    Tap
	pos    int64
	mu     sync.Mutex
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.reader.Read(p)
	if n > 0 && cr.tap != nil {
		cr.tap(p[:n])
	}
	cr.mu.Lock()
	cr.pos += int64(n)
	cr.mu.Unlock()
	return n, err
}

func (cr *countingReader) Pos() int64 {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return cr.pos
}

func (cr *countingReader) SetPos(pos int64) {
	cr.mu.Lock()
	cr.pos = pos
	cr.mu.Unlock()
}

// Player plays one decoded file.
type Player struct {
	decoder   Decoder
	counter   *countingReader
	otoCtx    *oto.Context
	otoPlayer *oto.Player

	bytesPerSec int64
	duration    time.Duration
	volume      float64
	paused      bool
	canSeek     bool

	done    chan struct{}
	stopMon chan struct{}
	cleanup func()
	closed  bool
	mu      sync.Mutex
}

var (
	globalOtoCtx *oto.Context
	otoOnce      sync.Once
	otoInitErr   error
)

func initOto() (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   PlaybackSampleRate,
			ChannelCount: PlaybackChannels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   80 * time.Millisecond,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
		}
	})
	return globalOtoCtx, otoInitErr
}

// New opens path and starts playing it unless opts.Paused is set.
func New(path string, opts Options) (*Player, error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := newResampler(src)
	if err != nil {
		src.Close()
		return nil, err
	}
	ctx, err := initOto()
	if err != nil {
		src.Close()
		return nil, err
	}

	volume := opts.Volume
	if volume <= 0 {
		volume = 0.8
	}
	p := &Player{
		decoder:     dec,
		counter:     &countingReader{reader: dec, tap: opts.Tap},
		otoCtx:      ctx,
		bytesPerSec: bytesPerSec,
		duration:    bytesToDuration(dec.Length(), bytesPerSec),
		volume:      min(volume, 1),
		paused:      opts.Paused,
		canSeek:     true,
		done:        make(chan struct{}),
		stopMon:     make(chan struct{}),
		cleanup:     func() { src.Close() },
	}

	p.otoPlayer = ctx.NewPlayer(p.counter)
	p.otoPlayer.SetVolume(p.volume)
	if !p.paused {
		p.otoPlayer.Play()
	}
	go p.monitor(p.done, p.stopMon)
	return p, nil
}

func bytesToDuration(n, bytesPerSec int64) time.Duration {
	if bytesPerSec <= 0 {
		return 0
	}
	return time.Duration(float64(n) / float64(bytesPerSec) * float64(time.Second))
}

// monitor closes done once the decoder is drained and the device buffer
// has played out.
func (p *Player) monitor(done, stop chan struct{}) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		p.mu.Lock()
		finished := !p.paused && p.counter.Pos() >= p.decoder.Length() &&
			(p.otoPlayer == nil || !p.otoPlayer.IsPlaying() || p.otoPlayer.BufferedSize() == 0)
		p.mu.Unlock()

		if finished {
			close(done)
			return
		}
	}
}

// Done returns a channel that closes when playback finishes.
func (p *Player) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Restart seeks to the beginning and resumes playback. Done is renewed.
func (p *Player) Restart() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.seekLocked(0, true); err != nil {
		return err
	}
	select {
	case <-p.done:
		p.done = make(chan struct{})
		p.stopMon = make(chan struct{})
		go p.monitor(p.done, p.stopMon)
	default:
	}
	return nil
}

// Pause stops playback without releasing the device.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
	if p.otoPlayer != nil {
		p.otoPlayer.Pause()
	}
}

// Resume continues paused playback.
func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
	if p.otoPlayer != nil {
		p.otoPlayer.Play()
	}
}

// TogglePause toggles between play and pause.
func (p *Player) TogglePause() {
	if p.Paused() {
		p.Resume()
	} else {
		p.Pause()
	}
}

// Paused returns whether playback is paused.
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Position returns the position of the audio currently leaving the device.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	pos := p.counter.Pos()
	if p.otoPlayer != nil {
		pos -= int64(p.otoPlayer.BufferedSize())
	}
	return bytesToDuration(max(pos, 0), p.bytesPerSec)
}

// Duration returns the total duration of the track.
func (p *Player) Duration() time.Duration {
	return p.duration
}

// Seek moves playback by delta from the current position.
func (p *Player) Seek(delta time.Duration) error {
	target := p.Position() + delta
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seekLocked(target, !p.paused)
}

// SeekTo moves playback to target. Playback continues only if resume is set.
func (p *Player) SeekTo(target time.Duration, resume bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seekLocked(target, resume)
}

func (p *Player) seekLocked(target time.Duration, resume bool) error {
	if !p.canSeek {
		return nil
	}
	offset := clampSeekByteOffset(target, p.bytesPerSec, p.decoder.Length(), frameSize)
	pos, err := p.decoder.Seek(offset, io.SeekStart)
	if err != nil {
		return err
	}
	p.counter.SetPos(pos)

	// A new oto player drops whatever the old one had buffered.
	if p.otoPlayer != nil {
		p.otoPlayer.Pause()
		p.otoPlayer = p.otoCtx.NewPlayer(p.counter)
		p.otoPlayer.SetVolume(p.volume)
		if resume {
			p.otoPlayer.Play()
		}
	}
	p.paused = !resume
	return nil
}

// clampSeekByteOffset converts target to a byte offset inside [0, total]
// aligned to a frame boundary.
func clampSeekByteOffset(target time.Duration, bytesPerSec, total, frame int64) int64 {
	off := int64(target.Seconds() * float64(bytesPerSec))
	off = max(0, min(off, total))
	if frame > 0 {
		off -= off % frame
	}
	return off
}

// Volume returns current volume (0.0 to 1.0).
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// SetVolume sets volume (clamped to 0.0 - 1.0).
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = max(0, min(v, 1))
	if p.otoPlayer != nil {
		p.otoPlayer.SetVolume(p.volume)
	}
}

// AdjustVolume adjusts volume by delta.
func (p *Player) AdjustVolume(delta float64) {
	p.SetVolume(p.Volume() + delta)
}

// Close stops playback and releases the file. It is safe to call twice.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	if p.stopMon != nil {
		close(p.stopMon)
	}
	if p.otoPlayer != nil {
		p.otoPlayer.Pause()
		p.otoPlayer.Close()
	}
	if p.cleanup != nil {
		p.cleanup()
	}
}
