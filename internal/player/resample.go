package player

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	PlaybackSampleRate = 48000
	PlaybackChannels   = 2

	bytesPerSample = 2
	frameSize      = PlaybackChannels * bytesPerSample
	bytesPerSec    = PlaybackSampleRate * frameSize
)

// resampler presents any Decoder as 48 kHz stereo. Mono is duplicated,
// channels past the second are dropped and rates are converted by linear
// interpolation between neighbouring source frames.
type resampler struct {
	src         Decoder
	passthrough bool

	srcRate      int64
	srcChannels  int
	srcFrameSize int
	srcFrames    int64
	outFrames    int64

	outPos  int64 // next output frame
	pending []byte

	in     []byte // undecoded source bytes
	chunk  []byte
	cur    int64 // source index of a
	a, b   [PlaybackChannels]int16
	haveA  bool
	haveB  bool
	primed bool
}

func newResampler(src Decoder) (Decoder, error) {
	rate := src.SampleRate()
	if rate <= 0 {
		return nil, fmt.Errorf("unsupported sample rate: %d", rate)
	}
	channels := src.ChannelCount()
	if channels < 1 {
		return nil, fmt.Errorf("unsupported channel count: %d", channels)
	}
	if rate == PlaybackSampleRate && channels == PlaybackChannels {
		return &resampler{src: src, passthrough: true}, nil
	}

	srcFrameSize := channels * bytesPerSample
	srcFrames := src.Length() / int64(srcFrameSize)
	outFrames := srcFrames * PlaybackSampleRate / int64(rate)
	if srcFrames > 0 && outFrames == 0 {
		outFrames = 1
	}
	r := &resampler{
		src:          src,
		srcRate:      int64(rate),
		srcChannels:  channels,
		srcFrameSize: srcFrameSize,
		srcFrames:    srcFrames,
		outFrames:    outFrames,
	}
	r.restart(0)
	return r, nil
}

func (r *resampler) Length() int64 {
	if r.passthrough {
		return r.src.Length()
	}
	return r.outFrames * frameSize
}

func (r *resampler) SampleRate() int   { return PlaybackSampleRate }
func (r *resampler) ChannelCount() int { return PlaybackChannels }

func (r *resampler) Read(p []byte) (int, error) {
	if r.passthrough {
		return r.src.Read(p)
	}
	if len(r.pending) > 0 {
		n := copy(p, r.pending)
		r.pending = r.pending[n:]
		return n, nil
	}
	if r.outPos >= r.outFrames {
		return 0, io.EOF
	}

	frames := min(max((len(p)+frameSize-1)/frameSize, 1), int(r.outFrames-r.outPos))
	raw := make([]byte, 0, frames*frameSize)
	var err error
	for range frames {
		num := r.outPos * r.srcRate
		idx := num / PlaybackSampleRate
		if err = r.load(idx); err != nil || !r.haveA {
			break
		}
		next := r.b
		if !r.haveB {
			next = r.a
		}
		frac := num % PlaybackSampleRate
		for ch := range PlaybackChannels {
			raw = binary.LittleEndian.AppendUint16(raw, uint16(lerp(r.a[ch], next[ch], frac)))
		}
		r.outPos++
	}
	if len(raw) == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}

	n := copy(p, raw)
	r.pending = append(r.pending[:0], raw[n:]...)
	return n, nil
}

func (r *resampler) Seek(offset int64, whence int) (int64, error) {
	if r.passthrough {
		return r.src.Seek(offset, whence)
	}
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = r.outPos*frameSize - int64(len(r.pending)) + offset
	case io.SeekEnd:
		next = r.Length() + offset
	default:
		return r.outPos * frameSize, fmt.Errorf("invalid seek whence: %d", whence)
	}
	next = max(0, min(next, r.Length()))
	next -= next % frameSize

	outFrame := next / frameSize
	srcFrame := outFrame * r.srcRate / PlaybackSampleRate
	if _, err := r.src.Seek(srcFrame*int64(r.srcFrameSize), io.SeekStart); err != nil {
		return r.outPos * frameSize, err
	}
	r.outPos = outFrame
	r.restart(srcFrame)
	return next, nil
}

func (r *resampler) restart(srcFrame int64) {
	r.pending = r.pending[:0]
	r.in = r.in[:0]
	r.cur = srcFrame - 1
	r.haveA, r.haveB, r.primed = false, false, false
}

// load advances the source window until a holds frame idx and b holds the
// frame after it.
func (r *resampler) load(idx int64) error {
	if !r.primed {
		var err error
		if r.b, r.haveB, err = r.readFrame(); err != nil {
			return err
		}
		r.primed = true
	}
	for r.cur < idx {
		r.a, r.haveA = r.b, r.haveB
		if !r.haveA {
			return nil
		}
		var err error
		if r.b, r.haveB, err = r.readFrame(); err != nil {
			return err
		}
		r.cur++
	}
	return nil
}

func (r *resampler) readFrame() ([PlaybackChannels]int16, bool, error) {
	var frame [PlaybackChannels]int16
	for len(r.in) < r.srcFrameSize {
		if cap(r.chunk) == 0 {
			r.chunk = make([]byte, 2048*r.srcFrameSize)
		}
		n, err := r.src.Read(r.chunk)
		r.in = append(r.in, r.chunk[:n]...)
		if n == 0 || err != nil {
			if len(r.in) >= r.srcFrameSize {
				break
			}
			if err == nil || errors.Is(err, io.EOF) {
				return frame, false, nil
			}
			return frame, false, err
		}
	}

	frame[0] = int16(binary.LittleEndian.Uint16(r.in))
	frame[1] = frame[0]
	if r.srcChannels > 1 {
		frame[1] = int16(binary.LittleEndian.Uint16(r.in[2:]))
	}
	r.in = r.in[r.srcFrameSize:]
	return frame, true, nil
}

func lerp(a, b int16, fracNum int64) int16 {
	if fracNum == 0 || a == b {
		return a
	}
	diff := int64(b) - int64(a)
	return int16(int64(a) + (diff*fracNum+PlaybackSampleRate/2)/PlaybackSampleRate)
}
