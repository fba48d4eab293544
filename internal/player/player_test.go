package player

import (
	"errors"
	"io"
	"testing"
	"time"
)

type stubSeekDecoder struct {
	pos        int64
	length     int64
	sampleRate int
	channels   int
	seekErr    error
}

func (d *stubSeekDecoder) Read([]byte) (int, error) { return 0, io.EOF }

func (d *stubSeekDecoder) Seek(offset int64, whence int) (int64, error) {
	if d.seekErr != nil {
		return d.pos, d.seekErr
	}
	switch whence {
	case io.SeekStart:
		d.pos = offset
	case io.SeekCurrent:
		d.pos += offset
	case io.SeekEnd:
		d.pos = d.length + offset
	}
	return d.pos, nil
}

func (d *stubSeekDecoder) Length() int64     { return d.length }
func (d *stubSeekDecoder) SampleRate() int   { return d.sampleRate }
func (d *stubSeekDecoder) ChannelCount() int { return d.channels }

func TestClampSeekByteOffsetClampsAndAligns(t *testing.T) {
	got := clampSeekByteOffset(3900*time.Millisecond, 10, 10, 4)
	if got != 8 {
		t.Fatalf("clampSeekByteOffset() = %d, want 8", got)
	}

	got = clampSeekByteOffset(-1*time.Second, 10, 100, 4)
	if got != 0 {
		t.Fatalf("clampSeekByteOffset() = %d, want 0 for negative target", got)
	}
}

func TestPauseSetsPausedWithoutToggle(t *testing.T) {
	p := &Player{}
	p.Pause()
	p.Pause()
	if !p.Paused() {
		t.Fatal("expected pause to set paused state")
	}
	p.TogglePause()
	if p.Paused() {
		t.Fatal("expected toggle to resume")
	}
}

func TestSeekToClampsAndAlignsToFrameBoundary(t *testing.T) {
	dec := &stubSeekDecoder{length: 41, sampleRate: 44100, channels: 2}
	counter := &countingReader{}
	p := &Player{
		decoder:     dec,
		counter:     counter,
		bytesPerSec: 10,
		canSeek:     true,
	}

	if err := p.SeekTo(3900*time.Millisecond, false); err != nil {
		t.Fatalf("SeekTo() error = %v", err)
	}
	if dec.pos != 36 {
		t.Fatalf("decoder position = %d, want 36", dec.pos)
	}
	if got := counter.Pos(); got != 36 {
		t.Fatalf("counter position = %d, want 36", got)
	}
	if !p.paused {
		t.Fatal("expected paused state after non-resuming seek")
	}
}

func TestSeekToKeepsPositionOnDecoderError(t *testing.T) {
	dec := &stubSeekDecoder{length: 400, pos: 40, seekErr: errors.New("boom")}
	counter := &countingReader{pos: 40}
	p := &Player{decoder: dec, counter: counter, bytesPerSec: 100, canSeek: true}

	if err := p.SeekTo(2*time.Second, true); err == nil {
		t.Fatal("SeekTo() error = nil, want decoder error")
	}
	if got := counter.Pos(); got != 40 {
		t.Fatalf("counter position = %d, want 40", got)
	}
}

func TestSeekMovesRelativeToPosition(t *testing.T) {
	dec := &stubSeekDecoder{length: 4000}
	counter := &countingReader{pos: 1000}
	p := &Player{decoder: dec, counter: counter, bytesPerSec: 100, canSeek: true}

	if err := p.Seek(-5 * time.Second); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if dec.pos != 500 {
		t.Fatalf("decoder position = %d, want 500", dec.pos)
	}
	if p.paused {
		t.Fatal("Seek() paused a playing player")
	}
}

func TestCountingReaderFeedsTap(t *testing.T) {
	var tapped []byte
	src := &stubPCMDecoder{data: pcm16(1, 2, 3, 4), sampleRate: PlaybackSampleRate, channels: 2}
	cr := &countingReader{reader: src, tap: func(pcm []byte) { tapped = append(tapped, pcm...) }}

	out, err := io.ReadAll(cr)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(tapped) != len(out) {
		t.Fatalf("tap saw %d bytes, want %d", len(tapped), len(out))
	}
	if got := cr.Pos(); got != int64(len(out)) {
		t.Fatalf("Pos() = %d, want %d", got, len(out))
	}
}

func TestVolumeClamps(t *testing.T) {
	p := &Player{volume: 0.5}
	p.AdjustVolume(0.9)
	if got := p.Volume(); got != 1 {
		t.Fatalf("Volume() = %v, want 1", got)
	}
	p.SetVolume(-2)
	if got := p.Volume(); got != 0 {
		t.Fatalf("Volume() = %v, want 0", got)
	}
}

func TestPlayerCloseRunsCleanupOnce(t *testing.T) {
	calls := 0
	p := &Player{
		stopMon: make(chan struct{}),
		cleanup: func() {
			calls++
		},
	}

	p.Close()
	p.Close()

	if calls != 1 {
		t.Fatalf("cleanup ran %d times, want 1", calls)
	}
}
