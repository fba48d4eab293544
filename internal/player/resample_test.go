package player

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

// stubPCMDecoder serves raw PCM from memory.
type stubPCMDecoder struct {
	data       []byte
	pos        int64
	sampleRate int
	channels   int
}

func (d *stubPCMDecoder) Read(p []byte) (int, error) {
	n := copy(p, d.data[min(d.pos, int64(len(d.data))):])
	d.pos += int64(n)
	if d.pos >= int64(len(d.data)) {
		return n, io.EOF
	}
	return n, nil
}

func (d *stubPCMDecoder) Seek(offset int64, whence int) (int64, error) {
	base := map[int]int64{io.SeekStart: 0, io.SeekCurrent: d.pos, io.SeekEnd: int64(len(d.data))}[whence]
	d.pos = max(0, min(base+offset, int64(len(d.data))))
	return d.pos, nil
}

func (d *stubPCMDecoder) Length() int64     { return int64(len(d.data)) }
func (d *stubPCMDecoder) SampleRate() int   { return d.sampleRate }
func (d *stubPCMDecoder) ChannelCount() int { return d.channels }

func pcm16(samples ...int16) []byte {
	out := make([]byte, 0, len(samples)*2)
	for _, s := range samples {
		out = binary.LittleEndian.AppendUint16(out, uint16(s))
	}
	return out
}

func TestResamplerConvertsToPlaybackFormat(t *testing.T) {
	cases := []struct {
		name     string
		data     []byte
		rate     int
		channels int
		want     []byte
	}{
		{
			name:     "mono duplicated",
			data:     pcm16(500, -700),
			rate:     PlaybackSampleRate,
			channels: 1,
			want:     pcm16(500, 500, -700, -700),
		},
		{
			name:     "mono upsampled",
			data:     pcm16(0, 4000),
			rate:     24000,
			channels: 1,
			want:     pcm16(0, 0, 2000, 2000, 4000, 4000, 4000, 4000),
		},
		{
			name:     "stereo downsampled",
			data:     pcm16(0, 0, 100, -100, 200, -200, 300, -300),
			rate:     96000,
			channels: 2,
			want:     pcm16(0, 0, 200, -200),
		},
	}
	for _, tc := range cases {
		src := &stubPCMDecoder{data: tc.data, sampleRate: tc.rate, channels: tc.channels}
		dec, err := newResampler(src)
		if err != nil {
			t.Fatalf("%s: newResampler() error = %v", tc.name, err)
		}
		if dec.SampleRate() != PlaybackSampleRate || dec.ChannelCount() != PlaybackChannels {
			t.Fatalf("%s: format = %d Hz x %d", tc.name, dec.SampleRate(), dec.ChannelCount())
		}
		if got := dec.Length(); got != int64(len(tc.want)) {
			t.Fatalf("%s: Length() = %d, want %d", tc.name, got, len(tc.want))
		}
		out, err := io.ReadAll(dec)
		if err != nil {
			t.Fatalf("%s: ReadAll() error = %v", tc.name, err)
		}
		if !bytes.Equal(out, tc.want) {
			t.Fatalf("%s: PCM mismatch:\n got %v\nwant %v", tc.name, out, tc.want)
		}
	}
}

func TestResamplerSeekInterpolatesFromNewPosition(t *testing.T) {
	src := &stubPCMDecoder{
		data:       pcm16(0, 300, 3000, 3300, 6000, 6300),
		sampleRate: 16000,
		channels:   2,
	}
	dec, err := newResampler(src)
	if err != nil {
		t.Fatalf("newResampler() error = %v", err)
	}

	// Output frame 4 sits a third of the way from source frame 1 to 2.
	pos, err := dec.Seek(4*frameSize+1, io.SeekStart)
	if err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if pos != 4*frameSize {
		t.Fatalf("Seek() = %d, want %d", pos, 4*frameSize)
	}
	buf := make([]byte, frameSize)
	if _, err := io.ReadFull(dec, buf); err != nil {
		t.Fatalf("ReadFull() error = %v", err)
	}
	if want := pcm16(4000, 4300); !bytes.Equal(buf, want) {
		t.Fatalf("PCM after seek = %v, want %v", buf, want)
	}
}

func TestResamplerKeepsFirstTwoChannels(t *testing.T) {
	src := &stubPCMDecoder{
		data:       pcm16(1, 2, 3, 4, 5, 6),
		sampleRate: PlaybackSampleRate,
		channels:   3,
	}
	dec, err := newResampler(src)
	if err != nil {
		t.Fatalf("newResampler() error = %v", err)
	}
	out, err := io.ReadAll(dec)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if want := pcm16(1, 2, 4, 5); !bytes.Equal(out, want) {
		t.Fatalf("downmixed PCM mismatch:\n got %v\nwant %v", out, want)
	}
}

func TestResamplerPassesThroughPlaybackFormat(t *testing.T) {
	data := pcm16(7, 8, 9, 10)
	src := &stubPCMDecoder{data: data, sampleRate: PlaybackSampleRate, channels: PlaybackChannels}
	dec, err := newResampler(src)
	if err != nil {
		t.Fatalf("newResampler() error = %v", err)
	}
	if _, ok := dec.(*resampler); !ok || !dec.(*resampler).passthrough {
		t.Fatal("expected passthrough for 48 kHz stereo input")
	}
	out, err := io.ReadAll(dec)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("passthrough PCM mismatch:\n got %v\nwant %v", out, data)
	}
}

func TestResamplerRejectsInvalidFormat(t *testing.T) {
	if _, err := newResampler(&stubPCMDecoder{sampleRate: 0, channels: 2}); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
	if _, err := newResampler(&stubPCMDecoder{sampleRate: 44100, channels: 0}); err == nil {
		t.Fatal("expected error for zero channels")
	}
}
