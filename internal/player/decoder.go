package player

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// ErrUnsupportedFormat is returned for extensions no decoder handles.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Decoder produces interleaved signed 16-bit little-endian PCM. Offsets and
// Length are in output bytes.
type Decoder interface {
	io.ReadSeeker
	Length() int64
	SampleRate() int
	ChannelCount() int
}

// Source is a decoded file in its native rate and channel layout.
type Source struct {
	Decoder
	file *os.File
}

// Open decodes the file at path, picking the format from its extension.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := NewDecoder(f, filepath.Ext(path))
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Source{Decoder: dec, file: f}, nil
}

// Close closes the underlying file.
func (s *Source) Close() error {
	return s.file.Close()
}

// NewDecoder returns the decoder for ext (".mp3", ".wav", ".flac", ".ogg").
func NewDecoder(r io.ReadSeeker, ext string) (Decoder, error) {
	switch strings.ToLower(ext) {
	case ".mp3":
		return newMP3Decoder(r)
	case ".wav":
		return newWAVDecoder(r)
	case ".flac":
		return newFLACDecoder(r)
	case ".ogg":
		return newOGGDecoder(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// pcmBuffer tracks the output position of a converting decoder and holds
// converted bytes that did not fit the caller's slice.
type pcmBuffer struct {
	pending []byte
	pos     int64
	length  int64
}

func (b *pcmBuffer) drain(p []byte) (int, bool) {
	if len(b.pending) == 0 {
		return 0, false
	}
	n := copy(p, b.pending)
	b.pending = b.pending[n:]
	b.pos += int64(n)
	return n, true
}

func (b *pcmBuffer) emit(p, raw []byte) int {
	n := copy(p, raw)
	if n < len(raw) {
		b.pending = append(b.pending[:0], raw[n:]...)
	}
	b.pos += int64(n)
	return n
}

// target resolves a seek request to an absolute, frame-aligned output
// offset within [0, length].
func (b *pcmBuffer) target(offset int64, whence int, frameSize int64) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = b.pos + offset
	case io.SeekEnd:
		next = b.length + offset
	default:
		return b.pos, fmt.Errorf("invalid seek whence: %d", whence)
	}
	next = max(0, min(next, b.length))
	if frameSize > 0 {
		next -= next % frameSize
	}
	return next, nil
}

func (b *pcmBuffer) moved(pos int64) {
	b.pending = b.pending[:0]
	b.pos = pos
}

func putSample(dst []byte, sample int) {
	sample = max(-32768, min(sample, 32767))
	binary.LittleEndian.PutUint16(dst, uint16(int16(sample)))
}

type mp3Decoder struct {
	*mp3.Decoder
}

func newMP3Decoder(r io.Reader) (*mp3Decoder, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3: %w", err)
	}
	return &mp3Decoder{Decoder: dec}, nil
}

// go-mp3 always produces stereo.
func (d *mp3Decoder) ChannelCount() int { return 2 }

type wavDecoder struct {
	pcmBuffer
	r          io.ReadSeeker
	pcmStart   int64
	sampleRate int
	channels   int
	bitDepth   int
	scratch    []byte
}

func newWAVDecoder(r io.ReadSeeker) (*wavDecoder, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported WAV bit depth: %d", bitDepth)
	}
	if channels < 1 {
		return nil, fmt.Errorf("unsupported WAV channel count: %d", channels)
	}
	pcmStart, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("locating WAV PCM data: %w", err)
	}

	srcFrame := int64(channels * bitDepth / 8)
	frames := dec.PCMLen() / srcFrame
	return &wavDecoder{
		pcmBuffer:  pcmBuffer{length: frames * int64(channels) * 2},
		r:          r,
		pcmStart:   pcmStart,
		sampleRate: int(dec.SampleRate),
		channels:   channels,
		bitDepth:   bitDepth,
	}, nil
}

func (d *wavDecoder) Read(p []byte) (int, error) {
	if n, ok := d.drain(p); ok {
		return n, nil
	}
	if d.pos >= d.length {
		return 0, io.EOF
	}

	width := d.bitDepth / 8
	samples := max(len(p)/2, 1)
	if remaining := int((d.length - d.pos) / 2); samples > remaining {
		samples = remaining
	}
	need := samples * width
	if cap(d.scratch) < need {
		d.scratch = make([]byte, need)
	}
	src := d.scratch[:need]
	n, err := io.ReadFull(d.r, src)
	samples = n / width
	if samples == 0 {
		if err == nil || errors.Is(err, io.ErrUnexpectedEOF) {
			err = io.EOF
		}
		return 0, err
	}

	raw := make([]byte, samples*2)
	for i := range samples {
		off := i * width
		var s int
		switch d.bitDepth {
		case 8:
			s = (int(src[off]) - 128) << 8
		case 16:
			s = int(int16(binary.LittleEndian.Uint16(src[off:])))
		case 24:
			v := int32(src[off]) | int32(src[off+1])<<8 | int32(src[off+2])<<16
			if v&0x800000 != 0 {
				v |= ^0xFFFFFF
			}
			s = int(v >> 8)
		case 32:
			s = int(int32(binary.LittleEndian.Uint32(src[off:])) >> 16)
		}
		putSample(raw[i*2:], s)
	}

	written := d.emit(p, raw)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	return written, err
}

func (d *wavDecoder) Seek(offset int64, whence int) (int64, error) {
	next, err := d.target(offset, whence, int64(d.channels)*2)
	if err != nil {
		return d.pos, err
	}
	frame := next / (int64(d.channels) * 2)
	srcPos := d.pcmStart + frame*int64(d.channels*d.bitDepth/8)
	if _, err := d.r.Seek(srcPos, io.SeekStart); err != nil {
		return d.pos, err
	}
	d.moved(next)
	return next, nil
}

func (d *wavDecoder) Length() int64     { return d.length }
func (d *wavDecoder) SampleRate() int   { return d.sampleRate }
func (d *wavDecoder) ChannelCount() int { return d.channels }

type flacDecoder struct {
	pcmBuffer
	stream     *flac.Stream
	sampleRate int
	channels   int
	bps        int
}

func newFLACDecoder(r io.ReadSeeker) (*flacDecoder, error) {
	stream, err := flac.NewSeek(r)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}
	info := stream.Info
	channels := int(info.NChannels)
	return &flacDecoder{
		pcmBuffer:  pcmBuffer{length: int64(info.NSamples) * int64(channels) * 2},
		stream:     stream,
		sampleRate: int(info.SampleRate),
		channels:   channels,
		bps:        int(info.BitsPerSample),
	}, nil
}

func (d *flacDecoder) Read(p []byte) (int, error) {
	if n, ok := d.drain(p); ok {
		return n, nil
	}
	frame, err := d.stream.ParseNext()
	if err != nil {
		return 0, err
	}

	count := int(frame.Subframes[0].NSamples)
	raw := make([]byte, count*d.channels*2)
	for i := range count {
		for ch := range d.channels {
			s := int(frame.Subframes[ch].Samples[i])
			if d.bps > 16 {
				s >>= d.bps - 16
			} else if d.bps < 16 {
				s <<= 16 - d.bps
			}
			putSample(raw[(i*d.channels+ch)*2:], s)
		}
	}
	return d.emit(p, raw), nil
}

func (d *flacDecoder) Seek(offset int64, whence int) (int64, error) {
	frameSize := int64(d.channels) * 2
	next, err := d.target(offset, whence, frameSize)
	if err != nil {
		return d.pos, err
	}
	if _, err := d.stream.Seek(uint64(next / frameSize)); err != nil {
		return d.pos, err
	}
	d.moved(next)
	return next, nil
}

func (d *flacDecoder) Length() int64     { return d.length }
func (d *flacDecoder) SampleRate() int   { return d.sampleRate }
func (d *flacDecoder) ChannelCount() int { return d.channels }

type oggDecoder struct {
	pcmBuffer
	reader  *oggvorbis.Reader
	samples []float32
}

func newOGGDecoder(r io.Reader) (*oggDecoder, error) {
	reader, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}
	return &oggDecoder{
		pcmBuffer: pcmBuffer{length: reader.Length() * int64(reader.Channels()) * 2},
		reader:    reader,
	}, nil
}

func (d *oggDecoder) Read(p []byte) (int, error) {
	if n, ok := d.drain(p); ok {
		return n, nil
	}
	want := max(len(p)/2, d.reader.Channels())
	if cap(d.samples) < want {
		d.samples = make([]float32, want)
	}
	n, err := d.reader.Read(d.samples[:want])
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}

	raw := make([]byte, n*2)
	for i, s := range d.samples[:n] {
		putSample(raw[i*2:], int(max(-1, min(s, 1))*32767))
	}
	return d.emit(p, raw), err
}

func (d *oggDecoder) Seek(offset int64, whence int) (int64, error) {
	frameSize := int64(d.reader.Channels()) * 2
	next, err := d.target(offset, whence, frameSize)
	if err != nil {
		return d.pos, err
	}
	if err := d.reader.SetPosition(next / frameSize); err != nil {
		return d.pos, err
	}
	d.moved(next)
	return next, nil
}

func (d *oggDecoder) Length() int64     { return d.length }
func (d *oggDecoder) SampleRate() int   { return d.reader.SampleRate() }
func (d *oggDecoder) ChannelCount() int { return d.reader.Channels() }
