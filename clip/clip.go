// Package clip holds decoded, in-memory audio buffers shared by effects, music and ambient tracks
package clip

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/wav"

	"github.com/lixenwraith/vi-audio/constant"
)

// Sentinel errors
var (
	ErrEmptyClip = errors.New("clip has no samples")
)

// DefaultFormat is the output format clips are normalized to
var DefaultFormat = beep.Format{
	SampleRate:  beep.SampleRate(constant.AudioSampleRate),
	NumChannels: constant.AudioChannels,
	Precision:   constant.AudioPrecision,
}

// Clip is an immutable decoded buffer
// Safe to share between devices, each Streamer call returns an independent cursor
type Clip struct {
	Name   string
	buffer *beep.Buffer
}

// New wraps an existing buffer
func New(name string, buf *beep.Buffer) *Clip {
	return &Clip{Name: name, buffer: buf}
}

// Len returns the clip length in samples
func (c *Clip) Len() int {
	if c == nil || c.buffer == nil {
		return 0
	}
	return c.buffer.Len()
}

// Format returns the sample format of the buffer
func (c *Clip) Format() beep.Format {
	if c == nil || c.buffer == nil {
		return DefaultFormat
	}
	return c.buffer.Format()
}

// Duration returns the playback length at unity pitch
func (c *Clip) Duration() time.Duration {
	return c.Format().SampleRate.D(c.Len())
}

// Streamer returns a fresh cursor over samples [from, Len)
// Offsets outside the buffer are clamped. The cursor's Position and Len are relative to from,
// callers needing the absolute offset add the clip length minus the cursor's Len
func (c *Clip) Streamer(from int) beep.StreamSeeker {
	n := c.Len()
	if from < 0 {
		from = 0
	}
	if from > n {
		from = n
	}
	return c.buffer.Streamer(from, n)
}

// Decode reads a WAV stream into memory, resampling to format's rate if needed
func Decode(name string, r io.Reader, format beep.Format) (*Clip, error) {
	s, f, err := wav.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	defer s.Close()

	var src beep.Streamer = s
	if f.SampleRate != format.SampleRate {
		src = beep.Resample(constant.ResampleQuality, f.SampleRate, format.SampleRate, s)
	}

	buf := beep.NewBuffer(format)
	buf.Append(src)
	if buf.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyClip, name)
	}
	return New(name, buf), nil
}

// LoadWAV decodes a WAV file from disk
func LoadWAV(name, path string, format beep.Format) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open clip %s: %w", name, err)
	}
	defer f.Close()
	return Decode(name, f, format)
}

// Tone synthesizes a sine clip, used by the sandbox and content without files
func Tone(name string, format beep.Format, freq float64, d time.Duration) (*Clip, error) {
	n := format.SampleRate.N(d)
	if n <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyClip, name)
	}

	sine, err := generators.SineTone(format.SampleRate, freq)
	if err != nil {
		return nil, fmt.Errorf("tone %s: %w", name, err)
	}

	buf := beep.NewBuffer(format)
	buf.Append(beep.Take(n, sine))
	return New(name, buf), nil
}

// Silence creates a clip of d silent samples
func Silence(name string, format beep.Format, d time.Duration) *Clip {
	buf := beep.NewBuffer(format)
	buf.Append(beep.Silence(format.SampleRate.N(d)))
	return New(name, buf)
}
