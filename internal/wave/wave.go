// Package wave decodes subject recordings into normalized mono sample
// buffers and writes playback segments back out as WAV.
package wave

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// readStep is the decode buffer size in samples.
const readStep = 262144

// Clip is a decoded recording: mono float32 samples in [-1, 1].
type Clip struct {
	rate    int
	samples []float32
}

// Load decodes a WAV file into a mono clip. Stereo input is mixed down by
// averaging channel pairs.
func Load(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid WAV file", filepath.Base(path))
	}

	channels := int(decoder.NumChans)
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("unsupported number of channels: %d", channels)
	}

	// Divisor for converting samples from int to float32.
	var divisor float32
	switch decoder.BitDepth {
	case 16:
		divisor = 32768.0
	case 24:
		divisor = 8388608.0
	case 32:
		divisor = 2147483648.0
	default:
		return nil, fmt.Errorf("unsupported bit depth: %d", decoder.BitDepth)
	}

	clip := &Clip{rate: int(decoder.SampleRate)}
	buf := &audio.IntBuffer{
		Data:   make([]int, readStep),
		Format: &audio.Format{SampleRate: clip.rate, NumChannels: channels},
	}
	var carry float32
	var haveCarry bool
	for {
		n, err := decoder.PCMBuffer(buf)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
		}
		if n == 0 {
			break
		}
		for _, sample := range buf.Data[:n] {
			v := float32(sample) / divisor
			if channels == 1 {
				clip.samples = append(clip.samples, v)
				continue
			}
			// Interleaved stereo: average each left/right pair. A frame
			// may straddle two reads, so keep the odd sample around.
			if haveCarry {
				clip.samples = append(clip.samples, (carry+v)/2)
				haveCarry = false
			} else {
				carry = v
				haveCarry = true
			}
		}
	}
	if haveCarry {
		clip.samples = append(clip.samples, carry)
	}

	if len(clip.samples) == 0 {
		return nil, fmt.Errorf("%s contains no samples", filepath.Base(path))
	}
	if clip.rate <= 0 {
		return nil, fmt.Errorf("%s reports sample rate %d", filepath.Base(path), clip.rate)
	}
	return clip, nil
}

// SampleRate returns the clip's sample rate in Hz.
func (c *Clip) SampleRate() int { return c.rate }

// Len returns the number of mono samples.
func (c *Clip) Len() int { return len(c.samples) }

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	return float64(len(c.samples)) / float64(c.rate)
}

// Segment copies the samples between start and end (seconds) into a new
// clip. Bounds are clamped to the clip; an inverted window yields an
// empty clip.
func (c *Clip) Segment(start, end float64) *Clip {
	i := clampIndex(int(start*float64(c.rate)), len(c.samples))
	j := clampIndex(int(end*float64(c.rate)), len(c.samples))
	if j < i {
		j = i
	}
	out := &Clip{rate: c.rate, samples: make([]float32, j-i)}
	copy(out.samples, c.samples[i:j])
	return out
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// MinMax is the amplitude envelope of one waveform column.
type MinMax struct {
	Min, Max float32
}

// Peaks reduces the clip to cols envelope pairs, one per equally sized
// slice of the clip. The waveform view draws each pair as a vertical line.
func (c *Clip) Peaks(cols int) []MinMax {
	if cols <= 0 {
		return nil
	}
	peaks := make([]MinMax, cols)
	if len(c.samples) == 0 {
		return peaks
	}
	for b := range peaks {
		lo := b * len(c.samples) / cols
		hi := (b + 1) * len(c.samples) / cols
		if hi == lo {
			hi = lo + 1
		}
		env := MinMax{Min: c.samples[lo], Max: c.samples[lo]}
		for _, v := range c.samples[lo:hi] {
			if v < env.Min {
				env.Min = v
			}
			if v > env.Max {
				env.Max = v
			}
		}
		peaks[b] = env
	}
	return peaks
}

// PadBounds widens [start, end] by pad seconds on each side, clamped to
// [0, duration]. This is the context window shown and played around a word.
func PadBounds(start, end, pad, duration float64) (float64, float64) {
	s := start - pad
	if s < 0 {
		s = 0
	}
	e := end + pad
	if e > duration {
		e = duration
	}
	if e < s {
		e = s
	}
	return s, e
}

// WriteWAV encodes the clip as 16-bit mono PCM at path, creating parent
// directories as needed.
func (c *Clip) WriteWAV(path string) error {
	if len(c.samples) == 0 {
		return errors.New("refusing to write empty clip")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create WAV file: %w", err)
	}
	defer out.Close()

	enc := wav.NewEncoder(out, c.rate, 16, 1, 1)
	data := make([]int, len(c.samples))
	for i, v := range c.samples {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		data[i] = int(v * 32767)
	}
	if err := enc.Write(&audio.IntBuffer{
		Data:   data,
		Format: &audio.Format{SampleRate: c.rate, NumChannels: 1},
	}); err != nil {
		return fmt.Errorf("write WAV data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize WAV file: %w", err)
	}
	return nil
}
