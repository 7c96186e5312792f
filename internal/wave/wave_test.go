package wave

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func TestPadBounds(t *testing.T) {
	tests := []struct {
		name                 string
		start, end, pad, dur float64
		wantStart, wantEnd   float64
	}{
		{
			name:  "window fits inside clip",
			start: 5, end: 6, pad: 2, dur: 20,
			wantStart: 3, wantEnd: 8,
		},
		{
			name:  "clamped at clip start",
			start: 1, end: 2, pad: 2, dur: 20,
			wantStart: 0, wantEnd: 4,
		},
		{
			name:  "clamped at clip end",
			start: 18, end: 19.5, pad: 2, dur: 20,
			wantStart: 16, wantEnd: 20,
		},
		{
			name:  "no padding",
			start: 5, end: 6, pad: 0, dur: 20,
			wantStart: 5, wantEnd: 6,
		},
		{
			name:  "inverted window collapses",
			start: 25, end: 30, pad: 0, dur: 20,
			wantStart: 25, wantEnd: 25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, e := PadBounds(tt.start, tt.end, tt.pad, tt.dur)
			if s != tt.wantStart || e != tt.wantEnd {
				t.Errorf("PadBounds() = [%v, %v], want [%v, %v]", s, e, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestSegmentClampsToClip(t *testing.T) {
	clip := &Clip{rate: 4, samples: []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}}

	seg := clip.Segment(0.5, 1.0)
	if seg.Len() != 2 || seg.samples[0] != 0.3 || seg.samples[1] != 0.4 {
		t.Errorf("Segment(0.5, 1.0) = %v, want [0.3 0.4]", seg.samples)
	}

	if got := clip.Segment(-1, 100).Len(); got != clip.Len() {
		t.Errorf("out-of-range Segment Len() = %d, want %d", got, clip.Len())
	}
	if got := clip.Segment(1.5, 0.5).Len(); got != 0 {
		t.Errorf("inverted Segment Len() = %d, want 0", got)
	}
}

func TestDuration(t *testing.T) {
	clip := &Clip{rate: 8000, samples: make([]float32, 12000)}
	if got := clip.Duration(); got != 1.5 {
		t.Errorf("Duration() = %v, want 1.5", got)
	}
}

func TestPeaks(t *testing.T) {
	clip := &Clip{rate: 8, samples: []float32{0.1, -0.9, 0.2, 0.3, -0.1, 0.5, 0.0, 0.4}}

	peaks := clip.Peaks(4)
	want := []MinMax{
		{Min: -0.9, Max: 0.1},
		{Min: 0.2, Max: 0.3},
		{Min: -0.1, Max: 0.5},
		{Min: 0.0, Max: 0.4},
	}
	if len(peaks) != len(want) {
		t.Fatalf("Peaks(4) returned %d columns, want %d", len(peaks), len(want))
	}
	for i := range want {
		if peaks[i] != want[i] {
			t.Errorf("Peaks(4)[%d] = %+v, want %+v", i, peaks[i], want[i])
		}
	}

	if got := clip.Peaks(0); got != nil {
		t.Errorf("Peaks(0) = %v, want nil", got)
	}
	if got := len(clip.Peaks(100)); got != 100 {
		t.Errorf("len(Peaks(100)) = %d, want 100", got)
	}
}

func TestWriteAndLoadRoundTrip(t *testing.T) {
	rate := 8000
	src := &Clip{rate: rate, samples: make([]float32, rate)}
	for i := range src.samples {
		src.samples[i] = float32(math.Sin(2 * math.Pi * 440 * float64(i) / float64(rate)))
	}

	path := filepath.Join(t.TempDir(), "clips", "tone.wav")
	if err := src.WriteWAV(path); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}

	clip, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if clip.SampleRate() != rate {
		t.Errorf("SampleRate() = %d, want %d", clip.SampleRate(), rate)
	}
	if clip.Len() != src.Len() {
		t.Fatalf("Len() = %d, want %d", clip.Len(), src.Len())
	}
	for i := range src.samples {
		if diff := math.Abs(float64(clip.samples[i] - src.samples[i])); diff > 1e-3 {
			t.Fatalf("sample %d = %v, want %v within 1e-3", i, clip.samples[i], src.samples[i])
		}
	}
}

func TestLoadMixesStereoToMono(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create fixture: %v", err)
	}
	enc := wav.NewEncoder(f, 8000, 16, 2, 1)
	// Two frames: (0.5, 0.25) and (-0.5, -0.25), interleaved.
	data := []int{16384, 8192, -16384, -8192}
	if err := enc.Write(&audio.IntBuffer{
		Data:   data,
		Format: &audio.Format{SampleRate: 8000, NumChannels: 2},
	}); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Failed to finalize fixture: %v", err)
	}
	f.Close()

	clip, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if clip.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 mono frames", clip.Len())
	}
	want := []float32{0.375, -0.375}
	for i := range want {
		if diff := math.Abs(float64(clip.samples[i] - want[i])); diff > 1e-4 {
			t.Errorf("sample %d = %v, want %v", i, clip.samples[i], want[i])
		}
	}
}

func TestLoadRejectsInvalidInput(t *testing.T) {
	dir := t.TempDir()
	bogus := filepath.Join(dir, "bogus.wav")
	if err := os.WriteFile(bogus, []byte("not audio at all"), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	if _, err := Load(bogus); err == nil {
		t.Error("Load() on non-WAV data expected error, got nil")
	}
	if _, err := Load(filepath.Join(dir, "absent.wav")); err == nil {
		t.Error("Load() on missing file expected error, got nil")
	}
}

func TestWriteWAVRejectsEmptyClip(t *testing.T) {
	clip := &Clip{rate: 8000}
	if err := clip.WriteWAV(filepath.Join(t.TempDir(), "empty.wav")); err == nil {
		t.Error("WriteWAV() on empty clip expected error, got nil")
	}
}
