// Package testutil provides shared fixture helpers for package tests.
package testutil

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// FixtureSampleRate is the sample rate of generated WAV fixtures.
const FixtureSampleRate = 8000

// Word is one pre-annotated row in a fixture CSV.
type Word struct {
	Text  string
	Start float64
	End   float64
}

// DefaultWords returns a three-word annotation that fits inside a
// two-second fixture recording.
func DefaultWords() []Word {
	return []Word{
		{Text: "the", Start: 0.2, End: 0.5},
		{Text: "dog", Start: 0.6, End: 1.0},
		{Text: "barks", Start: 1.1, End: 1.7},
	}
}

// CreateTestFile creates a test file with content
func CreateTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// WritePreAnnotated writes a pre-annotated CSV with the required
// transcription/start/end columns.
func WritePreAnnotated(t *testing.T, path string, words []Word) {
	t.Helper()

	var b strings.Builder
	b.WriteString("transcription,start,end\n")
	for _, w := range words {
		fmt.Fprintf(&b, "%s,%v,%v\n", w.Text, w.Start, w.End)
	}
	CreateTestFile(t, path, []byte(b.String()))
}

// WriteToneWAV writes a mono 16-bit 440 Hz tone lasting the given number
// of seconds.
func WriteToneWAV(t *testing.T, path string, seconds float64) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for WAV fixture: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create WAV fixture %s: %v", path, err)
	}
	defer f.Close()

	n := int(seconds * FixtureSampleRate)
	data := make([]int, n)
	for i := range data {
		data[i] = int(16000 * math.Sin(2*math.Pi*440*float64(i)/FixtureSampleRate))
	}

	enc := wav.NewEncoder(f, FixtureSampleRate, 16, 1, 1)
	if err := enc.Write(&audio.IntBuffer{
		Data:   data,
		Format: &audio.Format{SampleRate: FixtureSampleRate, NumChannels: 1},
	}); err != nil {
		t.Fatalf("Failed to write WAV fixture %s: %v", path, err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Failed to finalize WAV fixture %s: %v", path, err)
	}
}

// CreateDataTree builds a data root containing a paired audio file and
// pre-annotated CSV for every given subject label.
func CreateDataTree(t *testing.T, labels ...string) string {
	t.Helper()

	root := t.TempDir()
	for _, label := range labels {
		WriteToneWAV(t, filepath.Join(root, "audio", label+"_recording.wav"), 2)
		WritePreAnnotated(t, filepath.Join(root, "pre_annotated", label+"-annotation.csv"), DefaultWords())
	}
	return root
}

// AssertFileExists checks if a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Expected file to exist: %s", path)
	}
}
