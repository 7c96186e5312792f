package archive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// rigOutputs builds an outputs directory holding one rated CSV and the
// journal database.
func rigOutputs(t *testing.T, parent string) string {
	t.Helper()
	outputsDir := filepath.Join(parent, "outputs")
	if err := os.MkdirAll(outputsDir, 0o755); err != nil {
		t.Fatalf("Failed to create outputs directory: %v", err)
	}
	csv := filepath.Join(outputsDir, "sub-001-annotation.csv")
	if err := os.WriteFile(csv, []byte("transcription,start,end\n"), 0o644); err != nil {
		t.Fatalf("Failed to create rated CSV: %v", err)
	}
	db := filepath.Join(outputsDir, "ratings.db")
	if err := os.WriteFile(db, []byte("journal"), 0o644); err != nil {
		t.Fatalf("Failed to create journal file: %v", err)
	}
	return outputsDir
}

func TestArchiveOutputs(t *testing.T) {
	tmpDir := t.TempDir()
	outputsDir := rigOutputs(t, tmpDir)

	archivePath, err := ArchiveOutputs(outputsDir)
	if err != nil {
		t.Fatalf("ArchiveOutputs() error = %v", err)
	}

	if _, err := os.Stat(outputsDir); !os.IsNotExist(err) {
		t.Error("outputs directory still exists after archiving")
	}

	if filepath.Dir(archivePath) != filepath.Join(tmpDir, "archive") {
		t.Errorf("archive placed at %s, want under %s", archivePath, filepath.Join(tmpDir, "archive"))
	}
	if !strings.HasPrefix(filepath.Base(archivePath), "outputs-") {
		t.Errorf("archive name %q does not start with %q", filepath.Base(archivePath), "outputs-")
	}

	// Both the rated CSV and the journal must travel with the archive.
	if _, err := os.Stat(filepath.Join(archivePath, "sub-001-annotation.csv")); err != nil {
		t.Errorf("rated CSV missing from archive: %v", err)
	}
	if _, err := os.Stat(filepath.Join(archivePath, "ratings.db")); err != nil {
		t.Errorf("journal missing from archive: %v", err)
	}
}

func TestArchiveOutputsMissingDirectory(t *testing.T) {
	err := func() error {
		_, err := ArchiveOutputs(filepath.Join(t.TempDir(), "nonexistent"))
		return err
	}()
	if err == nil {
		t.Fatal("ArchiveOutputs() on missing directory expected error, got nil")
	}
	if !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("ArchiveOutputs() error = %q, want it to contain %q", err, "does not exist")
	}
}

func TestArchiveOutputsRepeatedPasses(t *testing.T) {
	tmpDir := t.TempDir()

	var paths []string
	for i := 0; i < 2; i++ {
		outputsDir := rigOutputs(t, tmpDir)
		if i == 1 {
			time.Sleep(10 * time.Millisecond)
		}
		archivePath, err := ArchiveOutputs(outputsDir)
		if err != nil {
			t.Fatalf("ArchiveOutputs() pass %d error = %v", i, err)
		}
		paths = append(paths, archivePath)
	}

	if paths[0] == paths[1] {
		t.Errorf("both passes archived to %s; names must be unique", paths[0])
	}
	entries, err := os.ReadDir(filepath.Join(tmpDir, "archive"))
	if err != nil {
		t.Fatalf("Failed to read archive directory: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("archive holds %d entries, want 2", len(entries))
	}
}
