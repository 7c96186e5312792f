package rating

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeCSV writes content to a file in dir and returns its path.
func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", name, err)
	}
	return path
}

func TestLoadParsesAnnotations(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "sub-001.csv",
		"transcription,start,end,confidence\ndog,1.5,2,0.81\n. cat,2,3.25,0.93\n")

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", table.Len())
	}

	rec, err := table.Get(0)
	if err != nil {
		t.Fatalf("Get(0) error = %v", err)
	}
	if rec.Transcription != "dog" || rec.Start != 1.5 || rec.End != 2 {
		t.Errorf("Get(0) = %q [%v, %v], want \"dog\" [1.5, 2]", rec.Transcription, rec.Start, rec.End)
	}
	if rec.Original() != "dog" {
		t.Errorf("Original() = %q, want %q", rec.Original(), "dog")
	}

	if got := table.Passthrough(); len(got) != 1 || got[0] != "confidence" {
		t.Errorf("Passthrough() = %v, want [confidence]", got)
	}
}

func TestLoadRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "missing end column",
			content: "transcription,start\ndog,1.5\n",
			errMsg:  "missing required column(s) end",
		},
		{
			name:    "missing all required columns",
			content: "word,score\ndog,0.9\n",
			errMsg:  "missing required column(s) transcription, start, end",
		},
		{
			name:    "empty file",
			content: "",
			errMsg:  "file is empty",
		},
		{
			name:    "unparseable start time",
			content: "transcription,start,end\ndog,abc,2\n",
			errMsg:  "bad start value",
		},
		{
			name:    "unparseable end time",
			content: "transcription,start,end\ndog,1,2:30\n",
			errMsg:  "bad end value",
		},
		{
			name:    "ragged rows",
			content: "transcription,start,end\ndog,1.5\n",
			errMsg:  "wrong number of fields",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCSV(t, t.TempDir(), "sub-001.csv", tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			var malformed *MalformedInputError
			if !errors.As(err, &malformed) {
				t.Fatalf("Load() error = %T, want *MalformedInputError", err)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Load() error = %q, want it to contain %q", err, tt.errMsg)
			}
		})
	}
}

func TestLoadHeaderOnlyFile(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "sub-001.csv", "transcription,start,end\n")

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if table.Len() != 0 {
		t.Errorf("Len() = %d, want 0", table.Len())
	}
}

func TestGetSetOutOfRange(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "sub-001.csv", "transcription,start,end\ndog,1,2\n")
	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	for _, i := range []int{-1, 1, 5} {
		if _, err := table.Get(i); err == nil {
			t.Errorf("Get(%d) expected error, got nil", i)
		}
		if err := table.Set(i, Record{}); err == nil {
			t.Errorf("Set(%d) expected error, got nil", i)
		} else if !strings.Contains(err.Error(), "out of range") {
			t.Errorf("Set(%d) error = %q, want it to contain %q", i, err, "out of range")
		}
	}
}

func TestSaveWritesCanonicalColumns(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "sub-001.csv",
		"transcription,start,end,confidence\ndog,1.5,2,0.81\ncat,2,3.25,0.93\n")

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	out := filepath.Join(dir, "out", "sub-001.csv")
	if err := table.Save(out); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	want := "transcription,word_clean,start,end,rater,changed,confidence\n" +
		"dog,dog,1.5,2,,false,0.81\n" +
		"cat,cat,2,3.25,,false,0.93\n"
	if string(data) != want {
		t.Errorf("Save() wrote:\n%s\nwant:\n%s", data, want)
	}
}

func TestSaveTracksEdits(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "sub-001.csv", "transcription,start,end\nDog. ,1,2\ncat,2,3\n")

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	rec, _ := table.Get(0)
	rec.Transcription = "dog"
	rec.Rater = "ab"
	if err := table.Set(0, rec); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	out := filepath.Join(dir, "out.csv")
	if err := table.Save(out); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	want := "transcription,word_clean,start,end,rater,changed\n" +
		"dog,dog,1,2,ab,true\n" +
		"cat,cat,2,3,,false\n"
	if string(data) != want {
		t.Errorf("Save() wrote:\n%s\nwant:\n%s", data, want)
	}
}

func TestSaveIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "sub-001.csv", "transcription,start,end\ndog,1.5,2.25\n")

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	out := filepath.Join(dir, "out.csv")
	if err := table.Save(out); err != nil {
		t.Fatalf("first Save() error = %v", err)
	}
	first, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}

	if err := table.Save(out); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}
	second, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}

	if string(first) != string(second) {
		t.Errorf("repeated Save() produced different bytes:\n%s\nvs:\n%s", first, second)
	}
}

func TestSetPreservesPassthrough(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "sub-001.csv", "transcription,start,end,confidence\ndog,1,2,0.81\n")

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// A record built from scratch carries no pass-through values; the stored
	// ones must survive the write anyway.
	if err := table.Set(0, Record{Transcription: "dig", Start: 1, End: 2}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	out := filepath.Join(dir, "out.csv")
	if err := table.Save(out); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if !strings.Contains(string(data), "dig,dig,1,2,,true,0.81") {
		t.Errorf("Save() lost pass-through value:\n%s", data)
	}
}

func TestResumeRestoresBaseline(t *testing.T) {
	dir := t.TempDir()
	pre := writeCSV(t, dir, "pre.csv", "transcription,start,end\ndog,1,2\ncat,2,3\n")
	out := writeCSV(t, dir, "out.csv",
		"transcription,word_clean,start,end,rater,changed\ndig,dig,1,2,ab,true\ncat,cat,2,3,,false\n")

	table, err := Resume(out, pre)
	if err != nil {
		t.Fatalf("Resume() error = %v", err)
	}

	rec, _ := table.Get(0)
	if rec.Transcription != "dig" {
		t.Errorf("Transcription = %q, want %q", rec.Transcription, "dig")
	}
	if rec.Original() != "dog" {
		t.Errorf("Original() = %q, want %q", rec.Original(), "dog")
	}
	if rec.Rater != "ab" {
		t.Errorf("Rater = %q, want %q", rec.Rater, "ab")
	}

	// Reverting the edit must clear the changed flag on the next save.
	rec.Transcription = "dog"
	if err := table.Set(0, rec); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	resaved := filepath.Join(dir, "resaved.csv")
	if err := table.Save(resaved); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data, err := os.ReadFile(resaved)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if !strings.Contains(string(data), "dog,dog,1,2,ab,false") {
		t.Errorf("Save() after revert kept changed flag:\n%s", data)
	}
}

func TestResumeRowCountMismatch(t *testing.T) {
	dir := t.TempDir()
	pre := writeCSV(t, dir, "pre.csv", "transcription,start,end\ndog,1,2\ncat,2,3\n")
	out := writeCSV(t, dir, "out.csv", "transcription,word_clean,start,end,rater,changed\ndog,dog,1,2,,false\n")

	_, err := Resume(out, pre)
	if err == nil {
		t.Fatal("Resume() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "has 1 rows but pre-annotated file has 2") {
		t.Errorf("Resume() error = %q, want a row count mismatch", err)
	}
}

func TestSaveReplacesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "sub-001.csv", "transcription,start,end\ndog,1,2\n")
	out := writeCSV(t, dir, "out.csv", "stale content that must disappear\n")

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := table.Save(out); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if strings.Contains(string(data), "stale") {
		t.Errorf("Save() did not replace existing file:\n%s", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to list directory: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("Save() left temp file behind: %s", e.Name())
		}
	}
}
