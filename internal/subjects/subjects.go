// Package subjects discovers rateable subjects in a data directory by
// pairing audio recordings with their pre-annotated CSV files.
package subjects

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	// AudioDirName holds the subject recordings (sub-NNN*.wav).
	AudioDirName = "audio"
	// PreAnnotatedDirName holds the machine-generated annotation CSVs.
	PreAnnotatedDirName = "pre_annotated"
	// DefaultOutputDirName is used when no output directory is configured.
	DefaultOutputDirName = "outputs"
)

// labelPattern matches the subject prefix of a data file, e.g. "sub-003".
var labelPattern = regexp.MustCompile(`^(sub-(\d+))`)

// Subject is one participant with a fully resolved file triple.
type Subject struct {
	ID    int    // numeric id parsed from the filename prefix
	Label string // prefix as written in the filenames, e.g. "sub-003"

	AudioPath  string
	PrePath    string
	OutputPath string // pre-annotated filename placed under the output directory
}

// MissingFileError reports a subject that has a file on one side of the
// pairing but not the other. Such subjects are skipped, not fatal.
type MissingFileError struct {
	Label   string
	Missing string // "audio" or "pre_annotated"
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("subject %s: no %s file found", e.Label, e.Missing)
}

// Library is the result of resolving a data directory: the subjects that can
// be loaded, in id order, plus the pairing failures that were skipped.
type Library struct {
	Subjects []Subject
	Skipped  []*MissingFileError

	byLabel map[string]Subject
}

// Subject looks up a loadable subject by its label.
func (l *Library) Subject(label string) (Subject, bool) {
	s, ok := l.byLabel[label]
	return s, ok
}

// Labels returns the loadable subject labels in id order.
func (l *Library) Labels() []string {
	labels := make([]string, len(l.Subjects))
	for i, s := range l.Subjects {
		labels[i] = s.Label
	}
	return labels
}

// Resolve scans root/audio and root/pre_annotated, pairs files by their
// sub-NNN prefix and derives each subject's output path by keeping the
// pre-annotated filename and substituting outputDir for its directory.
// If outputDir is empty, root/outputs is used.
func Resolve(root, outputDir string) (*Library, error) {
	if outputDir == "" {
		outputDir = filepath.Join(root, DefaultOutputDirName)
	}

	audio, err := scanDir(filepath.Join(root, AudioDirName), ".wav")
	if err != nil {
		return nil, fmt.Errorf("scan audio directory: %w", err)
	}
	pre, err := scanDir(filepath.Join(root, PreAnnotatedDirName), ".csv")
	if err != nil {
		return nil, fmt.Errorf("scan pre_annotated directory: %w", err)
	}

	lib := &Library{byLabel: make(map[string]Subject)}

	for label, audioPath := range audio {
		prePath, ok := pre[label]
		if !ok {
			lib.Skipped = append(lib.Skipped, &MissingFileError{Label: label, Missing: PreAnnotatedDirName})
			continue
		}
		id, _ := strconv.Atoi(labelPattern.FindStringSubmatch(label)[2])
		lib.Subjects = append(lib.Subjects, Subject{
			ID:         id,
			Label:      label,
			AudioPath:  audioPath,
			PrePath:    prePath,
			OutputPath: filepath.Join(outputDir, filepath.Base(prePath)),
		})
	}
	for label := range pre {
		if _, ok := audio[label]; !ok {
			lib.Skipped = append(lib.Skipped, &MissingFileError{Label: label, Missing: AudioDirName})
		}
	}

	sort.Slice(lib.Subjects, func(i, j int) bool {
		if lib.Subjects[i].ID != lib.Subjects[j].ID {
			return lib.Subjects[i].ID < lib.Subjects[j].ID
		}
		return lib.Subjects[i].Label < lib.Subjects[j].Label
	})
	sort.Slice(lib.Skipped, func(i, j int) bool { return lib.Skipped[i].Label < lib.Skipped[j].Label })

	for _, s := range lib.Subjects {
		lib.byLabel[s.Label] = s
	}

	slog.Debug("resolved subject library",
		"root", root, "loadable", len(lib.Subjects), "skipped", len(lib.Skipped))
	return lib, nil
}

// scanDir maps subject labels to file paths for files with the given
// extension. Files without a sub-NNN prefix are ignored. When a subject has
// several matching files the lexicographically first is kept.
func scanDir(dir, ext string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	files := make(map[string]string)
	for _, name := range names {
		m := labelPattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		label := m[1]
		if prev, ok := files[label]; ok {
			slog.Warn("duplicate file for subject", "label", label, "kept", filepath.Base(prev), "ignored", name)
			continue
		}
		files[label] = filepath.Join(dir, name)
	}
	return files, nil
}
