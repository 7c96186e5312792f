package rating

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Table is the ordered, mutable sequence of records for one subject.
type Table struct {
	records     []Record
	passthrough []string // non-canonical input column names, in input order
}

// canonicalColumns in output order.
var canonicalColumns = []string{ColTranscription, ColWordClean, ColStart, ColEnd, ColRater, ColChanged}

// requiredColumns must be present in every input file.
var requiredColumns = []string{ColTranscription, ColStart, ColEnd}

// Load parses a CSV file into a table. The pre-annotated transcription
// baseline of every record is taken from the file itself.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open annotation file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, &MalformedInputError{Path: path, Reason: err.Error()}
	}
	if len(rows) == 0 {
		return nil, &MalformedInputError{Path: path, Reason: "file is empty"}
	}

	header := rows[0]
	colIdx := make(map[string]int, len(canonicalColumns))
	var passthrough []string
	var passthroughIdx []int
	for i, name := range header {
		if isCanonical(name) {
			if _, seen := colIdx[name]; !seen {
				colIdx[name] = i
				continue
			}
		}
		passthrough = append(passthrough, name)
		passthroughIdx = append(passthroughIdx, i)
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := colIdx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &MalformedInputError{Path: path, Missing: missing}
	}

	t := &Table{passthrough: passthrough}
	for n, row := range rows[1:] {
		rec := Record{Transcription: row[colIdx[ColTranscription]]}
		rec.original = rec.Transcription

		rec.Start, err = parseSeconds(row[colIdx[ColStart]])
		if err != nil {
			return nil, &MalformedInputError{Path: path, Reason: fmt.Sprintf("row %d: bad %s value %q", n+1, ColStart, row[colIdx[ColStart]])}
		}
		rec.End, err = parseSeconds(row[colIdx[ColEnd]])
		if err != nil {
			return nil, &MalformedInputError{Path: path, Reason: fmt.Sprintf("row %d: bad %s value %q", n+1, ColEnd, row[colIdx[ColEnd]])}
		}
		if i, ok := colIdx[ColRater]; ok {
			rec.Rater = row[i]
		}

		rec.extra = make([]string, len(passthroughIdx))
		for j, i := range passthroughIdx {
			rec.extra[j] = row[i]
		}
		t.records = append(t.records, rec)
	}

	slog.Debug("loaded annotation table", "path", path, "rows", len(t.records), "passthrough", len(passthrough))
	return t, nil
}

// Resume loads a previously saved output file and restores the pre-annotated
// transcription baselines from the original input so that change tracking
// keeps comparing against the machine annotations, not the rater's last pass.
func Resume(outputPath, prePath string) (*Table, error) {
	t, err := Load(outputPath)
	if err != nil {
		return nil, err
	}
	pre, err := Load(prePath)
	if err != nil {
		return nil, err
	}
	if len(t.records) != len(pre.records) {
		return nil, &MalformedInputError{
			Path:   outputPath,
			Reason: fmt.Sprintf("has %d rows but pre-annotated file has %d", len(t.records), len(pre.records)),
		}
	}
	for i := range t.records {
		t.records[i].original = pre.records[i].Transcription
	}
	return t, nil
}

// Len returns the number of records.
func (t *Table) Len() int { return len(t.records) }

// Passthrough returns the pass-through column names in output order.
func (t *Table) Passthrough() []string {
	out := make([]string, len(t.passthrough))
	copy(out, t.passthrough)
	return out
}

// Get returns a copy of the record at index i.
func (t *Table) Get(i int) (Record, error) {
	if i < 0 || i >= len(t.records) {
		return Record{}, &IndexError{Index: i, Len: len(t.records)}
	}
	return t.records[i], nil
}

// Set replaces the editable fields of the record at index i. The
// pre-annotated baseline and the pass-through values of the stored row are
// retained regardless of what the caller passes in, so a rating pass can
// never corrupt either.
func (t *Table) Set(i int, rec Record) error {
	if i < 0 || i >= len(t.records) {
		return &IndexError{Index: i, Len: len(t.records)}
	}
	stored := &t.records[i]
	stored.Transcription = rec.Transcription
	stored.Start = rec.Start
	stored.End = rec.End
	stored.Rater = rec.Rater
	return nil
}

// Save recomputes word_clean and changed for every record and rewrites the
// whole file atomically: the table is serialized to a temporary file in the
// target directory which is then renamed over path. Serialization is
// deterministic, so saving twice without edits produces identical bytes.
func (t *Table) Save(path string) error {
	for i := range t.records {
		rec := &t.records[i]
		rec.WordClean = Clean(rec.Transcription)
		rec.Changed = rec.Transcription != rec.original
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	header := append(append([]string{}, canonicalColumns...), t.passthrough...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range t.records {
		if err := w.Write(t.records[i].row()); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("set output permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	name := tmp.Name()
	tmp = nil
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("replace output file: %w", err)
	}

	slog.Debug("saved annotation table", "path", path, "rows", len(t.records))
	return nil
}

// row serializes one record in output column order.
func (r *Record) row() []string {
	row := make([]string, 0, len(canonicalColumns)+len(r.extra))
	row = append(row,
		r.Transcription,
		r.WordClean,
		FormatSeconds(r.Start),
		FormatSeconds(r.End),
		r.Rater,
		strconv.FormatBool(r.Changed),
	)
	return append(row, r.extra...)
}

func isCanonical(name string) bool {
	for _, c := range canonicalColumns {
		if name == c {
			return true
		}
	}
	return false
}

func parseSeconds(v string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(v), 64)
}

// FormatSeconds renders a time offset with the shortest representation that
// round-trips the value, keeping repeated saves byte-identical. The UI uses
// the same form so an untouched field writes back the exact input value.
func FormatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
