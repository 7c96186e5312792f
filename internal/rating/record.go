package rating

import (
	"fmt"
	"strings"
	"unicode"
)

// Canonical column names. Input files must provide ColTranscription,
// ColStart and ColEnd; the remaining columns are created on save when the
// input lacks them.
const (
	ColTranscription = "transcription"
	ColWordClean     = "word_clean"
	ColStart         = "start"
	ColEnd           = "end"
	ColRater         = "rater"
	ColChanged       = "changed"
)

// Record is one annotated word or text segment.
type Record struct {
	Transcription string
	Start         float64 // seconds from recording start
	End           float64
	Rater         string // last rater who altered the row
	Changed       bool   // transcription differs from the pre-annotated value
	WordClean     string // derived; recomputed on every save

	// original is the pre-annotated transcription this row is compared
	// against when Changed is recomputed.
	original string

	// extra holds the pass-through column values in table column order.
	extra []string
}

// Original returns the pre-annotated transcription baseline for the row.
func (r Record) Original() string { return r.original }

// Clean normalizes a transcription for comparison and analysis: lower-cased
// with all whitespace and period characters removed ("The. Dog " → "thedog").
func Clean(transcription string) string {
	var b strings.Builder
	b.Grow(len(transcription))
	for _, r := range strings.ToLower(transcription) {
		if unicode.IsSpace(r) || r == '.' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MalformedInputError reports a CSV that cannot back an annotation table.
type MalformedInputError struct {
	Path    string
	Missing []string // required columns absent from the header
	Reason  string   // set when the problem is not a missing column
}

func (e *MalformedInputError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s: missing required column(s) %s", e.Path, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// IndexError reports record access outside the table bounds.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("record index %d out of range [0, %d)", e.Index, e.Len)
}
