// Package rating is the in-memory store for one subject's word annotations.
// It loads a pre-annotated CSV into an ordered table of records, lets the
// rater mutate them in place, and rewrites the full output CSV atomically.
// Unknown input columns pass through to the output untouched and row order
// and count are preserved.
package rating
