// Package session tracks the rater's position across subjects and drives
// the commit/save cycle on every navigation step.
package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gkplab/audiotag/internal/rating"
)

// State is the navigator's lifecycle position.
type State int

const (
	// StateUnloaded means no subject is loaded.
	StateUnloaded State = iota
	// StateSubjectLoaded means a subject's records are loaded and one is displayed.
	StateSubjectLoaded
	// StateSaving is the transient state while edits are committed and flushed.
	StateSaving
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateSubjectLoaded:
		return "subject-loaded"
	case StateSaving:
		return "saving"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrNotLoaded is returned by operations that need a loaded subject.
var ErrNotLoaded = errors.New("no subject loaded")

// Store is the slice of the annotation table the navigator drives.
// *rating.Table implements it.
type Store interface {
	Len() int
	Get(i int) (rating.Record, error)
	Set(i int, rec rating.Record) error
	Save(path string) error
}

// Recorder is notified of every committed change, before the save runs.
// Implementations must not block; journal failures are theirs to swallow.
type Recorder interface {
	RecordEdit(subject string, index int, before, after rating.Record)
}

// Navigator is the session state machine. It is not safe for concurrent
// use; the UI event loop serializes all calls.
type Navigator struct {
	rater      string
	state      State
	subject    string
	outputPath string
	store      Store
	index      int
	pending    rating.Record
	hasPending bool
	recorder   Recorder
}

// NewNavigator returns an unloaded navigator stamping edits with rater.
func NewNavigator(rater string) *Navigator {
	return &Navigator{rater: rater, state: StateUnloaded}
}

// SetRecorder installs an edit journal. Pass nil to disable.
func (n *Navigator) SetRecorder(r Recorder) { n.recorder = r }

// SetRater changes the identity stamped onto subsequent edits.
func (n *Navigator) SetRater(rater string) { n.rater = rater }

// Rater returns the current rater identity.
func (n *Navigator) Rater() string { return n.rater }

// State returns the current state.
func (n *Navigator) State() State { return n.state }

// Subject returns the loaded subject's label, or "" when unloaded.
func (n *Navigator) Subject() string { return n.subject }

// Index returns the current record index.
func (n *Navigator) Index() int { return n.index }

// Len returns the number of records in the loaded subject, or 0.
func (n *Navigator) Len() int {
	if n.store == nil {
		return 0
	}
	return n.store.Len()
}

// Load enters the given subject at record 0, discarding any previous
// subject without saving. Call Switch to save the prior subject first.
func (n *Navigator) Load(subject, outputPath string, store Store) {
	n.subject = subject
	n.outputPath = outputPath
	n.store = store
	n.index = 0
	n.hasPending = false
	n.state = StateSubjectLoaded
	slog.Info("subject loaded", "subject", subject, "records", store.Len())
}

// Unload commits and saves the current subject, then returns to the
// unloaded state. A save failure leaves the subject loaded and the edits
// in place. Unload on an unloaded navigator is a no-op.
func (n *Navigator) Unload() error {
	if n.state == StateUnloaded {
		return nil
	}
	if err := n.flush(); err != nil {
		return err
	}
	n.subject = ""
	n.outputPath = ""
	n.store = nil
	n.index = 0
	n.state = StateUnloaded
	return nil
}

// Switch saves the current subject and loads the next one in a single
// step. When the save fails the navigator stays on the current subject.
func (n *Navigator) Switch(subject, outputPath string, store Store) error {
	if err := n.Unload(); err != nil {
		return err
	}
	n.Load(subject, outputPath, store)
	return nil
}

// Next commits pending edits, saves, and advances one record. At the last
// record the index stays put; the save still runs.
func (n *Navigator) Next() error { return n.move(1) }

// Prev commits pending edits, saves, and retreats one record. At the
// first record the index stays put; the save still runs.
func (n *Navigator) Prev() error { return n.move(-1) }

func (n *Navigator) move(delta int) error {
	if n.state == StateUnloaded {
		return ErrNotLoaded
	}
	if err := n.flush(); err != nil {
		return err
	}
	next := n.index + delta
	if next < 0 {
		next = 0
	}
	if last := n.store.Len() - 1; next > last {
		next = max(last, 0)
	}
	n.index = next
	return nil
}

// Current returns the record being displayed: the staged edits when some
// exist, the stored record otherwise.
func (n *Navigator) Current() (rating.Record, error) {
	if n.state == StateUnloaded {
		return rating.Record{}, ErrNotLoaded
	}
	if n.hasPending {
		return n.pending, nil
	}
	return n.store.Get(n.index)
}

// SetPending stages edited field values for the displayed record. Nothing
// is persisted until the next navigation or unload.
func (n *Navigator) SetPending(rec rating.Record) error {
	if n.state == StateUnloaded {
		return ErrNotLoaded
	}
	n.pending = rec
	n.hasPending = true
	return nil
}

// ResetPending discards staged edits so the stored record shows again.
func (n *Navigator) ResetPending() {
	n.pending = rating.Record{}
	n.hasPending = false
}

// flush commits staged edits into the store and rewrites the output file.
// The transient saving state is observable from the store's Save call.
func (n *Navigator) flush() error {
	n.state = StateSaving
	defer func() { n.state = StateSubjectLoaded }()

	if err := n.commit(); err != nil {
		return err
	}
	if err := n.store.Save(n.outputPath); err != nil {
		return fmt.Errorf("save %s: %w", n.subject, err)
	}
	return nil
}

// commit moves staged edits into the store. The rater stamp is applied
// only when the edits actually alter the record, so merely viewing a row
// never claims it.
func (n *Navigator) commit() error {
	if !n.hasPending {
		return nil
	}
	before, err := n.store.Get(n.index)
	if err != nil {
		return err
	}
	rec := n.pending
	if rec.Transcription != before.Transcription || rec.Start != before.Start || rec.End != before.End {
		rec.Rater = n.rater
		if n.recorder != nil {
			n.recorder.RecordEdit(n.subject, n.index, before, rec)
		}
	} else {
		rec.Rater = before.Rater
	}
	if err := n.store.Set(n.index, rec); err != nil {
		return err
	}
	n.hasPending = false
	return nil
}
