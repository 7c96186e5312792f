package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// nudgeStep is how far the nudge buttons and the Up/Down arrows move a
// boundary time, in seconds.
const nudgeStep = 0.01

// timeEntry is a single-line entry holding a word boundary in seconds.
// Up/Down nudge the value and Escape leaves the field.
type timeEntry struct {
	widget.Entry

	onNudge  func(delta float64)
	onEscape func()
}

// newTimeEntry creates a new boundary time entry
func newTimeEntry() *timeEntry {
	entry := &timeEntry{}
	entry.ExtendBaseWidget(entry)
	return entry
}

// TypedKey handles key events
func (e *timeEntry) TypedKey(key *fyne.KeyEvent) {
	switch key.Name {
	case fyne.KeyUp:
		if e.onNudge != nil {
			e.onNudge(nudgeStep)
			return
		}
	case fyne.KeyDown:
		if e.onNudge != nil {
			e.onNudge(-nudgeStep)
			return
		}
	case fyne.KeyEscape:
		if e.onEscape != nil {
			e.onEscape()
			return
		}
	}
	e.Entry.TypedKey(key)
}
