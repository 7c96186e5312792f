package gui

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	fynetooltip "github.com/dweymouth/fyne-tooltip"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"

	"github.com/gkplab/audiotag/internal"
	"github.com/gkplab/audiotag/internal/history"
	"github.com/gkplab/audiotag/internal/rating"
	"github.com/gkplab/audiotag/internal/session"
	"github.com/gkplab/audiotag/internal/settings"
	"github.com/gkplab/audiotag/internal/subjects"
	"github.com/gkplab/audiotag/internal/wave"
)

// Application represents the main GUI application
type Application struct {
	// Fyne components
	app    fyne.App
	window fyne.Window

	// Left panel
	reloadBtn     *ttwidget.Button
	subjectStatus *widget.Label
	subjectList   *widget.List
	skippedBtn    *ttwidget.Button
	settingsBtn   *ttwidget.Button

	// Rating panel
	waveform           *Waveform
	transcriptionEntry *widget.Entry
	startEntry         *timeEntry
	endEntry           *timeEntry
	counterLabel       *widget.Label
	raterLabel         *widget.Label
	statusLabel        *widget.Label

	// Action buttons
	playWordBtn    *ttwidget.Button
	playContextBtn *ttwidget.Button
	resetBtn       *ttwidget.Button
	prevBtn        *ttwidget.Button
	nextBtn        *ttwidget.Button

	// Session state
	settings     settings.Settings
	settingsPath string
	outputDir    string
	library      *subjects.Library
	labels       []string
	nav          *session.Navigator
	clip         *wave.Clip
	journal      *history.Journal
	player       *Player

	// updating guards the OnChanged handlers while entries are being
	// refreshed programmatically.
	updating bool
}

// Config holds GUI application configuration
type Config struct {
	// Settings is the effective configuration at startup.
	Settings settings.Settings
	// SettingsPath is where the settings dialog persists changes. Empty
	// disables persistence.
	SettingsPath string
}

// New creates a new GUI application
func New(cfg *Config) *Application {
	a := &Application{
		settings:     cfg.Settings,
		settingsPath: cfg.SettingsPath,
		nav:          session.NewNavigator(cfg.Settings.Rater),
		player:       NewPlayer(),
	}

	a.app = app.NewWithID("com.github.gkplab.audiotag")
	a.app.SetIcon(GetAppIcon())

	a.setupUI()

	a.player.onFinished = func() {
		fyne.Do(func() { a.updateStatus("Playback finished") })
	}

	a.outputDir = resolveOutputDir(cfg.Settings)
	a.openJournal()
	a.refreshLibrary()

	return a
}

// setupUI creates the main user interface
func (a *Application) setupUI() {
	a.window = a.app.NewWindow(fmt.Sprintf("Audiotag v%s", internal.Version))
	a.window.SetIcon(GetAppIcon())
	a.window.Resize(fyne.NewSize(1600, 900))

	// Left panel: subject picker
	a.reloadBtn = ttwidget.NewButtonWithIcon("RELOAD", theme.ViewRefreshIcon(), a.onReload)
	a.subjectStatus = widget.NewLabel("Select a subject to load")
	a.subjectStatus.Wrapping = fyne.TextWrapWord
	a.subjectStatus.Alignment = fyne.TextAlignCenter

	a.subjectList = widget.NewList(
		func() int { return len(a.labels) },
		func() fyne.CanvasObject { return widget.NewLabel("sub-000") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			o.(*widget.Label).SetText(a.labels[i])
		},
	)
	a.subjectList.OnSelected = a.onSubjectSelected

	a.skippedBtn = ttwidget.NewButtonWithIcon("", theme.WarningIcon(), a.onShowSkipped)
	a.skippedBtn.Hide()
	a.settingsBtn = ttwidget.NewButtonWithIcon("Settings", theme.SettingsIcon(), a.onShowSettings)

	leftPanel := container.NewBorder(
		container.NewVBox(a.reloadBtn, a.subjectStatus),
		container.NewVBox(a.skippedBtn, a.settingsBtn),
		nil, nil,
		a.subjectList,
	)

	// Waveform plot over the padded context window
	a.waveform = NewWaveform()

	// Transcription editor
	a.transcriptionEntry = widget.NewMultiLineEntry()
	a.transcriptionEntry.SetPlaceHolder("Transcription...")
	a.transcriptionEntry.Wrapping = fyne.TextWrapWord
	a.transcriptionEntry.OnChanged = func(string) {
		if a.updating {
			return
		}
		a.captureEdits()
	}

	// Boundary time editors
	a.startEntry = newTimeEntry()
	a.endEntry = newTimeEntry()
	for _, e := range []*timeEntry{a.startEntry, a.endEntry} {
		e.OnChanged = func(string) {
			if a.updating {
				return
			}
			a.captureEdits()
			a.refreshMarks()
		}
		e.onEscape = func() { a.window.Canvas().Unfocus() }
	}
	a.startEntry.onNudge = func(delta float64) { a.nudgeEntry(a.startEntry, delta) }
	a.endEntry.onNudge = func(delta float64) { a.nudgeEntry(a.endEntry, delta) }

	startEarlier := ttwidget.NewButton("-10 ms", func() { a.nudgeEntry(a.startEntry, -nudgeStep) })
	startLater := ttwidget.NewButton("+10 ms", func() { a.nudgeEntry(a.startEntry, nudgeStep) })
	endEarlier := ttwidget.NewButton("-10 ms", func() { a.nudgeEntry(a.endEntry, -nudgeStep) })
	endLater := ttwidget.NewButton("+10 ms", func() { a.nudgeEntry(a.endEntry, nudgeStep) })

	// Counter, action buttons and rater display
	a.counterLabel = widget.NewLabel("0/0")
	a.counterLabel.Alignment = fyne.TextAlignCenter
	a.raterLabel = widget.NewLabel("Last rater: N/A")
	a.raterLabel.Alignment = fyne.TextAlignCenter

	a.playWordBtn = ttwidget.NewButton("PLAY WORD", a.onPlayWord)
	a.playContextBtn = ttwidget.NewButton("PLAY CONTEXT", a.onPlayContext)
	a.resetBtn = ttwidget.NewButton("RESET", a.onReset)
	a.nextBtn = ttwidget.NewButton("NEXT WORD", a.onNextWord)
	a.prevBtn = ttwidget.NewButton("PREV WORD", a.onPrevWord)

	playColumn := container.NewVBox(a.counterLabel, a.playWordBtn, a.playContextBtn, a.resetBtn)
	navColumn := container.NewVBox(a.nextBtn, a.prevBtn)
	timesColumn := container.NewVBox(
		widget.NewLabel("Start (s)"),
		container.NewBorder(nil, nil, nil, container.NewHBox(startEarlier, startLater), a.startEntry),
		widget.NewLabel("End (s)"),
		container.NewBorder(nil, nil, nil, container.NewHBox(endEarlier, endLater), a.endEntry),
	)
	raterColumn := container.NewVBox(a.raterLabel)

	bottomPanel := container.NewBorder(
		nil, nil,
		nil,
		container.NewHBox(playColumn, navColumn, timesColumn, raterColumn),
		a.transcriptionEntry,
	)

	rightPanel := container.NewVSplit(a.waveform, bottomPanel)
	rightPanel.SetOffset(0.75)

	split := container.NewHSplit(leftPanel, rightPanel)
	split.SetOffset(0.15)

	// Status bar
	a.statusLabel = widget.NewLabel("Ready")

	content := container.NewBorder(
		nil,
		container.NewVBox(widget.NewSeparator(), a.statusLabel),
		nil, nil,
		split,
	)

	// Add the tooltip layer to enable tooltips
	a.window.SetContent(fynetooltip.AddWindowToolTipLayer(content, a.window.Canvas()))

	// Now that tooltip layer is created, set all tooltips
	a.setupTooltips()
	startEarlier.SetToolTip("Move start 10 ms earlier (Down in the field)")
	startLater.SetToolTip("Move start 10 ms later (Up in the field)")
	endEarlier.SetToolTip("Move end 10 ms earlier (Down in the field)")
	endLater.SetToolTip("Move end 10 ms later (Up in the field)")

	a.window.SetOnClosed(func() {
		a.player.Stop()
		if err := a.nav.Unload(); err != nil {
			slog.Error("saving on exit failed", "error", err)
		}
		if a.journal != nil {
			a.journal.Close()
		}
	})

	// Set up keyboard shortcuts
	a.setupKeyboardShortcuts()
}

// Run starts the GUI application
func (a *Application) Run() {
	a.window.ShowAndRun()
}

// onSubjectSelected loads the picked subject, saving the previous one first
func (a *Application) onSubjectSelected(id widget.ListItemID) {
	if id < 0 || id >= len(a.labels) {
		return
	}
	label := a.labels[id]
	if label == a.nav.Subject() {
		return
	}
	if err := a.loadSubject(label); err != nil {
		a.subjectList.Unselect(id)
	}
}

// loadSubject saves whatever subject is open, then loads label's records
// and audio. The previous subject stays loaded when anything fails.
func (a *Application) loadSubject(label string) error {
	sub, ok := a.library.Subject(label)
	if !ok {
		return fmt.Errorf("unknown subject %s", label)
	}

	a.player.Stop()
	a.subjectStatus.SetText(fmt.Sprintf("Loading %s...", label))

	// An existing output file means an earlier session rated this
	// subject; resume it against the pre-annotated baseline.
	var (
		table *rating.Table
		err   error
		fresh bool
	)
	if _, statErr := os.Stat(sub.OutputPath); statErr == nil {
		table, err = rating.Resume(sub.OutputPath, sub.PrePath)
	} else {
		table, err = rating.Load(sub.PrePath)
		fresh = true
	}
	if err != nil {
		a.showError(err)
		a.subjectStatus.SetText(fmt.Sprintf("Cannot load %s", label))
		return err
	}

	clip, err := wave.Load(sub.AudioPath)
	if err != nil {
		a.showError(err)
		a.subjectStatus.SetText(fmt.Sprintf("Audio not found for %s", label))
		return err
	}

	if err := a.nav.Switch(label, sub.OutputPath, table); err != nil {
		a.showError(err)
		a.subjectStatus.SetText(fmt.Sprintf("Still on %s", a.nav.Subject()))
		return err
	}
	a.clip = clip

	if fresh {
		// Materialize the output copy right away so a crash before the
		// first navigation still leaves a resumable file.
		if err := table.Save(sub.OutputPath); err != nil {
			a.showError(fmt.Errorf("save %s: %w", label, err))
		}
	}

	a.subjectStatus.SetText(fmt.Sprintf("Successfully loaded %s!", label))
	a.updateStatus(fmt.Sprintf("Loaded %s: %d words", label, a.nav.Len()))
	a.showCurrentWord()
	slog.Info("subject opened", "subject", label, "resumed", !fresh)
	return nil
}

// refreshLibrary rescans the data directory and rebuilds the subject list
func (a *Application) refreshLibrary() {
	lib, err := subjects.Resolve(a.settings.DataDir, a.settings.OutputDir)
	if err != nil {
		a.showError(err)
		return
	}
	a.library = lib
	a.labels = lib.Labels()
	a.subjectList.Refresh()

	if n := len(lib.Skipped); n > 0 {
		a.skippedBtn.SetText(fmt.Sprintf("%d skipped", n))
		a.skippedBtn.Show()
	} else {
		a.skippedBtn.Hide()
	}

	a.updateStatus(fmt.Sprintf("Found %d loadable subjects, %d skipped", len(a.labels), len(lib.Skipped)))
}

// onReload rescans the data directory
func (a *Application) onReload() {
	a.refreshLibrary()
}

// onShowSkipped lists the subjects that failed file pairing
func (a *Application) onShowSkipped() {
	if a.library == nil || len(a.library.Skipped) == 0 {
		return
	}

	var b strings.Builder
	for _, miss := range a.library.Skipped {
		fmt.Fprintln(&b, miss.Error())
	}

	content := widget.NewLabel(b.String())
	scroll := container.NewScroll(content)
	scroll.SetMinSize(fyne.NewSize(420, 260))
	dialog.ShowCustom("Skipped subjects", "Close", scroll, a.window)
}

// showCurrentWord fills the rating panel from the record under the cursor
func (a *Application) showCurrentWord() {
	rec, err := a.nav.Current()
	if err != nil {
		a.clearRatingUI()
		return
	}

	a.updating = true
	a.transcriptionEntry.SetText(rec.Transcription)
	a.startEntry.SetText(rating.FormatSeconds(rec.Start))
	a.endEntry.SetText(rating.FormatSeconds(rec.End))
	a.updating = false

	a.counterLabel.SetText(fmt.Sprintf("%d/%d", a.nav.Index()+1, a.nav.Len()))
	rater := rec.Rater
	if rater == "" {
		rater = "N/A"
	}
	a.raterLabel.SetText("Last rater: " + rater)

	a.refreshWaveform(rec)
}

func (a *Application) clearRatingUI() {
	a.updating = true
	a.transcriptionEntry.SetText("")
	a.startEntry.SetText("")
	a.endEntry.SetText("")
	a.updating = false
	a.counterLabel.SetText("0/0")
	a.raterLabel.SetText("Last rater: N/A")
	a.waveform.Clear()
}

func (a *Application) refreshWaveform(rec rating.Record) {
	if a.clip == nil {
		a.waveform.Clear()
		return
	}
	windowStart, windowEnd := wave.PadBounds(rec.Start, rec.End, a.settings.PaddingSeconds, a.clip.Duration())
	a.waveform.ShowWindow(a.clip, windowStart, windowEnd, rec.Start, rec.End)
}

// refreshMarks redraws the waveform for the staged boundary values
func (a *Application) refreshMarks() {
	rec, err := a.nav.Current()
	if err != nil {
		return
	}
	a.refreshWaveform(rec)
}

// captureEdits stages the edited entry values on the navigator. A boundary
// value that does not parse keeps its previous staged value.
func (a *Application) captureEdits() {
	if a.nav.State() != session.StateSubjectLoaded {
		return
	}
	rec, err := a.nav.Current()
	if err != nil {
		return
	}

	rec.Transcription = a.transcriptionEntry.Text
	if v, err := strconv.ParseFloat(strings.TrimSpace(a.startEntry.Text), 64); err == nil {
		rec.Start = v
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(a.endEntry.Text), 64); err == nil {
		rec.End = v
	}
	a.nav.SetPending(rec)
}

// nudgeEntry moves a boundary entry by delta seconds, clamped at zero
func (a *Application) nudgeEntry(e *timeEntry, delta float64) {
	v, err := strconv.ParseFloat(strings.TrimSpace(e.Text), 64)
	if err != nil {
		a.updateStatus(fmt.Sprintf("Not a number: %q", e.Text))
		return
	}
	v += delta
	if v < 0 {
		v = 0
	}
	e.SetText(rating.FormatSeconds(v))
}

// onNextWord saves and advances to the next word
func (a *Application) onNextWord() {
	a.moveWord(a.nav.Next)
}

// onPrevWord saves and retreats to the previous word
func (a *Application) onPrevWord() {
	a.moveWord(a.nav.Prev)
}

// moveWord runs one navigation step: commit staged edits, save, move.
// Edits stay staged when the save fails.
func (a *Application) moveWord(step func() error) {
	if a.nav.State() == session.StateUnloaded {
		a.updateStatus("No subject loaded")
		return
	}
	if err := step(); err != nil {
		a.showError(err)
		return
	}
	a.showCurrentWord()
	a.updateStatus(fmt.Sprintf("Saved %s", a.nav.Subject()))
}

// onReset discards staged edits and redisplays the saved record
func (a *Application) onReset() {
	if a.nav.State() == session.StateUnloaded {
		return
	}
	a.nav.ResetPending()
	a.showCurrentWord()
	a.updateStatus("Restored saved values")
}

// onPlayWord plays the current word segment
func (a *Application) onPlayWord() {
	rec, err := a.nav.Current()
	if err != nil {
		a.updateStatus("No subject loaded")
		return
	}
	if err := a.player.Play(a.clip, rec.Start, rec.End); err != nil {
		a.showError(err)
		return
	}
	a.updateStatus(fmt.Sprintf("Playing %.2f to %.2f", rec.Start, rec.End))
}

// onPlayContext plays the word with the padded context window around it
func (a *Application) onPlayContext() {
	rec, err := a.nav.Current()
	if err != nil {
		a.updateStatus("No subject loaded")
		return
	}
	if a.clip == nil {
		a.updateStatus("No audio loaded")
		return
	}
	windowStart, windowEnd := wave.PadBounds(rec.Start, rec.End, a.settings.PaddingSeconds, a.clip.Duration())
	if err := a.player.Play(a.clip, windowStart, windowEnd); err != nil {
		a.showError(err)
		return
	}
	a.updateStatus(fmt.Sprintf("Playing context %.2f to %.2f", windowStart, windowEnd))
}

// onShowSettings edits the persisted rater identity and data directory
func (a *Application) onShowSettings() {
	raterEntry := widget.NewEntry()
	raterEntry.SetText(a.settings.Rater)
	dataDirEntry := widget.NewEntry()
	dataDirEntry.SetText(a.settings.DataDir)

	items := []*widget.FormItem{
		widget.NewFormItem("Rater name", raterEntry),
		widget.NewFormItem("Data directory", dataDirEntry),
	}
	dialog.ShowForm("Settings", "Save", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		a.applySettings(strings.TrimSpace(raterEntry.Text), strings.TrimSpace(dataDirEntry.Text))
	}, a.window)
}

// applySettings persists the changed values and, when the data directory
// moved, closes the open subject and rescans
func (a *Application) applySettings(rater, dataDir string) {
	dirChanged := dataDir != a.settings.DataDir
	a.settings.Rater = rater
	a.settings.DataDir = dataDir
	a.nav.SetRater(rater)

	if a.settingsPath == "" {
		a.updateStatus("Settings applied for this session only")
	} else if err := a.settings.Save(a.settingsPath); err != nil {
		a.showError(err)
	} else {
		a.updateStatus("Settings saved")
	}

	if !dirChanged {
		return
	}
	if err := a.nav.Unload(); err != nil {
		a.showError(err)
		return
	}
	a.clip = nil
	a.clearRatingUI()
	a.subjectList.UnselectAll()
	a.outputDir = resolveOutputDir(a.settings)
	a.reopenJournal()
	a.refreshLibrary()
}

// openJournal attaches the edit journal stored next to the output CSVs.
// The journal is an aid, not a requirement: failure only logs a warning.
func (a *Application) openJournal() {
	path := filepath.Join(a.outputDir, history.DefaultFileName)
	j, err := history.Open(path)
	if err != nil {
		slog.Warn("edit journal disabled", "path", path, "error", err)
		return
	}
	a.journal = j
	a.nav.SetRecorder(j)
}

func (a *Application) reopenJournal() {
	if a.journal != nil {
		a.journal.Close()
		a.journal = nil
		a.nav.SetRecorder(nil)
	}
	a.openJournal()
}

// Helper methods
func (a *Application) updateStatus(message string) {
	a.statusLabel.SetText(message)
}

func (a *Application) showError(err error) {
	dialog.ShowError(err, a.window)
	a.updateStatus("Error: " + err.Error())
}

// entryFocused reports whether one of the editable fields has focus, in
// which case keystrokes belong to the field rather than the shortcuts.
func (a *Application) entryFocused() bool {
	focused := a.window.Canvas().Focused()
	return focused == a.transcriptionEntry || focused == a.startEntry || focused == a.endEntry
}

// resolveOutputDir mirrors the library resolver's default: DataDir/outputs
// unless an explicit output directory is configured.
func resolveOutputDir(s settings.Settings) string {
	if s.OutputDir != "" {
		return s.OutputDir
	}
	return filepath.Join(s.DataDir, subjects.DefaultOutputDirName)
}

// setupTooltips sets up all tooltips after the tooltip layer has been created
func (a *Application) setupTooltips() {
	a.reloadBtn.SetToolTip("Rescan the data directory")
	a.skippedBtn.SetToolTip("Show why subjects were skipped")
	a.settingsBtn.SetToolTip("Rater name and data directory")

	a.playWordBtn.SetToolTip("Play the current word (p)")
	a.playContextBtn.SetToolTip("Play the word with surrounding context (c)")
	a.resetBtn.SetToolTip("Discard edits to this word (r)")
	a.nextBtn.SetToolTip("Save and go to the next word (Right)")
	a.prevBtn.SetToolTip("Save and go to the previous word (Left)")
}

func (a *Application) setupKeyboardShortcuts() {
	// Handle character shortcuts. When an entry is focused the character
	// belongs to the entry, not the shortcut map.
	a.window.Canvas().SetOnTypedRune(func(r rune) {
		if a.entryFocused() {
			return
		}
		switch r {
		case 'p', 'P':
			a.onPlayWord()
		case 'c', 'C':
			a.onPlayContext()
		case 'r', 'R':
			a.onReset()
		}
	})

	a.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		// Handle Escape key to unfocus any field
		if ev.Name == fyne.KeyEscape {
			a.window.Canvas().Unfocus()
			return
		}

		if a.entryFocused() {
			return
		}
		switch ev.Name {
		case fyne.KeyLeft:
			a.onPrevWord()
		case fyne.KeyRight:
			a.onNextWord()
		}
	})
}
