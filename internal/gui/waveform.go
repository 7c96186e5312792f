package gui

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/gkplab/audiotag/internal/wave"
)

// Render resolution of the waveform plot. The canvas stretches the image
// to the widget size, so this only bounds the envelope detail.
const (
	plotWidth  = 1000
	plotHeight = 260
)

var (
	plotBackground = color.NRGBA{R: 0x1e, G: 0x22, B: 0x2a, A: 0xff}
	plotMidline    = color.NRGBA{R: 0x46, G: 0x4c, B: 0x58, A: 0xff}
	plotEnvelope   = color.NRGBA{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff}
	startMarker    = color.NRGBA{R: 0xff, A: 0xff}
	endMarker      = color.NRGBA{G: 0xd4, A: 0xff}
)

// Waveform is a custom widget plotting the amplitude envelope of the
// padded window around the current word. The word boundaries are drawn as
// vertical marker lines, red for start and green for end.
type Waveform struct {
	widget.BaseWidget

	container  *fyne.Container
	plot       *canvas.Image
	leftLabel  *widget.Label
	rightLabel *widget.Label

	clip        *wave.Clip
	windowStart float64
	windowEnd   float64
	wordStart   float64
	wordEnd     float64
}

// NewWaveform creates an empty waveform widget
func NewWaveform() *Waveform {
	w := &Waveform{}

	w.plot = canvas.NewImageFromImage(blankPlot())
	w.plot.FillMode = canvas.ImageFillStretch
	w.plot.SetMinSize(fyne.NewSize(600, 220))

	w.leftLabel = widget.NewLabel("")
	w.rightLabel = widget.NewLabel("")
	axis := container.NewHBox(
		w.leftLabel,
		layout.NewSpacer(),
		widget.NewLabel("Time (seconds)"),
		layout.NewSpacer(),
		w.rightLabel,
	)

	w.container = container.NewBorder(
		nil,
		axis,
		nil, nil,
		w.plot,
	)

	w.ExtendBaseWidget(w)
	return w
}

// CreateRenderer implements fyne.Widget
func (w *Waveform) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(w.container)
}

// ShowWindow plots clip between windowStart and windowEnd with boundary
// markers at wordStart and wordEnd.
func (w *Waveform) ShowWindow(clip *wave.Clip, windowStart, windowEnd, wordStart, wordEnd float64) {
	w.clip = clip
	w.windowStart = windowStart
	w.windowEnd = windowEnd
	w.wordStart = wordStart
	w.wordEnd = wordEnd
	w.render()
}

// Clear empties the plot
func (w *Waveform) Clear() {
	w.clip = nil
	w.plot.Image = blankPlot()
	w.plot.Refresh()
	w.leftLabel.SetText("")
	w.rightLabel.SetText("")
}

func (w *Waveform) render() {
	if w.clip == nil || w.windowEnd <= w.windowStart {
		w.Clear()
		return
	}

	img := blankPlot()

	mid := plotHeight / 2
	for x := 0; x < plotWidth; x++ {
		img.Set(x, mid, plotMidline)
	}

	segment := w.clip.Segment(w.windowStart, w.windowEnd)
	scale := float64(mid - 2)
	for x, p := range segment.Peaks(plotWidth) {
		top := mid - int(float64(p.Max)*scale)
		bottom := mid - int(float64(p.Min)*scale)
		if top < 0 {
			top = 0
		}
		if bottom > plotHeight-1 {
			bottom = plotHeight - 1
		}
		for y := top; y <= bottom; y++ {
			img.Set(x, y, plotEnvelope)
		}
	}

	w.drawMarker(img, w.wordStart, startMarker)
	w.drawMarker(img, w.wordEnd, endMarker)

	w.plot.Image = img
	w.plot.Refresh()
	w.leftLabel.SetText(fmt.Sprintf("%.2f", w.windowStart))
	w.rightLabel.SetText(fmt.Sprintf("%.2f", w.windowEnd))
}

// drawMarker draws a 2 px vertical line at time t. Marks outside the
// window are simply not drawn.
func (w *Waveform) drawMarker(img *image.RGBA, t float64, col color.NRGBA) {
	x := int((t - w.windowStart) / (w.windowEnd - w.windowStart) * float64(plotWidth-1))
	if x < 0 || x >= plotWidth {
		return
	}
	for y := 0; y < plotHeight; y++ {
		img.Set(x, y, col)
		if x+1 < plotWidth {
			img.Set(x+1, y, col)
		}
	}
}

func blankPlot() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, plotWidth, plotHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(plotBackground), image.Point{}, draw.Src)
	return img
}
