// Package render draws the sun widget on a terminal with tcell.
//
// Layout units are columns horizontally and half-rows vertically, so a
// circle in layout space looks round on a typical terminal font.
package render

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"rise-and-shine/internal/animation"
	"rise-and-shine/internal/host"
	"rise-and-shine/internal/weather"
)

// CellAspect is the number of vertical layout units per terminal row.
const CellAspect = 2.0

// Handlers are called from the event loop.
type Handlers struct {
	Resize  func()
	Refresh func()
}

// Terminal implements host.Surface on a tcell screen.
type Terminal struct {
	screen tcell.Screen
	now    func() time.Time
	loc    *time.Location

	mu         sync.Mutex
	guide      host.Guide
	hasGuide   bool
	position   animation.Position
	visible    bool
	snapshot   weather.Snapshot
	icon       weather.Icon
	hasWeather bool
}

// Open initialises the real terminal.
func Open() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialise screen: %w", err)
	}
	return NewTerminal(screen), nil
}

// NewTerminal wraps an initialised screen.
func NewTerminal(screen tcell.Screen) *Terminal {
	screen.HideCursor()
	return &Terminal{
		screen: screen,
		now:    time.Now,
		loc:    time.Local,
		icon:   weather.IconFor(0, ""),
	}
}

func (t *Terminal) Close() {
	t.screen.Fini()
}

func (t *Terminal) Bounds() host.Size {
	w, h := t.screen.Size()
	return host.Size{Width: float64(w), Height: float64(h) * CellAspect}
}

func (t *Terminal) IconSize() host.Size {
	return host.Size{Width: 1, Height: CellAspect}
}

func (t *Terminal) ShowGuide(g host.Guide) {
	t.mu.Lock()
	t.guide = g
	t.hasGuide = true
	t.mu.Unlock()
	t.draw()
}

func (t *Terminal) MoveIcon(p animation.Position) {
	t.mu.Lock()
	t.position = p
	t.visible = true
	t.mu.Unlock()
	t.draw()
}

func (t *Terminal) HideIcon() {
	t.mu.Lock()
	t.visible = false
	t.mu.Unlock()
	t.draw()
}

func (t *Terminal) ShowWeather(snap weather.Snapshot, icon weather.Icon) {
	t.mu.Lock()
	t.snapshot = snap
	t.icon = icon
	t.hasWeather = true
	t.mu.Unlock()
	t.draw()
}

// Run handles terminal input until ctx is done or the user quits with q,
// Esc or Ctrl-C. Resize events are forwarded so the host can debounce them.
func (t *Terminal) Run(ctx context.Context, handlers Handlers) {
	events := make(chan tcell.Event)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	t.draw()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				t.screen.Sync()
				t.draw()
				if handlers.Resize != nil {
					handlers.Resize()
				}
			case *tcell.EventKey:
				switch {
				case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC:
					return
				case ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q'):
					return
				case ev.Key() == tcell.KeyRune && (ev.Rune() == 'r' || ev.Rune() == 'R'):
					if handlers.Refresh != nil {
						handlers.Refresh()
					}
				}
			}
		}
	}
}

func (t *Terminal) draw() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now().In(t.loc)
	colors := paletteFor(t.icon, t.snapshot, now)
	base := tcell.StyleDefault.Background(colors.background).Foreground(colors.text)

	t.screen.SetStyle(base)
	t.screen.Clear()

	if t.hasGuide {
		t.drawGuide(base.Foreground(colors.guide))
	}
	if t.visible {
		t.drawIcon(base.Foreground(colors.sun).Bold(true), base)
	}
	t.drawText(0, 0, now.Format("15:04"), base.Bold(true))
	if t.hasWeather {
		t.drawText(0, 1, t.describe(), base)
		t.drawText(0, 2, fmt.Sprintf("%s | %s",
			formatClock(t.snapshot.Sunrise, t.loc), formatClock(t.snapshot.Sunset, t.loc)), base)
	}

	t.screen.Show()
}

func (t *Terminal) drawGuide(style tcell.Style) {
	r := t.guide.Size / 2
	if r <= 0 {
		return
	}
	cx, cy := t.guide.Left+r, t.guide.Top+r

	// Enough samples that neighbouring points land in adjacent cells.
	steps := int(2*math.Pi*r) * 2
	if steps < 16 {
		steps = 16
	}
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		col, row := cellOf(cx+r*math.Cos(a), cy+r*math.Sin(a))
		t.set(col, row, '·', style)
	}
}

func (t *Terminal) drawIcon(sun, text tcell.Style) {
	size := t.IconSize()
	col, row := cellOf(t.position.Left+size.Width/2, t.position.Top+size.Height/2)
	glyph := '●'
	if runes := []rune(t.icon.Glyph); len(runes) > 0 {
		glyph = runes[0]
	}
	t.set(col, row, glyph, sun)

	if t.snapshot.HasTemperature {
		t.drawText(col+2, row, fmt.Sprintf("%.0f°", math.Round(t.snapshot.Temperature)), text)
	}
}

func (t *Terminal) describe() string {
	label := t.snapshot.ConditionLabel
	if t.snapshot.Description != "" && t.snapshot.Description != label {
		label = fmt.Sprintf("%s, %s", label, t.snapshot.Description)
	}
	if t.snapshot.HasTemperature {
		label = fmt.Sprintf("%s %.0f%s", label, math.Round(t.snapshot.Temperature), t.snapshot.TemperatureUnit())
	}
	return label
}

func (t *Terminal) drawText(col, row int, text string, style tcell.Style) {
	for _, r := range text {
		t.set(col, row, r, style)
		col++
	}
}

func (t *Terminal) set(col, row int, r rune, style tcell.Style) {
	w, h := t.screen.Size()
	if col < 0 || row < 0 || col >= w || row >= h {
		return
	}
	t.screen.SetContent(col, row, r, nil, style)
}

// cellOf maps a layout point to the terminal cell containing it.
func cellOf(x, y float64) (int, int) {
	return int(math.Floor(x)), int(math.Floor(y / CellAspect))
}

func formatClock(at time.Time, loc *time.Location) string {
	if at.IsZero() {
		return "--:--"
	}
	return at.In(loc).Format("15:04")
}
