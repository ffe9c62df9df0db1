// Package display cycles fixed-size windows of project records on a timer
// for the kiosk.
package display

import (
	"fmt"
	"sync"
	"time"

	"github.com/openfab-lab/showcase-scraper/models"
)

// Cycler holds a cursor over the record list and advances it by one window
// on a timer. At most one timer is ever active: starting a new one always
// clears any existing one first, so a pause/resume racing a timer fire
// cannot double-schedule.
type Cycler struct {
	records    []models.ProjectRecord
	windowSize int
	interval   time.Duration

	// OnAdvance fires after every advance, timer-driven or manual. The
	// kiosk uses it to re-render and reset the progress indicator.
	OnAdvance func(window []models.ProjectRecord)

	mu     sync.Mutex
	cursor int
	timer  *time.Timer
	paused bool
}

// NewCycler validates the dataset and builds a cycler. An empty dataset is
// an error; the kiosk shows an error panel instead of cycling.
func NewCycler(ds *models.Dataset, windowSize int, interval time.Duration) (*Cycler, error) {
	if ds == nil || len(ds.Projects) == 0 {
		return nil, fmt.Errorf("dataset has no projects to display")
	}
	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("cycle interval must be positive")
	}
	return &Cycler{
		records:    ds.Projects,
		windowSize: windowSize,
		interval:   interval,
	}, nil
}

// Window returns exactly windowSize records starting at the cursor. Slots
// wrap via modulo so the window is always full, even when the dataset is
// smaller than the window.
func (c *Cycler) Window() []models.ProjectRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.windowLocked()
}

func (c *Cycler) windowLocked() []models.ProjectRecord {
	window := make([]models.ProjectRecord, c.windowSize)
	for i := 0; i < c.windowSize; i++ {
		window[i] = c.records[(c.cursor+i)%len(c.records)]
	}
	return window
}

// Cursor returns the current cursor position.
func (c *Cycler) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// Advance moves the cursor forward by one window, wrapping to zero when it
// would meet or exceed the record count.
func (c *Cycler) Advance() {
	c.mu.Lock()
	c.advanceLocked()
	window := c.windowLocked()
	c.mu.Unlock()
	c.notify(window)
}

func (c *Cycler) advanceLocked() {
	c.cursor += c.windowSize
	if c.cursor >= len(c.records) {
		c.cursor = 0
	}
}

// Prev moves the cursor backward by one window, wrapping to the last
// window-aligned position.
func (c *Cycler) Prev() {
	c.mu.Lock()
	c.cursor -= c.windowSize
	if c.cursor < 0 {
		last := ((len(c.records) - 1) / c.windowSize) * c.windowSize
		c.cursor = last
	}
	window := c.windowLocked()
	c.mu.Unlock()
	c.notify(window)
}

// Start begins timer-driven cycling. Any previously active timer is
// stopped first.
func (c *Cycler) Start() {
	c.mu.Lock()
	c.paused = false
	c.scheduleLocked()
	c.mu.Unlock()
}

// Stop cancels the active timer, if any.
func (c *Cycler) Stop() {
	c.mu.Lock()
	c.stopTimerLocked()
	c.mu.Unlock()
}

// Pause stops the timer without losing the cursor (the hidden-display
// case).
func (c *Cycler) Pause() {
	c.mu.Lock()
	c.paused = true
	c.stopTimerLocked()
	c.mu.Unlock()
}

// Resume restarts the timer after a Pause.
func (c *Cycler) Resume() {
	c.Start()
}

// Next is a manual forward jump; it advances immediately and restarts the
// timer so the next automatic advance is a full interval away.
func (c *Cycler) Next() {
	c.Advance()
	c.Start()
}

// PrevWindow is a manual backward jump; like Next it restarts the timer.
func (c *Cycler) PrevWindow() {
	c.Prev()
	c.Start()
}

func (c *Cycler) scheduleLocked() {
	c.stopTimerLocked()
	c.timer = time.AfterFunc(c.interval, c.tick)
}

func (c *Cycler) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Cycler) tick() {
	c.mu.Lock()
	if c.paused {
		c.mu.Unlock()
		return
	}
	c.advanceLocked()
	window := c.windowLocked()
	c.scheduleLocked()
	c.mu.Unlock()
	c.notify(window)
}

func (c *Cycler) notify(window []models.ProjectRecord) {
	if c.OnAdvance != nil {
		c.OnAdvance(window)
	}
}
