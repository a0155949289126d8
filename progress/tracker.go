// Package progress turns a monotonically increasing byte counter into a
// debounced display counter and an instantaneous throughput estimate.
package progress

import "time"

// Default minimum interval between refreshes of the debounced counter.
const DefaultUpdateInterval = 100 * time.Millisecond

// Snapshot is a point-in-time view of one byte-counted transfer.
type Snapshot struct {
	Transferred uint64  `json:"transferred"`
	Debounced   uint64  `json:"debounced"`
	Total       uint64  `json:"total"` // 0 means unknown
	Speed       float64 `json:"speed"` // bytes/sec, 0 when not meaningful
}

// Done reports whether the transfer has reached a known total.
func (s Snapshot) Done() bool {
	return s.Total != 0 && s.Transferred >= s.Total
}

// Tracker smooths a raw byte counter for display. Not safe for concurrent
// use; each transfer owns its own Tracker.
type Tracker struct {
	total       uint64
	transferred uint64
	debounced   uint64
	speed       float64

	interval time.Duration
	lastTick time.Time
	now      func() time.Time
}

// NewTracker creates a Tracker for a transfer of total bytes. total may be 0
// when the size is not known yet; set it later with SetTotal.
func NewTracker(total uint64) *Tracker {
	return &Tracker{
		total:    total,
		interval: DefaultUpdateInterval,
		now:      time.Now,
	}
}

// newTrackerAt is the test hook: a fixed clock and interval.
func newTrackerAt(total uint64, interval time.Duration, now func() time.Time) *Tracker {
	t := NewTracker(total)
	t.interval = interval
	t.now = now
	return t
}

func (t *Tracker) SetTotal(total uint64) {
	t.total = total
}

// Update feeds the latest raw counter value. A value lower than the previous
// one means the transfer restarted: the measurement window is reset instead
// of producing a negative speed.
func (t *Tracker) Update(transferred uint64) {
	now := t.now()
	if transferred < t.transferred {
		t.transferred = transferred
		t.debounced = transferred
		t.speed = 0
		t.lastTick = now
		return
	}
	t.transferred = transferred

	if t.lastTick.IsZero() {
		t.debounced = transferred
		t.lastTick = now
		return
	}

	elapsed := now.Sub(t.lastTick)
	if elapsed < t.interval {
		return
	}

	delta := transferred - t.debounced
	if t.total == 0 || delta == 0 {
		t.speed = 0
	} else {
		t.speed = float64(delta) / elapsed.Seconds()
	}
	t.debounced = transferred
	t.lastTick = now
}

func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{
		Transferred: t.transferred,
		Debounced:   t.debounced,
		Total:       t.total,
		Speed:       t.speed,
	}
}
