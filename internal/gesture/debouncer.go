package gesture

import (
	"sync"
	"time"
)

const (
	// DefaultCooldown suppresses repeats of the same label for this long.
	DefaultCooldown = 500 * time.Millisecond
	// DefaultHistorySize is the number of emitted gestures kept for stats.
	DefaultHistorySize = 10
	// recentStats is how many history entries Stats reports.
	recentStats = 5
)

// Entry is one emitted gesture.
type Entry struct {
	Label Label     `json:"label"`
	At    time.Time `json:"at"`
}

// Stats summarizes the emission history.
type Stats struct {
	Total  int           `json:"total"`
	Unique int           `json:"unique"`
	Counts map[Label]int `json:"counts"`
	Last   Label         `json:"last"`
	Recent []Entry       `json:"recent"`
}

// slot is the last emission of one kind of label.
type slot struct {
	label Label
	at    time.Time
}

// Debouncer turns the per-frame label stream into discrete emissions.
// A label repeated within Cooldown of its last emission is suppressed;
// a different label is accepted immediately. Poses and motions (swipes,
// rotation) are debounced in separate slots, so a motion emitted while a
// pose is held does not let the pose repeat. It is safe for concurrent use.
type Debouncer struct {
	mu       sync.Mutex
	cooldown time.Duration
	pose     slot
	motion   slot
	history  []Entry
	head     int
	size     int
}

// NewDebouncer creates a Debouncer. Non-positive arguments fall back to defaults.
func NewDebouncer(cooldown time.Duration, historySize int) *Debouncer {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Debouncer{
		cooldown: cooldown,
		pose:     slot{label: None},
		motion:   slot{label: None},
		history:  make([]Entry, historySize),
	}
}

// Cooldown returns the configured cooldown.
func (d *Debouncer) Cooldown() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cooldown
}

// SetCooldown changes the cooldown; non-positive values are ignored.
func (d *Debouncer) SetCooldown(cooldown time.Duration) {
	if cooldown <= 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cooldown = cooldown
}

// Accept reports whether label should be emitted at now. It does not change state.
func (d *Debouncer) Accept(label Label, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.accept(label, now)
}

func (d *Debouncer) accept(label Label, now time.Time) bool {
	if label == None || label == "" {
		return false
	}
	last := d.slotFor(label)
	if label == last.label && now.Sub(last.at) < d.cooldown {
		return false
	}
	return true
}

func (d *Debouncer) slotFor(label Label) *slot {
	if label.IsMotion() {
		return &d.motion
	}
	return &d.pose
}

// Record notes that label was emitted at now. None is ignored.
func (d *Debouncer) Record(label Label, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(label, now)
}

func (d *Debouncer) record(label Label, now time.Time) {
	if label == None || label == "" {
		return
	}
	*d.slotFor(label) = slot{label: label, at: now}

	d.history[d.head] = Entry{Label: label, At: now}
	d.head = (d.head + 1) % len(d.history)
	if d.size < len(d.history) {
		d.size++
	}
}

// Offer accepts and records label in one step, returning whether it was emitted.
func (d *Debouncer) Offer(label Label, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.accept(label, now) {
		return false
	}
	d.record(label, now)
	return true
}

// History returns emitted gestures, oldest first.
func (d *Debouncer) History() []Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.historyLocked()
}

func (d *Debouncer) historyLocked() []Entry {
	out := make([]Entry, 0, d.size)
	start := (d.head - d.size + len(d.history)) % len(d.history)
	for i := 0; i < d.size; i++ {
		out = append(out, d.history[(start+i)%len(d.history)])
	}
	return out
}

// Stats summarizes the current history.
func (d *Debouncer) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries := d.historyLocked()
	s := Stats{
		Total:  len(entries),
		Counts: make(map[Label]int),
		Last:   None,
		Recent: []Entry{},
	}
	for _, e := range entries {
		s.Counts[e.Label]++
	}
	s.Unique = len(s.Counts)
	if len(entries) > 0 {
		s.Last = entries[len(entries)-1].Label
	}
	if n := len(entries); n > recentStats {
		entries = entries[n-recentStats:]
	}
	s.Recent = append(s.Recent, entries...)
	return s
}

// Reset clears the history and the last emitted labels.
func (d *Debouncer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pose = slot{label: None}
	d.motion = slot{label: None}
	d.head = 0
	d.size = 0
	clear(d.history)
}
