package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/gestos/internal/gesture"
)

// Event is one emitted gesture.
type Event struct {
	ID        string        `json:"id"`
	Label     gesture.Label `json:"label"`
	Source    string        `json:"source,omitempty"`
	Angle     float64       `json:"angle,omitempty"`
	EmittedAt time.Time     `json:"emitted_at"`
}

// JournalRepository records emitted gestures.
type JournalRepository struct {
	db *sql.DB
}

// Journal returns the gesture journal for this store.
func (s *Store) Journal() *JournalRepository {
	return &JournalRepository{db: s.db}
}

// Append stores e, assigning an ID and timestamp when unset.
func (r *JournalRepository) Append(e *Event) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.EmittedAt.IsZero() {
		e.EmittedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO gesture_events (id, label, source, angle, emitted_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, string(e.Label), e.Source, e.Angle, e.EmittedAt.UTC(),
	)
	return err
}

// Recent returns up to n events, newest first.
func (r *JournalRepository) Recent(n int) ([]Event, error) {
	if n <= 0 {
		return []Event{}, nil
	}

	rows, err := r.db.Query(
		`SELECT id, label, source, angle, emitted_at FROM gesture_events
		 ORDER BY emitted_at DESC, rowid DESC LIMIT ?`,
		n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]Event, 0, n)
	for rows.Next() {
		var e Event
		var label string
		if err := rows.Scan(&e.ID, &label, &e.Source, &e.Angle, &e.EmittedAt); err != nil {
			return nil, err
		}
		e.Label = gesture.Label(label)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Count returns the number of stored events.
func (r *JournalRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM gesture_events`).Scan(&n)
	return n, err
}

// CountByLabel returns the number of stored events per label.
func (r *JournalRepository) CountByLabel() (map[gesture.Label]int, error) {
	rows, err := r.db.Query(`SELECT label, COUNT(*) FROM gesture_events GROUP BY label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[gesture.Label]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		counts[gesture.Label(label)] = n
	}
	return counts, rows.Err()
}

// Prune deletes events emitted before cutoff and returns how many were removed.
func (r *JournalRepository) Prune(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM gesture_events WHERE emitted_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
