package store

// runMigrations creates the schema. Every statement is idempotent.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Tuning overrides edited at runtime, e.g. gesture.cooldown.
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Emitted gestures, written only when the journal is enabled.
		`CREATE TABLE IF NOT EXISTS gesture_events (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			angle REAL NOT NULL DEFAULT 0,
			emitted_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_gesture_events_emitted_at ON gesture_events(emitted_at)`,
		`CREATE INDEX IF NOT EXISTS idx_gesture_events_label ON gesture_events(label)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
