// package repositories persists the local video cache and watch history.
//
// Each repository implements models.Repository[T] for one entity, with soft
// deletes and a per-table sequence for stable local ordering.
package repositories

import (
	"database/sql"
	"fmt"
)

// NextSequence atomically increments and returns table's sequence counter.
//
// Cache rows and history entries are keyed by UUID; the sequence gives them a
// local insertion order that survives re-syncs, independent of backend video
// IDs. It never appears in command output.
func NextSequence(db *sql.DB, table string) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequenceTable := table + "_sequence"

	if _, err := tx.Exec(fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable)); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	if err := tx.QueryRow(fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}
