package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/streamlyhq/streamly/internal/models"
	"github.com/streamlyhq/streamly/internal/shared"
)

// WatchHistoryRepository implements [models.Repository] for [models.WatchEntry] persistence.
type WatchHistoryRepository struct {
	db *sql.DB
}

// NewWatchHistoryRepository creates a new [WatchHistoryRepository] with the given database connection
func NewWatchHistoryRepository(db *sql.DB) *WatchHistoryRepository {
	return &WatchHistoryRepository{db: db}
}

// Create inserts a new watch entry with generated ID and sequence
func (r *WatchHistoryRepository) Create(entry *models.WatchEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "watch_history")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	entry.SetID(id)

	query := `
		INSERT INTO watch_history (id, sequence, remote_id, title, watched_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, entry.RemoteID(), entry.Title(),
		entry.WatchedAt(), entry.CreatedAt(), entry.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert watch entry: %w", err)
	}

	return nil
}

// Get retrieves a watch entry by ID, excluding soft-deleted entries
func (r *WatchHistoryRepository) Get(id string) (*models.WatchEntry, error) {
	query := `
		SELECT id, sequence, remote_id, title, watched_at, created_at, updated_at, deleted_at
		FROM watch_history
		WHERE id = ? AND deleted_at IS NULL
	`

	entry, err := scanWatchEntry(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: watch entry %s", shared.ErrVideoNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query watch entry: %w", err)
	}

	return entry, nil
}

// Update modifies an existing watch entry in the database
func (r *WatchHistoryRepository) Update(entry *models.WatchEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	entry.SetUpdatedAt(now)

	query := `
		UPDATE watch_history
		SET title = ?, watched_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, entry.Title(), entry.WatchedAt(), now, entry.ID())
	if err != nil {
		return fmt.Errorf("failed to update watch entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("watch entry not found or already deleted: %s", entry.ID())
	}

	return nil
}

// Delete soft-deletes a watch entry by ID
func (r *WatchHistoryRepository) Delete(id string) error {
	query := `
		UPDATE watch_history
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete watch entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("watch entry not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves watch entries matching the given criteria, most recent first,
// excluding soft-deleted entries
func (r *WatchHistoryRepository) List(criteria map[string]any) ([]*models.WatchEntry, error) {
	query := `
		SELECT id, sequence, remote_id, title, watched_at, created_at, updated_at, deleted_at
		FROM watch_history
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if remoteID, ok := criteria["remote_id"].(int64); ok && remoteID > 0 {
		query += " AND remote_id = ?"
		args = append(args, remoteID)
	}

	query += " ORDER BY watched_at DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query watch history: %w", err)
	}
	defer rows.Close()

	var entries []*models.WatchEntry
	for rows.Next() {
		entry, err := scanWatchEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watch entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate watch history: %w", err)
	}

	return entries, nil
}

// Record appends a watch entry for a remote video, stamped now.
func (r *WatchHistoryRepository) Record(remoteID int64, title string) error {
	entry := models.NewWatchEntry(0, remoteID, title)
	return r.Create(entry)
}

func scanWatchEntry(row rowScanner) (*models.WatchEntry, error) {
	var (
		id        string
		sequence  int
		remoteID  int64
		title     string
		watchedAt time.Time
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &remoteID, &title, &watchedAt, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	entry := models.NewWatchEntry(sequence, remoteID, title)
	entry.SetID(id)
	entry.SetWatchedAt(watchedAt)
	entry.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		entry.SetDeletedAt(&deletedAt.Time)
	}

	return entry, nil
}
