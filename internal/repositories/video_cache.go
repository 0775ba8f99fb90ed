package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/streamlyhq/streamly/internal/models"
	"github.com/streamlyhq/streamly/internal/shared"
	"github.com/streamlyhq/streamly/internal/streamly"
)

// VideoCacheRepository implements [models.Repository] for [models.CachedVideo] persistence.
type VideoCacheRepository struct {
	db *sql.DB
}

// NewVideoCacheRepository creates a new [VideoCacheRepository] with the given database connection
func NewVideoCacheRepository(db *sql.DB) *VideoCacheRepository {
	return &VideoCacheRepository{db: db}
}

// Create inserts a new cached video with generated ID and sequence
func (r *VideoCacheRepository) Create(video *models.CachedVideo) error {
	if err := video.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "video_cache")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	video.SetID(id)

	query := `
		INSERT INTO video_cache (
			id, sequence, remote_id, title, uploader_name, category,
			status, approval_status, duration_seconds, view_count, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, video.RemoteID(), video.Title(), video.UploaderName(),
		video.Category(), video.Status(), video.Approval(), video.Duration(), video.ViewCount(),
		video.CreatedAt(), video.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert cached video: %w", err)
	}

	return nil
}

// Get retrieves a cached video by ID, excluding soft-deleted entries
func (r *VideoCacheRepository) Get(id string) (*models.CachedVideo, error) {
	return r.queryOne("id = ?", id)
}

// GetByRemoteID retrieves a cached video by its backend video ID
func (r *VideoCacheRepository) GetByRemoteID(remoteID int64) (*models.CachedVideo, error) {
	return r.queryOne("remote_id = ?", remoteID)
}

func (r *VideoCacheRepository) queryOne(where string, arg any) (*models.CachedVideo, error) {
	query := fmt.Sprintf(`
		SELECT id, sequence, remote_id, title, uploader_name, category,
		       status, approval_status, duration_seconds, view_count, created_at, updated_at, deleted_at
		FROM video_cache
		WHERE %s AND deleted_at IS NULL
	`, where)

	video, err := scanCachedVideo(r.db.QueryRow(query, arg))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: cached video %v", shared.ErrVideoNotFound, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cached video: %w", err)
	}
	return video, nil
}

// Update modifies an existing cached video in the database
func (r *VideoCacheRepository) Update(video *models.CachedVideo) error {
	if err := video.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	video.SetUpdatedAt(now)

	query := `
		UPDATE video_cache
		SET title = ?, uploader_name = ?, category = ?, status = ?,
		    approval_status = ?, duration_seconds = ?, view_count = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, video.Title(), video.UploaderName(), video.Category(),
		video.Status(), video.Approval(), video.Duration(), video.ViewCount(), now, video.ID())
	if err != nil {
		return fmt.Errorf("failed to update cached video: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: cached video %s not found or deleted", shared.ErrVideoNotFound, video.ID())
	}

	return nil
}

// Delete soft-deletes a cached video by ID
func (r *VideoCacheRepository) Delete(id string) error {
	query := `
		UPDATE video_cache
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete cached video: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: cached video %s not found or deleted", shared.ErrVideoNotFound, id)
	}

	return nil
}

// List retrieves cached videos matching the given criteria, excluding soft-deleted entries
func (r *VideoCacheRepository) List(criteria map[string]any) ([]*models.CachedVideo, error) {
	query := `
		SELECT id, sequence, remote_id, title, uploader_name, category,
		       status, approval_status, duration_seconds, view_count, created_at, updated_at, deleted_at
		FROM video_cache
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if category, ok := criteria["category"].(string); ok && category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached videos: %w", err)
	}
	defer rows.Close()

	var videos []*models.CachedVideo
	for rows.Next() {
		video, err := scanCachedVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cached video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cached videos: %w", err)
	}

	return videos, nil
}

// Put upserts the cached snapshot for a remote video. Existing rows are
// refreshed in place; missing rows are created. UNIQUE races on remote_id
// resolve as an update.
func (r *VideoCacheRepository) Put(video *streamly.Video) error {
	existing, err := r.GetByRemoteID(video.ID)
	if err == nil && existing != nil {
		applyRemote(existing, video)
		return r.Update(existing)
	}

	cached := models.NewCachedVideo(0, video.ID, video.Title)
	applyRemote(cached, video)

	if err := r.Create(cached); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			if existing, gerr := r.GetByRemoteID(video.ID); gerr == nil {
				applyRemote(existing, video)
				return r.Update(existing)
			}
		}
		return fmt.Errorf("failed to cache video: %w", err)
	}

	return nil
}

func applyRemote(cached *models.CachedVideo, video *streamly.Video) {
	cached.SetUploaderName(video.UploaderName)
	cached.SetCategory(video.Category)
	cached.SetStatus(video.Status)
	cached.SetApproval(video.ApprovalStatus)
	cached.SetDuration(video.DurationSeconds)
	cached.SetViewCount(video.ViewCount)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCachedVideo(row rowScanner) (*models.CachedVideo, error) {
	var (
		id              string
		sequence        int
		remoteID        int64
		title           string
		uploaderName    string
		category        string
		status          string
		approvalStatus  string
		durationSeconds int
		viewCount       int64
		createdAt       time.Time
		updatedAt       time.Time
		deletedAt       sql.NullTime
	)

	err := row.Scan(&id, &sequence, &remoteID, &title, &uploaderName, &category,
		&status, &approvalStatus, &durationSeconds, &viewCount, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	video := models.NewCachedVideo(sequence, remoteID, title)
	video.SetID(id)
	video.SetUploaderName(uploaderName)
	video.SetCategory(category)
	video.SetStatus(status)
	video.SetApproval(approvalStatus)
	video.SetDuration(durationSeconds)
	video.SetViewCount(viewCount)
	video.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		video.SetDeletedAt(&deletedAt.Time)
	}

	return video, nil
}
