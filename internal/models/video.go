package models

import (
	"fmt"
	"time"
)

// CachedVideo is a locally cached snapshot of a video's remote metadata,
// keyed by the backend's numeric video ID.
type CachedVideo struct {
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
	deletedAt       *time.Time
}

// NewCachedVideo creates a CachedVideo snapshot for the given remote video.
func NewCachedVideo(sequence int, remoteID int64, title string) *CachedVideo {
	now := time.Now()
	return &CachedVideo{
		sequence:  sequence,
		remoteID:  remoteID,
		title:     title,
		createdAt: now,
		updatedAt: now,
	}
}

func (v *CachedVideo) ID() string           { return v.id }
func (v *CachedVideo) Sequence() int        { return v.sequence }
func (v *CachedVideo) RemoteID() int64      { return v.remoteID }
func (v *CachedVideo) Title() string        { return v.title }
func (v *CachedVideo) UploaderName() string { return v.uploaderName }
func (v *CachedVideo) Category() string     { return v.category }
func (v *CachedVideo) Status() string       { return v.status }
func (v *CachedVideo) Approval() string     { return v.approvalStatus }
func (v *CachedVideo) Duration() int        { return v.durationSeconds }
func (v *CachedVideo) ViewCount() int64     { return v.viewCount }
func (v *CachedVideo) CreatedAt() time.Time { return v.createdAt }
func (v *CachedVideo) UpdatedAt() time.Time { return v.updatedAt }
func (v *CachedVideo) DeletedAt() *time.Time {
	return v.deletedAt
}

func (v *CachedVideo) SetID(id string)             { v.id = id }
func (v *CachedVideo) SetUploaderName(name string) { v.uploaderName = name }
func (v *CachedVideo) SetCategory(c string)        { v.category = c }
func (v *CachedVideo) SetStatus(s string)          { v.status = s }
func (v *CachedVideo) SetApproval(a string)        { v.approvalStatus = a }
func (v *CachedVideo) SetDuration(seconds int)     { v.durationSeconds = seconds }
func (v *CachedVideo) SetViewCount(n int64)        { v.viewCount = n }
func (v *CachedVideo) SetUpdatedAt(t time.Time)    { v.updatedAt = t }
func (v *CachedVideo) SetDeletedAt(t *time.Time)   { v.deletedAt = t }

// Validate checks that the snapshot carries the minimum remote identity.
func (v *CachedVideo) Validate() error {
	if v.remoteID <= 0 {
		return fmt.Errorf("cached video requires a positive remote ID, got %d", v.remoteID)
	}
	if v.title == "" {
		return fmt.Errorf("cached video requires a title")
	}
	return nil
}
