package models

import (
	"fmt"
	"time"
)

// WatchEntry records that a video was watched locally, so history survives
// across sessions and works offline.
type WatchEntry struct {
	id        string
	sequence  int
	remoteID  int64
	title     string
	watchedAt time.Time
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewWatchEntry creates a WatchEntry for the given remote video, stamped now.
func NewWatchEntry(sequence int, remoteID int64, title string) *WatchEntry {
	now := time.Now()
	return &WatchEntry{
		sequence:  sequence,
		remoteID:  remoteID,
		title:     title,
		watchedAt: now,
		createdAt: now,
		updatedAt: now,
	}
}

func (w *WatchEntry) ID() string           { return w.id }
func (w *WatchEntry) Sequence() int        { return w.sequence }
func (w *WatchEntry) RemoteID() int64      { return w.remoteID }
func (w *WatchEntry) Title() string        { return w.title }
func (w *WatchEntry) WatchedAt() time.Time { return w.watchedAt }
func (w *WatchEntry) CreatedAt() time.Time { return w.createdAt }
func (w *WatchEntry) UpdatedAt() time.Time { return w.updatedAt }
func (w *WatchEntry) DeletedAt() *time.Time {
	return w.deletedAt
}

func (w *WatchEntry) SetID(id string)           { w.id = id }
func (w *WatchEntry) SetWatchedAt(t time.Time)  { w.watchedAt = t }
func (w *WatchEntry) SetUpdatedAt(t time.Time)  { w.updatedAt = t }
func (w *WatchEntry) SetDeletedAt(t *time.Time) { w.deletedAt = t }

// Validate checks that the entry references a real remote video.
func (w *WatchEntry) Validate() error {
	if w.remoteID <= 0 {
		return fmt.Errorf("watch entry requires a positive remote ID, got %d", w.remoteID)
	}
	if w.title == "" {
		return fmt.Errorf("watch entry requires a title")
	}
	return nil
}
