package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/streamlyhq/streamly/internal/repositories"
	"github.com/streamlyhq/streamly/internal/shared"
	"github.com/streamlyhq/streamly/internal/streamly"
)

type fakeVideoAPI struct {
	mu sync.Mutex

	published    *streamly.Page[streamly.Video]
	publishedErr error
	mine         *streamly.Page[streamly.Video]
	mineErr      error

	videos map[int64]*streamly.Video
	getErr error

	statusSeq []streamly.Video
	statusIdx int

	uploadResult *streamly.Video
	uploadErr    error

	watchURL string
	watchErr error
}

func (f *fakeVideoAPI) Published(ctx context.Context, page, size int) (*streamly.Page[streamly.Video], error) {
	return f.published, f.publishedErr
}

func (f *fakeVideoAPI) Mine(ctx context.Context, page, size int) (*streamly.Page[streamly.Video], error) {
	return f.mine, f.mineErr
}

func (f *fakeVideoAPI) Get(ctx context.Context, id int64) (*streamly.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if v, ok := f.videos[id]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: %d", shared.ErrVideoNotFound, id)
}

func (f *fakeVideoAPI) Status(ctx context.Context, id int64) (*streamly.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusIdx >= len(f.statusSeq) {
		return nil, errors.New("status sequence exhausted")
	}
	v := f.statusSeq[f.statusIdx]
	f.statusIdx++
	return &v, nil
}

func (f *fakeVideoAPI) Upload(ctx context.Context, videoPath string, meta streamly.UploadMeta, thumbnailPath string, onProgress func(float64)) (*streamly.Video, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	if onProgress != nil {
		onProgress(50)
		onProgress(100)
	}
	return f.uploadResult, nil
}

func (f *fakeVideoAPI) WatchURL(ctx context.Context, id int64) (string, *streamly.Video, error) {
	if f.watchErr != nil {
		return "", nil, f.watchErr
	}
	v, err := f.Get(ctx, id)
	if err != nil {
		return "", nil, err
	}
	return f.watchURL, v, nil
}

type fakeRequestAPI struct {
	page *streamly.Page[streamly.UploaderRequest]
	err  error
}

func (f *fakeRequestAPI) Mine(ctx context.Context, page, size int) (*streamly.Page[streamly.UploaderRequest], error) {
	return f.page, f.err
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func liveVideo(id int64, title string) *streamly.Video {
	return &streamly.Video{
		ID:             id,
		Title:          title,
		Status:         streamly.StatusCompleted,
		ApprovalStatus: streamly.ApprovalApproved,
		PlaybackURL:    fmt.Sprintf("https://cdn.example.com/%d/master.m3u8", id),
	}
}

func newTestEngine(t *testing.T, api VideoAPI, requests RequestAPI, db *sql.DB) *VideoEngine {
	t.Helper()

	var cache *repositories.VideoCacheRepository
	var history *repositories.WatchHistoryRepository
	if db != nil {
		cache = repositories.NewVideoCacheRepository(db)
		history = repositories.NewWatchHistoryRepository(db)
	}

	engine := NewVideoEngine(api, requests, cache, history, shared.NewLogger(io.Discard))
	engine.pollInterval = time.Millisecond
	return engine
}

func drain(prog chan ProgressUpdate) []ProgressUpdate {
	var updates []ProgressUpdate
	for {
		select {
		case u := <-prog:
			updates = append(updates, u)
		default:
			return updates
		}
	}
}

func TestVideoEngine(t *testing.T) {
	t.Run("Publish", func(t *testing.T) {
		t.Run("Waits For Encoding To Complete", func(t *testing.T) {
			uploaded := &streamly.Video{ID: 9, Title: "Pilot", Status: streamly.StatusUploaded}
			api := &fakeVideoAPI{
				uploadResult: uploaded,
				statusSeq: []streamly.Video{
					{ID: 9, Title: "Pilot", Status: streamly.StatusEncoding, EncodingProgress: 40},
					{ID: 9, Title: "Pilot", Status: streamly.StatusEncoding, EncodingProgress: 90},
					{ID: 9, Title: "Pilot", Status: streamly.StatusCompleted, EncodingProgress: 100},
				},
			}
			engine := newTestEngine(t, api, nil, nil)

			prog := make(chan ProgressUpdate, 64)
			result, err := engine.Publish(context.Background(), prog, "/tmp/pilot.mp4", streamly.UploadMeta{Title: "Pilot"}, "")
			if err != nil {
				t.Fatalf("publish failed: %v", err)
			}
			if result.Video.Status != streamly.StatusCompleted {
				t.Errorf("expected settled video, got status %s", result.Video.Status)
			}

			updates := drain(prog)
			var sawUpload, sawEncode bool
			for _, u := range updates {
				switch u.Phase {
				case Upload:
					sawUpload = true
				case Encode:
					sawEncode = true
				}
			}
			if !sawUpload || !sawEncode {
				t.Errorf("expected both upload and encode progress, got %+v", updates)
			}
		})

		t.Run("Surfaces Encoding Failure", func(t *testing.T) {
			api := &fakeVideoAPI{
				uploadResult: &streamly.Video{ID: 9, Status: streamly.StatusUploaded},
				statusSeq: []streamly.Video{
					{ID: 9, Status: streamly.StatusFailed},
				},
			}
			engine := newTestEngine(t, api, nil, nil)

			if _, err := engine.Publish(context.Background(), nil, "/tmp/x.mp4", streamly.UploadMeta{Title: "x"}, ""); err == nil {
				t.Fatal("expected encoding failure to surface")
			}
		})

		t.Run("Propagates Upload Failure", func(t *testing.T) {
			api := &fakeVideoAPI{uploadErr: errors.New("file too large")}
			engine := newTestEngine(t, api, nil, nil)

			if _, err := engine.Publish(context.Background(), nil, "/tmp/x.mp4", streamly.UploadMeta{Title: "x"}, ""); err == nil {
				t.Fatal("expected upload failure to propagate")
			}
		})

		t.Run("Stops On Context Cancel", func(t *testing.T) {
			api := &fakeVideoAPI{
				uploadResult: &streamly.Video{ID: 9, Status: streamly.StatusUploaded},
				statusSeq: []streamly.Video{
					{ID: 9, Status: streamly.StatusEncoding},
					{ID: 9, Status: streamly.StatusEncoding},
				},
			}
			engine := newTestEngine(t, api, nil, nil)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := engine.Publish(ctx, nil, "/tmp/x.mp4", streamly.UploadMeta{Title: "x"}, ""); !errors.Is(err, context.Canceled) {
				t.Fatalf("expected context cancellation, got %v", err)
			}
		})
	})

	t.Run("Watch", func(t *testing.T) {
		t.Run("Resolves URL And Records History", func(t *testing.T) {
			db := setupTestDB(t)
			api := &fakeVideoAPI{
				videos:   map[int64]*streamly.Video{42: liveVideo(42, "Pilot")},
				watchURL: "https://cdn.example.com/42/master.m3u8",
			}
			engine := newTestEngine(t, api, nil, db)

			url, video, err := engine.Watch(context.Background(), 42)
			if err != nil {
				t.Fatalf("watch failed: %v", err)
			}
			if url != "https://cdn.example.com/42/master.m3u8" {
				t.Errorf("unexpected playback URL %q", url)
			}
			if video.ID != 42 {
				t.Errorf("unexpected video %+v", video)
			}

			entries, err := repositories.NewWatchHistoryRepository(db).List(nil)
			if err != nil {
				t.Fatalf("history list failed: %v", err)
			}
			if len(entries) != 1 || entries[0].RemoteID() != 42 {
				t.Errorf("expected one history entry for video 42, got %d", len(entries))
			}

			if _, err := repositories.NewVideoCacheRepository(db).GetByRemoteID(42); err != nil {
				t.Errorf("expected watched video cached: %v", err)
			}
		})

		t.Run("Propagates Unwatchable", func(t *testing.T) {
			api := &fakeVideoAPI{watchErr: fmt.Errorf("%w: still encoding", shared.ErrVideoNotFound)}
			engine := newTestEngine(t, api, nil, nil)

			if _, _, err := engine.Watch(context.Background(), 42); !errors.Is(err, shared.ErrVideoNotFound) {
				t.Fatalf("expected ErrVideoNotFound, got %v", err)
			}
		})
	})

	t.Run("Dump", func(t *testing.T) {
		t.Run("Collects All Sections", func(t *testing.T) {
			db := setupTestDB(t)
			api := &fakeVideoAPI{
				published: &streamly.Page[streamly.Video]{Content: []streamly.Video{*liveVideo(1, "Pilot")}, TotalElements: 1},
				mine:      &streamly.Page[streamly.Video]{Content: []streamly.Video{*liveVideo(2, "Mine")}, TotalElements: 1},
			}
			requests := &fakeRequestAPI{page: &streamly.Page[streamly.UploaderRequest]{TotalElements: 0}}
			engine := newTestEngine(t, api, requests, db)

			result, err := engine.Dump(context.Background(), nil, 50)
			if err != nil {
				t.Fatalf("dump failed: %v", err)
			}
			if result.Catalog == nil || result.Mine == nil || result.Requests == nil {
				t.Errorf("expected all sections populated: %+v", result)
			}
			if len(result.Errors) != 0 {
				t.Errorf("expected no errors, got %+v", result.Errors)
			}

			if _, err := repositories.NewVideoCacheRepository(db).GetByRemoteID(1); err != nil {
				t.Errorf("expected catalog videos cached: %v", err)
			}
		})

		t.Run("Collects Partial Failures", func(t *testing.T) {
			api := &fakeVideoAPI{
				publishedErr: errors.New("backend down"),
				mine:         &streamly.Page[streamly.Video]{},
			}
			engine := newTestEngine(t, api, &fakeRequestAPI{err: errors.New("forbidden")}, nil)

			result, err := engine.Dump(context.Background(), nil, 50)
			if err != nil {
				t.Fatalf("dump should not abort on partial failure: %v", err)
			}
			if len(result.Errors) != 2 {
				t.Errorf("expected 2 collected failures, got %+v", result.Errors)
			}
			if result.Mine == nil {
				t.Error("expected surviving section populated")
			}
		})
	})

	t.Run("BulkExport", func(t *testing.T) {
		t.Run("Exports Each Video And Writes Manifest", func(t *testing.T) {
			api := &fakeVideoAPI{
				videos: map[int64]*streamly.Video{
					1: liveVideo(1, "Pilot"),
					2: liveVideo(2, "Episode 2"),
				},
			}
			engine := newTestEngine(t, api, nil, nil)

			dir := filepath.Join(t.TempDir(), "exports")
			prog := make(chan ProgressUpdate, 64)

			result, err := engine.BulkExport(context.Background(), prog, []int64{1, 2, 3}, BulkExportOpts{
				Format:     "json",
				OutputDir:  dir,
				NumWorkers: 2,
				RateLimit:  1000,
			})
			if err != nil {
				t.Fatalf("bulk export failed: %v", err)
			}

			if result.SuccessfulExports != 2 || result.FailedExports != 1 {
				t.Errorf("expected 2 successes and 1 failure, got %d/%d", result.SuccessfulExports, result.FailedExports)
			}
			if _, err := os.Stat(filepath.Join(dir, "1.json")); err != nil {
				t.Errorf("expected export file for video 1: %v", err)
			}
			if _, err := os.Stat(result.ManifestPath); err != nil {
				t.Errorf("expected manifest file: %v", err)
			}
			if len(drain(prog)) == 0 {
				t.Error("expected progress updates during export")
			}
		})

		t.Run("Requires Video Client", func(t *testing.T) {
			engine := NewVideoEngine(nil, nil, nil, nil, shared.NewLogger(io.Discard))
			if _, err := engine.BulkExport(context.Background(), nil, []int64{1}, BulkExportOpts{OutputDir: t.TempDir()}); !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Fatalf("expected ErrServiceUnavailable, got %v", err)
			}
		})
	})
}
