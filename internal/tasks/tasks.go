// package tasks implements long-running client operations against the
// Streamly backend.
//
// The core abstraction is VideoEngine, which orchestrates uploads with
// encode polling, playback resolution with local history, and metadata dumps.
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/streamlyhq/streamly/internal/repositories"
	"github.com/streamlyhq/streamly/internal/shared"
	"github.com/streamlyhq/streamly/internal/streamly"
)

// VideoAPI is the slice of the video client the engine depends on.
// This abstraction allows for easier testing and decoupling from concrete implementation.
type VideoAPI interface {
	Published(ctx context.Context, page, size int) (*streamly.Page[streamly.Video], error)
	Mine(ctx context.Context, page, size int) (*streamly.Page[streamly.Video], error)
	Get(ctx context.Context, id int64) (*streamly.Video, error)
	Status(ctx context.Context, id int64) (*streamly.Video, error)
	Upload(ctx context.Context, videoPath string, meta streamly.UploadMeta, thumbnailPath string, onProgress func(float64)) (*streamly.Video, error)
	WatchURL(ctx context.Context, id int64) (string, *streamly.Video, error)
}

// RequestAPI is the slice of the uploader-request client the engine depends on.
type RequestAPI interface {
	Mine(ctx context.Context, page, size int) (*streamly.Page[streamly.UploaderRequest], error)
}

// EndpointResult represents the result of fetching data from a single endpoint.
type EndpointResult struct {
	Endpoint string
	Error    error
}

// DumpResult contains the account's data fetched from the backend.
type DumpResult struct {
	Catalog  *streamly.Page[streamly.Video]           // Published catalog (first page)
	Mine     *streamly.Page[streamly.Video]           // Own uploads
	Requests *streamly.Page[streamly.UploaderRequest] // Own promotion requests
	Errors   []EndpointResult                         // Failed endpoint fetches
}

// PublishResult contains the outcome of an upload-and-encode run.
type PublishResult struct {
	Video    *streamly.Video // Final state after encoding settled
	Duration time.Duration   // Wall time from upload start to settled state
}

// VideoEngine orchestrates multi-step video operations.
// Contains dependencies on the backend clients and the local cache.
type VideoEngine struct {
	videos   VideoAPI
	requests RequestAPI
	cache    *repositories.VideoCacheRepository
	history  *repositories.WatchHistoryRepository
	logger   *log.Logger

	pollInterval time.Duration
}

// NewVideoEngine creates a VideoEngine. cache and history may be nil when the
// local database is disabled.
func NewVideoEngine(videos VideoAPI, requests RequestAPI, cache *repositories.VideoCacheRepository, history *repositories.WatchHistoryRepository, logger *log.Logger) *VideoEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &VideoEngine{
		videos:       videos,
		requests:     requests,
		cache:        cache,
		history:      history,
		logger:       logger,
		pollInterval: 2 * time.Second,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *VideoEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Publish uploads a video and waits for the encoding pipeline to settle.
//
// Progress flows through prog in two phases: upload percentage while the file
// streams, then encoding percentage while the backend transcodes. Publish
// returns once the video reaches COMPLETED or FAILED, or ctx ends.
func (e *VideoEngine) Publish(ctx context.Context, prog chan<- ProgressUpdate, videoPath string, meta streamly.UploadMeta, thumbnailPath string) (*PublishResult, error) {
	if e.videos == nil {
		return nil, fmt.Errorf("%w: video client not initialized", shared.ErrServiceUnavailable)
	}

	start := time.Now()

	video, err := e.videos.Upload(ctx, videoPath, meta, thumbnailPath, func(percent float64) {
		e.sendProgress(prog, uploadingUpdate(percent))
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("upload accepted, waiting for encoding", "id", video.ID, "title", video.Title)

	settled, err := e.awaitEncoding(ctx, prog, video)
	if err != nil {
		return nil, err
	}

	e.cachePut(settled)

	return &PublishResult{Video: settled, Duration: time.Since(start)}, nil
}

// awaitEncoding polls the status endpoint until the pipeline settles.
func (e *VideoEngine) awaitEncoding(ctx context.Context, prog chan<- ProgressUpdate, video *streamly.Video) (*streamly.Video, error) {
	current := video

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		switch current.Status {
		case streamly.StatusCompleted:
			e.sendProgress(prog, encodingUpdate(100, current.Status))
			return current, nil
		case streamly.StatusFailed:
			return current, fmt.Errorf("%w: encoding failed for video %d", shared.ErrAPIRequest, current.ID)
		case streamly.StatusDeleted:
			return current, fmt.Errorf("%w: video %d removed during encoding", shared.ErrVideoNotFound, current.ID)
		}

		e.sendProgress(prog, encodingUpdate(current.EncodingProgress, current.Status))

		select {
		case <-ctx.Done():
			return current, ctx.Err()
		case <-ticker.C:
		}

		next, err := e.videos.Status(ctx, current.ID)
		if err != nil {
			return current, fmt.Errorf("failed to poll encoding status: %w", err)
		}
		current = next
	}
}

// Watch resolves the playback URL for a video, refreshes the local cache, and
// records the view in local history.
func (e *VideoEngine) Watch(ctx context.Context, id int64) (string, *streamly.Video, error) {
	if e.videos == nil {
		return "", nil, fmt.Errorf("%w: video client not initialized", shared.ErrServiceUnavailable)
	}

	url, video, err := e.videos.WatchURL(ctx, id)
	if err != nil {
		return "", video, err
	}

	e.cachePut(video)

	if e.history != nil {
		if err := e.history.Record(video.ID, video.Title); err != nil {
			e.logger.Warn("failed to record watch history", "id", video.ID, "err", err)
		}
	}

	return url, video, nil
}

// Dump fetches the account's data from the backend: the published catalog,
// own uploads, and own promotion requests. Partial failures are collected
// rather than aborting the run.
func (e *VideoEngine) Dump(ctx context.Context, prog chan<- ProgressUpdate, pageSize int) (*DumpResult, error) {
	if e.videos == nil {
		return nil, fmt.Errorf("%w: video client not initialized", shared.ErrServiceUnavailable)
	}
	if pageSize <= 0 {
		pageSize = 50
	}

	result := &DumpResult{}

	e.sendProgress(prog, fetchUpdate(FetchCatalog, 1, 3, "published catalog"))
	catalog, err := e.videos.Published(ctx, 0, pageSize)
	if err != nil {
		result.Errors = append(result.Errors, EndpointResult{Endpoint: "videos", Error: err})
	} else {
		result.Catalog = catalog
		for i := range catalog.Content {
			e.cachePut(&catalog.Content[i])
		}
	}

	e.sendProgress(prog, fetchUpdate(FetchMine, 2, 3, "own uploads"))
	mine, err := e.videos.Mine(ctx, 0, pageSize)
	if err != nil {
		result.Errors = append(result.Errors, EndpointResult{Endpoint: "videos/my", Error: err})
	} else {
		result.Mine = mine
	}

	if e.requests != nil {
		e.sendProgress(prog, fetchUpdate(FetchRequests, 3, 3, "promotion requests"))
		requests, err := e.requests.Mine(ctx, 0, pageSize)
		if err != nil {
			result.Errors = append(result.Errors, EndpointResult{Endpoint: "uploader-requests/my", Error: err})
		} else {
			result.Requests = requests
		}
	}

	return result, nil
}

// cachePut refreshes the local snapshot, best effort.
func (e *VideoEngine) cachePut(video *streamly.Video) {
	if e.cache == nil || video == nil {
		return
	}
	if err := e.cache.Put(video); err != nil {
		e.logger.Warn("failed to refresh video cache", "id", video.ID, "err", err)
	}
}
