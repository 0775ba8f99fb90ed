package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/streamlyhq/streamly/internal/formatter"
	"github.com/streamlyhq/streamly/internal/shared"
	"github.com/streamlyhq/streamly/internal/streamly"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk metadata exports.
type BulkExportOpts struct {
	Format     string  // Export format: json, csv, markdown, txt
	OutputDir  string  // Base output directory (default: streamly_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 5)
	RateLimit  float64 // Requests per second (default: 5)
}

type exportJob struct {
	videoID int64
}

// BulkExport exports metadata for multiple videos concurrently with rate
// limiting and progress tracking.
//
// This method implements a worker pool pattern: each worker fetches a video
// and writes its metadata in the requested format. Partial failures are
// recorded per video, and a manifest file summarizes the run.
func (e *VideoEngine) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, ids []int64, opts BulkExportOpts) (*formatter.BulkExportResult, error) {
	if e.videos == nil {
		return nil, fmt.Errorf("%w: video client not initialized", shared.ErrServiceUnavailable)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("streamly_export_%d", time.Now().Unix())
	}
	if opts.Format == "" {
		opts.Format = "json"
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &formatter.BulkExportResult{
		TotalVideos:     len(ids),
		OutputDirectory: opts.OutputDir,
		Format:          opts.Format,
		Results:         make([]formatter.VideoExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan exportJob, len(ids))
	results := make(chan formatter.VideoExportResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, limiter, jobs, results, opts)
	}

	for _, id := range ids {
		jobs <- exportJob{videoID: id}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportingUpdate(completed, len(ids), res.Title))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(ids), res.Title, fmt.Errorf("%s", res.Error)))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteBulkExportManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker is a worker goroutine that exports videos from the jobs channel.
func (e *VideoEngine) exportWorker(ctx context.Context, wg *sync.WaitGroup, limiter *rate.Limiter, jobs <-chan exportJob, results chan<- formatter.VideoExportResult, opts BulkExportOpts) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			results <- formatter.VideoExportResult{VideoID: job.videoID, Error: ctx.Err().Error()}
			continue
		default:
		}

		if err := limiter.Wait(ctx); err != nil {
			results <- formatter.VideoExportResult{VideoID: job.videoID, Error: err.Error()}
			continue
		}

		results <- e.exportSingleVideo(ctx, job.videoID, opts)
	}
}

// exportSingleVideo fetches one video and writes its metadata file.
func (e *VideoEngine) exportSingleVideo(ctx context.Context, id int64, opts BulkExportOpts) formatter.VideoExportResult {
	result := formatter.VideoExportResult{VideoID: id}

	video, err := e.videos.Get(ctx, id)
	if err != nil {
		result.Error = fmt.Sprintf("failed to fetch video: %v", err)
		return result
	}
	result.Title = video.Title

	e.cachePut(video)

	ext := opts.Format
	if ext == "markdown" {
		ext = "md"
	}
	path := filepath.Join(opts.OutputDir, fmt.Sprintf("%d.%s", id, ext))

	if _, err := formatter.WriteExport([]*streamly.Video{video}, opts.Format, path); err != nil {
		result.Error = fmt.Sprintf("failed to write export: %v", err)
		return result
	}

	result.Success = true
	result.Files = []string{path}
	return result
}
