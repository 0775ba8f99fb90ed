package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/streamlyhq/streamly/internal/formatter"
	"github.com/streamlyhq/streamly/internal/repositories"
	"github.com/streamlyhq/streamly/internal/shared"
	"github.com/streamlyhq/streamly/internal/streamly"
	"github.com/streamlyhq/streamly/internal/tasks"
	"github.com/urfave/cli/v3"
)

// VideosList lists the published catalog.
func (r *Runner) VideosList(ctx context.Context, cmd *cli.Command) error {
	page, err := r.videos.Published(ctx, cmd.Int("page"), cmd.Int("size"))
	if err != nil {
		return err
	}

	videos := pageVideos(page)
	if category := cmd.String("category"); category != "" {
		if streamly.CategoryBySlug(category) == nil {
			return fmt.Errorf("%w: unknown category %q", shared.ErrInvalidFlag, category)
		}
		videos = filterCategory(videos, category)
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, true)
	}

	r.writePlain("%s\n", formatter.RenderTable(videos))
	r.writePlain("Page %d of %d (%d videos total)\n", cmd.Int("page")+1, page.TotalPages, page.TotalElements)
	return nil
}

// VideosMine lists the caller's own uploads, processing state included.
func (r *Runner) VideosMine(ctx context.Context, cmd *cli.Command) error {
	page, err := r.videos.Mine(ctx, cmd.Int("page"), cmd.Int("size"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, true)
	}

	r.writePlain("%s\n", formatter.RenderTable(pageVideos(page)))
	return nil
}

// VideosGet shows a single video.
func (r *Runner) VideosGet(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}

	video, err := r.videos.Get(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(video, true)
	}

	r.printVideoDetail(video)
	return nil
}

// VideosWatch resolves a playback URL, records it locally, and opens the browser.
func (r *Runner) VideosWatch(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}

	url, video, err := r.engine.Watch(ctx, id)
	if err != nil {
		if video != nil {
			return fmt.Errorf("%w: %q is not watchable (status %s, approval %s)",
				err, video.Title, video.Status, video.ApprovalStatus)
		}
		return err
	}

	r.writePlain("▶ %s\n%s\n", video.Title, url)

	if cmd.Bool("no-open") {
		return nil
	}

	if err := shared.OpenBrowser(url); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		return nil
	}

	r.writePlain("Opened in your browser.\n")
	return nil
}

// VideosUpload uploads a video and, unless told otherwise, waits for encoding.
func (r *Runner) VideosUpload(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: video file path", shared.ErrMissingArgument)
	}

	meta := streamly.UploadMeta{
		Title:       cmd.String("title"),
		Description: cmd.String("description"),
		Category:    cmd.String("category"),
		AgeRating:   cmd.String("age-rating"),
	}

	if streamly.CategoryBySlug(meta.Category) == nil {
		return fmt.Errorf("%w: unknown category %q", shared.ErrInvalidFlag, meta.Category)
	}

	thumbnail := cmd.String("thumbnail")

	if cmd.Bool("no-wait") {
		video, err := r.videos.Upload(ctx, path, meta, thumbnail, func(percent float64) {
			r.writePlain("\rUploading... %.0f%%", percent)
		})
		if err != nil {
			return err
		}
		r.writePlain("\n✓ Uploaded %q (id %d), encoding in the background\n", video.Title, video.ID)
		r.writePlain("Check progress with: streamly videos mine\n")
		return nil
	}

	r.writePlain("Uploading %s...\n\n", path)

	// Create progress channel and goroutine to handle updates
	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.Upload:
				r.writePlain("📤 %s\n", update.Message)
			case tasks.Encode:
				r.writePlain("⚙️  %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.Publish(ctx, progressCh, path, meta, thumbnail)
	close(progressCh)

	if err != nil {
		return err
	}

	r.writePlainHeader("Upload Complete!")
	r.writePlain("Title:    %s (id %d)\n", result.Video.Title, result.Video.ID)
	r.writePlain("Status:   %s / %s\n", result.Video.Status, result.Video.ApprovalStatus)
	r.writePlain("Took:     %s\n", result.Duration.Round(time.Second))
	r.writePlain("\nYour video is awaiting admin approval.\n")
	return nil
}

// VideosUpdate edits a video's metadata.
func (r *Runner) VideosUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}

	update := streamly.VideoUpdate{
		Title:       cmd.String("title"),
		Description: cmd.String("description"),
		Category:    cmd.String("category"),
		AgeRating:   cmd.String("age-rating"),
	}

	if update == (streamly.VideoUpdate{}) {
		return fmt.Errorf("%w: nothing to update", shared.ErrMissingArgument)
	}

	video, err := r.videos.Update(ctx, id, update)
	if err != nil {
		return err
	}

	r.writePlain("✓ Updated %q\n", video.Title)
	return nil
}

// VideosDelete deletes one of the caller's videos.
func (r *Runner) VideosDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd)
	if err != nil {
		return err
	}

	if err := r.videos.Delete(ctx, id); err != nil {
		return err
	}

	r.writePlain("✓ Deleted video %d\n", id)
	return nil
}

// VideosExport exports a set of videos to files with a worker pool.
func (r *Runner) VideosExport(ctx context.Context, cmd *cli.Command) error {
	ids, err := parseIDList(cmd.StringArg("ids"))
	if err != nil {
		return err
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			r.writePlain("  [%d/%d] %s\n", update.Step, update.Total, update.Message)
		}
	}()

	result, err := r.engine.BulkExport(ctx, progressCh, ids, tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
	})
	close(progressCh)

	if err != nil {
		return err
	}

	r.writePlainHeader("Export Complete!")
	r.writePlain("Exported: %d/%d\n", result.SuccessfulExports, result.TotalVideos)
	r.writePlain("Output:   %s\n", result.OutputDirectory)

	if result.FailedExports > 0 {
		r.writePlain("\nFailed exports:\n")
		for _, exported := range result.Results {
			if !exported.Success {
				r.writePlain("  - %d: %s\n", exported.VideoID, exported.Error)
			}
		}
	}

	return nil
}

// VideosDump fetches every surface the session can see, for debugging.
func (r *Runner) VideosDump(ctx context.Context, cmd *cli.Command) error {
	progressCh := make(chan tasks.ProgressUpdate, 10)
	go func() {
		for update := range progressCh {
			r.writePlain("📥 %s\n", update.Message)
		}
	}()

	result, err := r.engine.Dump(ctx, progressCh, cmd.Int("size"))
	close(progressCh)

	if err != nil {
		return err
	}

	return r.writeJSON(result, true)
}

// VideosHistory prints the locally recorded watch history.
func (r *Runner) VideosHistory(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return fmt.Errorf("%w: local cache database not initialized, run 'streamly setup'", shared.ErrServiceUnavailable)
	}

	entries, err := repositories.NewWatchHistoryRepository(r.db).List(map[string]any{
		"limit": cmd.Int("limit"),
	})
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		r.writePlain("No watch history yet.\n")
		return nil
	}

	r.writePlainHeader("Watch History")
	for _, entry := range entries {
		r.writePlain("%s  %s (id %d)\n",
			entry.WatchedAt().Format("2006-01-02 15:04"), entry.Title(), entry.RemoteID())
	}
	return nil
}

func (r *Runner) printVideoDetail(v *streamly.Video) {
	r.writePlainHeader(v.Title)
	r.writePlain("Uploader:  %s\n", v.UploaderName)
	r.writePlain("Category:  %s\n", v.Category)
	r.writePlain("Duration:  %s\n", formatter.FormatDuration(v.DurationSeconds))
	r.writePlain("Views:     %d\n", v.ViewCount)
	r.writePlain("Rating:    %s\n", v.AgeRating)
	r.writePlain("Status:    %s / %s\n", v.Status, v.ApprovalStatus)
	if v.RejectionReason != "" {
		r.writePlain("Rejected:  %s\n", v.RejectionReason)
	}
	if v.Description != "" {
		r.writePlain("\n%s\n", v.Description)
	}
}

func idArg(cmd *cli.Command) (int64, error) {
	raw := cmd.StringArg("id")
	if raw == "" {
		return 0, fmt.Errorf("%w: video ID", shared.ErrMissingArgument)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a numeric ID", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

func parseIDList(raw string) ([]int64, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: comma-separated video IDs", shared.ErrMissingArgument)
	}

	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a numeric ID", shared.ErrInvalidArgument, part)
		}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: comma-separated video IDs", shared.ErrMissingArgument)
	}
	return ids, nil
}

func pageVideos(page *streamly.Page[streamly.Video]) []*streamly.Video {
	videos := make([]*streamly.Video, len(page.Content))
	for i := range page.Content {
		videos[i] = &page.Content[i]
	}
	return videos
}

func filterCategory(videos []*streamly.Video, category string) []*streamly.Video {
	filtered := videos[:0]
	for _, v := range videos {
		if strings.EqualFold(v.Category, category) {
			filtered = append(filtered, v)
		}
	}
	return filtered
}
