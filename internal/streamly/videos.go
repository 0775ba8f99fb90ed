package streamly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/streamlyhq/streamly/internal/gateway"
	"github.com/streamlyhq/streamly/internal/shared"
)

// VideoClient calls the video catalog and upload endpoints.
type VideoClient struct {
	gw *gateway.Gateway
}

// NewVideoClient creates a VideoClient over the given gateway.
func NewVideoClient(gw *gateway.Gateway) *VideoClient {
	return &VideoClient{gw: gw}
}

// Published retrieves the public video catalog with pagination.
func (c *VideoClient) Published(ctx context.Context, page, size int) (*Page[Video], error) {
	return c.page(ctx, "/api/v1/videos", page, size)
}

// Mine retrieves the authenticated user's own uploads with pagination.
func (c *VideoClient) Mine(ctx context.Context, page, size int) (*Page[Video], error) {
	return c.page(ctx, "/api/v1/videos/my", page, size)
}

func (c *VideoClient) page(ctx context.Context, path string, page, size int) (*Page[Video], error) {
	if size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}

	resp, err := c.gw.Get(ctx, fmt.Sprintf("%s?page=%d&size=%d", path, page, size))
	if err != nil {
		return nil, err
	}

	var result Page[Video]
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Get retrieves a single video by ID.
func (c *VideoClient) Get(ctx context.Context, id int64) (*Video, error) {
	resp, err := c.gw.Get(ctx, fmt.Sprintf("/api/v1/videos/%d", id))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrVideoNotFound, err)
	}

	var video Video
	if err := resp.Decode(&video); err != nil {
		return nil, err
	}
	return &video, nil
}

// Status retrieves a video's processing state, used to poll encoding progress.
func (c *VideoClient) Status(ctx context.Context, id int64) (*Video, error) {
	resp, err := c.gw.Get(ctx, fmt.Sprintf("/api/v1/videos/%d/status", id))
	if err != nil {
		return nil, err
	}

	var video Video
	if err := resp.Decode(&video); err != nil {
		return nil, err
	}
	return &video, nil
}

// Update modifies a video's editable metadata.
func (c *VideoClient) Update(ctx context.Context, id int64, update VideoUpdate) (*Video, error) {
	body, err := json.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal video update: %w", err)
	}

	resp, err := c.gw.Put(ctx, fmt.Sprintf("/api/v1/videos/%d", id), body)
	if err != nil {
		return nil, err
	}

	var video Video
	if err := resp.Decode(&video); err != nil {
		return nil, err
	}
	return &video, nil
}

// Delete removes one of the user's own videos.
func (c *VideoClient) Delete(ctx context.Context, id int64) error {
	_, err := c.gw.Delete(ctx, fmt.Sprintf("/api/v1/videos/%d", id))
	return err
}

// Upload sends a video file plus metadata as a multipart request.
//
// onProgress, if non-nil, receives the percentage of the request body written
// so far. The multipart body is rebuilt per attempt so the gateway's retry
// contract holds for uploads too.
func (c *VideoClient) Upload(ctx context.Context, videoPath string, meta UploadMeta, thumbnailPath string, onProgress func(float64)) (*Video, error) {
	if meta.Title == "" {
		return nil, fmt.Errorf("%w: title", shared.ErrMissingArgument)
	}
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	factory := func() (io.Reader, string, error) {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)

		if err := writeFilePart(writer, "file", videoPath); err != nil {
			return nil, "", err
		}

		fields := map[string]string{
			"title":       meta.Title,
			"description": meta.Description,
			"category":    meta.Category,
			"ageRating":   meta.AgeRating,
		}
		for name, value := range fields {
			if value == "" && name != "title" {
				continue
			}
			if err := writer.WriteField(name, value); err != nil {
				return nil, "", fmt.Errorf("failed to write field %s: %w", name, err)
			}
		}

		if thumbnailPath != "" {
			if err := writeFilePart(writer, "thumbnailFile", thumbnailPath); err != nil {
				return nil, "", err
			}
		}

		if err := writer.Close(); err != nil {
			return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
		}

		var body io.Reader = &buf
		if onProgress != nil {
			body = &progressReader{r: &buf, total: int64(buf.Len()), report: onProgress}
		}
		return body, writer.FormDataContentType(), nil
	}

	resp, err := c.gw.Upload(ctx, http.MethodPost, "/api/v1/videos/upload", factory, gateway.CallOptions{})
	if err != nil {
		return nil, err
	}

	var video Video
	if err := resp.Decode(&video); err != nil {
		return nil, err
	}
	return &video, nil
}

func writeFilePart(writer *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	part, err := writer.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}
	return nil
}

// progressReader reports cumulative read progress as a percentage.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	report func(float64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.total > 0 {
		p.report(float64(p.read) / float64(p.total) * 100)
	}
	return n, err
}

// WatchURL resolves the playback URL for a video, erroring when the video is
// not yet watchable (still encoding, unapproved, or missing a CDN URL).
func (c *VideoClient) WatchURL(ctx context.Context, id int64) (string, *Video, error) {
	video, err := c.Get(ctx, id)
	if err != nil {
		return "", nil, err
	}

	if !video.Watchable() {
		return "", video, fmt.Errorf("%w: video %d is not watchable (status %s, approval %s)",
			shared.ErrVideoNotFound, id, video.Status, video.ApprovalStatus)
	}

	if _, err := url.Parse(video.PlaybackURL); err != nil {
		return "", video, fmt.Errorf("%w: invalid playback URL: %v", shared.ErrAPIRequest, err)
	}

	return video.PlaybackURL, video, nil
}
