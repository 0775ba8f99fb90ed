// package formatter renders video listings for terminal display and exports
// them to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/streamlyhq/streamly/internal/streamly"
)

// FormatDuration renders a duration in seconds as m:ss or h:mm:ss.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// RenderTable renders videos as a bordered terminal table.
func RenderTable(videos []*streamly.Video) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle()
		}).
		Headers("ID", "Title", "Uploader", "Category", "Duration", "Views", "Status")

	for _, v := range videos {
		t.Row(
			strconv.FormatInt(v.ID, 10),
			v.Title,
			v.UploaderName,
			v.Category,
			FormatDuration(v.DurationSeconds),
			strconv.FormatInt(v.ViewCount, 10),
			videoState(v),
		)
	}

	return t.Render()
}

// RenderUserTable renders accounts as a bordered terminal table.
func RenderUserTable(users []*streamly.User) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle()
		}).
		Headers("ID", "Email", "Nickname", "Role", "Active")

	for _, u := range users {
		t.Row(
			strconv.FormatInt(u.ID, 10),
			u.Email,
			u.Nickname,
			string(u.Role),
			strconv.FormatBool(u.Active),
		)
	}

	return t.Render()
}

// videoState collapses processing and approval into one display column.
func videoState(v *streamly.Video) string {
	if v.Status == streamly.StatusCompleted && v.ApprovalStatus == streamly.ApprovalApproved {
		return "LIVE"
	}
	if v.ApprovalStatus == streamly.ApprovalRejected {
		return streamly.ApprovalRejected
	}
	if v.Status != streamly.StatusCompleted {
		return v.Status
	}
	return v.ApprovalStatus
}

// ExportToCSV converts videos to CSV with columns: ID, Title, Uploader, Category, Duration, Views, Status, Approval, Published
func ExportToCSV(videos []*streamly.Video) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Uploader", "Category", "Duration", "Views", "Status", "Approval", "Published"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, v := range videos {
		published := ""
		if v.PublishedAt != nil {
			published = *v.PublishedAt
		}
		record := []string{
			strconv.FormatInt(v.ID, 10),
			v.Title,
			v.UploaderName,
			v.Category,
			strconv.Itoa(v.DurationSeconds),
			strconv.FormatInt(v.ViewCount, 10),
			v.Status,
			v.ApprovalStatus,
			published,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts videos to a Markdown listing under the given title
func ExportToMarkdown(title string, videos []*streamly.Video) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Videos**: %d\n\n", len(videos)))

	for i, v := range videos {
		buf.WriteString(fmt.Sprintf("%d. **%s** by %s [%s]\n", i+1, v.Title, v.UploaderName, FormatDuration(v.DurationSeconds)))
		if v.Description != "" {
			buf.WriteString(fmt.Sprintf("   %s\n", strings.ReplaceAll(v.Description, "\n", " ")))
		}
		buf.WriteString(fmt.Sprintf("   views: %d, category: %s, state: %s\n", v.ViewCount, v.Category, videoState(v)))
	}

	return buf.Bytes()
}

// ExportToText converts videos to a plain text listing, one video per line
func ExportToText(videos []*streamly.Video) []byte {
	var buf bytes.Buffer
	for _, v := range videos {
		buf.WriteString(fmt.Sprintf("%d\t%s\t%s\t%s\t%d views\n",
			v.ID, v.Title, v.UploaderName, FormatDuration(v.DurationSeconds), v.ViewCount))
	}
	return buf.Bytes()
}

// WriteExport writes videos to path in the requested format and returns the
// bytes written.
func WriteExport(videos []*streamly.Video, format, path string) (int, error) {
	var data []byte
	var err error

	switch format {
	case "csv":
		data, err = ExportToCSV(videos)
	case "markdown", "md":
		data = ExportToMarkdown("Video Export", videos)
	case "txt", "text":
		data = ExportToText(videos)
	case "json", "":
		data, err = json.MarshalIndent(videos, "", "  ")
	default:
		return 0, fmt.Errorf("unsupported export format: %s", format)
	}
	if err != nil {
		return 0, err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return 0, fmt.Errorf("failed to write export file: %w", err)
	}
	return len(data), nil
}

// VideoExportResult records the outcome of exporting one video's metadata.
type VideoExportResult struct {
	VideoID int64    `json:"video_id"`
	Title   string   `json:"title"`
	Success bool     `json:"success"`
	Files   []string `json:"files,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk metadata export run.
type BulkExportResult struct {
	TotalVideos       int                 `json:"total_videos"`
	SuccessfulExports int                 `json:"successful_exports"`
	FailedExports     int                 `json:"failed_exports"`
	OutputDirectory   string              `json:"output_directory"`
	ManifestPath      string              `json:"manifest_path,omitempty"`
	Format            string              `json:"format"`
	Results           []VideoExportResult `json:"results"`
}

// WriteBulkExportManifest writes the manifest summarizing a bulk export.
func WriteBulkExportManifest(result *BulkExportResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
