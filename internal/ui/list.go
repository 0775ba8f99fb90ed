package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/streamlyhq/streamly/internal/formatter"
	"github.com/streamlyhq/streamly/internal/streamly"
)

var _ list.Item = videoItem{}

// videoItem wraps [streamly.Video] to implement [list.Item].
type videoItem struct {
	video streamly.Video
}

func (i videoItem) FilterValue() string { return i.video.Title }
func (i videoItem) Title() string       { return i.video.Title }
func (i videoItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.video.UploaderName, formatter.FormatDuration(i.video.DurationSeconds))
	if i.video.ViewCount > 0 {
		desc = fmt.Sprintf("%s • %d views", desc, i.video.ViewCount)
	}
	if i.video.Category != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.video.Category)
	}
	return desc
}
