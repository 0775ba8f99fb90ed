package ui

import (
	"github.com/streamlyhq/streamly/internal/streamly"
)

// catalogFetchedMsg carries the published catalog page.
type catalogFetchedMsg struct {
	page *streamly.Page[streamly.Video]
	err  error
}

// detailFetchedMsg carries a freshly fetched video.
type detailFetchedMsg struct {
	video *streamly.Video
	err   error
}

// watchResolvedMsg carries the playback resolution outcome.
type watchResolvedMsg struct {
	url    string
	video  *streamly.Video
	opened bool
	err    error
}
