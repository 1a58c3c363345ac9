package captions

import (
	"context"
	"errors"

	"github.com/ethanbaker/recap/internal/stores/video"
	"github.com/ethanbaker/recap/pkg/transcript"
)

// Failure modes of a caption source
var (
	// ErrInvalidURL means the input could not be parsed into a video ID
	ErrInvalidURL = errors.New("invalid video URL")

	// ErrUnavailable means the video exists but cannot be fetched
	// (private, deleted, or region-locked)
	ErrUnavailable = errors.New("video unavailable")

	// ErrNoCaptions means the video has no caption track
	ErrNoCaptions = errors.New("no captions available")
)

// Transcript is the result of fetching a video's caption track
type Transcript struct {
	VideoID  string
	Metadata video.Metadata
	Captions []transcript.Caption
}

// Source fetches ordered caption cues and basic metadata for a video URL
type Source interface {
	Fetch(ctx context.Context, videoURL string) (*Transcript, error)
}
