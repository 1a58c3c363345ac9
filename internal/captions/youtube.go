package captions

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ethanbaker/recap/internal/stores/video"
	"github.com/ethanbaker/recap/pkg/transcript"
)

// videoIDPattern matches the 11-character YouTube video identifier
var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// YouTube fetches captions through YouTube's public oEmbed and timedtext
// endpoints
type YouTube struct {
	httpClient *http.Client
	oembedURL  string
	captionURL string
	language   string
}

// YouTubeOption customizes YouTube source creation
type YouTubeOption func(*YouTube)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) YouTubeOption {
	return func(y *YouTube) {
		y.httpClient = client
	}
}

// WithEndpoints overrides the oEmbed and timedtext base URLs
func WithEndpoints(oembedURL, captionURL string) YouTubeOption {
	return func(y *YouTube) {
		y.oembedURL = oembedURL
		y.captionURL = captionURL
	}
}

// WithLanguage sets the caption track language (default "en")
func WithLanguage(lang string) YouTubeOption {
	return func(y *YouTube) {
		y.language = lang
	}
}

// NewYouTube creates a YouTube caption source
func NewYouTube(options ...YouTubeOption) *YouTube {
	y := &YouTube{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		oembedURL:  "https://www.youtube.com/oembed",
		captionURL: "https://www.youtube.com/api/timedtext",
		language:   "en",
	}

	for _, option := range options {
		option(y)
	}

	return y
}

// Fetch retrieves metadata and the caption track for a video URL
func (y *YouTube) Fetch(ctx context.Context, videoURL string) (*Transcript, error) {
	videoID, err := ParseVideoID(videoURL)
	if err != nil {
		return nil, err
	}

	metadata, err := y.fetchMetadata(ctx, videoID)
	if err != nil {
		return nil, err
	}

	cues, err := y.fetchCaptions(ctx, videoID)
	if err != nil {
		return nil, err
	}

	// The oEmbed endpoint has no duration field, so derive it from the
	// last cue
	if len(cues) > 0 {
		last := cues[len(cues)-1]
		metadata.Duration = last.Start + last.Duration
	}

	return &Transcript{
		VideoID:  videoID,
		Metadata: *metadata,
		Captions: cues,
	}, nil
}

// ParseVideoID extracts the video identifier from a YouTube URL. Accepts
// watch, youtu.be, shorts, embed, and live URL forms, as well as a bare ID
func ParseVideoID(videoURL string) (string, error) {
	raw := strings.TrimSpace(videoURL)
	if raw == "" {
		return "", fmt.Errorf("%w: empty input", ErrInvalidURL)
	}

	if videoIDPattern.MatchString(raw) {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if id := u.Query().Get("v"); videoIDPattern.MatchString(id) {
			return id, nil
		}
		// /shorts/<id>, /embed/<id>, /live/<id>
		for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
			if rest, ok := strings.CutPrefix(u.Path, prefix); ok {
				id := strings.SplitN(rest, "/", 2)[0]
				if videoIDPattern.MatchString(id) {
					return id, nil
				}
			}
		}
	case "youtu.be":
		id := strings.TrimPrefix(u.Path, "/")
		id = strings.SplitN(id, "/", 2)[0]
		if videoIDPattern.MatchString(id) {
			return id, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrInvalidURL, raw)
}

// oembedResponse is the subset of YouTube's oEmbed payload we use
type oembedResponse struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

func (y *YouTube) fetchMetadata(ctx context.Context, videoID string) (*video.Metadata, error) {
	endpoint := fmt.Sprintf("%s?url=%s&format=json",
		y.oembedURL,
		url.QueryEscape("https://www.youtube.com/watch?v="+videoID),
	)

	body, status, err := y.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetching metadata: %w", err)
	}

	// oEmbed answers 400/401/403/404 for private, deleted, or blocked videos
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: metadata request returned %d", ErrUnavailable, status)
	}

	var resp oembedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}

	return &video.Metadata{
		Title:   resp.Title,
		Channel: resp.AuthorName,
	}, nil
}

// timedtext XML: <transcript><text start="1.3" dur="2.4">...</text>...</transcript>
type timedtextResponse struct {
	XMLName xml.Name        `xml:"transcript"`
	Texts   []timedtextText `xml:"text"`
}

type timedtextText struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Text  string  `xml:",chardata"`
}

func (y *YouTube) fetchCaptions(ctx context.Context, videoID string) ([]transcript.Caption, error) {
	endpoint := fmt.Sprintf("%s?v=%s&lang=%s", y.captionURL, url.QueryEscape(videoID), url.QueryEscape(y.language))

	body, status, err := y.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetching captions: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: caption request returned %d", ErrUnavailable, status)
	}

	// An empty body means the video has no caption track in this language
	if len(body) == 0 {
		return nil, ErrNoCaptions
	}

	var resp timedtextResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding captions: %w", err)
	}
	if len(resp.Texts) == 0 {
		return nil, ErrNoCaptions
	}

	cues := make([]transcript.Caption, 0, len(resp.Texts))
	for _, t := range resp.Texts {
		cues = append(cues, transcript.Caption{
			Text:     cleanCaptionText(t.Text),
			Start:    time.Duration(t.Start * float64(time.Second)),
			Duration: time.Duration(t.Dur * float64(time.Second)),
		})
	}

	return cues, nil
}

// get performs a GET request and returns the body and status code
func (y *YouTube) get(ctx context.Context, endpoint string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}

	return body, resp.StatusCode, nil
}

// cleanCaptionText unescapes HTML entities and collapses newlines that
// YouTube inserts for display wrapping
func cleanCaptionText(text string) string {
	text = html.UnescapeString(text)
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.TrimSpace(text)
}
