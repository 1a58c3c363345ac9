package sdk

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client wraps calls to the recap backend
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// Streamed answers can take a while; rely on ctx for cancellation
		httpClient: &http.Client{Timeout: 300 * time.Second},
	}
}

// Analyze submits a video URL for analysis and returns its summary
func (c *Client) Analyze(ctx context.Context, videoURL string) (*AnalyzeResponse, error) {
	var resp ApiResponse[AnalyzeResponse]
	if err := c.doJSON(ctx, http.MethodPost, "/api/videos", AnalyzeRequest{URL: videoURL}, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// GetVideo retrieves a cached video session
func (c *Client) GetVideo(ctx context.Context, videoID string) (*VideoResponse, error) {
	var resp ApiResponse[VideoResponse]
	if err := c.doJSON(ctx, http.MethodGet, "/api/videos/"+videoID, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// AskQuestion streams an answer about an analyzed video, invoking onFragment
// for each text fragment as it arrives. Returns once the stream ends
func (c *Client) AskQuestion(ctx context.Context, videoID, question string, onFragment func(fragment string)) error {
	b, err := json.Marshal(AskQuestionRequest{Question: question})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/videos/"+videoID+"/questions", bytes.NewBuffer(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("[BACKEND]: backend 'POST /api/videos/%s/questions' failed: %d: %s", videoID, resp.StatusCode, string(body))
	}

	return consumeSSE(resp.Body, onFragment)
}

// consumeSSE reads server-sent events, calling onFragment for each "message"
// event's data. A "done" event or EOF ends the stream
func consumeSSE(r io.Reader, onFragment func(fragment string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	event := ""
	var data []string

	flush := func() bool {
		defer func() { event, data = "", nil }()

		switch event {
		case "done":
			return false
		case "message":
			onFragment(strings.Join(data, "\n"))
		}
		return true
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			if !flush() {
				return nil
			}
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}

	return scanner.Err()
}

// doJSON is a helper to perform JSON requests to the backend
func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any) error {
	// Create request body if input is provided
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(b)
	}

	// Create the request
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	// Perform the request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// On error, read body and return error
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("[BACKEND]: backend '%s %s' failed: %d: %s", method, path, resp.StatusCode, string(b))
	}

	// If no output expected, return early
	if out == nil {
		return nil
	}

	// Decode the response body into the output struct
	dec := json.NewDecoder(resp.Body)
	return dec.Decode(out)
}
