package sdk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumeSSE(t *testing.T) {
	t.Run("collects message fragments until done", func(t *testing.T) {
		stream := "event:message\ndata:Hello \n\nevent:message\ndata:world\n\nevent:done\ndata:\n\n"

		var fragments []string
		err := consumeSSE(strings.NewReader(stream), func(f string) {
			fragments = append(fragments, f)
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"Hello ", "world"}, fragments)
	})

	t.Run("joins multi-line data", func(t *testing.T) {
		stream := "event:message\ndata:line one\ndata:line two\n\nevent:done\ndata:\n\n"

		var fragments []string
		require.NoError(t, consumeSSE(strings.NewReader(stream), func(f string) {
			fragments = append(fragments, f)
		}))

		assert.Equal(t, []string{"line one\nline two"}, fragments)
	})

	t.Run("tolerates data with leading space", func(t *testing.T) {
		stream := "event: message\ndata: spaced\n\n"

		var fragments []string
		require.NoError(t, consumeSSE(strings.NewReader(stream), func(f string) {
			fragments = append(fragments, f)
		}))

		assert.Equal(t, []string{"spaced"}, fragments)
	})
}

func TestClientAnalyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/videos", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","code":200,"message":"ok","data":{"video_id":"abc","title":"T","channel":"C","duration_seconds":60,"summary":"S"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.Analyze(context.Background(), "https://youtu.be/abc")
	require.NoError(t, err)

	assert.Equal(t, "abc", resp.VideoID)
	assert.Equal(t, "S", resp.Summary)
	assert.Equal(t, 60.0, resp.Duration)
}

func TestClientAskQuestion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/videos/abc/questions", r.URL.Path)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("event:message\ndata:The \n\nevent:message\ndata:answer.\n\nevent:done\ndata:\n\n"))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var answer strings.Builder
	err := client.AskQuestion(context.Background(), "abc", "what?", func(f string) {
		answer.WriteString(f)
	})

	require.NoError(t, err)
	assert.Equal(t, "The answer.", answer.String())
}

func TestClientErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":"error","code":404,"message":"Video not found"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)

	_, err := client.GetVideo(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
