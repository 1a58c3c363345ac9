package video

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ethanbaker/recap/pkg/transcript"
)

// Message roles for conversation history
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Metadata holds basic information about a video, immutable once fetched
type Metadata struct {
	Title    string        `json:"title"`
	Channel  string        `json:"channel"`
	Duration time.Duration `json:"duration"`
}

// Message is a single entry in a session's conversation history
type Message struct {
	ID        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage creates a new conversation message with a generated UUID
func NewMessage(role, content string) Message {
	return Message{
		ID:        uuid.New(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// Session is the cached per-video aggregate of metadata, transcript chunks,
// summary, and conversation history. VideoID is the cache key and never
// changes; Chunks never change after creation; History only grows
type Session struct {
	VideoID  string             `json:"video_id"`
	Metadata Metadata           `json:"metadata"`
	Chunks   []transcript.Chunk `json:"chunks"`
	Summary  string             `json:"summary"`
	History  []Message          `json:"history"`
}

// NewSession creates a session with an empty summary and history
func NewSession(videoID string, metadata Metadata, chunks []transcript.Chunk) *Session {
	return &Session{
		VideoID:  videoID,
		Metadata: metadata,
		Chunks:   chunks,
		History:  []Message{},
	}
}

// TranscriptText returns the full transcript as the concatenation of all
// chunk texts, overlap included
func (s *Session) TranscriptText() string {
	parts := make([]string, len(s.Chunks))
	for i, chunk := range s.Chunks {
		parts[i] = chunk.Text
	}
	return strings.Join(parts, "\n\n")
}

// clone returns a copy safe to hand to callers or mutate for copy-on-write.
// Chunks are immutable so the slice header is shared; History is copied
func (s *Session) clone() *Session {
	history := make([]Message, len(s.History))
	copy(history, s.History)

	return &Session{
		VideoID:  s.VideoID,
		Metadata: s.Metadata,
		Chunks:   s.Chunks,
		Summary:  s.Summary,
		History:  history,
	}
}
