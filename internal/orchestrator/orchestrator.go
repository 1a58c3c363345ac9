package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ethanbaker/recap/internal/captions"
	"github.com/ethanbaker/recap/internal/chat"
	"github.com/ethanbaker/recap/internal/stores/video"
	"github.com/ethanbaker/recap/pkg/transcript"
)

// historyWindow is the number of recent conversation messages included in
// question prompts
const historyWindow = 10

// AnalyzeResult is the outcome of analyzing a video
type AnalyzeResult struct {
	VideoID  string         `json:"video_id"`
	Metadata video.Metadata `json:"metadata"`
	Summary  string         `json:"summary"`
}

// Orchestrator sequences the caption source, transcript chunker, session
// store, and chat capability behind the two entry points Analyze and
// AskQuestion
type Orchestrator struct {
	captions captions.Source
	chat     chat.Completer
	sessions *video.Store
	chunker  *transcript.Chunker
	prompts  *Prompts
}

// New creates an orchestrator. A nil chunker or prompts falls back to
// defaults
func New(source captions.Source, completer chat.Completer, sessions *video.Store, chunker *transcript.Chunker, prompts *Prompts) *Orchestrator {
	if chunker == nil {
		chunker = transcript.NewChunker(0, 0)
	}
	if prompts == nil {
		prompts = DefaultPrompts()
	}

	return &Orchestrator{
		captions: source,
		chat:     completer,
		sessions: sessions,
		chunker:  chunker,
		prompts:  prompts,
	}
}

// Analyze resolves a video URL to a cached or freshly built session and
// returns its metadata and summary. On a cache miss it fetches captions,
// chunks the transcript, stores the session, and generates the summary
func (o *Orchestrator) Analyze(ctx context.Context, videoURL string) (*AnalyzeResult, error) {
	videoID, err := captions.ParseVideoID(videoURL)
	if err != nil {
		return nil, err
	}

	if sess, ok := o.sessions.Get(videoID); ok {
		// A cached session can be missing its summary if a previous
		// summary call failed after the session was stored
		if sess.Summary != "" {
			return &AnalyzeResult{
				VideoID:  videoID,
				Metadata: sess.Metadata,
				Summary:  sess.Summary,
			}, nil
		}
		return o.summarize(ctx, sess)
	}

	fetched, err := o.captions.Fetch(ctx, videoURL)
	if err != nil {
		return nil, err
	}

	chunks := o.chunker.Chunk(fetched.Captions)
	sess := video.NewSession(fetched.VideoID, fetched.Metadata, chunks)
	o.sessions.Put(sess)

	return o.summarize(ctx, sess)
}

// Session returns a copy of the cached session for a video ID, if present
func (o *Orchestrator) Session(videoID string) (*video.Session, bool) {
	return o.sessions.Get(videoID)
}

// summarize generates and caches the summary for a stored session
func (o *Orchestrator) summarize(ctx context.Context, sess *video.Session) (*AnalyzeResult, error) {
	prompt := fmt.Sprintf(o.prompts.Summary, sess.TranscriptText())

	summary, err := o.chat.Complete(ctx, []chat.Message{
		{Role: chat.RoleUser, Content: prompt},
	})
	if err != nil {
		return nil, fmt.Errorf("generating summary: %w", err)
	}

	if err := o.sessions.UpdateSummary(sess.VideoID, summary); err != nil {
		// The session expired between Put and here; the summary is
		// still valid for this response
		log.Printf("[ORCHESTRATOR]: Failed to cache summary for %s: %v", sess.VideoID, err)
	}

	return &AnalyzeResult{
		VideoID:  sess.VideoID,
		Metadata: sess.Metadata,
		Summary:  summary,
	}, nil
}

// AskQuestion answers a question about an analyzed video, streaming the
// answer as text fragments on the returned channel. Errors are surfaced as a
// single fragment carrying a message rather than an error value, so a
// consumer that already started writing a response stays in a valid state.
// The channel is closed when the answer is complete, an error occurred, or
// ctx is cancelled. A cancelled answer is not persisted to history
func (o *Orchestrator) AskQuestion(ctx context.Context, videoID, question string) <-chan string {
	out := make(chan string)

	go func() {
		defer close(out)

		if !o.sessions.Exists(videoID) {
			o.emit(ctx, out, "This video has not been analyzed yet. Please analyze it before asking questions.")
			return
		}

		if err := o.sessions.AddMessage(videoID, video.NewMessage(video.RoleUser, question)); err != nil {
			o.emit(ctx, out, "Sorry, something went wrong while recording your question. Please try again.")
			return
		}

		// Read back the session after the append so the prompt includes
		// the latest history
		sess, ok := o.sessions.Get(videoID)
		if !ok {
			o.emit(ctx, out, "This video's session has expired. Please analyze it again.")
			return
		}

		stream, err := o.chat.Stream(ctx, o.questionMessages(sess))
		if err != nil {
			log.Printf("[ORCHESTRATOR]: Failed to start answer stream for %s: %v", videoID, err)
			o.emit(ctx, out, "Sorry, something went wrong while answering. Please try again.")
			return
		}
		defer stream.Close()

		// Forward fragments downstream while accumulating them for the
		// history append after the stream is drained
		var answer strings.Builder
		for stream.Next() {
			fragment := stream.Current()
			answer.WriteString(fragment)

			if !o.emit(ctx, out, fragment) {
				// Cancelled mid-stream: delivered output stands, but an
				// incomplete answer is not recorded as final
				return
			}
		}

		if err := stream.Err(); err != nil {
			log.Printf("[ORCHESTRATOR]: Answer stream for %s failed: %v", videoID, err)
			o.emit(ctx, out, "Sorry, the answer was interrupted by an error. Please try again.")
			return
		}

		if ctx.Err() != nil {
			return
		}

		// Already-streamed output cannot be unsent, so a failure here is
		// logged rather than reported to the caller
		if err := o.sessions.AddMessage(videoID, video.NewMessage(video.RoleAssistant, answer.String())); err != nil {
			log.Printf("[ORCHESTRATOR]: Failed to record answer for %s: %v", videoID, err)
		}
	}()

	return out
}

// emit sends a fragment downstream, reporting false if ctx was cancelled
// before the consumer took it
func (o *Orchestrator) emit(ctx context.Context, out chan<- string, fragment string) bool {
	select {
	case out <- fragment:
		return true
	case <-ctx.Done():
		return false
	}
}

// questionMessages builds the prompt for a question: a grounding system
// message followed by the most recent conversation turns
func (o *Orchestrator) questionMessages(sess *video.Session) []chat.Message {
	system := fmt.Sprintf(o.prompts.Question,
		sess.Metadata.Title,
		sess.Metadata.Channel,
		formatDuration(sess.Metadata.Duration),
		sess.Summary,
		sess.TranscriptText(),
	)

	messages := []chat.Message{{Role: chat.RoleSystem, Content: system}}

	history := sess.History
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	for _, msg := range history {
		role := chat.RoleUser
		if msg.Role == video.RoleAssistant {
			role = chat.RoleAssistant
		}
		messages = append(messages, chat.Message{Role: role, Content: msg.Content})
	}

	return messages
}
