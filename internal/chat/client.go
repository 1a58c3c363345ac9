package chat

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/packages/ssestream"

	"github.com/ethanbaker/recap/pkg/utils"
)

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message sent to the model
type Message struct {
	Role    string
	Content string
}

// Completer is the chat-completion capability consumed by the orchestrator
type Completer interface {
	// Complete runs a blocking chat completion and returns the full text
	Complete(ctx context.Context, messages []Message) (string, error)

	// Stream runs a streaming chat completion. The returned stream is
	// finite and not restartable; callers must drain or Close it
	Stream(ctx context.Context, messages []Message) (FragmentStream, error)
}

// FragmentStream is a lazy sequence of text fragments from a streaming
// completion, shaped like the OpenAI SDK's SSE stream
type FragmentStream interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}

// Client implements Completer against the OpenAI API
type Client struct {
	client openai.Client
	model  openai.ChatModel
}

// NewClient creates an OpenAI-backed chat client from config. Requires
// OPENAI_API_KEY; OPENAI_MODEL defaults to gpt-4o-mini
func NewClient(cfg *utils.Config) (*Client, error) {
	apiKey := cfg.Get("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set in config or environment")
	}

	model := cfg.GetWithDefault("OPENAI_MODEL", "gpt-4o-mini")

	return &Client{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  openai.ChatModel(model),
	}, nil
}

// Complete runs a blocking chat completion
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: toParams(messages),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// Stream runs a streaming chat completion
func (c *Client) Stream(ctx context.Context, messages []Message) (FragmentStream, error) {
	stream := c.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: toParams(messages),
	})

	return &openaiStream{stream: stream}, nil
}

// openaiStream adapts the SDK's chunk stream into text fragments, skipping
// chunks with no content delta
type openaiStream struct {
	stream  *ssestream.Stream[openai.ChatCompletionChunk]
	current string
}

func (s *openaiStream) Next() bool {
	for s.stream.Next() {
		chunk := s.stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			s.current = delta
			return true
		}
	}
	return false
}

func (s *openaiStream) Current() string {
	return s.current
}

func (s *openaiStream) Err() error {
	return s.stream.Err()
}

func (s *openaiStream) Close() error {
	return s.stream.Close()
}

func toParams(messages []Message) []openai.ChatCompletionMessageParamUnion {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			params = append(params, openai.SystemMessage(m.Content))
		case RoleAssistant:
			params = append(params, openai.AssistantMessage(m.Content))
		default:
			params = append(params, openai.UserMessage(m.Content))
		}
	}
	return params
}
