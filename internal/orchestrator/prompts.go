package orchestrator

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default prompt templates, used when no prompts file is configured.
// Summary takes the transcript text; Question takes title, channel,
// duration, summary, and transcript text, in that order
const (
	defaultSummaryPrompt = `You are an assistant that summarizes YouTube videos from their transcripts.
Write a concise summary of the following transcript. Lead with the main topic,
then cover the key points in a short bulleted list.

Transcript:
%s`

	defaultQuestionPrompt = `You are an assistant answering questions about a YouTube video.
Ground every answer in the transcript below. If the transcript does not
contain the answer, say so instead of guessing.

Video: %s
Channel: %s
Duration: %s

Summary:
%s

Transcript:
%s`
)

// Prompts holds the prompt templates used by the orchestrator
type Prompts struct {
	Summary  string `yaml:"summary"`
	Question string `yaml:"question"`
}

// DefaultPrompts returns the compiled-in prompt templates
func DefaultPrompts() *Prompts {
	return &Prompts{
		Summary:  defaultSummaryPrompt,
		Question: defaultQuestionPrompt,
	}
}

// LoadPrompts reads prompt templates from a YAML file, falling back to the
// defaults for the file itself or any template missing from it
func LoadPrompts(path string) (*Prompts, error) {
	prompts := DefaultPrompts()

	if path == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return prompts, nil
		}
		return nil, fmt.Errorf("failed to read prompts file %s: %w", path, err)
	}

	var loaded Prompts
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file %s: %w", path, err)
	}

	if loaded.Summary != "" {
		prompts.Summary = loaded.Summary
	}
	if loaded.Question != "" {
		prompts.Question = loaded.Question
	}

	return prompts, nil
}

// formatDuration renders a video duration as m:ss or h:mm:ss
func formatDuration(d time.Duration) string {
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
