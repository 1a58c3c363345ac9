package transcript

import (
	"strings"
	"time"
)

// Default chunk sizing, derived from a ~2000 token chunk and ~200 token
// overlap at roughly 4 characters per token
const (
	DefaultChunkSize    = 8000
	DefaultChunkOverlap = 800
)

// Caption is a single timestamped cue from a video's caption track
type Caption struct {
	Text     string        `json:"text"`
	Start    time.Duration `json:"start"`
	Duration time.Duration `json:"duration"`
}

// Chunk is a bounded span of concatenated caption text sized for LLM context
// windows. Start and End cover every caption contributing to the chunk,
// including captions shared with the previous chunk as overlap
type Chunk struct {
	Text  string        `json:"text"`
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Index int           `json:"index"`
}

// Chunker splits an ordered caption sequence into overlapping chunks. Chunk
// boundaries always fall on caption boundaries; the size budget is a soft
// target and never truncates a caption
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker with the given character budgets. Non-positive
// values fall back to the defaults
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap <= 0 {
		overlap = DefaultChunkOverlap
	}

	return &Chunker{
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// Chunk partitions captions into ordered chunks. Each caption's length counts
// one extra character for the joining space, empty captions included. A chunk
// is emitted once appending the next caption would exceed the size budget and
// the accumulator is non-empty, so a single oversized caption is carried
// whole rather than split
func (c *Chunker) Chunk(captions []Caption) []Chunk {
	if len(captions) == 0 {
		return nil
	}

	var chunks []Chunk

	// chunkStart is the index of the first caption in the current chunk,
	// curLen the accumulated length of captions[chunkStart:i]
	chunkStart := 0
	curLen := 0

	for i, caption := range captions {
		addLen := len(caption.Text) + 1

		if curLen > 0 && curLen+addLen > c.chunkSize {
			chunks = append(chunks, Chunk{
				Text:  joinCaptions(captions[chunkStart:i]),
				Start: captions[chunkStart].Start,
				End:   caption.Start,
				Index: len(chunks),
			})

			// Carry trailing captions into the next chunk as overlap.
			// The walk never reaches past the start of the chunk just
			// emitted
			overlapLen := 0
			j := i
			for j > chunkStart && overlapLen < c.overlap {
				j--
				overlapLen += len(captions[j].Text) + 1
			}

			chunkStart = j
			curLen = overlapLen + addLen
		} else {
			curLen += addLen
		}
	}

	// Flush the remainder. The accumulator is never empty here since every
	// caption either joined it or restarted it
	last := captions[len(captions)-1]
	chunks = append(chunks, Chunk{
		Text:  joinCaptions(captions[chunkStart:]),
		Start: captions[chunkStart].Start,
		End:   last.Start + last.Duration,
		Index: len(chunks),
	})

	return chunks
}

// Text concatenates the captions' text in order, joined with single spaces
func Text(captions []Caption) string {
	return joinCaptions(captions)
}

func joinCaptions(captions []Caption) string {
	parts := make([]string, len(captions))
	for i, caption := range captions {
		parts[i] = caption.Text
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
