package transcript

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeCaptions builds n captions of textLen characters, each secsEach seconds
// long, back to back
func makeCaptions(n, textLen int, secsEach time.Duration) []Caption {
	captions := make([]Caption, n)
	for i := range captions {
		captions[i] = Caption{
			Text:     strings.Repeat(string(rune('a'+i%26)), textLen),
			Start:    time.Duration(i) * secsEach,
			Duration: secsEach,
		}
	}
	return captions
}

func TestChunkerEmptyInput(t *testing.T) {
	chunker := NewChunker(100, 20)
	assert.Empty(t, chunker.Chunk(nil))
	assert.Empty(t, chunker.Chunk([]Caption{}))
}

func TestChunkerSingleChunk(t *testing.T) {
	chunker := NewChunker(100, 20)

	chunks := chunker.Chunk([]Caption{
		{Text: "Hello", Start: 0, Duration: 2 * time.Second},
		{Text: "world", Start: 2 * time.Second, Duration: 2 * time.Second},
	})

	require.Len(t, chunks, 1)
	assert.Equal(t, "Hello world", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, time.Duration(0), chunks[0].Start)
	assert.Equal(t, 4*time.Second, chunks[0].End)
}

func TestChunkerMultipleChunks(t *testing.T) {
	captions := makeCaptions(50, 200, time.Second)
	chunker := NewChunker(1000, 300)

	chunks := chunker.Chunk(captions)
	require.Greater(t, len(chunks), 1)

	t.Run("indices are contiguous from zero", func(t *testing.T) {
		for i, chunk := range chunks {
			assert.Equal(t, i, chunk.Index)
		}
	})

	t.Run("consecutive chunks overlap by at least one caption", func(t *testing.T) {
		// With 200-char captions and a 300-char overlap budget, each
		// chunk restarts two captions back
		for i := 1; i < len(chunks); i++ {
			prevTail := chunks[i-1].Text[len(chunks[i-1].Text)-200:]
			assert.Contains(t, chunks[i].Text, prevTail)
		}
	})

	t.Run("start and end times are ordered", func(t *testing.T) {
		for i, chunk := range chunks {
			assert.Less(t, chunk.Start, chunk.End, "chunk %d", i)
			if i > 0 {
				// Overlap pulls a chunk's start before the previous
				// chunk's end, but never before its start
				assert.Greater(t, chunk.Start, chunks[i-1].Start)
			}
		}
	})
}

func TestChunkerBoundaryBudget(t *testing.T) {
	captions := makeCaptions(50, 200, time.Second)
	chunker := NewChunker(1000, 300)

	// No chunk may exceed the budget by more than one caption + separator
	for _, chunk := range chunker.Chunk(captions) {
		assert.LessOrEqual(t, len(chunk.Text), 1000+200+1, "chunk %d", chunk.Index)
	}
}

func TestChunkerReconstructsTranscript(t *testing.T) {
	captions := makeCaptions(40, 37, time.Second)
	chunker := NewChunker(150, 40)

	chunks := chunker.Chunk(captions)
	require.NotEmpty(t, chunks)

	// Each caption's text must survive into the chunk stream in order.
	// Walk the chunks and consume captions greedily
	full := ""
	for _, chunk := range chunks {
		full += " " + chunk.Text
	}
	for _, caption := range captions {
		idx := strings.Index(full, caption.Text)
		require.GreaterOrEqual(t, idx, 0, "caption %q missing from chunk stream", caption.Text)
		full = full[idx+len(caption.Text):]
	}
}

func TestChunkerOversizedCaption(t *testing.T) {
	chunker := NewChunker(50, 10)

	huge := strings.Repeat("x", 500)
	chunks := chunker.Chunk([]Caption{
		{Text: "intro", Start: 0, Duration: time.Second},
		{Text: huge, Start: time.Second, Duration: 10 * time.Second},
		{Text: "outro", Start: 11 * time.Second, Duration: time.Second},
	})

	// The oversized caption is never split
	found := false
	for _, chunk := range chunks {
		if strings.Contains(chunk.Text, huge) {
			found = true
		}
	}
	assert.True(t, found, "oversized caption must be carried whole")
}

func TestChunkerEmptyCaptionText(t *testing.T) {
	chunker := NewChunker(20, 5)

	// Empty captions still count one separator char each and must not
	// produce panics or stray whitespace at chunk edges
	chunks := chunker.Chunk([]Caption{
		{Text: "", Start: 0, Duration: time.Second},
		{Text: "hello", Start: time.Second, Duration: time.Second},
		{Text: "", Start: 2 * time.Second, Duration: time.Second},
		{Text: "world again here", Start: 3 * time.Second, Duration: time.Second},
		{Text: "and more", Start: 4 * time.Second, Duration: time.Second},
	})

	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.Equal(t, strings.TrimSpace(chunk.Text), chunk.Text)
	}
}

func TestChunkerDefaults(t *testing.T) {
	chunker := NewChunker(0, 0)

	assert.Equal(t, DefaultChunkSize, chunker.chunkSize)
	assert.Equal(t, DefaultChunkOverlap, chunker.overlap)
}

func TestChunkerScalesWithInput(t *testing.T) {
	chunker := NewChunker(1000, 100)

	for _, n := range []int{1, 5, 25, 100} {
		t.Run(fmt.Sprintf("%d captions", n), func(t *testing.T) {
			chunks := chunker.Chunk(makeCaptions(n, 100, time.Second))
			require.NotEmpty(t, chunks)
			assert.Equal(t, 0, chunks[0].Index)
			assert.Equal(t, len(chunks)-1, chunks[len(chunks)-1].Index)
		})
	}
}
