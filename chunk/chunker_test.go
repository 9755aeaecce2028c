package chunk

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tutorstack/corpus/core"
)

func TestChunker_SplitEmpty(t *testing.T) {
	c := New()

	for _, text := range []string{"", "   ", "\n\n\t"} {
		chunks, err := c.Split("doc-1", "empty.txt", text, nil)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	}
}

func TestChunker_SplitShortText(t *testing.T) {
	c := New()

	chunks, err := c.Split("doc-1", "short.txt", "a single short paragraph", nil)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	chunk := chunks[0]
	assert.Equal(t, "doc-1_chunk_0", chunk.ID)
	assert.Equal(t, 0, chunk.Index)
	assert.Equal(t, "a single short paragraph", chunk.Text)
	assert.Positive(t, chunk.TokenCount)
	assert.NotZero(t, chunk.ContentHash)
}

func TestChunker_SplitLongText(t *testing.T) {
	c := New(WithChunkSize(100), WithChunkOverlap(20))

	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("The quick brown fox jumps over the lazy dog. ")
	}

	chunks, err := c.Split("doc-1", "long.txt", b.String(), nil)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index, "indexes must be dense and zero-based")
		assert.Equal(t, core.ChunkID("doc-1", i), chunk.ID)
		assert.LessOrEqual(t, len(chunk.Text), 100)
		assert.NotEmpty(t, strings.TrimSpace(chunk.Text))
	}
}

func TestChunker_SplitDeterministic(t *testing.T) {
	c := New(WithChunkSize(80), WithChunkOverlap(10))
	text := strings.Repeat("Consistent input produces consistent chunks. ", 20)

	first, err := c.Split("doc-1", "a.txt", text, nil)
	require.NoError(t, err)
	second, err := c.Split("doc-1", "a.txt", text, nil)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Text, second[i].Text)
		assert.Equal(t, first[i].ContentHash, second[i].ContentHash)
	}
}

func TestChunker_Metadata(t *testing.T) {
	c := New(WithChunkSize(60), WithChunkOverlap(10))
	text := strings.Repeat("Metadata should land on every chunk. ", 10)

	chunks, err := c.Split("doc-42", "lecture.pdf", text, map[string]string{
		core.MetaModuleCode: "CS101",
	})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	total := chunks[len(chunks)-1].Metadata[core.MetaChunkTotal]
	for i, chunk := range chunks {
		assert.Equal(t, "doc-42", chunk.Metadata[core.MetaDocumentID])
		assert.Equal(t, "lecture.pdf", chunk.Metadata[core.MetaDocumentName])
		assert.Equal(t, "CS101", chunk.Metadata[core.MetaModuleCode])
		assert.Equal(t, total, chunk.Metadata[core.MetaChunkTotal])
		assert.Equal(t, strconv.Itoa(i), chunk.Metadata[core.MetaChunkIndex])
		assert.NotEmpty(t, chunk.Metadata[core.MetaUploadDate])
	}
}

func TestChunker_ParagraphBoundaries(t *testing.T) {
	c := New(WithChunkSize(50), WithChunkOverlap(0))

	text := "First paragraph stays together.\n\nSecond paragraph stays together."
	chunks, err := c.Split("doc-1", "paras.txt", text, nil)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "First paragraph stays together.", chunks[0].Text)
	assert.Equal(t, "Second paragraph stays together.", chunks[1].Text)
}

func TestTokenCounter_Count(t *testing.T) {
	counter := NewTokenCounter()

	assert.Zero(t, counter.Count(""))
	assert.Positive(t, counter.Count("hello world"))

	long := strings.Repeat("token counting sanity check ", 50)
	short := "short"
	assert.Greater(t, counter.Count(long), counter.Count(short))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, estimateTokens(""))
	assert.Equal(t, 1, estimateTokens("abc"))
	assert.Equal(t, 25, estimateTokens(strings.Repeat("a", 100)))
}
