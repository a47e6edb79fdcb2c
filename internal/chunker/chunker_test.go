package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkScoresDomainKeywordsAndTerms(t *testing.T) {
	text := "You need a licence before you can drive in Ontario.\n\n" +
		"Rain reduces visibility on wet roads."

	chunks, err := Chunk(text, []string{"visibility"}, Config{ChunkSize: 80, ChunkOverlap: 0})
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	// licence + drive + ontario, two points each.
	assert.Equal(t, 6, chunks[0].ImportanceScore)
	assert.Contains(t, chunks[0].Content, "licence")
	assert.True(t, chunks[0].HasDomainTerms)

	// One importance-term hit, no domain keywords.
	assert.Equal(t, 1, chunks[1].ImportanceScore)
	assert.False(t, chunks[1].HasDomainTerms)
}

func TestChunkOrdersByScoreDescending(t *testing.T) {
	text := "Plain paragraph about weather and rain.\n\n" +
		"The G1 and G2 license tests are run by the ministry in Ontario.\n\n" +
		"Another plain paragraph about parking etiquette."

	chunks, err := Chunk(text, nil, Config{ChunkSize: 80, ChunkOverlap: 0})
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	for i := 1; i < len(chunks); i++ {
		assert.GreaterOrEqual(t, chunks[i-1].ImportanceScore, chunks[i].ImportanceScore)
	}
	assert.Contains(t, chunks[0].Content, "G1")
}

func TestChunkIndexFollowsFinalOrder(t *testing.T) {
	text := "Plain text one.\n\nOntario license test.\n\nPlain text two."
	chunks, err := Chunk(text, nil, Config{ChunkSize: 40, ChunkOverlap: 0})
	require.NoError(t, err)

	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}
}

func TestChunkIsDeterministic(t *testing.T) {
	text := "You need a licence before you can drive in Ontario.\n\n" +
		"Rain reduces visibility on wet roads.\n\n" +
		"The G1 test checks your knowledge of road signs."

	first, err := Chunk(text, []string{"road", "signs"}, Config{ChunkSize: 80, ChunkOverlap: 10})
	require.NoError(t, err)
	second, err := Chunk(text, []string{"road", "signs"}, Config{ChunkSize: 80, ChunkOverlap: 10})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestChunkSkipsBlankPieces(t *testing.T) {
	chunks, err := Chunk("\n\n  \n\n", nil, Config{})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkRespectsSizeLimit(t *testing.T) {
	text := strings.Repeat("All drivers must obey posted signs. ", 100)
	chunks, err := Chunk(text, nil, Config{ChunkSize: 200, ChunkOverlap: 50})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Content), 200)
	}
}

func TestChunkCapsScoringTerms(t *testing.T) {
	// Only the first twenty ranked terms may contribute to the score.
	terms := make([]string, 30)
	for i := range terms {
		terms[i] = "zzznomatch"
	}
	terms[25] = "signal" // ranked past the cap, must not count

	chunks, err := Chunk("Use your turn signal early.", terms, Config{})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].ImportanceScore)
}
