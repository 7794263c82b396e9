package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkTextEmpty(t *testing.T) {
	assert.Empty(t, ChunkText(""))
}

func TestChunkTextOverlaps(t *testing.T) {
	text := strings.Repeat("a", ChunkSize+100)

	chunks := ChunkText(text)
	assert.Len(t, chunks, 2)
	assert.Len(t, chunks[0], ChunkSize)
}

func TestBuildDocumentPromptCapsChunks(t *testing.T) {
	// Enough text for well over MaxDocumentChunks chunks
	text := strings.Repeat("b", (ChunkSize-ChunkOverlap)*(MaxDocumentChunks+5))

	prompt := BuildDocumentPrompt(text, "Summarize this")

	assert.True(t, strings.HasPrefix(prompt, "Summarize this"))
	assert.Less(t, len(prompt), (MaxDocumentChunks+2)*ChunkSize)
}
