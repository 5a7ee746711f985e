package blocks

import (
	"testing"

	"github.com/markramm/pyrite/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_S3_HeadingParagraphList(t *testing.T) {
	body := "# H\nPara1\n\n- item ^mark1"

	got := Extract(body)
	require.Len(t, got, 3)

	assert.Equal(t, model.BlockHeading, got[0].Type)
	assert.Equal(t, "H", got[0].Content)
	assert.Equal(t, 0, got[0].Position)

	assert.Equal(t, model.BlockParagraph, got[1].Type)
	assert.Equal(t, "Para1", got[1].Content)
	assert.Equal(t, "H", got[1].Heading)
	assert.Equal(t, 1, got[1].Position)

	assert.Equal(t, model.BlockList, got[2].Type)
	assert.Equal(t, "mark1", got[2].BlockID)
	assert.Equal(t, 2, got[2].Position)
}

func TestExtract_Deterministic(t *testing.T) {
	body := "# Title\n\nSome paragraph text.\n\n- one\n- two\n\n```go\nfmt.Println(\"hi\")\n```\n"

	first := Extract(body)
	second := Extract(body)
	require.Equal(t, first, second)

	for i, b := range first {
		assert.Equal(t, i, b.Position)
	}
}

func TestExtract_FencedCodeBlock(t *testing.T) {
	body := "```go\nfunc main() {}\n```"

	got := Extract(body)
	require.Len(t, got, 1)
	assert.Equal(t, model.BlockCode, got[0].Type)
	assert.Contains(t, got[0].Content, "func main() {}")
}

func TestExtract_BlockIDStableWithoutMarker(t *testing.T) {
	body := "Just a paragraph with no marker."

	got := Extract(body)
	require.Len(t, got, 1)
	assert.Len(t, got[0].BlockID, 8)

	// Re-parsing identical content yields the identical hash-derived ID.
	again := Extract(body)
	assert.Equal(t, got[0].BlockID, again[0].BlockID)
}

func TestExtract_ListAccumulatesAcrossBlankLines(t *testing.T) {
	body := "- item one\n\n- item two\n\nParagraph after list."

	got := Extract(body)
	require.Len(t, got, 2)
	assert.Equal(t, model.BlockList, got[0].Type)
	assert.Equal(t, model.BlockParagraph, got[1].Type)
}

func TestExtract_EmptyBody(t *testing.T) {
	got := Extract("")
	assert.Empty(t, got)
}
