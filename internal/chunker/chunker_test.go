package chunker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-orchestrator/internal/chunker"
	"rag-orchestrator/internal/domain"
)

func blocks(text string) []domain.ParsedBlock {
	return []domain.ParsedBlock{{Text: text, PageNo: 1, BlockKind: domain.BlockParagraph}}
}

func TestChunk_Regulation_S1(t *testing.T) {
	c := chunker.New()
	out, err := c.Chunk("doc1", blocks("第一条 A内容。第二条 B内容。"), domain.ChunkerOptions{Mode: domain.ChunkerRegulation})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "第一条 A内容。", out[0].Header)
	assert.Equal(t, "第二条 B内容。", out[1].Header)
	assert.Equal(t, domain.BoundaryArticle, out[0].SemanticBoundary)
	assert.Equal(t, "doc1:0", out[0].ChunkID)
	assert.Equal(t, "doc1:1", out[1].ChunkID)
}

func TestChunk_Regulation_S3_Update(t *testing.T) {
	c := chunker.New()
	out, err := c.Chunk("doc1", blocks("第一条 A内容。第二条 B修改。第三条 C新增。"), domain.ChunkerOptions{Mode: domain.ChunkerRegulation})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "第二条 B修改。", out[1].Header)
}

func TestChunk_ZeroChunks_Rejected(t *testing.T) {
	c := chunker.New()
	_, err := c.Chunk("doc1", nil, domain.ChunkerOptions{Mode: domain.ChunkerDefault})
	require.Error(t, err)
	assert.Equal(t, domain.KindChunkError, domain.KindOf(err))
}

func TestChunk_AuditIssue_OneRowPerChunk(t *testing.T) {
	c := chunker.New()
	rows := []domain.ParsedBlock{
		{Text: "issue1 | dept A | 未整改", PageNo: 1, BlockKind: domain.BlockTableRow},
		{Text: "issue2 | dept B | 已整改", PageNo: 1, BlockKind: domain.BlockTableRow},
	}
	out, err := c.Chunk("doc2", rows, domain.ChunkerOptions{Mode: domain.ChunkerAuditIssue})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, domain.BoundaryRow, out[0].SemanticBoundary)
}

func TestChunk_Smart_SelectsRegulation(t *testing.T) {
	c := chunker.New()
	out, err := c.Chunk("doc3", blocks("第一条 X。第二条 Y。"), domain.ChunkerOptions{Mode: domain.ChunkerSmart})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, domain.BoundaryArticle, out[0].SemanticBoundary)
}

func TestChunk_Default_NoEmptyChunks(t *testing.T) {
	c := chunker.New()
	longPara := ""
	for i := 0; i < 50; i++ {
		longPara += "这是一个很长的段落用于测试分块逻辑是否正确工作并且能够处理超长文本。"
	}
	out, err := c.Chunk("doc4", blocks(longPara), domain.ChunkerOptions{Mode: domain.ChunkerDefault, Size: 200})
	require.NoError(t, err)
	require.NotEmpty(t, out)
	for _, ch := range out {
		assert.NotEmpty(t, ch.Text)
		assert.LessOrEqual(t, ch.CharCount, 400)
	}
}
