package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-orchestrator/internal/domain"
	"rag-orchestrator/internal/graph"
)

func TestBuilder_BuildDocument_AuditIssue_LinksDepartmentAndClause(t *testing.T) {
	ctx := context.Background()
	store := graph.New(t.TempDir())
	b := graph.NewBuilder()

	doc := domain.Document{DocID: "d1", Filename: "issue.txt", DocType: domain.DocTypeAuditIssue, Title: "2023年度审计问题"}
	chunks := []domain.Chunk{{
		ChunkID: "d1:0",
		DocID:   "d1",
		Text:    "部门单位：财政部\n问题摘要：违反第十条规定超预算采购。\n整改情况：已整改。",
	}}

	require.NoError(t, b.BuildDocument(ctx, store, doc, chunks))

	assert.Greater(t, store.NodeCount(), 2)
	assert.Greater(t, store.EdgeCount(), 0)

	seeds := store.FindNodesByQuery("财政部预算采购问题", 24)
	assert.NotEmpty(t, seeds)
}

func TestBuilder_BuildDocument_Regulation_ExtractsControlRequirement(t *testing.T) {
	ctx := context.Background()
	store := graph.New(t.TempDir())
	b := graph.NewBuilder()

	doc := domain.Document{DocID: "d2", Filename: "reg.txt", DocType: domain.DocTypeInternalRegulation}
	chunks := []domain.Chunk{{
		ChunkID: "d2:0",
		DocID:   "d2",
		Text:    "第十条 采购活动应当遵循公开透明原则，不得规避招标程序。",
	}}

	require.NoError(t, b.BuildDocument(ctx, store, doc, chunks))
	assert.Greater(t, store.NodeCount(), 2)
}
