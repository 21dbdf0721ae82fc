package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-orchestrator/internal/domain"
	"rag-orchestrator/internal/graph"
)

func TestStore_AddNodeEdge_CoalescesEvidence(t *testing.T) {
	s := graph.New(t.TempDir())

	merged := s.AddNode(domain.GraphNode{NodeID: "a", Type: "x", Name: "A"})
	assert.False(t, merged)
	merged = s.AddNode(domain.GraphNode{NodeID: "a", Type: "x", Name: "A", Evidence: []domain.Evidence{{DocID: "d1"}}})
	assert.True(t, merged)

	s.AddNode(domain.GraphNode{NodeID: "b", Type: "y", Name: "B"})

	merged = s.AddEdge(domain.GraphEdge{Source: "a", Target: "b", Relation: "rel", Evidence: []domain.Evidence{{DocID: "d1"}}})
	assert.False(t, merged)
	merged = s.AddEdge(domain.GraphEdge{Source: "a", Target: "b", Relation: "rel", Evidence: []domain.Evidence{{DocID: "d2"}}})
	assert.True(t, merged)

	assert.Equal(t, 2, s.NodeCount())
	assert.Equal(t, 1, s.EdgeCount())

	neighbors := s.Neighbors("a")
	require.Len(t, neighbors, 1)
	assert.Equal(t, 2, neighbors[0].EvidenceCount)
}

func TestStore_AddEdge_MergeSumsWeightCappedAtMax(t *testing.T) {
	s := graph.New(t.TempDir())
	s.AddNode(domain.GraphNode{NodeID: "a", Type: "x", Name: "A"})
	s.AddNode(domain.GraphNode{NodeID: "b", Type: "y", Name: "B"})

	s.AddEdge(domain.GraphEdge{Source: "a", Target: "b", Relation: "rel", Weight: 2.0})
	s.AddEdge(domain.GraphEdge{Source: "a", Target: "b", Relation: "rel", Weight: 2.0})
	neighbors := s.Neighbors("a")
	require.Len(t, neighbors, 1)
	assert.InDelta(t, 4.0, neighbors[0].Weight, 1e-9)

	s.AddEdge(domain.GraphEdge{Source: "a", Target: "b", Relation: "rel", Weight: 2.0})
	neighbors = s.Neighbors("a")
	assert.InDelta(t, graph.MaxEdgeWeight, neighbors[0].Weight, 1e-9)
}

func TestStore_Neighbors_SortedByWeightDescending(t *testing.T) {
	s := graph.New(t.TempDir())
	s.AddNode(domain.GraphNode{NodeID: "a", Type: "x", Name: "A"})
	s.AddNode(domain.GraphNode{NodeID: "b", Type: "y", Name: "B"})
	s.AddNode(domain.GraphNode{NodeID: "c", Type: "y", Name: "C"})

	s.AddEdge(domain.GraphEdge{Source: "a", Target: "b", Relation: "weak", Weight: 0.5})
	s.AddEdge(domain.GraphEdge{Source: "a", Target: "c", Relation: "strong", Weight: 1.5})

	neighbors := s.Neighbors("a")
	require.Len(t, neighbors, 2)
	assert.Equal(t, "c", neighbors[0].Target)
	assert.Equal(t, "b", neighbors[1].Target)
}

func TestStore_DeleteByDoc_DropsOrphanedEvidence(t *testing.T) {
	s := graph.New(t.TempDir())
	s.AddNode(domain.GraphNode{NodeID: "chunk:1", Type: graph.EntityChunk, Name: "1", Evidence: []domain.Evidence{{DocID: "d1"}}})
	s.AddNode(domain.GraphNode{NodeID: "dept:1", Type: graph.EntityDepartment, Name: "财政部"})
	s.AddEdge(domain.GraphEdge{Source: "chunk:1", Target: "dept:1", Relation: graph.RelMentions, Evidence: []domain.Evidence{{DocID: "d1"}}})

	require.NoError(t, s.DeleteByDoc("d1"))
	assert.Equal(t, 0, s.EdgeCount())
	_, ok := s.GetNode("chunk:1")
	assert.False(t, ok)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := graph.New(dir)
	s.AddNode(domain.GraphNode{NodeID: "a", Type: "x", Name: "A"})
	require.NoError(t, s.Save(ctx))

	loaded := graph.New(dir)
	require.NoError(t, loaded.Load(ctx))
	assert.Equal(t, 1, loaded.NodeCount())
}

func TestStore_FindNodesByQuery_SkipsChunkAndDocumentNodes(t *testing.T) {
	s := graph.New(t.TempDir())
	s.AddNode(domain.GraphNode{NodeID: "chunk:1", Type: graph.EntityChunk, Name: "预算"})
	s.AddNode(domain.GraphNode{NodeID: "topic:1", Type: graph.EntityIssueTopic, Name: "预算执行"})

	matches := s.FindNodesByQuery("预算执行情况", 10)
	require.Len(t, matches, 1)
	assert.Equal(t, "topic:1", matches[0].NodeID)
}
