package graph

import (
	"context"
	"sort"

	"rag-orchestrator/internal/domain"
)

// defaultMaxVisitedNodes is N_MAX (spec §4.G): the total number of nodes a
// single Search's bounded-BFS expansion may visit across all of its seeds,
// independent of and in addition to the hop-count bound. Without it a graph
// with a handful of very high-degree hub nodes (e.g. a department entity
// linked to hundreds of issues) turns one query into an unbounded traversal.
const defaultMaxVisitedNodes = 200

// Retriever is the Graph Retriever component (spec §4.G): it seeds a
// bounded-hop breadth-first expansion from the query's matched entity nodes
// and scores reachable chunk nodes by decayed seed-score accumulation.
type Retriever struct {
	store    domain.GraphStore
	registry domain.Registry
}

func NewRetriever(store domain.GraphStore, registry domain.Registry) *Retriever {
	return &Retriever{store: store, registry: registry}
}

// Search returns up to topK chunk hits reachable within hops of the seed
// nodes matched against query, restricted to doc_types when non-empty
// (spec §10.2).
func (r *Retriever) Search(ctx context.Context, query string, topK int, docTypes []domain.DocType, hops, maxSeedNodes int) ([]domain.SearchResult, error) {
	seeds := r.store.FindNodesByQuery(query, maxSeedNodes)
	if len(seeds) == 0 {
		return nil, nil
	}

	allowChunks := r.store.IterChunkNodes(docTypes)
	chunkScores := make(map[string]float64)
	visited := make(map[string]struct{}, defaultMaxVisitedNodes)

	for _, seed := range seeds {
		if err := ctx.Err(); err != nil {
			return nil, domain.NewError(domain.KindCancelled, "graph search cancelled", err)
		}
		if len(visited) >= defaultMaxVisitedNodes {
			break
		}
		r.expand(seed.NodeID, seed.Score, hops, allowChunks, chunkScores, visited, defaultMaxVisitedNodes)
	}

	type ranked struct {
		nodeID string
		score  float64
	}
	rankedList := make([]ranked, 0, len(chunkScores))
	for id, score := range chunkScores {
		rankedList = append(rankedList, ranked{id, score})
	}
	sort.Slice(rankedList, func(i, j int) bool { return rankedList[i].score > rankedList[j].score })
	if topK > 0 && len(rankedList) > topK {
		rankedList = rankedList[:topK]
	}

	out := make([]domain.SearchResult, 0, len(rankedList))
	for _, rk := range rankedList {
		node, ok := r.store.GetNode(rk.nodeID)
		if !ok {
			continue
		}
		chunkID := node.Attrs["chunk_id"]
		if chunkID == "" {
			continue
		}
		chunk, err := r.registry.GetChunk(ctx, chunkID)
		if err != nil {
			continue
		}
		out = append(out, domain.SearchResult{
			ChunkID:         chunkID,
			DocID:           node.Attrs["doc_id"],
			Score:           rk.score,
			Text:            chunk.Text,
			RetrievalMethod: "graph",
			Metadata: domain.VectorMetadata{
				DocType:     domain.DocType(node.Attrs["doc_type"]),
				Title:       node.Attrs["title"],
				Filename:    node.Attrs["filename"],
				Header:      chunk.Header,
				SectionPath: chunk.SectionPath,
				PageNos:     chunk.PageNos,
			},
		})
	}
	return out, nil
}

// expand runs a bounded-hop BFS from one seed node, crediting every chunk
// node it reaches (subject to allowChunks, when non-empty) with
// seedScore/(depth+1) — closer chunks receive a larger share of the seed's
// score (spec §10.2). visited is shared across every seed's expand call
// within one Search: once it holds maxVisited distinct nodes, no node newly
// discovered by ANY seed is enqueued, bounding the whole search's traversal
// at N_MAX regardless of hop count or seed count. Neighbors are already
// weight-sorted descending, so when the cap does cut a node's frontier
// short, the strongest relations are the ones that got explored.
func (r *Retriever) expand(seedID string, seedScore float64, hops int, allowChunks map[string]struct{}, chunkScores map[string]float64, visited map[string]struct{}, maxVisited int) {
	type item struct {
		nodeID string
		depth  int
	}
	queue := []item{{seedID, 0}}
	seenDepth := map[string]int{seedID: 0}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if _, ok := visited[cur.nodeID]; !ok {
			if len(visited) >= maxVisited {
				continue
			}
			visited[cur.nodeID] = struct{}{}
		}

		node, ok := r.store.GetNode(cur.nodeID)
		if !ok {
			continue
		}

		if node.Type == EntityChunk {
			if len(allowChunks) == 0 {
				chunkScores[cur.nodeID] += seedScore / float64(cur.depth+1)
			} else if _, allowed := allowChunks[cur.nodeID]; allowed {
				chunkScores[cur.nodeID] += seedScore / float64(cur.depth+1)
			}
		}

		if cur.depth >= hops {
			continue
		}

		for _, edge := range r.store.Neighbors(cur.nodeID) {
			nextDepth := cur.depth + 1
			if best, seen := seenDepth[edge.Target]; seen && best <= nextDepth {
				continue
			}
			if _, seenGlobally := visited[edge.Target]; !seenGlobally && len(visited) >= maxVisited {
				continue
			}
			seenDepth[edge.Target] = nextDepth
			queue = append(queue, item{edge.Target, nextDepth})
		}
	}
}
