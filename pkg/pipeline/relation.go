package pipeline

import (
	"github.com/isEarth/earth-api/pkg/common"
)

// BuildRelations turns reconstructed groups into the node and edge lists of
// a graph batch. Every sentence becomes one node carrying its embedding, and
// every group becomes a linear chain: one directed edge per adjacent pair,
// pointing from the earlier sentence to the later one. A single-sentence
// group yields one node and no edges; edges never cross group boundaries.
func BuildRelations(groups []common.SentenceGroup) ([]common.Node, []common.Edge) {
	total := 0
	for _, group := range groups {
		total += group.Len()
	}

	nodes := make([]common.Node, 0, total)
	edges := make([]common.Edge, 0)
	for _, group := range groups {
		for i, sentence := range group.Sentences {
			nodes = append(nodes, common.Node{
				Text:      sentence,
				Embedding: group.Embeddings[i],
			})
			if i > 0 {
				edges = append(edges, common.Edge{
					From: group.Sentences[i-1],
					To:   sentence,
				})
			}
		}
	}
	return nodes, edges
}
