package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/isEarth/earth-api/pkg/ai"
	"github.com/isEarth/earth-api/pkg/common"
)

const defaultSimilarityThreshold = 0.6

// Grouper clusters ordered sentences into narrative chains. Implementations
// must keep input order: concatenating the groups' sentences reproduces the
// input, and each group's embeddings stay index-aligned with its sentences.
type Grouper interface {
	GroupSentences(ctx context.Context, sentences []string) ([]common.SentenceGroup, error)
}

// EmbeddingGrouper groups consecutive sentences by embedding similarity. A
// new group starts whenever the cosine similarity between a sentence and its
// predecessor drops below the threshold, so each group is a run of
// semantically continuous sentences.
type EmbeddingGrouper struct {
	ai        ai.GraphAIClient
	threshold float64
}

type NewEmbeddingGrouperParams struct {
	AIClient ai.GraphAIClient

	// Threshold is the minimum adjacent cosine similarity that keeps two
	// sentences in the same group. Values <= 0 select the default.
	Threshold float64
}

func NewEmbeddingGrouper(params NewEmbeddingGrouperParams) *EmbeddingGrouper {
	threshold := params.Threshold
	if threshold <= 0 {
		threshold = defaultSimilarityThreshold
	}
	return &EmbeddingGrouper{
		ai:        params.AIClient,
		threshold: threshold,
	}
}

func (g *EmbeddingGrouper) GroupSentences(ctx context.Context, sentences []string) ([]common.SentenceGroup, error) {
	if len(sentences) == 0 {
		return nil, nil
	}

	embeddings, err := g.ai.GenerateEmbeddings(ctx, sentences)
	if err != nil {
		return nil, fmt.Errorf("embed sentences: %w", err)
	}
	if len(embeddings) != len(sentences) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(embeddings), len(sentences))
	}

	groups := make([]common.SentenceGroup, 0)
	start := 0
	for i := 1; i < len(sentences); i++ {
		if cosineSimilarity(embeddings[i-1], embeddings[i]) >= g.threshold {
			continue
		}
		groups = append(groups, common.SentenceGroup{
			Sentences:  sentences[start:i],
			Embeddings: embeddings[start:i],
		})
		start = i
	}
	groups = append(groups, common.SentenceGroup{
		Sentences:  sentences[start:],
		Embeddings: embeddings[start:],
	})
	return groups, nil
}

// cosineSimilarity returns the cosine of the angle between two vectors.
// Mismatched lengths compare over the shorter prefix; a zero-magnitude
// vector yields 0.
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
