package ollama

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/isEarth/earth-api/pkg/ai"

	"github.com/ollama/ollama/api"
)

// GenerateEmbeddings creates embeddings for multiple inputs in a single
// request using the configured embedding model on Ollama.
//
// The returned slice has one vector per input, in input order. Each vector
// has exactly the configured dimension; model output is truncated or
// zero-padded to fit. Empty or whitespace-only inputs map to zero vectors
// without being sent to the model.
func (c *GraphOllamaClient) GenerateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	dim := c.embedDim

	idxMap := make([]int, 0, len(inputs))
	filtered := make([]string, 0, len(inputs))
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		if len(strings.TrimSpace(in)) == 0 {
			out[i] = make([]float32, dim)
			continue
		}
		idxMap = append(idxMap, i)
		filtered = append(filtered, in)
	}
	if len(filtered) == 0 {
		return out, nil
	}

	rCtx, cancel := context.WithTimeout(ctx, time.Minute*time.Duration(c.timeoutMin))
	defer cancel()

	req := &api.EmbedRequest{
		Model: c.embeddingModel,
		Input: filtered,
	}

	err := c.reqLock.Acquire(rCtx, 1)
	if err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	res, err := c.Client.Embed(rCtx, req)
	if err != nil {
		return nil, err
	}

	durationMs := res.TotalDuration.Milliseconds()

	metrics := ai.ModelMetrics{
		InputTokens:  res.PromptEvalCount,
		OutputTokens: 0,
		TotalTokens:  res.PromptEvalCount,
		DurationMs:   durationMs,
	}
	c.modifyMetrics(metrics)

	if len(res.Embeddings) != len(filtered) {
		return nil, fmt.Errorf("embedding response size mismatch: got %d want %d", len(res.Embeddings), len(filtered))
	}

	for i, emb := range res.Embeddings {
		vec := make([]float32, 0, dim)
		for _, val := range emb {
			if len(vec) >= dim {
				break
			}
			vec = append(vec, float32(val))
		}
		if len(vec) < dim {
			padded := make([]float32, dim)
			copy(padded, vec)
			vec = padded
		}
		out[idxMap[i]] = vec
	}
	return out, nil
}
