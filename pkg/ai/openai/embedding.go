package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/isEarth/earth-api/pkg/ai"

	"github.com/openai/openai-go/v3"
)

// GenerateEmbeddings creates embeddings for multiple inputs in a single
// request using the configured embedding model.
//
// The returned slice has one vector per input, in input order. Each vector
// has exactly the configured dimension; model output is truncated or
// zero-padded to fit. Empty or whitespace-only inputs map to zero vectors
// without being sent to the model.
//
// Example:
//
//	embeddings, err := client.GenerateEmbeddings(ctx, []string{"금리 인상", "환율 하락"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println("Vectors:", len(embeddings))
func (c *GraphOpenAIClient) GenerateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	idxMap, stringsIn, out := normalizeEmbeddingInputs(inputs, c.embedDim)
	if len(stringsIn) == 0 {
		return out, nil
	}

	stringsOut, err := c.generateEmbeddingsForStrings(ctx, stringsIn)
	if err != nil {
		return nil, err
	}
	if len(stringsOut) != len(stringsIn) {
		return nil, fmt.Errorf("embedding result size mismatch: got %d want %d", len(stringsOut), len(stringsIn))
	}
	for i := range stringsOut {
		out[idxMap[i]] = stringsOut[i]
	}
	return out, nil
}

func normalizeEmbeddingInputs(inputs []string, dim int) (idxMap []int, stringsIn []string, out [][]float32) {
	idxMap = make([]int, 0, len(inputs))
	stringsIn = make([]string, 0, len(inputs))
	out = make([][]float32, len(inputs))
	for i, in := range inputs {
		if len(strings.TrimSpace(in)) == 0 {
			out[i] = make([]float32, dim)
			continue
		}
		idxMap = append(idxMap, i)
		stringsIn = append(stringsIn, in)
	}
	return idxMap, stringsIn, out
}

func (c *GraphOpenAIClient) generateEmbeddingsForStrings(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	if c.EmbeddingClient == nil {
		return nil, fmt.Errorf("embedding client not configured")
	}
	dim := c.embedDim

	rCtx, cancel := context.WithTimeout(ctx, time.Minute*time.Duration(c.timeoutMin))
	defer cancel()

	body := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
		Model: c.embeddingModel,
	}

	if err := c.embeddingLock.Acquire(rCtx, 1); err != nil {
		return nil, err
	}
	defer c.embeddingLock.Release(1)

	start := time.Now()
	response, err := c.EmbeddingClient.Embeddings.New(rCtx, body)
	if err != nil {
		return nil, err
	}

	duration := time.Since(start).Milliseconds()
	metrics := ai.ModelMetrics{
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: 0,
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   duration,
	}
	c.modifyMetrics(metrics)

	if len(response.Data) != len(inputs) {
		return nil, fmt.Errorf("embedding response size mismatch: got %d want %d", len(response.Data), len(inputs))
	}

	out := make([][]float32, len(inputs))
	for _, embedding := range response.Data {
		dataIdx := int(embedding.Index)
		if dataIdx < 0 || dataIdx >= len(inputs) {
			return nil, fmt.Errorf("embedding index out of range: %d", embedding.Index)
		}
		vec := make([]float32, 0, dim)
		for _, v := range embedding.Embedding {
			if len(vec) >= dim {
				break
			}
			vec = append(vec, float32(v))
		}
		if len(vec) < dim {
			padded := make([]float32, dim)
			copy(padded, vec)
			vec = padded
		}
		out[dataIdx] = vec
	}
	for i := range out {
		if out[i] == nil {
			return nil, fmt.Errorf("missing embedding for index %d", i)
		}
	}
	return out, nil
}
