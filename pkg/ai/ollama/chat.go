package ollama

import (
	"context"

	"github.com/isEarth/earth-api/pkg/ai"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
)

// GenerateCompletion sends a single-turn prompt and returns assistant text.
func (c *GraphOllamaClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: 0.3,
	}
	for _, o := range opts {
		o(&options)
	}

	msgs := make([]api.Message, 0, len(options.SystemPrompts)+1)
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, api.Message{Role: "system", Content: sp})
	}
	msgs = append(msgs, api.Message{Role: "user", Content: prompt})

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: msgs,
		Stream:   &stream,
		Options:  map[string]any{"temperature": options.Temperature},
	}

	if options.MaxTokens > 0 {
		req.Options["num_predict"] = options.MaxTokens
	}
	if options.TopP > 0 {
		req.Options["top_p"] = options.TopP
	}
	if options.FrequencyPenalty != 0 {
		req.Options["frequency_penalty"] = options.FrequencyPenalty
	}
	if options.PresencePenalty != 0 {
		req.Options["presence_penalty"] = options.PresencePenalty
	}

	tokens := 200
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return "", err
	}
	tokens += len(enc.Encode(prompt, nil, nil))
	for _, sp := range options.SystemPrompts {
		tokens += len(enc.Encode(sp, nil, nil))
	}
	if tokens > 4096 {
		req.Options["num_ctx"] = tokens
	}

	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		return "", err
	}

	durationMs := final.Metrics.TotalDuration.Milliseconds()

	metrics := ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   durationMs,
	}
	c.modifyMetrics(metrics)

	return final.Message.Content, nil
}
