package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/isEarth/earth-api/pkg/ai"

	"github.com/openai/openai-go/v3"
)

// GenerateCompletion sends a single-turn prompt to the chat model and
// returns the generated completion as plain text.
//
// This method is best suited for simple prompt-response interactions.
//
// Example:
//
//	resp, err := client.GenerateCompletion(ctx, "Summarize this text...")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(resp)
func (c *GraphOpenAIClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	client := c.ChatClient
	if client == nil {
		return "", fmt.Errorf("chat client not configured")
	}

	options := ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: 0.3,
	}
	for _, o := range opts {
		o(&options)
	}

	msgs := []openai.ChatCompletionMessageParamUnion{}
	if len(options.SystemPrompts) > 0 {
		for _, sp := range options.SystemPrompts {
			msgs = append(msgs, openai.SystemMessage(sp))
		}
	}

	msgs = append(msgs, openai.UserMessage(prompt))

	body := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(options.Model),
		Messages:    msgs,
		Temperature: openai.Float(options.Temperature),
	}

	if options.MaxTokens > 0 {
		body.MaxCompletionTokens = openai.Int(int64(options.MaxTokens))
	}
	if options.TopP > 0 {
		body.TopP = openai.Float(options.TopP)
	}
	if options.FrequencyPenalty != 0 {
		body.FrequencyPenalty = openai.Float(options.FrequencyPenalty)
	}
	if options.PresencePenalty != 0 {
		body.PresencePenalty = openai.Float(options.PresencePenalty)
	}

	start := time.Now()
	response, err := client.Chat.Completions.New(ctx, body)
	if err != nil {
		return "", err
	}
	duration := time.Since(start).Milliseconds()

	metrics := ai.ModelMetrics{
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   duration,
	}
	c.modifyMetrics(metrics)

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices in response from model")
	}
	return response.Choices[0].Message.Content, nil
}
