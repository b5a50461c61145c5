package ai

import (
	"context"
)

// GenerateOptions holds configuration for AI generation requests.
type GenerateOptions struct {
	Model            string   // Model identifier to use for generation
	SystemPrompts    []string // System prompts prepended to the request
	Temperature      float64  // Sampling temperature (0.0-2.0)
	MaxTokens        int      // Maximum completion tokens (0 = provider default)
	TopP             float64  // Nucleus sampling cutoff (0 = provider default)
	FrequencyPenalty float64  // Penalty for token frequency repetition
	PresencePenalty  float64  // Penalty for token presence repetition
}

// ModelMetrics contains performance metrics from AI model operations.
type ModelMetrics struct {
	InputTokens    int     `json:"input_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	TotalTokens    int     `json:"total_tokens"`
	DurationMs     int64   `json:"duration_ms"`
	WallClockMs    int64   `json:"wall_clock_ms"`
	TokenPerSecond float32 `json:"tokens_per_second"`
}

// GenerateOption is a functional option for configuring AI generation requests.
type GenerateOption func(*GenerateOptions)

// WithModel returns a GenerateOption that sets the model to use for generation.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithSystemPrompts returns a GenerateOption that sets the system prompts
// to prepend to the generation request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature returns a GenerateOption that sets the sampling temperature.
// Higher values (e.g., 1.0) produce more random outputs, while lower values
// (e.g., 0.2) make outputs more focused and deterministic.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithMaxTokens returns a GenerateOption that caps the number of tokens the
// model may generate for the completion.
func WithMaxTokens(tokens int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = tokens
	}
}

// WithTopP returns a GenerateOption that sets the nucleus sampling cutoff.
func WithTopP(topP float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.TopP = topP
	}
}

// WithFrequencyPenalty returns a GenerateOption that sets the frequency penalty.
func WithFrequencyPenalty(penalty float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.FrequencyPenalty = penalty
	}
}

// WithPresencePenalty returns a GenerateOption that sets the presence penalty.
func WithPresencePenalty(penalty float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.PresencePenalty = penalty
	}
}

// GraphAIClient defines the interface for AI operations used in graph construction.
// Implementations handle sentence completion and text embeddings.
type GraphAIClient interface {
	GenerateCompletion(
		ctx context.Context,
		prompt string,
		opts ...GenerateOption,
	) (string, error)

	GenerateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error)

	ResetMetrics()
	GetMetrics() ModelMetrics
}
