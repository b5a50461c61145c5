package openai

import (
	"sync"

	"github.com/isEarth/earth-api/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

const (
	defaultDimensions    = 1536
	defaultMaxConcurrent = 15
	defaultTimeoutMin    = 5
)

// GraphOpenAIClient is a client for the AI models used during graph
// construction. It manages separate OpenAI clients for embeddings and
// chat/completion tasks.
//
// A GraphOpenAIClient should be created using NewGraphOpenAIClient.
type GraphOpenAIClient struct {
	chatModel      string
	embeddingModel string

	chatURL      string
	chatKey      string
	embeddingURL string
	embeddingKey string

	embedDim   int
	timeoutMin int

	embeddingLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// NewGraphOpenAIClientParams defines the configuration parameters for
// creating a new GraphOpenAIClient.
//
// ChatModel specifies the model used for sentence completions.
// EmbeddingModel specifies the model used for embeddings.
// ChatURL and ChatKey configure the chat/completion API endpoint.
// EmbeddingURL and EmbeddingKey configure the embedding API endpoint.
// EmbedDimensions fixes the length of returned embedding vectors.
// MaxConcurrentRequests bounds in-flight embedding requests.
// RequestTimeoutMin is the per-request timeout for embedding calls in minutes.
type NewGraphOpenAIClientParams struct {
	ChatModel      string
	EmbeddingModel string

	ChatURL      string
	ChatKey      string
	EmbeddingURL string
	EmbeddingKey string

	EmbedDimensions       int
	MaxConcurrentRequests int64
	RequestTimeoutMin     int
}

// NewGraphOpenAIClient creates and returns a new GraphOpenAIClient configured
// with the provided parameters. It initializes separate OpenAI clients for
// embeddings and chat/completion tasks.
//
// Example:
//
//	params := openai.NewGraphOpenAIClientParams{
//		ChatModel:      "gpt-4.1-nano",
//		EmbeddingModel: "text-embedding-3-small",
//		ChatURL:        "https://api.openai.com/v1",
//		ChatKey:        os.Getenv("OPENAI_API_KEY"),
//		EmbeddingURL:   "https://api.openai.com/v1",
//		EmbeddingKey:   os.Getenv("OPENAI_API_KEY"),
//	}
//	client := openai.NewGraphOpenAIClient(params)
func NewGraphOpenAIClient(
	params NewGraphOpenAIClientParams,
) *GraphOpenAIClient {
	chatClient := newOpenaiClient(params.ChatURL, params.ChatKey)
	embedClient := newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey)

	embedDim := params.EmbedDimensions
	if embedDim <= 0 {
		embedDim = defaultDimensions
	}
	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	timeoutMin := params.RequestTimeoutMin
	if timeoutMin <= 0 {
		timeoutMin = defaultTimeoutMin
	}

	return &GraphOpenAIClient{
		chatModel:      params.ChatModel,
		embeddingModel: params.EmbeddingModel,

		chatURL:      params.ChatURL,
		chatKey:      params.ChatKey,
		embeddingURL: params.EmbeddingURL,
		embeddingKey: params.EmbeddingKey,

		embedDim:   embedDim,
		timeoutMin: timeoutMin,

		embeddingLock: semaphore.NewWeighted(maxConcurrent),

		metricsLock: sync.Mutex{},
		metrics: ai.ModelMetrics{
			InputTokens:  0,
			OutputTokens: 0,
			TotalTokens:  0,
			DurationMs:   0,
		},

		ChatClient:      chatClient,
		EmbeddingClient: embedClient,
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}
