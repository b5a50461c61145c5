package ollama

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/isEarth/earth-api/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

const (
	defaultDimensions    = 1536
	defaultMaxConcurrent = 15
	defaultTimeoutMin    = 5
)

// GraphOllamaClient implements the ai.GraphAIClient interface using Ollama as
// the backend. It supports sentence completions and embeddings via
// locally-hosted models.
type GraphOllamaClient struct {
	chatModel      string
	embeddingModel string

	embedDim   int
	timeoutMin int

	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client

	Client *api.Client
}

// NewGraphOllamaClientParams contains configuration options for creating a new GraphOllamaClient.
type NewGraphOllamaClientParams struct {
	ChatModel      string
	EmbeddingModel string

	BaseURL string
	ApiKey  string

	EmbedDimensions       int
	MaxConcurrentRequests int64
	RequestTimeoutMin     int
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		// don't overwrite if already set
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewGraphOllamaClient creates a new Ollama-based AI client with the specified
// configuration. It connects to the Ollama server at the given BaseURL (or the
// default if empty) and uses the configured models for completions and
// embeddings.
func NewGraphOllamaClient(
	params NewGraphOllamaClientParams,
) (*GraphOllamaClient, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: map[string]string{
				"Authorization": "Bearer " + params.ApiKey,
			},
			rt: http.DefaultTransport,
		},
	}

	cli := api.NewClient(u, httpClient)

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

	sem := semaphore.NewWeighted(maxConcurrent)

	return &GraphOllamaClient{
		chatModel:      params.ChatModel,
		embeddingModel: params.EmbeddingModel,

		embedDim:   embedDim,
		timeoutMin: timeoutMin,

		reqLock: sem,

		metricsLock: sync.Mutex{},
		metrics: ai.ModelMetrics{
			InputTokens:  0,
			OutputTokens: 0,
			TotalTokens:  0,
			DurationMs:   0,
		},

		baseURL:    u,
		apiKey:     params.ApiKey,
		httpClient: httpClient,

		Client: cli,
	}, nil
}
