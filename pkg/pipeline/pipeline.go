package pipeline

import (
	"context"
	"fmt"

	"github.com/isEarth/earth-api/pkg/ai"
	"github.com/isEarth/earth-api/pkg/classify"
	"github.com/isEarth/earth-api/pkg/common"
	"github.com/isEarth/earth-api/pkg/logger"
	"github.com/isEarth/earth-api/pkg/nlp"
	"github.com/isEarth/earth-api/pkg/store"
	"github.com/isEarth/earth-api/pkg/topic"
)

// Analyzer is the morphological analysis surface the pipeline depends on.
type Analyzer interface {
	Analyze(ctx context.Context, text string) ([]nlp.Token, error)
	Normalize(ctx context.Context, text string) (string, error)
}

// Classifier labels a single sentence.
type Classifier interface {
	Classify(ctx context.Context, sentence string) (classify.Label, error)
}

// Pipeline converts a raw transcript into sentence graphs and persists them.
// A Pipeline is safe for concurrent runs as long as its collaborators are.
type Pipeline struct {
	ai            ai.GraphAIClient
	analyzer      Analyzer
	classifier    Classifier
	topics        *topic.Model
	store         store.GraphStore
	grouper       Grouper
	reconstructor *Reconstructor
}

type NewPipelineParams struct {
	AIClient   ai.GraphAIClient
	Analyzer   Analyzer
	Classifier Classifier
	Topics     *topic.Model
	Store      store.GraphStore

	// Grouper overrides sentence grouping. Nil selects an EmbeddingGrouper
	// backed by AIClient.
	Grouper Grouper

	// CompletionModel is the reconstruction model name. Empty selects the
	// default.
	CompletionModel string

	// MaxParallel caps concurrent reconstruction requests. Values <= 0
	// select the default.
	MaxParallel int

	// SimilarityThreshold tunes the default grouper. Values <= 0 select
	// the default. Ignored when Grouper is set.
	SimilarityThreshold float64
}

func NewPipeline(params NewPipelineParams) *Pipeline {
	grouper := params.Grouper
	if grouper == nil {
		grouper = NewEmbeddingGrouper(NewEmbeddingGrouperParams{
			AIClient:  params.AIClient,
			Threshold: params.SimilarityThreshold,
		})
	}
	return &Pipeline{
		ai:         params.AIClient,
		analyzer:   params.Analyzer,
		classifier: params.Classifier,
		topics:     params.Topics,
		store:      params.Store,
		grouper:    grouper,
		reconstructor: NewReconstructor(NewReconstructorParams{
			AIClient: params.AIClient,
			Model:    params.CompletionModel,
			Parallel: params.MaxParallel,
		}),
	}
}

// PartitionStats counts what one classifier partition produced.
type PartitionStats struct {
	Sentences int `json:"sentences"`
	Nodes     int `json:"nodes"`
	Edges     int `json:"edges"`
}

// RunResult summarizes one pipeline run.
type RunResult struct {
	// CleanedText is the distilled transcript. Empty means the filter left
	// nothing to process and no graph was written.
	CleanedText string `json:"cleanedText"`

	// Topics is the selected topic label, empty for a skipped run.
	Topics common.TopicLabel `json:"topics"`

	Causal  PartitionStats `json:"causal"`
	General PartitionStats `json:"general"`

	// Degraded counts sentences whose reconstruction fell back to the
	// original text.
	Degraded int `json:"degraded"`

	// Metrics aggregates model usage over the run.
	Metrics ai.ModelMetrics `json:"metrics"`
}

// Run executes the full pipeline over one raw transcript: clean, extract
// keywords, select the topic, classify sentences, then group, reconstruct
// and persist each partition as its own graph batch. A transcript that
// cleans down to nothing returns an empty result without touching the
// store. Topic selection failure fails the run before any write.
func (p *Pipeline) Run(ctx context.Context, raw string) (*RunResult, error) {
	p.ai.ResetMetrics()

	cleaned, err := CleanTranscript(ctx, p.analyzer, raw)
	if err != nil {
		return nil, err
	}
	result := &RunResult{CleanedText: cleaned}
	if cleaned == "" {
		logger.Info("[Pipeline] Nothing left after cleaning, skipping run")
		return result, nil
	}

	keywords, err := ExtractKeywords(ctx, p.analyzer, cleaned)
	if err != nil {
		return nil, err
	}
	label, err := topic.SelectLabel(p.topics, keywords)
	if err != nil {
		return nil, fmt.Errorf("select topic: %w", err)
	}
	result.Topics = label
	logger.Info("[Pipeline] Topic selected", "topics", label, "keywords", len(keywords))

	classified, err := ClassifySentences(ctx, p.classifier, cleaned)
	if err != nil {
		return nil, err
	}
	causal, general := common.SplitByPartition(classified)
	logger.Info("[Pipeline] Sentences classified",
		"causal", len(causal),
		"general", len(general),
	)

	result.Causal, err = p.processPartition(ctx, common.PartitionCausal, causal, label, result)
	if err != nil {
		return nil, err
	}
	result.General, err = p.processPartition(ctx, common.PartitionGeneral, general, label, result)
	if err != nil {
		return nil, err
	}

	result.Metrics = p.ai.GetMetrics()
	logger.Info("[Pipeline] Run complete",
		"nodes", result.Causal.Nodes+result.General.Nodes,
		"edges", result.Causal.Edges+result.General.Edges,
		"degraded", result.Degraded,
		"modelTokens", result.Metrics.TotalTokens,
	)
	return result, nil
}

// processPartition runs grouping, reconstruction and persistence for one
// classifier partition. An empty partition is skipped entirely.
func (p *Pipeline) processPartition(
	ctx context.Context,
	partition common.Partition,
	sentences []string,
	label common.TopicLabel,
	result *RunResult,
) (PartitionStats, error) {
	stats := PartitionStats{Sentences: len(sentences)}
	if len(sentences) == 0 {
		return stats, nil
	}

	groups, err := p.grouper.GroupSentences(ctx, sentences)
	if err != nil {
		return stats, fmt.Errorf("group %s sentences: %w", partition, err)
	}
	reconstructed, degraded, err := p.reconstructor.ReconstructGroups(ctx, groups)
	if err != nil {
		return stats, fmt.Errorf("reconstruct %s groups: %w", partition, err)
	}
	result.Degraded += degraded

	nodes, edges := BuildRelations(reconstructed)
	stats.Nodes = len(nodes)
	stats.Edges = len(edges)

	err = p.store.PersistGraph(ctx, store.GraphBatch{
		Nodes:     nodes,
		Edges:     edges,
		Topics:    label,
		Partition: partition,
	})
	if err != nil {
		return stats, err
	}
	return stats, nil
}
