package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/isEarth/earth-api/internal/util"
	"github.com/isEarth/earth-api/pkg/ai"
	"github.com/isEarth/earth-api/pkg/common"
	"github.com/isEarth/earth-api/pkg/logger"
)

const (
	defaultCompletionModel = "gpt-4.1-nano"
	defaultMaxParallel     = 4

	reconstructAttempts    = 3
	reconstructRetryDelay  = 4 * time.Second
	reconstructTemperature = 0.2
	reconstructMaxTokens   = 40
	reconstructTopP        = 1.0
)

// Reconstructor condenses transcript sentences into short report-style
// phrases through the completion model.
type Reconstructor struct {
	ai       ai.GraphAIClient
	model    string
	parallel int
	delay    time.Duration
}

type NewReconstructorParams struct {
	AIClient ai.GraphAIClient

	// Model is the completion model name. Empty selects the default.
	Model string

	// Parallel caps concurrent completion requests. Values <= 0 select
	// the default.
	Parallel int
}

func NewReconstructor(params NewReconstructorParams) *Reconstructor {
	model := params.Model
	if model == "" {
		model = defaultCompletionModel
	}
	parallel := params.Parallel
	if parallel <= 0 {
		parallel = defaultMaxParallel
	}
	return &Reconstructor{
		ai:       params.AIClient,
		model:    model,
		parallel: parallel,
		delay:    reconstructRetryDelay,
	}
}

// ReconstructSentence condenses one sentence. Failed attempts are retried
// with a fixed delay; when every attempt fails, or the model returns an
// empty completion, the original sentence is kept and the degraded flag is
// set. Context cancellation is not degraded and aborts with the context
// error.
func (r *Reconstructor) ReconstructSentence(ctx context.Context, sentence string) (string, bool, error) {
	completion, err := util.RetryWithDelay(ctx, reconstructAttempts, r.delay,
		func(ctx context.Context) (string, error) {
			return r.ai.GenerateCompletion(ctx, fmt.Sprintf(ai.ReconstructPrompt, sentence),
				ai.WithModel(r.model),
				ai.WithSystemPrompts(ai.ReconstructSystemPrompt),
				ai.WithTemperature(reconstructTemperature),
				ai.WithMaxTokens(reconstructMaxTokens),
				ai.WithTopP(reconstructTopP),
			)
		})
	if err != nil {
		if ctx.Err() != nil {
			return "", false, err
		}
		logger.Warn("[Pipeline] Reconstruction failed, keeping original sentence", "error", err)
		return sentence, true, nil
	}

	completion = strings.TrimSpace(completion)
	if completion == "" {
		logger.Warn("[Pipeline] Empty completion, keeping original sentence")
		return sentence, true, nil
	}
	return completion, false, nil
}

// ReconstructGroups maps every sentence of every group through the
// completion model, preserving group boundaries and in-group order. Each
// group's embeddings carry over unchanged: node text changes, the vector it
// was derived from does not. Returns the reconstructed groups and how many
// sentences fell back to their original text.
func (r *Reconstructor) ReconstructGroups(ctx context.Context, groups []common.SentenceGroup) ([]common.SentenceGroup, int, error) {
	out := make([]common.SentenceGroup, len(groups))

	var degradedMtx sync.Mutex
	degraded := 0

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.parallel)
	for gi := range groups {
		out[gi] = common.SentenceGroup{
			Sentences:  make([]string, groups[gi].Len()),
			Embeddings: groups[gi].Embeddings,
		}
		for si := range groups[gi].Sentences {
			gi, si := gi, si
			eg.Go(func() error {
				text, fellBack, err := r.ReconstructSentence(egCtx, groups[gi].Sentences[si])
				if err != nil {
					return err
				}
				out[gi].Sentences[si] = text
				if fellBack {
					degradedMtx.Lock()
					degraded++
					degradedMtx.Unlock()
				}
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, 0, err
	}
	return out, degraded, nil
}
