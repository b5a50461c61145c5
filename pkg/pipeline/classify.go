package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/isEarth/earth-api/pkg/common"
)

// ClassifySentences splits the cleaned text into sentences and labels each
// one through the classifier. The returned slice preserves text order and
// records each sentence's position in Index.
func ClassifySentences(ctx context.Context, clf Classifier, text string) ([]common.Sentence, error) {
	text = strings.ReplaceAll(text, "\n", " ")
	split := SplitSentences(text)
	sentences := make([]common.Sentence, 0, len(split))
	for i, sentence := range split {
		label, err := clf.Classify(ctx, sentence)
		if err != nil {
			return nil, fmt.Errorf("classify sentence %d: %w", i, err)
		}
		sentences = append(sentences, common.Sentence{
			Text:   sentence,
			Index:  i,
			Causal: label.Causal(),
		})
	}
	return sentences, nil
}
