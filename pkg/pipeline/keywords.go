package pipeline

import (
	"context"
	"fmt"
	"unicode/utf8"
)

// nounTags are the morpheme tags counted as keywords: common and proper nouns.
var nounTags = map[string]struct{}{
	"NNG": {},
	"NNP": {},
}

// ExtractKeywords runs morphological analysis over the cleaned text and
// returns its noun keywords: every token tagged as a common or proper noun
// whose form is longer than one rune. Order follows the text and repeated
// nouns are kept, so downstream topic scoring sees term frequency.
func ExtractKeywords(ctx context.Context, analyzer Analyzer, text string) ([]string, error) {
	tokens, err := analyzer.Analyze(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("analyze text: %w", err)
	}

	keywords := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, ok := nounTags[token.Tag]; !ok {
			continue
		}
		if utf8.RuneCountInString(token.Form) <= 1 {
			continue
		}
		keywords = append(keywords, token.Form)
	}
	return keywords, nil
}
