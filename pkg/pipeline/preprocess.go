package pipeline

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// retentionPercentile is the importance-score cutoff: only sentences scoring
// strictly above this percentile survive the filtering stage.
const retentionPercentile = 70

var (
	parenthesized = regexp.MustCompile(`\(.+?\)`)
	bracketed     = regexp.MustCompile(`\[.+?\]`)
	// forbiddenChars are stripped outright, including sentence-final periods.
	// Later stages split on the verbal endings that survive this pass.
	forbiddenChars = regexp.MustCompile(`[\\/:*?"<>|.]`)
	// allowedChars keeps whitespace, Latin, digits, Hangul and a fixed
	// punctuation set; everything else is removed.
	allowedChars = regexp.MustCompile("[^\\sa-zA-Z0-9ㄱ-ㅎ가-힣!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~※‘’·“”㈜ⓒ™©•]")
	// wordToken matches runs of two or more word characters, the unit the
	// importance scorer counts.
	wordToken = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)
)

// boilerplate fragments are cut from every kept sentence, in this order.
var boilerplate = []string{"안녕하세요", "[음악]", " 네", "네 "}

// SplitSentences splits Korean text into sentences. A sentence ends at
// terminal punctuation (. ? !) or at the verbal endings 다/요 followed by
// whitespace or end of text. Results are trimmed; empty pieces are dropped.
func SplitSentences(text string) []string {
	runes := []rune(text)
	sentences := make([]string, 0)
	start := 0
	for i, r := range runes {
		terminal := r == '.' || r == '?' || r == '!'
		ending := (r == '다' || r == '요') && (i+1 == len(runes) || unicode.IsSpace(runes[i+1]))
		if !terminal && !ending {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}
	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// scoreSentences assigns each sentence a term-importance score: the sum of
// its L2-normalized tf-idf weights. Tokens are lowercased word runs of two
// or more characters; idf uses smoothing so unseen terms stay finite.
// Sentences with no countable tokens score zero.
func scoreSentences(sentences []string) []float64 {
	tokenized := make([][]string, len(sentences))
	docFreq := make(map[string]int)
	for i, sentence := range sentences {
		tokens := wordToken.FindAllString(strings.ToLower(sentence), -1)
		tokenized[i] = tokens
		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			docFreq[tok]++
		}
	}

	n := float64(len(sentences))
	idf := make(map[string]float64, len(docFreq))
	for tok, df := range docFreq {
		idf[tok] = math.Log((1+n)/(1+float64(df))) + 1
	}

	scores := make([]float64, len(sentences))
	for i, tokens := range tokenized {
		counts := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			counts[tok]++
		}
		weights := make([]float64, 0, len(counts))
		var sumSquares float64
		for tok, count := range counts {
			w := float64(count) * idf[tok]
			weights = append(weights, w)
			sumSquares += w * w
		}
		norm := math.Sqrt(sumSquares)
		if norm == 0 {
			continue
		}
		var sum float64
		for _, w := range weights {
			sum += w / norm
		}
		scores[i] = sum
	}
	return scores
}

// percentile returns the p-th percentile of values using linear
// interpolation between closest ranks.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func stripBoilerplate(sentence string) string {
	for _, fragment := range boilerplate {
		sentence = strings.ReplaceAll(sentence, fragment, "")
	}
	return strings.TrimSpace(sentence)
}

// CleanTranscript distills a raw transcript into the cleaned text the rest
// of the pipeline consumes. It normalizes whitespace, splits into sentences,
// keeps only sentences scoring strictly above the retention percentile,
// strips boilerplate and parenthesized asides, restricts the character set,
// and finally runs the analyzer's typo normalization. A transcript with no
// sentences, or none surviving the filter, yields an empty string and no
// error.
func CleanTranscript(ctx context.Context, analyzer Analyzer, raw string) (string, error) {
	text := strings.Join(strings.Fields(strings.ReplaceAll(raw, "\n", " ")), " ")
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return "", nil
	}

	scores := scoreSentences(sentences)
	threshold := percentile(scores, retentionPercentile)
	kept := make([]string, 0, len(sentences))
	for i, sentence := range sentences {
		if scores[i] <= threshold {
			continue
		}
		if cleaned := stripBoilerplate(sentence); cleaned != "" {
			kept = append(kept, cleaned)
		}
	}
	if len(kept) == 0 {
		return "", nil
	}

	text = strings.Join(kept, " ")
	text = parenthesized.ReplaceAllString(text, "")
	text = bracketed.ReplaceAllString(text, "")
	text = forbiddenChars.ReplaceAllString(text, "")
	text = strings.TrimSpace(allowedChars.ReplaceAllString(text, ""))
	if text == "" {
		return "", nil
	}

	normalized, err := analyzer.Normalize(ctx, text)
	if err != nil {
		return "", fmt.Errorf("normalize cleaned text: %w", err)
	}
	return strings.TrimSpace(normalized), nil
}
