package topic

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Topic is one latent topic from the pretrained model: its id, the top-5
// keyword signature shown to consumers, and the per-term weights used for
// scoring.
type Topic struct {
	ID       int                `json:"id"`
	Keywords []string           `json:"keywords"`
	Weights  map[string]float64 `json:"weights"`
}

// Model is the pretrained topic model, shipped as a JSON artifact exported
// from offline training (~30 topics over an economic-news vocabulary). It is
// loaded once at startup and read-only afterwards.
type Model struct {
	NumTopics  int      `json:"num_topics"`
	Vocabulary []string `json:"vocabulary"`
	Topics     []Topic  `json:"topics"`

	vocab map[string]struct{}
	byID  map[int]*Topic
}

// TopicProbability is one entry of a topic distribution.
type TopicProbability struct {
	TopicID     int
	Probability float64
}

// LoadModel reads the topic model artifact from path. A missing or malformed
// artifact is a startup failure; the pipeline cannot run without the model.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topic model: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse topic model: %w", err)
	}
	if len(m.Topics) == 0 {
		return nil, fmt.Errorf("topic model %s contains no topics", path)
	}

	m.vocab = make(map[string]struct{}, len(m.Vocabulary))
	for _, term := range m.Vocabulary {
		m.vocab[term] = struct{}{}
	}
	m.byID = make(map[int]*Topic, len(m.Topics))
	for i := range m.Topics {
		m.byID[m.Topics[i].ID] = &m.Topics[i]
	}
	return &m, nil
}

// Distribution converts keywords to a bag-of-words vector against the fixed
// vocabulary and returns the topic distribution, sorted descending by
// probability. Topics that score zero are omitted; no keyword in the
// vocabulary yields an empty distribution.
func (m *Model) Distribution(keywords []string) []TopicProbability {
	counts := make(map[string]int)
	for _, kw := range keywords {
		if _, ok := m.vocab[kw]; ok {
			counts[kw]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	scores := make([]TopicProbability, 0, len(m.Topics))
	total := 0.0
	for _, t := range m.Topics {
		s := 0.0
		for term, n := range counts {
			if w, ok := t.Weights[term]; ok {
				s += w * float64(n)
			}
		}
		if s > 0 {
			scores = append(scores, TopicProbability{TopicID: t.ID, Probability: s})
			total += s
		}
	}
	if total == 0 {
		return nil
	}

	for i := range scores {
		scores[i].Probability /= total
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Probability > scores[j].Probability
	})
	return scores
}

// Keywords returns the top-keyword signature for a topic id, or nil if the
// id is unknown.
func (m *Model) Keywords(topicID int) []string {
	t, ok := m.byID[topicID]
	if !ok {
		return nil
	}
	return t.Keywords
}
