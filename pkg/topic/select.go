package topic

import (
	"errors"

	"github.com/isEarth/earth-api/pkg/common"
)

// ErrNoTopic is returned when every candidate topic in the ranking window is
// excluded. Callers treat it as fatal for the run.
var ErrNoTopic = errors.New("no eligible topic among top candidates")

// candidateWindow is how many top-probability topics are examined.
const candidateWindow = 6

// excludedTopics are topic ids that are never used as labels.
var excludedTopics = map[int]struct{}{
	11: {},
	12: {},
	18: {},
	23: {},
	28: {},
}

// SelectLabel picks the transcript's representative topic. It scores the
// keywords against the model, walks the top candidates in probability order,
// skips excluded topic ids, and returns the first eligible topic's keyword
// signature. If no candidate survives the walk it returns ErrNoTopic.
func SelectLabel(m *Model, keywords []string) (common.TopicLabel, error) {
	dist := m.Distribution(keywords)
	if len(dist) > candidateWindow {
		dist = dist[:candidateWindow]
	}

	for _, tp := range dist {
		if _, excluded := excludedTopics[tp.TopicID]; excluded {
			continue
		}
		kws := m.Keywords(tp.TopicID)
		if len(kws) > 5 {
			kws = kws[:5]
		}
		return common.TopicLabel(kws), nil
	}
	return nil, ErrNoTopic
}
