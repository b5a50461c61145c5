package common

// Partition identifies which classifier set a sentence or group came from.
// The partition decides the relation type used when the graph is persisted:
// causal groups are linked with isCauseOf, general groups with isGeneralOf.
type Partition string

const (
	PartitionCausal  Partition = "causal"
	PartitionGeneral Partition = "general"
)

// RelationType returns the graph relation type for the partition.
func (p Partition) RelationType() string {
	if p == PartitionCausal {
		return "isCauseOf"
	}
	return "isGeneralOf"
}

// Sentence is one classified transcript sentence. Index is the sentence's
// position in the cleaned transcript. A Sentence is never mutated after
// classification; reconstruction produces new node text instead.
type Sentence struct {
	Text   string `json:"text"`
	Index  int    `json:"index"`
	Causal bool   `json:"causal"`
}

// TopicLabel is the ordered keyword set representing the transcript's
// dominant non-excluded topic, at most five keywords.
type TopicLabel []string

// SentenceGroup is an ordered cluster of sentences treated as one narrative
// chain. Embeddings is index-aligned with Sentences: Embeddings[i] belongs
// to Sentences[i].
type SentenceGroup struct {
	Sentences  []string    `json:"sentences"`
	Embeddings [][]float32 `json:"embeddings"`
}

// Len returns the number of sentences in the group.
func (g SentenceGroup) Len() int {
	return len(g.Sentences)
}

// Node is one graph node produced for a transcript run: the reconstructed
// sentence text and the embedding of the sentence it was derived from.
type Node struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// Edge is a directed relation between two nodes, identified by node text.
// Edges always point from an earlier sentence to the next one in its group.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// SplitByPartition separates classified sentences into the causal and
// general text sets. Both sets preserve the relative order of the input;
// interleaving across the two sets is intentionally discarded.
func SplitByPartition(sentences []Sentence) (causal []string, general []string) {
	for _, s := range sentences {
		if s.Causal {
			causal = append(causal, s.Text)
		} else {
			general = append(general, s.Text)
		}
	}
	return causal, general
}
