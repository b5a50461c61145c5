package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/isEarth/earth-api/pkg/ai"
	"github.com/isEarth/earth-api/pkg/classify"
	"github.com/isEarth/earth-api/pkg/common"
	"github.com/isEarth/earth-api/pkg/nlp"
	"github.com/isEarth/earth-api/pkg/store"
	"github.com/isEarth/earth-api/pkg/topic"
)

type fakeAI struct {
	mtx         sync.Mutex
	calls       int
	embedCalls  int
	lastPrompt  string
	lastOptions ai.GenerateOptions
	completeFn  func(prompt string, options ai.GenerateOptions) (string, error)
	embedFn     func(inputs []string) ([][]float32, error)
}

func (f *fakeAI) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	options := ai.GenerateOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	f.mtx.Lock()
	f.calls++
	f.lastPrompt = prompt
	f.lastOptions = options
	f.mtx.Unlock()

	if f.completeFn == nil {
		return "", errors.New("unexpected completion request")
	}
	return f.completeFn(prompt, options)
}

func (f *fakeAI) GenerateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error) {
	f.mtx.Lock()
	f.embedCalls++
	f.mtx.Unlock()

	if f.embedFn != nil {
		return f.embedFn(inputs)
	}
	out := make([][]float32, len(inputs))
	for i := range out {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (f *fakeAI) ResetMetrics() {}

func (f *fakeAI) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

type fakeAnalyzer struct {
	tokens      []nlp.Token
	analyzeErr  error
	normalizeFn func(text string) (string, error)
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, text string) ([]nlp.Token, error) {
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return f.tokens, nil
}

func (f *fakeAnalyzer) Normalize(ctx context.Context, text string) (string, error) {
	if f.normalizeFn != nil {
		return f.normalizeFn(text)
	}
	return text, nil
}

type fakeClassifier struct {
	causalMarkers []string
	err           error
}

func (f *fakeClassifier) Classify(ctx context.Context, sentence string) (classify.Label, error) {
	if f.err != nil {
		return "", f.err
	}
	for _, marker := range f.causalMarkers {
		if strings.Contains(sentence, marker) {
			return classify.LabelCausal, nil
		}
	}
	return classify.Label("LABEL_0"), nil
}

type memStore struct {
	mtx     sync.Mutex
	batches []store.GraphBatch
	err     error
}

func (s *memStore) PersistGraph(ctx context.Context, batch store.GraphBatch) error {
	if s.err != nil {
		return s.err
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.batches = append(s.batches, batch)
	return nil
}

func (s *memStore) VerifyConnectivity(ctx context.Context) error { return nil }

func (s *memStore) Close(ctx context.Context) error { return nil }

func testTopicModel(t *testing.T) *topic.Model {
	t.Helper()
	raw := `{
		"num_topics": 3,
		"vocabulary": ["금리", "환율", "물가", "수출", "증시", "구독", "채널"],
		"topics": [
			{
				"id": 3,
				"keywords": ["금리", "환율", "물가", "수출", "증시"],
				"weights": {"금리": 0.3, "환율": 0.25, "물가": 0.2, "수출": 0.15, "증시": 0.1}
			},
			{
				"id": 7,
				"keywords": ["부동산", "아파트", "전세", "매매", "청약"],
				"weights": {"수출": 0.05}
			},
			{
				"id": 11,
				"keywords": ["구독", "채널", "알림", "좋아요", "댓글"],
				"weights": {"구독": 0.6, "채널": 0.4}
			}
		]
	}`
	path := filepath.Join(t.TempDir(), "topic_model.json")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("failed to write topic model: %v", err)
	}
	model, err := topic.LoadModel(path)
	if err != nil {
		t.Fatalf("failed to load topic model: %v", err)
	}
	return model
}

// rawTranscript cleans down to one surviving sentence, which the fake
// analyzer then replaces with the canonical three-sentence text.
const rawTranscript = "네 네. 아 네. 네. 아. 네 아. 금리가 오르면 환율이 하락한다."

const canonicalText = "금리가 오르면 환율이 하락한다 이후 수출 기업 부담이 커진다 오늘 시장 분위기는 대체로 차분하다"

func newTestAnalyzer() *fakeAnalyzer {
	return &fakeAnalyzer{
		tokens: []nlp.Token{
			{Form: "금리", Tag: "NNG"},
			{Form: "가", Tag: "JKS"},
			{Form: "환율", Tag: "NNG"},
			{Form: "수출", Tag: "NNG"},
			{Form: "오늘", Tag: "MAG"},
		},
		normalizeFn: func(text string) (string, error) {
			return canonicalText, nil
		},
	}
}

func newTestAI() *fakeAI {
	reconstructions := map[string]string{
		"하락한다": "금리 상승 환율 하락",
		"커진다":  "수출 기업 부담 확대",
		"차분하다": "시장 분위기 차분",
	}
	return &fakeAI{
		completeFn: func(prompt string, _ ai.GenerateOptions) (string, error) {
			for marker, out := range reconstructions {
				if strings.Contains(prompt, marker) {
					return out, nil
				}
			}
			return "", errors.New("unexpected prompt: " + prompt)
		},
	}
}

func TestRunPersistsBothPartitions(t *testing.T) {
	aiClient := newTestAI()
	st := &memStore{}
	p := NewPipeline(NewPipelineParams{
		AIClient:   aiClient,
		Analyzer:   newTestAnalyzer(),
		Classifier: &fakeClassifier{causalMarkers: []string{"오르면", "이후"}},
		Topics:     testTopicModel(t),
		Store:      st,
	})

	result, err := p.Run(context.Background(), rawTranscript)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.CleanedText != canonicalText {
		t.Errorf("cleaned text = %q, want %q", result.CleanedText, canonicalText)
	}
	wantTopics := common.TopicLabel{"금리", "환율", "물가", "수출", "증시"}
	if !reflect.DeepEqual(result.Topics, wantTopics) {
		t.Errorf("topics = %v, want %v", result.Topics, wantTopics)
	}
	if result.Degraded != 0 {
		t.Errorf("degraded = %d, want 0", result.Degraded)
	}
	if want := (PartitionStats{Sentences: 2, Nodes: 2, Edges: 1}); result.Causal != want {
		t.Errorf("causal stats = %+v, want %+v", result.Causal, want)
	}
	if want := (PartitionStats{Sentences: 1, Nodes: 1, Edges: 0}); result.General != want {
		t.Errorf("general stats = %+v, want %+v", result.General, want)
	}

	if len(st.batches) != 2 {
		t.Fatalf("persisted batches = %d, want 2", len(st.batches))
	}

	causal := st.batches[0]
	if causal.Partition != common.PartitionCausal {
		t.Errorf("first batch partition = %q, want %q", causal.Partition, common.PartitionCausal)
	}
	if !reflect.DeepEqual(causal.Topics, wantTopics) {
		t.Errorf("causal batch topics = %v, want %v", causal.Topics, wantTopics)
	}
	wantCausalNodes := []common.Node{
		{Text: "금리 상승 환율 하락", Embedding: []float32{1, 0, 0}},
		{Text: "수출 기업 부담 확대", Embedding: []float32{1, 0, 0}},
	}
	if !reflect.DeepEqual(causal.Nodes, wantCausalNodes) {
		t.Errorf("causal nodes = %v, want %v", causal.Nodes, wantCausalNodes)
	}
	wantCausalEdges := []common.Edge{
		{From: "금리 상승 환율 하락", To: "수출 기업 부담 확대"},
	}
	if !reflect.DeepEqual(causal.Edges, wantCausalEdges) {
		t.Errorf("causal edges = %v, want %v", causal.Edges, wantCausalEdges)
	}

	general := st.batches[1]
	if general.Partition != common.PartitionGeneral {
		t.Errorf("second batch partition = %q, want %q", general.Partition, common.PartitionGeneral)
	}
	if len(general.Nodes) != 1 || general.Nodes[0].Text != "시장 분위기 차분" {
		t.Errorf("general nodes = %v, want single reconstructed node", general.Nodes)
	}
	if len(general.Edges) != 0 {
		t.Errorf("general edges = %v, want none", general.Edges)
	}
}

func TestRunSkipsWhenCleaningLeavesNothing(t *testing.T) {
	aiClient := &fakeAI{}
	st := &memStore{}
	p := NewPipeline(NewPipelineParams{
		AIClient:   aiClient,
		Analyzer:   &fakeAnalyzer{},
		Classifier: &fakeClassifier{},
		Topics:     testTopicModel(t),
		Store:      st,
	})

	// Identical sentences score identically, so nothing clears the strict
	// percentile threshold.
	result, err := p.Run(context.Background(), "같은 말이다 같은 말이다 같은 말이다")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.CleanedText != "" {
		t.Errorf("cleaned text = %q, want empty", result.CleanedText)
	}
	if len(result.Topics) != 0 {
		t.Errorf("topics = %v, want none", result.Topics)
	}
	if len(st.batches) != 0 {
		t.Errorf("persisted batches = %d, want 0", len(st.batches))
	}
	if aiClient.calls != 0 || aiClient.embedCalls != 0 {
		t.Errorf("AI calls = %d completions, %d embeddings, want none", aiClient.calls, aiClient.embedCalls)
	}
}

func TestRunFailsWhenEveryTopicIsExcluded(t *testing.T) {
	analyzer := newTestAnalyzer()
	analyzer.tokens = []nlp.Token{
		{Form: "구독", Tag: "NNG"},
		{Form: "채널", Tag: "NNG"},
	}
	st := &memStore{}
	p := NewPipeline(NewPipelineParams{
		AIClient:   newTestAI(),
		Analyzer:   analyzer,
		Classifier: &fakeClassifier{},
		Topics:     testTopicModel(t),
		Store:      st,
	})

	_, err := p.Run(context.Background(), rawTranscript)
	if !errors.Is(err, topic.ErrNoTopic) {
		t.Fatalf("Run() error = %v, want ErrNoTopic", err)
	}
	if len(st.batches) != 0 {
		t.Errorf("persisted batches = %d, want 0", len(st.batches))
	}
}

func TestRunKeepsOriginalSentenceOnEmptyCompletion(t *testing.T) {
	aiClient := newTestAI()
	base := aiClient.completeFn
	aiClient.completeFn = func(prompt string, options ai.GenerateOptions) (string, error) {
		if strings.Contains(prompt, "차분하다") {
			return "", nil
		}
		return base(prompt, options)
	}
	st := &memStore{}
	p := NewPipeline(NewPipelineParams{
		AIClient:   aiClient,
		Analyzer:   newTestAnalyzer(),
		Classifier: &fakeClassifier{causalMarkers: []string{"오르면", "이후"}},
		Topics:     testTopicModel(t),
		Store:      st,
	})

	result, err := p.Run(context.Background(), rawTranscript)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Degraded != 1 {
		t.Errorf("degraded = %d, want 1", result.Degraded)
	}
	if len(st.batches) != 2 {
		t.Fatalf("persisted batches = %d, want 2", len(st.batches))
	}
	general := st.batches[1]
	if len(general.Nodes) != 1 || general.Nodes[0].Text != "오늘 시장 분위기는 대체로 차분하다" {
		t.Errorf("general nodes = %v, want the original sentence", general.Nodes)
	}
}

func TestRunPropagatesStoreError(t *testing.T) {
	st := &memStore{err: errors.New("graph store unavailable")}
	p := NewPipeline(NewPipelineParams{
		AIClient:   newTestAI(),
		Analyzer:   newTestAnalyzer(),
		Classifier: &fakeClassifier{causalMarkers: []string{"오르면", "이후"}},
		Topics:     testTopicModel(t),
		Store:      st,
	})

	_, err := p.Run(context.Background(), rawTranscript)
	if err == nil || !strings.Contains(err.Error(), "graph store unavailable") {
		t.Fatalf("Run() error = %v, want store error", err)
	}
}

func TestSingleSentenceGroupBecomesOneNode(t *testing.T) {
	e1 := []float32{0.1, 0.2, 0.3}
	aiClient := &fakeAI{
		completeFn: func(prompt string, _ ai.GenerateOptions) (string, error) {
			return "트럼프 대통령 상호 관세 발표", nil
		},
	}
	r := &Reconstructor{ai: aiClient, model: defaultCompletionModel, parallel: 2, delay: time.Millisecond}

	groups := []common.SentenceGroup{{
		Sentences:  []string{"트럼프 대통령이 다음 달부터 상호 관세까지 발표한다고 예고하면서"},
		Embeddings: [][]float32{e1},
	}}
	reconstructed, degraded, err := r.ReconstructGroups(context.Background(), groups)
	if err != nil {
		t.Fatalf("ReconstructGroups() error = %v", err)
	}
	if degraded != 0 {
		t.Errorf("degraded = %d, want 0", degraded)
	}

	nodes, edges := BuildRelations(reconstructed)
	wantNodes := []common.Node{{Text: "트럼프 대통령 상호 관세 발표", Embedding: e1}}
	if !reflect.DeepEqual(nodes, wantNodes) {
		t.Errorf("nodes = %v, want %v", nodes, wantNodes)
	}
	if len(edges) != 0 {
		t.Errorf("edges = %v, want none", edges)
	}
}

func TestTwoSentenceGroupBecomesChain(t *testing.T) {
	e1 := []float32{1, 0}
	e2 := []float32{0, 1}
	aiClient := &fakeAI{
		completeFn: func(prompt string, _ ai.GenerateOptions) (string, error) {
			if strings.Contains(prompt, "발표했다") {
				return "A 발표", nil
			}
			return "C 상승", nil
		},
	}
	r := &Reconstructor{ai: aiClient, model: defaultCompletionModel, parallel: 2, delay: time.Millisecond}

	groups := []common.SentenceGroup{{
		Sentences:  []string{"A가 B를 발표했다.", "이후 C가 상승했다."},
		Embeddings: [][]float32{e1, e2},
	}}
	reconstructed, _, err := r.ReconstructGroups(context.Background(), groups)
	if err != nil {
		t.Fatalf("ReconstructGroups() error = %v", err)
	}

	nodes, edges := BuildRelations(reconstructed)
	wantNodes := []common.Node{
		{Text: "A 발표", Embedding: e1},
		{Text: "C 상승", Embedding: e2},
	}
	if !reflect.DeepEqual(nodes, wantNodes) {
		t.Errorf("nodes = %v, want %v", nodes, wantNodes)
	}
	wantEdges := []common.Edge{{From: "A 발표", To: "C 상승"}}
	if !reflect.DeepEqual(edges, wantEdges) {
		t.Errorf("edges = %v, want %v", edges, wantEdges)
	}
}
