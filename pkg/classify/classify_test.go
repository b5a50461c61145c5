package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T, labels map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/classify", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		label, ok := labels[body.Text]
		if !ok {
			label = "LABEL_0"
		}
		json.NewEncoder(w).Encode([]map[string]any{{"label": label, "score": 0.97}})
	})
	return httptest.NewServer(mux)
}

func TestClassify(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"금리가 오르면 환율이 내린다": "LABEL_1",
		"오늘은 날씨가 맑다":      "LABEL_0",
	})
	defer srv.Close()

	client, err := NewClient(context.Background(), NewClientParams{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	tests := []struct {
		name     string
		sentence string
		causal   bool
	}{
		{"causal sentence", "금리가 오르면 환율이 내린다", true},
		{"general sentence", "오늘은 날씨가 맑다", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, err := client.Classify(context.Background(), tt.sentence)
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if label.Causal() != tt.causal {
				t.Errorf("Classify(%q).Causal() = %v, want %v", tt.sentence, label.Causal(), tt.causal)
			}
		})
	}
}

func TestNewClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := NewClient(context.Background(), NewClientParams{BaseURL: srv.URL}); err == nil {
		t.Fatal("NewClient() expected error for failing health check")
	}
}

func TestClassify_ErrorStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/classify", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := NewClient(context.Background(), NewClientParams{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := client.Classify(context.Background(), "문장"); err == nil {
		t.Fatal("Classify() expected error for 500 response")
	}
}
