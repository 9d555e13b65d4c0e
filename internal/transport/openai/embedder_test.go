package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lograg/internal/domain"
	"github.com/kailas-cloud/lograg/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRAGMetrics()
	os.Exit(m.Run())
}

// fakeEmbeddings answers /embeddings with one vector per input, built by vec.
// order lets a test return items out of index order.
func fakeEmbeddings(t *testing.T, vec func(i int, in string) []float32, order func([]openai.Embedding)) (*httptest.Server, *openai.EmbeddingRequest) {
	t.Helper()
	var seen openai.EmbeddingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer k" {
			t.Errorf("auth = %q", got)
		}
		var raw struct {
			Input      []string `json:"input"`
			Model      string   `json:"model"`
			Dimensions int      `json:"dimensions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode request: %v", err)
		}
		seen = openai.EmbeddingRequest{Input: raw.Input, Model: openai.EmbeddingModel(raw.Model), Dimensions: raw.Dimensions}

		resp := openai.EmbeddingResponse{Object: "list", Model: openai.EmbeddingModel(raw.Model)}
		for i, in := range raw.Input {
			resp.Data = append(resp.Data, openai.Embedding{Object: "embedding", Index: i, Embedding: vec(i, in)})
		}
		if order != nil {
			order(resp.Data)
		}
		resp.Usage = openai.Usage{PromptTokens: 7 * len(raw.Input), TotalTokens: 7 * len(raw.Input)}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func newTestEmbedder(url string, dims int) *Embedder {
	return NewEmbedder(&Config{
		APIKey:     "k",
		BaseURL:    url,
		Model:      "text-embedding-3-small",
		Dimensions: dims,
		Provider:   "test",
		Logger:     zap.NewNop(),
	})
}

func TestEmbedder_EmbedLogChunk(t *testing.T) {
	srv, seen := fakeEmbeddings(t, func(int, string) []float32 { return []float32{0.5, -0.5, 0.25} }, nil)
	emb := newTestEmbedder(srv.URL, 3)

	chunk := "2024-01-15 10:23:45 ERROR payment-svc connection refused to db:5432"
	res, err := emb.Embed(context.Background(), chunk)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(res.Embedding) != 3 || res.Embedding[1] != -0.5 {
		t.Errorf("embedding = %v", res.Embedding)
	}
	if res.PromptTokens != 7 || res.TotalTokens != 7 {
		t.Errorf("usage = %d/%d, want 7/7", res.PromptTokens, res.TotalTokens)
	}
	if seen.Dimensions != 3 || string(seen.Model) != "text-embedding-3-small" {
		t.Errorf("request model=%s dims=%d", seen.Model, seen.Dimensions)
	}
}

func TestEmbedder_BatchRestoresInputOrder(t *testing.T) {
	reverse := func(d []openai.Embedding) {
		for i, j := 0, len(d)-1; i < j; i, j = i+1, j-1 {
			d[i], d[j] = d[j], d[i]
		}
	}
	srv, seen := fakeEmbeddings(t, func(i int, _ string) []float32 { return []float32{float32(i)} }, reverse)
	emb := newTestEmbedder(srv.URL, 0)

	chunks := []string{"INFO boot", "WARN slow query", "ERROR timeout"}
	res, err := emb.BatchEmbed(context.Background(), chunks)
	if err != nil {
		t.Fatalf("BatchEmbed: %v", err)
	}
	if len(seen.Input.([]string)) != 3 {
		t.Errorf("expected one request carrying all 3 inputs, got %v", seen.Input)
	}
	if seen.Dimensions != 0 {
		t.Errorf("dimensions must be omitted when unset, got %d", seen.Dimensions)
	}
	for i, v := range res.Embeddings {
		if v[0] != float32(i) {
			t.Errorf("embeddings[%d] = %v, want [%d]", i, v, i)
		}
	}
	if res.TotalTokens != 21 {
		t.Errorf("TotalTokens = %d, want 21", res.TotalTokens)
	}
}

func TestEmbedder_BatchEmptyInput(t *testing.T) {
	res, err := newTestEmbedder("http://127.0.0.1:1", 0).BatchEmbed(context.Background(), nil)
	if err != nil || res.Embeddings != nil {
		t.Errorf("BatchEmbed(nil) = %v, %v", res.Embeddings, err)
	}
}

func TestEmbedder_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.1]}]}`))
	}))
	defer srv.Close()

	_, err := newTestEmbedder(srv.URL, 0).BatchEmbed(context.Background(), []string{"a", "b"})
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("err = %v, want ErrEmbeddingUnavailable", err)
	}
}

func TestEmbedder_ErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantRate    bool
		wantProvErr bool
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"rate_limit_error"}}`, true, false},
		{"detail body", http.StatusBadRequest, `{"detail":"input too long"}`, false, true},
		{"server error", http.StatusBadGateway, `{"error":{"message":"upstream"}}`, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestEmbedder(srv.URL, 0).Embed(context.Background(), "GET /health 200")
			if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
				t.Fatalf("err = %v, want ErrEmbeddingUnavailable", err)
			}
			if got := errors.Is(err, domain.ErrRateLimited); got != tt.wantRate {
				t.Errorf("ErrRateLimited = %v, want %v", got, tt.wantRate)
			}
			if got := errors.Is(err, domain.ErrEmbeddingProviderError); got != tt.wantProvErr {
				t.Errorf("ErrEmbeddingProviderError = %v, want %v", got, tt.wantProvErr)
			}
		})
	}
}

func TestEmbedder_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestEmbedder(url, 0).Embed(context.Background(), "x")
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("err = %v, want ErrEmbeddingUnavailable", err)
	}
}

func TestEmbedder_NilLoggerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	emb := NewEmbedder(&Config{APIKey: "k", BaseURL: srv.URL, Model: "text-embedding-3-small", Provider: "test"})
	if _, err := emb.Embed(context.Background(), "x"); !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("err = %v, want ErrEmbeddingUnavailable", err)
	}
}
