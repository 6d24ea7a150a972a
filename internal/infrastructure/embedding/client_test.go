package embedding_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/bibbank/bib/services/review-service/pkg/observability"
	"github.com/bibbank/bib/services/review-service/internal/infrastructure/embedding"
)

// fakeRuntime emulates the embedding runtime: every whitespace token plus
// two special tokens becomes a 3-wide hidden state.
func fakeRuntime(t *testing.T, modelID string, maxInput int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(runtimeHandler(t, modelID, maxInput, false))
}

// strictRuntime behaves like fakeRuntime but answers 422 to blank inputs.
func strictRuntime(t *testing.T, modelID string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(runtimeHandler(t, modelID, 512, true))
}

func runtimeHandler(t *testing.T, modelID string, maxInput int, rejectBlank bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/info":
			assert.Equal(t, http.MethodGet, r.Method)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"model_id":         modelID,
				"max_input_length": maxInput,
			})
		case "/embed_all":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req struct {
				Inputs   string `json:"inputs"`
				Truncate bool   `json:"truncate"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.True(t, req.Truncate)

			if rejectBlank && strings.TrimSpace(req.Inputs) == "" {
				w.WriteHeader(http.StatusUnprocessableEntity)
				w.Write([]byte(`{"error":"inputs cannot be empty","error_type":"Validation"}`))
				return
			}

			tokens := [][]float64{{0, 0, 0}}
			for i, word := range strings.Fields(req.Inputs) {
				tokens = append(tokens, []float64{float64(len(word)), float64(i), 3})
			}
			tokens = append(tokens, []float64{0, 0, 0})
			json.NewEncoder(w).Encode([][][]float64{tokens})
		default:
			http.NotFound(w, r)
		}
	}
}

func newClient(t *testing.T, url, modelID string) *embedding.Client {
	t.Helper()
	c, err := embedding.NewClient(embedding.ClientConfig{
		BaseURL:   url + "/",
		ModelID:   modelID,
		MaxTokens: 512,
		Timeout:   5 * time.Second,
	}, noop.NewMeterProvider().Meter("test"), observability.NopLogger())
	require.NoError(t, err)
	return c
}

func TestClient_BindAndEmbed(t *testing.T) {
	server := fakeRuntime(t, "bert-base-uncased", 512)
	defer server.Close()

	emb, err := newClient(t, server.URL, "bert-base-uncased").Bind(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, emb.Width())

	vec, err := emb.Embed(context.Background(), "good shoes")
	require.NoError(t, err)

	// Tokens: [0 0 0] [4 0 3] [5 1 3] [0 0 0]
	require.Len(t, vec, 3)
	assert.InDelta(t, 9.0/4.0, vec[0], 1e-12)
	assert.InDelta(t, 1.0/4.0, vec[1], 1e-12)
	assert.InDelta(t, 6.0/4.0, vec[2], 1e-12)
}

func TestClient_EmptyTextKeepsWidth(t *testing.T) {
	server := fakeRuntime(t, "bert-base-uncased", 512)
	defer server.Close()

	emb, err := newClient(t, server.URL, "").Bind(context.Background())
	require.NoError(t, err)

	vec, err := emb.Embed(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, vec)
}

func TestClient_RuntimeRejectingBlankInput(t *testing.T) {
	server := strictRuntime(t, "bert-base-uncased")
	defer server.Close()

	emb, err := newClient(t, server.URL, "bert-base-uncased").Bind(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, emb.Width())

	for _, text := range []string{"", "  \n"} {
		vec, err := emb.Embed(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0, 0}, vec)
	}

	vec, err := emb.Embed(context.Background(), "good")
	require.NoError(t, err)
	assert.InDelta(t, 4.0/3.0, vec[0], 1e-12)
}

func TestEmbedder_RejectedNonBlankInputFails(t *testing.T) {
	var refuse atomic.Bool
	runtime := runtimeHandler(t, "m", 512, false)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if refuse.Load() {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"error":"bad input"}`))
			return
		}
		runtime(w, r)
	}))
	defer server.Close()

	emb, err := newClient(t, server.URL, "").Bind(context.Background())
	require.NoError(t, err)

	refuse.Store(true)
	_, err = emb.Embed(context.Background(), "hello")
	require.Error(t, err)

	var rtErr *embedding.RuntimeError
	require.True(t, errors.As(err, &rtErr))
	assert.Equal(t, http.StatusUnprocessableEntity, rtErr.StatusCode)
}

func TestClient_BindRejectsWrongRuntime(t *testing.T) {
	t.Run("model id", func(t *testing.T) {
		server := fakeRuntime(t, "some-other-model", 512)
		defer server.Close()

		_, err := newClient(t, server.URL, "bert-base-uncased").Bind(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "some-other-model")
	})

	t.Run("max input length", func(t *testing.T) {
		server := fakeRuntime(t, "bert-base-uncased", 256)
		defer server.Close()

		_, err := newClient(t, server.URL, "bert-base-uncased").Bind(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "256")
	})
}

func TestClient_RuntimeError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"model is loading"}`))
	}))
	defer server.Close()

	_, err := newClient(t, server.URL, "").TokenStates(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Contains(t, err.Error(), "model is loading")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[[1, 2, 3]]`))
	}))
	defer server.Close()

	_, err := newClient(t, server.URL, "").TokenStates(context.Background(), "hello")
	assert.Error(t, err)
}

func TestClient_ContextCancellation(t *testing.T) {
	server := fakeRuntime(t, "m", 512)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newClient(t, server.URL, "").TokenStates(ctx, "hello")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewClient_Validation(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	_, err := embedding.NewClient(embedding.ClientConfig{MaxTokens: 512}, meter, observability.NopLogger())
	assert.Error(t, err)

	_, err = embedding.NewClient(embedding.ClientConfig{BaseURL: "http://localhost:8081"}, meter, observability.NopLogger())
	assert.Error(t, err)
}

func TestMeanPool(t *testing.T) {
	vec, err := embedding.MeanPool([][]float64{{1, 2}, {3, 4}}, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, vec)

	vec, err = embedding.MeanPool(nil, 4)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0}, vec)

	_, err = embedding.MeanPool([][]float64{{1, 2}, {3}}, 2)
	assert.Error(t, err)
}
