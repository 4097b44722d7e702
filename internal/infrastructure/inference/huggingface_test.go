package inference

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fashion-ai/internal/domain/entity"
	"fashion-ai/internal/infrastructure/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HuggingFace {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewHuggingFace(HuggingFaceConfig{
		URL:             srv.URL,
		Token:           "hf_test",
		CaptionModel:    "Salesforce/blip-image-captioning-base",
		ClassifierModel: "facebook/bart-large-mnli",
		Timeout:         5 * time.Second,
		Retry:           RetryPolicy{Attempts: 3, Delay: time.Millisecond},
	}, logging.Discard())
}

func TestHuggingFace_Caption(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/models/Salesforce/blip-image-captioning-base", r.URL.Path)
		require.Equal(t, "Bearer hf_test", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Equal(t, []byte("jpeg-bytes"), body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"generated_text":"  a woman wearing a red floral dress "}]`))
	})

	caption, err := client.Caption(context.Background(), []byte("jpeg-bytes"))
	require.NoError(t, err)
	require.Equal(t, "a woman wearing a red floral dress", caption)
}

func TestHuggingFace_CaptionEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := client.Caption(context.Background(), []byte("x"))
	require.ErrorIs(t, err, entity.ErrEmptyCaption)

	_, err = client.Caption(context.Background(), nil)
	require.ErrorIs(t, err, entity.ErrEmptyImage)
}

func TestHuggingFace_RetriesWhileModelLoads(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"Model is currently loading","estimated_time":20}`))
			return
		}
		_, _ = w.Write([]byte(`[{"generated_text":"a man in a denim jacket"}]`))
	})

	caption, err := client.Caption(context.Background(), []byte("x"))
	require.NoError(t, err)
	require.Equal(t, "a man in a denim jacket", caption)
	require.Equal(t, int32(3), calls.Load())
}

func TestHuggingFace_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid token"}`))
	})

	_, err := client.Caption(context.Background(), []byte("x"))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.False(t, apiErr.Temporary())
	require.Equal(t, int32(1), calls.Load())
}

func TestHuggingFace_DoesNotRetryMalformedResponse(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"sequence":"x","labels":["a","b"],"scores":[0.9]}`))
	})

	_, err := client.Classify(context.Background(), "x", []string{"a", "b"})
	require.ErrorContains(t, err, "2 labels and 1 scores")
	require.Equal(t, int32(1), calls.Load())
}

func TestHuggingFace_Classify(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models/facebook/bart-large-mnli", r.URL.Path)

		var req zeroShotRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "a black leather jacket", req.Inputs)
		require.Equal(t, []string{"cotton", "leather", "wool"}, req.Parameters.CandidateLabels)
		require.True(t, req.Parameters.MultiLabel)

		_, _ = w.Write([]byte(`{"sequence":"a black leather jacket","labels":["leather","wool","cotton"],"scores":[0.97,0.12,0.05]}`))
	})

	c, err := client.Classify(context.Background(), "a black leather jacket", []string{"cotton", "leather", "wool"})
	require.NoError(t, err)
	require.Equal(t, "a black leather jacket", c.Sequence)
	require.Equal(t, []entity.LabelScore{
		{Label: "leather", Score: 0.97},
		{Label: "wool", Score: 0.12},
		{Label: "cotton", Score: 0.05},
	}, c.Scores)
}

func TestHuggingFace_ClassifyPairFormat(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"label":"men","score":0.3},{"label":"women","score":0.8}]`))
	})

	c, err := client.Classify(context.Background(), "a woman in a gown", []string{"men", "women"})
	require.NoError(t, err)
	require.Equal(t, "women", c.Scores[0].Label)
	require.Equal(t, "a woman in a gown", c.Sequence)
}

func TestDecodeClassification_Mismatch(t *testing.T) {
	_, err := decodeClassification("x", []byte(`{"labels":["a","b"],"scores":[0.1]}`))
	require.Error(t, err)
}

func TestHuggingFace_ClassifyNoLabels(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("backend must not be called without labels")
	})

	c, err := client.Classify(context.Background(), "text", nil)
	require.NoError(t, err)
	require.Empty(t, c.Scores)
}
