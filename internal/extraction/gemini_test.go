package extraction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/youscore-api/pkg/config"
	appErrors "github.com/noah-isme/youscore-api/pkg/errors"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) (*Gateway, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gw := NewGateway(config.GeminiConfig{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		TextModel:  "gemini-2.5-flash",
		ImageModel: "gemini-3-pro-preview",
		Timeout:    5 * time.Second,
	}, nil)
	return gw, server
}

func geminiReply(t *testing.T, w http.ResponseWriter, payload any) {
	t.Helper()
	text, err := json.Marshal(payload)
	require.NoError(t, err)

	body := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": string(text)}}}},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestExtractOne(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "models/gemini-2.5-flash:generateContent")
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.GenerationConfig)
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMIMEType)
		assert.Equal(t, "OBJECT", req.GenerationConfig.ResponseSchema.Type)

		geminiReply(t, w, Candidate{Subject: "Toán", ExamType: "Học kỳ", Score: 9, MaxScore: 10})
	})

	got, err := gw.ExtractOne(context.Background(), TextRequest{
		Text:            "Toán 9 điểm cuối học kỳ",
		DefaultMaxScore: 10,
		ExamTypes:       []string{"Học kỳ", "Khác"},
		Language:        "vi",
	})
	require.NoError(t, err)
	assert.Equal(t, "Toán", got.Subject)
	assert.Equal(t, "Học kỳ", got.ExamType)
	assert.InDelta(t, 9, got.Score, 0.001)
	assert.InDelta(t, 10, got.MaxScore, 0.001)
}

func TestExtractOneRejectsInvalidInputBeforeCallingAPI(t *testing.T) {
	called := false
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	for _, text := range []string{"9", "hi", "  "} {
		_, err := gw.ExtractOne(context.Background(), TextRequest{Text: text, DefaultMaxScore: 10, Language: "vi"})
		require.Error(t, err, "input %q should be rejected", text)

		var appErr *appErrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	}
	assert.False(t, called)
}

func TestExtractOneUpstreamFailure(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := gw.ExtractOne(context.Background(), TextRequest{Text: "Toán 9 điểm", DefaultMaxScore: 10, Language: "vi"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "EXTRACT_FAILED", appErr.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
}

func TestExtractOneInvalidCandidate(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		geminiReply(t, w, Candidate{Subject: "", ExamType: "Khác", Score: 9, MaxScore: 10})
	})

	_, err := gw.ExtractOne(context.Background(), TextRequest{Text: "Toán 9 điểm", DefaultMaxScore: 10, Language: "vi"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "EXTRACT_FAILED", appErr.Code)
}

func TestExtractMany(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ARRAY", req.GenerationConfig.ResponseSchema.Type)

		geminiReply(t, w, []Candidate{
			{Subject: "Toán", ExamType: "Khác", Score: 9, MaxScore: 10},
			{Subject: "Văn", ExamType: "Khác", Score: 8, MaxScore: 10},
		})
	})

	got, err := gw.ExtractMany(context.Background(), TextRequest{
		Text:            "Toán 9, Văn 8",
		DefaultMaxScore: 10,
		Language:        "vi",
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Toán", got[0].Subject)
	assert.Equal(t, "Văn", got[1].Subject)
}

func TestExtractManyFiltersInvalidCandidates(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		geminiReply(t, w, []Candidate{
			{Subject: "Toán", ExamType: "Khác", Score: 9, MaxScore: 10},
			{Subject: "", ExamType: "Khác", Score: 7, MaxScore: 10},
			{Subject: "Lý", ExamType: "Khác", Score: 8, MaxScore: 0},
		})
	})

	got, err := gw.ExtractMany(context.Background(), TextRequest{Text: "Toán 9 điểm", DefaultMaxScore: 10, Language: "vi"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Toán", got[0].Subject)
}

func TestExtractManyAllInvalidIsError(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		geminiReply(t, w, []Candidate{})
	})

	_, err := gw.ExtractMany(context.Background(), TextRequest{Text: "Toán 9 điểm", DefaultMaxScore: 10, Language: "vi"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "EXTRACT_FAILED", appErr.Code)
}

func TestExtractImage(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "models/gemini-3-pro-preview:generateContent")

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 2)
		require.NotNil(t, req.Contents[0].Parts[0].InlineData)
		assert.Equal(t, "image/png", req.Contents[0].Parts[0].InlineData.MIMEType)

		geminiReply(t, w, []Candidate{{Subject: "Hóa", ExamType: "Giữa học kỳ", Score: 7.5, MaxScore: 10}})
	})

	got, err := gw.ExtractImage(context.Background(), ImageRequest{
		Data:            "aGVsbG8=",
		MIMEType:        "image/png",
		DefaultMaxScore: 10,
		ExamTypes:       []string{"Giữa học kỳ", "Khác"},
		Language:        "vi",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Hóa", got[0].Subject)
}

func TestExtractImageFailureUsesImageMessage(t *testing.T) {
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := gw.ExtractImage(context.Background(), ImageRequest{Data: "aGVsbG8=", MIMEType: "image/png", DefaultMaxScore: 10, Language: "vi"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "EXTRACT_FAILED", appErr.Code)
	assert.Contains(t, appErr.Message, "ảnh")
}
