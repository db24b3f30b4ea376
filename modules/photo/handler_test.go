package photo

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-lens-server/modules/common/apperr"
	"ai-lens-server/modules/common/logger"
	"ai-lens-server/modules/submodule/replicate"
)

func newTestRouter(g Generator, ratePerMinute int) *mux.Router {
	r := mux.NewRouter()
	NewHandler(g, ratePerMinute, nil, logger.Discard()).RegisterRoutes(r)
	return r
}

func postGenerate(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Generate(t *testing.T) {
	text := &mockText{}
	image := &mockImage{}
	r := newTestRouter(newTestService(text, image, nil, nil), 0)

	for _, path := range []string{"/generate", "/api/generate"} {
		t.Run(path, func(t *testing.T) {
			rec := postGenerate(t, r, path, map[string]any{
				"iso": "400", "aperture": "2.8", "shutterSpeed": "250",
				"lensType": "standard", "lighting": "natural",
			})
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp GenerateResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.True(t, resp.Success)
			assert.Contains(t, resp.Prompt, "ISO: 400")
			assert.Equal(t, "mock analysis", resp.Analysis)
			assert.Equal(t, "https://replicate.delivery/mock.png", resp.ImageURL)
			assert.Equal(t, MessageWithImage, resp.Message)
			assert.Empty(t, resp.Note)
		})
	}
}

func TestHandler_GenerateImageFailureOmitsImageURL(t *testing.T) {
	image := &mockImage{RunFn: func(context.Context, string, replicate.PredictionInput) (json.RawMessage, error) {
		return nil, assert.AnError
	}}
	r := newTestRouter(newTestService(&mockText{}, image, nil, nil), 0)

	rec := postGenerate(t, r, "/api/generate", validRequest())
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.NotContains(t, raw, "imageUrl")
	assert.Equal(t, NoteImageUnavailable, raw["note"])
	assert.Equal(t, MessageWithoutImage, raw["message"])
}

func TestHandler_GenerateErrors(t *testing.T) {
	t.Run("missing params", func(t *testing.T) {
		text := &mockText{}
		r := newTestRouter(newTestService(text, &mockImage{}, nil, nil), 0)

		rec := postGenerate(t, r, "/api/generate", map[string]string{"iso": "400"})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var body apperr.APIError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Missing required camera parameters", body.Error)
		assert.Zero(t, text.Calls())
	})

	t.Run("not configured", func(t *testing.T) {
		r := newTestRouter(newTestService(nil, nil, nil, nil), 0)

		rec := postGenerate(t, r, "/api/generate", validRequest())
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "GEMINI_API_KEY")
	})

	t.Run("invalid json", func(t *testing.T) {
		r := newTestRouter(newTestService(&mockText{}, nil, nil, nil), 0)

		rec := postGenerate(t, r, "/api/generate", `{"iso":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("text provider error", func(t *testing.T) {
		g := &mockGenerator{GenerateFn: func(context.Context, GenerateRequest, ProgressFunc) (*GenerationResult, error) {
			return nil, apperr.Unexpected("text generation", assert.AnError)
		}}
		r := newTestRouter(g, 0)

		rec := postGenerate(t, r, "/api/generate", validRequest())
		require.Equal(t, http.StatusInternalServerError, rec.Code)

		var body apperr.APIError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Failed to generate image", body.Error)
		assert.Equal(t, assert.AnError.Error(), body.Details)
	})
}

func TestHandler_RateLimit(t *testing.T) {
	r := newTestRouter(newTestService(&mockText{}, nil, nil, nil), 1)

	first := postGenerate(t, r, "/api/generate", validRequest())
	assert.Equal(t, http.StatusOK, first.Code)

	second := postGenerate(t, r, "/api/generate", validRequest())
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
