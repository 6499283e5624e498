// ABOUTME: Tests for the Gemini extraction adapter
// ABOUTME: Uses an httptest server to validate request shape and error handling
package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func extractedJSON(t *testing.T, fields map[string]string) string {
	t.Helper()
	text, err := json.Marshal(fields)
	require.NoError(t, err)
	body, err := json.Marshal(map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]any{{"text": string(text)}},
			},
		}},
	})
	require.NoError(t, err)
	return string(body)
}

func fullCard() map[string]string {
	return map[string]string{
		"nome": "Mario", "cognome": "Rossi", "email": "mario@acme.it",
		"telefono": "+39 02 123456", "ruolo": "Buyer", "azienda": "Acme SpA",
		"sito_web": "https://acme.it", "indirizzo": "Via Roma 1, Milano", "note": "",
	}
}

func newTestExtractor(t *testing.T, handler http.HandlerFunc) (*Gemini, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g := NewGemini("test-key", "", zap.NewNop())
	g.SetBaseURL(srv.URL)
	return g, srv
}

func TestExtractParsesNineFields(t *testing.T) {
	var captured geminiRequest
	g, _ := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(extractedJSON(t, fullCard())))
	})

	card, err := g.Extract(context.Background(), []byte{0xFF, 0xD8, 0xFF})
	require.NoError(t, err)

	assert.Equal(t, "Mario", card.FirstName)
	assert.Equal(t, "Rossi", card.LastName)
	assert.Equal(t, "Acme SpA", card.Company)
	assert.Equal(t, "Via Roma 1, Milano", card.Address)

	// Deterministic extraction settings
	require.NotNil(t, captured.GenerationConfig)
	assert.InDelta(t, 0.1, captured.GenerationConfig.Temperature, 0.001)
	assert.Equal(t, "application/json", captured.GenerationConfig.ResponseMimeType)
	required := captured.GenerationConfig.ResponseSchema["required"].([]any)
	assert.Len(t, required, 9, "schema requires all nine card fields")
}

func TestExtractStripsDataURIPrefix(t *testing.T) {
	var captured geminiRequest
	g, _ := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(extractedJSON(t, fullCard())))
	})

	_, err := g.Extract(context.Background(), []byte("data:image/jpeg;base64,QUJD"))
	require.NoError(t, err)

	require.NotEmpty(t, captured.Contents)
	require.NotNil(t, captured.Contents[0].Parts[0].InlineData)
	assert.Equal(t, "QUJD", captured.Contents[0].Parts[0].InlineData.Data)
}

func TestExtractEmptyImage(t *testing.T) {
	g := NewGemini("k", "", zap.NewNop())
	_, err := g.Extract(context.Background(), nil)

	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
}

func TestExtractServiceError(t *testing.T) {
	g, _ := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	})

	_, err := g.Extract(context.Background(), []byte{1})
	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
}

func TestExtractNoCandidates(t *testing.T) {
	g, _ := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := g.Extract(context.Background(), []byte{1})
	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.Contains(t, xerr.Reason, "no payload")
}

func TestExtractMalformedPayload(t *testing.T) {
	g, _ := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := json.Marshal(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{{"text": "not json at all"}},
				},
			}},
		})
		_, _ = w.Write(body)
	})

	_, err := g.Extract(context.Background(), []byte{1})
	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.Contains(t, xerr.Reason, "malformed")
}

func TestExtractHonorsContextCancellation(t *testing.T) {
	g, _ := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Extract(ctx, []byte{1})
	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
}
