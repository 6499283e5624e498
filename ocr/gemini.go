// ABOUTME: Business-card OCR via Gemini structured extraction
// ABOUTME: Sends the image with a fixed nine-field response schema, low temperature
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"fieracrm/models"
)

// DefaultModel matches the model the production data was extracted
// with.
const DefaultModel = "gemini-2.5-flash"

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Extractor turns a card image into a raw contact draft.
type Extractor interface {
	Extract(ctx context.Context, image []byte) (models.ScannedCard, error)
}

// ExtractionError reports a failed or unparseable OCR call.
// User-visible; recovery is a fresh capture, never an automatic retry.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ocr: %s: %v", e.Reason, e.Err)
	}
	return "ocr: " + e.Reason
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Gemini is the production Extractor.
type Gemini struct {
	http   *resty.Client
	apiKey string
	model  string
	logger *zap.Logger
}

// NewGemini builds an extractor. No retry policy on the client: every
// retry is user-initiated.
func NewGemini(apiKey, model string, logger *zap.Logger) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	client := resty.New().
		SetBaseURL(defaultBaseURL).
		SetTimeout(60 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &Gemini{http: client, apiKey: apiKey, model: model, logger: logger}
}

// SetBaseURL points the extractor at a different endpoint. Tests use
// this with httptest servers.
func (g *Gemini) SetBaseURL(url string) { g.http.SetBaseURL(url) }

// Request and response shapes for the generateContent endpoint.
type geminiRequest struct {
	Contents          []geminiContent   `json:"contents"`
	SystemInstruction *geminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature      float64        `json:"temperature"`
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// cardSchema fixes the output shape: exactly the nine textual card
// fields, all required, so absent data comes back as empty strings
// rather than missing keys.
func cardSchema() map[string]any {
	fields := map[string]string{
		"nome":      "Il nome della persona.",
		"cognome":   "Il cognome della persona.",
		"email":     "Indirizzo email corretto e validato.",
		"telefono":  "Numero di telefono in formato internazionale se possibile.",
		"ruolo":     "Job title o ruolo lavorativo.",
		"azienda":   "Nome dell'azienda.",
		"sito_web":  "URL del sito web aziendale.",
		"indirizzo": "Indirizzo fisico completo.",
		"note":      "Note rilevanti trovate nel biglietto.",
	}

	props := make(map[string]any, len(fields))
	required := make([]string, 0, len(fields))
	for name, desc := range fields {
		props[name] = map[string]any{"type": "STRING", "description": desc}
		required = append(required, name)
	}
	return map[string]any{
		"type":       "OBJECT",
		"properties": props,
		"required":   required,
	}
}

const extractionPrompt = `Analizza l'immagine con OCR.
Estrai in modo pulito e strutturato i dati del biglietto da visita.
Se un campo non è presente, restituiscilo come stringa vuota ("").
Correggi automaticamente:
- caratteri speciali mal letti
- spazi in eccesso
- formattazione telefono in formato internazionale se possibile
- email con errori OCR (sostituzioni tipo "@gmaiI.com" -> "@gmail.com")

Se l'immagine è scura, obliqua o sfocata, prova comunque a recuperare più dati possibili.`

const systemInstruction = "Sei un assistente OCR avanzato specializzato in biglietti da visita."

// Extract sends the image for structured extraction. The input may be
// raw JPEG bytes or a data URI; any data-URI prefix is stripped before
// transport.
func (g *Gemini) Extract(ctx context.Context, image []byte) (models.ScannedCard, error) {
	var card models.ScannedCard
	if len(image) == 0 {
		return card, &ExtractionError{Reason: "empty image"}
	}

	payload := encodeImage(image)

	req := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{InlineData: &inlineData{MimeType: "image/jpeg", Data: payload}},
				{Text: extractionPrompt},
			},
		}},
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemInstruction}}},
		GenerationConfig: &generationConfig{
			Temperature:      0.1,
			ResponseMimeType: "application/json",
			ResponseSchema:   cardSchema(),
		},
	}

	var resp geminiResponse
	httpResp, err := g.http.R().
		SetContext(ctx).
		SetQueryParam("key", g.apiKey).
		SetBody(req).
		SetResult(&resp).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", g.model))
	if err != nil {
		return card, &ExtractionError{Reason: "request failed", Err: err}
	}
	if httpResp.IsError() {
		g.logger.Warn("gemini rejected extraction",
			zap.Int("status", httpResp.StatusCode()))
		return card, &ExtractionError{
			Reason: fmt.Sprintf("service returned %s", httpResp.Status()),
		}
	}

	text := candidateText(resp)
	if text == "" {
		return card, &ExtractionError{Reason: "no payload in response"}
	}
	if err := json.Unmarshal([]byte(text), &card); err != nil {
		return card, &ExtractionError{Reason: "malformed extraction payload", Err: err}
	}
	return card, nil
}

// encodeImage base64-encodes raw bytes, or passes through the payload
// of a data URI untouched (it is already base64).
func encodeImage(image []byte) string {
	if bytes.HasPrefix(image, []byte("data:")) {
		if i := bytes.IndexByte(image, ','); i >= 0 {
			return string(image[i+1:])
		}
	}
	return base64.StdEncoding.EncodeToString(image)
}

func candidateText(resp geminiResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return ""
	}
	return parts[0].Text
}
