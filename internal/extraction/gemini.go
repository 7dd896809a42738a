// Package extraction turns free text and grade-sheet images into candidate
// score records via the Gemini generateContent API.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/noah-isme/youscore-api/internal/i18n"
	"github.com/noah-isme/youscore-api/pkg/config"
	appErrors "github.com/noah-isme/youscore-api/pkg/errors"
)

// Candidate is one extracted score record, without id/timestamp/provenance
// which the caller assigns.
type Candidate struct {
	Subject  string  `json:"subject"`
	ExamType string  `json:"examType"`
	Score    float64 `json:"score"`
	MaxScore float64 `json:"maxScore"`
}

// TextRequest describes a free-text extraction.
type TextRequest struct {
	Text            string
	DefaultMaxScore float64
	ExamTypes       []string
	Subjects        []string
	Language        string
}

// ImageRequest describes a grade-sheet image extraction.
type ImageRequest struct {
	Data            string // base64-encoded image bytes
	MIMEType        string
	DefaultMaxScore float64
	ExamTypes       []string
	Subjects        []string
	Language        string
}

// Gateway calls the Gemini REST API with schema-constrained prompts.
type Gateway struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	textModel  string
	imageModel string
	logger     *zap.Logger
}

// NewGateway constructs the extraction gateway.
func NewGateway(cfg config.GeminiConfig, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
		logger:     logger,
	}
}

// Wire types for the generateContent endpoint.

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMIMEType string  `json:"responseMimeType"`
	ResponseSchema   *schema `json:"responseSchema,omitempty"`
}

type schema struct {
	Type       string             `json:"type"`
	Properties map[string]*schema `json:"properties,omitempty"`
	Required   []string           `json:"required,omitempty"`
	Enum       []string           `json:"enum,omitempty"`
	Items      *schema            `json:"items,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func candidateSchema(examTypes []string) *schema {
	return &schema{
		Type: "OBJECT",
		Properties: map[string]*schema{
			"subject":  {Type: "STRING"},
			"examType": {Type: "STRING", Enum: examTypes},
			"score":    {Type: "NUMBER"},
			"maxScore": {Type: "NUMBER"},
		},
		Required: []string{"subject", "examType", "score", "maxScore"},
	}
}

// ExtractOne validates the text and extracts a single candidate record.
func (g *Gateway) ExtractOne(ctx context.Context, req TextRequest) (*Candidate, error) {
	if err := ValidateText(req.Text, req.Language); err != nil {
		return nil, err
	}
	examTypes := orFallback(req.ExamTypes)
	prompt := singlePrompt(req.Text, req.DefaultMaxScore, examTypes, req.Subjects)

	raw, err := g.generate(ctx, g.textModel, []part{{Text: prompt}}, candidateSchema(examTypes))
	if err != nil {
		return nil, g.extractFailed(err, req.Language, i18n.KeyExtractFailed)
	}

	var candidate Candidate
	if err := json.Unmarshal(raw, &candidate); err != nil {
		return nil, g.extractFailed(err, req.Language, i18n.KeyExtractFailed)
	}
	if !candidate.valid() {
		return nil, g.extractFailed(fmt.Errorf("candidate failed schema validation"), req.Language, i18n.KeyExtractFailed)
	}
	return &candidate, nil
}

// ExtractMany validates the text and extracts every candidate it mentions.
func (g *Gateway) ExtractMany(ctx context.Context, req TextRequest) ([]Candidate, error) {
	if err := ValidateText(req.Text, req.Language); err != nil {
		return nil, err
	}
	examTypes := orFallback(req.ExamTypes)
	prompt := bulkPrompt(req.Text, req.DefaultMaxScore, examTypes, req.Subjects)

	raw, err := g.generate(ctx, g.textModel, []part{{Text: prompt}}, &schema{Type: "ARRAY", Items: candidateSchema(examTypes)})
	if err != nil {
		return nil, g.extractFailed(err, req.Language, i18n.KeyExtractFailed)
	}
	return g.parseCandidates(raw, req.Language, i18n.KeyExtractFailed)
}

// ExtractImage extracts every candidate visible in a grade-sheet image.
// Image input skips the free-text pre-validation.
func (g *Gateway) ExtractImage(ctx context.Context, req ImageRequest) ([]Candidate, error) {
	examTypes := orFallback(req.ExamTypes)
	parts := []part{
		{InlineData: &inlineData{MIMEType: req.MIMEType, Data: req.Data}},
		{Text: imagePrompt(req.DefaultMaxScore, examTypes, req.Subjects)},
	}

	raw, err := g.generate(ctx, g.imageModel, parts, &schema{Type: "ARRAY", Items: candidateSchema(examTypes)})
	if err != nil {
		return nil, g.extractFailed(err, req.Language, i18n.KeyImageFailed)
	}
	return g.parseCandidates(raw, req.Language, i18n.KeyImageFailed)
}

func (g *Gateway) generate(ctx context.Context, model string, parts []part, responseSchema *schema) ([]byte, error) {
	body := generateRequest{
		Contents: []content{{Parts: parts}},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   responseSchema,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gemini response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty gemini response")
	}
	text := parsed.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return nil, fmt.Errorf("empty gemini response text")
	}
	return []byte(text), nil
}

// parseCandidates applies the same error discipline to bulk and image paths
// as to the single path: a response that yields no valid candidate is a
// failure, never an empty success.
func (g *Gateway) parseCandidates(raw []byte, lang, key string) ([]Candidate, error) {
	var all []Candidate
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, g.extractFailed(err, lang, key)
	}
	valid := make([]Candidate, 0, len(all))
	for _, c := range all {
		if c.valid() {
			valid = append(valid, c)
		}
	}
	if len(valid) == 0 {
		return nil, g.extractFailed(fmt.Errorf("no valid candidates in response"), lang, key)
	}
	return valid, nil
}

func (g *Gateway) extractFailed(err error, lang, key string) *appErrors.Error {
	g.logger.Warn("score extraction failed", zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrExtractFailed.Code, appErrors.ErrExtractFailed.Status, i18n.Message(lang, key))
}

func (c Candidate) valid() bool {
	return c.Subject != "" && c.ExamType != "" && c.MaxScore > 0
}

func orFallback(examTypes []string) []string {
	if len(examTypes) == 0 {
		return []string{"Khác"}
	}
	return examTypes
}
