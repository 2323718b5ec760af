package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"virtualwardrobe/apperrors"
	"virtualwardrobe/config"
	"virtualwardrobe/logging"
	"virtualwardrobe/models"

	"google.golang.org/genai"
)

// LLMModelName names a Gemini model.
type LLMModelName int32

const (
	Flash20 LLMModelName = iota
	Flash25
	FlashLite25
	Pro25
)

func (t LLMModelName) String() string {
	switch t {
	case Pro25:
		return "gemini-2.5-pro"
	case Flash25:
		return "gemini-2.5-flash"
	case FlashLite25:
		return "gemini-2.5-flash-lite"
	default:
		return "gemini-2.0-flash"
	}
}

// ParseLLMModelName resolves a configured model id. Empty selects Flash20.
func ParseLLMModelName(name string) (LLMModelName, error) {
	if name == "" {
		return Flash20, nil
	}
	for _, model := range []LLMModelName{Flash20, Flash25, FlashLite25, Pro25} {
		if model.String() == name {
			return model, nil
		}
	}
	return Flash20, fmt.Errorf("unknown gemini model %q", name)
}

func floatPointer(f float32) *float32 {
	return &f
}

// GeminiClient wraps the genai client for outfit generation and item
// analysis.
type GeminiClient struct {
	client          *genai.Client
	model           LLMModelName
	maxOutputTokens int32
	logger          logging.Logger
}

func NewGeminiClient(ctx context.Context, cfg config.GeminiConfig, logger logging.Logger) (*GeminiClient, error) {
	model, err := ParseLLMModelName(cfg.Model)
	if err != nil {
		return nil, err
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &GeminiClient{client: client, model: model, maxOutputTokens: cfg.MaxOutputTokens, logger: logger}, nil
}

// Generate sends the instruction text followed by the images, in order, and
// returns the model's reply text.
func (g *GeminiClient) Generate(ctx context.Context, text string, images []models.ImagePart) (string, error) {
	parts := []*genai.Part{{Text: text}}
	for i, image := range images {
		data, err := base64.StdEncoding.DecodeString(image.Data)
		if err != nil {
			return "", apperrors.Internal("invalid image part", fmt.Errorf("part %d: %w", i, err))
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: image.MIMEType, Data: data},
		})
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model.String(), []*genai.Content{{Parts: parts}}, &genai.GenerateContentConfig{
		CandidateCount:  1,
		MaxOutputTokens: g.maxOutputTokens,
		Temperature:     floatPointer(0.8),
	})
	if err != nil {
		return "", apperrors.Upstream("outfit generation failed", true, err)
	}
	g.logUsage("generate outfits", result)
	return candidateText(result)
}

// AnalyzeItem derives the visual attributes of a single clothing image.
func (g *GeminiClient) AnalyzeItem(ctx context.Context, image []byte, mimeType string) (*models.ItemAttributes, error) {
	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
		{Text: "Describe this clothing item. Return its dominant color, pattern (e.g. solid, striped, floral), material and a short category such as shirt, jeans or sneakers."},
	}
	result, err := g.client.Models.GenerateContent(ctx, g.model.String(), []*genai.Content{{Parts: parts}}, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		CandidateCount:   1,
		MaxOutputTokens:  1024,
		Temperature:      floatPointer(0.2),
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"color":    {Type: genai.TypeString},
				"pattern":  {Type: genai.TypeString},
				"material": {Type: genai.TypeString},
				"category": {Type: genai.TypeString},
			},
			Required: []string{"color", "pattern", "material", "category"},
		},
	})
	if err != nil {
		return nil, apperrors.Upstream("item analysis failed", true, err)
	}
	g.logUsage("analyze item", result)

	text, err := candidateText(result)
	if err != nil {
		return nil, err
	}
	var attributes models.ItemAttributes
	if err := json.Unmarshal([]byte(text), &attributes); err != nil {
		return nil, apperrors.Upstream("failed to parse item analysis", false, err)
	}
	return &attributes, nil
}

func (g *GeminiClient) logUsage(operation string, result *genai.GenerateContentResponse) {
	if result.UsageMetadata == nil {
		return
	}
	g.logger.Debug("gemini token usage", logging.Fields{
		"operation": operation,
		"model":     g.model.String(),
		"input":     result.UsageMetadata.PromptTokenCount,
		"output":    result.UsageMetadata.CandidatesTokenCount,
		"thoughts":  result.UsageMetadata.ThoughtsTokenCount,
		"total":     result.UsageMetadata.TotalTokenCount,
	})
}

// candidateText returns the reply text, failing when the prompt or the
// candidate was blocked.
func candidateText(result *genai.GenerateContentResponse) (string, error) {
	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return "", apperrors.Upstream("content blocked by the model", false,
			fmt.Errorf("prompt blocked: %s %s", result.PromptFeedback.BlockReason, result.PromptFeedback.BlockReasonMessage))
	}
	if len(result.Candidates) == 0 {
		return "", apperrors.Upstream("model returned no candidates", true, nil)
	}
	for _, rating := range result.Candidates[0].SafetyRatings {
		if rating.Blocked {
			return "", apperrors.Upstream("content blocked by the model", false,
				fmt.Errorf("candidate blocked by safety setting: %s", rating.Category))
		}
	}
	return result.Text(), nil
}
