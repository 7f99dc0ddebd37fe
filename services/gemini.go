package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/M2YTech/libaas-backend/apperrors"

	"google.golang.org/genai"
)

// LLMModelName selects the Gemini model for a generation call.
type LLMModelName int32

const (
	Pro25 LLMModelName = iota
	Flash25
	FlashLite25
	Flash20
)

func (t LLMModelName) String() string {
	switch t {
	case Pro25:
		return "gemini-2.5-pro"
	case Flash25:
		return "gemini-2.5-flash"
	case FlashLite25:
		return "gemini-2.5-flash-lite-preview-06-17"
	case Flash20:
		return "gemini-2.0-flash"
	default:
		return "gemini-2.0-flash"
	}
}

func floatPointer(f float32) *float32 {
	return &f
}

// StyleTipGenerator produces the daily push notification tip.
type StyleTipGenerator interface {
	GenerateDailyTip(ctx context.Context, gender string, country string, modelName LLMModelName) (*LLMResponse, error)
}

type GoogleTipService struct {
	APIKey string
}

func NewGoogleTipService(apiKey string) *GoogleTipService {
	return &GoogleTipService{APIKey: apiKey}
}

const dailyTipSystemPrompt = `You are a fashion stylist writing one-line daily tips for a wardrobe app. Reply with the tip text only, no quotes, no markdown, at most two sentences.`

func (s *GoogleTipService) GenerateDailyTip(ctx context.Context, gender string, country string, modelName LLMModelName) (*LLMResponse, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	parts := []*genai.Part{{
		Text: fmt.Sprintf("Write today's style tip for a %s based in %s. Make it seasonal, practical and specific.", gender, country),
	}}
	result, err := client.Models.GenerateContent(ctx, modelName.String(), []*genai.Content{{Parts: parts}}, &genai.GenerateContentConfig{
		CandidateCount:  1,
		MaxOutputTokens: 200,
		Temperature:     floatPointer(1),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: dailyTipSystemPrompt}},
		},
	})
	if err != nil {
		fmt.Println("Error in GenerateContent:", err)
		return nil, apperrors.Provider("daily tip generation failed", err)
	}
	if result.PromptFeedback != nil {
		fmt.Println(result.PromptFeedback.BlockReason)
		fmt.Println(result.PromptFeedback.BlockReasonMessage)
		return nil, fmt.Errorf("content violation: %s", result.PromptFeedback.BlockReasonMessage)
	}
	for _, candidate := range result.Candidates {
		for _, rating := range candidate.SafetyRatings {
			if rating.Blocked {
				return nil, fmt.Errorf("content violation: tip blocked for %s", rating.Category)
			}
		}
	}

	var inputTokenCount int32
	var thoughtsTokenCount int32
	var outputTokenCount int32
	var totalTokenCount int32
	if result.UsageMetadata != nil {
		inputTokenCount = result.UsageMetadata.PromptTokenCount
		thoughtsTokenCount = result.UsageMetadata.ThoughtsTokenCount
		outputTokenCount = result.UsageMetadata.CandidatesTokenCount
		totalTokenCount = result.UsageMetadata.TotalTokenCount
	}

	return &LLMResponse{
		Response:           strings.TrimSpace(result.Text()),
		Model:              modelName.String(),
		InputTokenCount:    inputTokenCount,
		ThoughtsTokenCount: thoughtsTokenCount,
		OutputTokenCount:   outputTokenCount,
		TotalTokenCount:    totalTokenCount,
	}, nil
}
