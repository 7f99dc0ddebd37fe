package services

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/M2YTech/libaas-backend/apperrors"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/openai/openai-go/v3/shared/constant"
)

const (
	GroqBaseURL   = "https://api.groq.com/openai/v1"
	GroqChatModel = "llama-3.3-70b-versatile"
	VisionModel   = "gpt-4o-mini"

	OutfitMaxTokens   = 3000
	InsightsMaxTokens = 1500
	VisionMaxTokens   = 300
)

// LLMResponse is the first completion choice of a provider call plus its
// token usage. Thoughts fields are only filled by the Gemini path.
type LLMResponse struct {
	Response           string
	Model              string
	InputTokenCount    int32
	OutputTokenCount   int32
	ThoughtsTokenCount int32
	TotalTokenCount    int32
	Thoughts           string
	IsTest             bool
}

// ChatLLMProvider is the chat-completion surface the generation pipelines
// talk to. Implementations must not retry; callers decide the failure policy.
type ChatLLMProvider interface {
	Complete(ctx context.Context, systemPrompt string, userPrompt string, maxTokens int64) (*LLMResponse, error)
}

// VisionLLMProvider analyzes one image together with an instruction.
type VisionLLMProvider interface {
	AnalyzeImage(ctx context.Context, systemPrompt string, userPrompt string, imageBytes []byte) (*LLMResponse, error)
}

// OpenAIChatService speaks to any OpenAI-compatible chat endpoint. The same
// type serves Groq (chat) and OpenAI (vision) through different constructors.
type OpenAIChatService struct {
	client      openai.Client
	model       string
	temperature float64
	forceJSON   bool
}

func NewOpenAIChatService(apiKey string, baseURL string, model string, temperature float64, forceJSON bool) *OpenAIChatService {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIChatService{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: temperature,
		forceJSON:   forceJSON,
	}
}

// NewGroqChatService configures the outfit/insights chat provider.
func NewGroqChatService(apiKey string) *OpenAIChatService {
	return NewOpenAIChatService(apiKey, GroqBaseURL, GroqChatModel, 0.7, false)
}

// NewVisionService configures the profile photo analysis provider.
func NewVisionService(apiKey string) *OpenAIChatService {
	return NewOpenAIChatService(apiKey, "", VisionModel, 0, true)
}

func (s *OpenAIChatService) Complete(ctx context.Context, systemPrompt string, userPrompt string, maxTokens int64) (*LLMResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(s.model),
		MaxTokens: openai.Int(maxTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(systemPrompt),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(userPrompt),
					},
				},
			},
		},
	}
	s.applyOptions(&params)
	return s.send(ctx, params)
}

func (s *OpenAIChatService) AnalyzeImage(ctx context.Context, systemPrompt string, userPrompt string, imageBytes []byte) (*LLMResponse, error) {
	imageURL := fmt.Sprintf("data:image/jpeg;base64,%s", base64.StdEncoding.EncodeToString(imageBytes))
	params := openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(s.model),
		MaxTokens: openai.Int(VisionMaxTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(systemPrompt),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
							{OfText: &openai.ChatCompletionContentPartTextParam{
								Text: userPrompt,
							}},
							{OfImageURL: &openai.ChatCompletionContentPartImageParam{
								ImageURL: openai.ChatCompletionContentPartImageImageURLParam{
									URL:    imageURL,
									Detail: "low",
								},
							}},
						},
					},
				},
			},
		},
	}
	s.applyOptions(&params)
	return s.send(ctx, params)
}

func (s *OpenAIChatService) applyOptions(params *openai.ChatCompletionNewParams) {
	if s.temperature > 0 {
		params.Temperature = openai.Float(s.temperature)
	}
	if s.forceJSON {
		var jsonFmt constant.JSONObject
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{
				Type: jsonFmt.Default(),
			},
		}
	}
}

func (s *OpenAIChatService) send(ctx context.Context, params openai.ChatCompletionNewParams) (*LLMResponse, error) {
	response, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, apperrors.Provider("chat completion request failed", err)
	}
	if len(response.Choices) == 0 {
		return nil, apperrors.Provider(fmt.Sprintf("chat completion returned no choices, model %s", response.Model), nil)
	}
	return &LLMResponse{
		Response:         response.Choices[0].Message.Content,
		Model:            response.Model,
		InputTokenCount:  int32(response.Usage.PromptTokens),
		OutputTokenCount: int32(response.Usage.CompletionTokens),
		TotalTokenCount:  int32(response.Usage.TotalTokens),
	}, nil
}
