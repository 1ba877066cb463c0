package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const defaultChatModel = openai.ChatModelGPT4_1Mini

type OpenAIProvider struct {
	usageTracker
	client *openai.Client
	model  openai.ChatModel
}

// NewOpenAIProvider creates an OpenAI checker. baseURL may point at any
// OpenAI-compatible endpoint; empty uses the public API.
func NewOpenAIProvider(apiKey, baseURL, model string, pricing RequestPricing) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	chatModel := defaultChatModel
	if model != "" {
		chatModel = openai.ChatModel(model)
	}

	return &OpenAIProvider{
		usageTracker: usageTracker{pricing: pricing},
		client:       &client,
		model:        chatModel,
	}
}

// DefaultOpenAIModel is used when no model override is configured.
func DefaultOpenAIModel() string {
	return defaultChatModel
}

func (p *OpenAIProvider) Name() string {
	return p.model
}

func (p *OpenAIProvider) CheckSpoof(ctx context.Context, imageData []byte, mimeType string) (string, error) {
	data, mt := prepareImage(imageData, mimeType)
	imageURL := "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(data)

	messages := []openai.ChatCompletionMessageParamUnion{
		{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(antiSpoofingSystemPrompt),
				},
			},
		},
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
						openai.TextContentPart(antiSpoofingInstruction),
						openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
							URL:    imageURL,
							Detail: "low",
						}),
					},
				},
			},
		},
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    p.model,
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		MaxTokens: openai.Int(verdictMaxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}

	// Track usage
	p.track(int(resp.Usage.PromptTokens), int(resp.Usage.CompletionTokens))

	return resp.Choices[0].Message.Content, nil
}
