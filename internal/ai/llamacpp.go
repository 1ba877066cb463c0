package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultLlamaCppURL   = "http://localhost:8080"
	defaultLlamaCppModel = "llava"
)

// LlamaCppProvider asks a llama.cpp server through its OpenAI-compatible
// chat endpoint.
type LlamaCppProvider struct {
	usageTracker
	completionsURL string
	model          string
	client         *http.Client
}

// NewLlamaCppProvider validates baseURL, which must be an absolute http(s) URL.
func NewLlamaCppProvider(baseURL, model string) (*LlamaCppProvider, error) {
	if baseURL == "" {
		baseURL = defaultLlamaCppURL
	}
	if model == "" {
		model = defaultLlamaCppModel
	}
	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid llama.cpp URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid llama.cpp URL scheme %q: must be http or https", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("invalid llama.cpp URL: missing host")
	}
	return &LlamaCppProvider{
		completionsURL: parsed.JoinPath("/v1/chat/completions").String(),
		model:          model,
		client:         &http.Client{},
	}, nil
}

func (p *LlamaCppProvider) Name() string {
	return p.model
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

// chatMessage content is a plain string or a list of chatPart.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatPart struct {
	Type     string     `json:"type"`
	Text     string     `json:"text,omitempty"`
	ImageURL *chatImage `json:"image_url,omitempty"`
}

type chatImage struct {
	URL string `json:"url"`
}

type chatCompletionReply struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// CheckSpoof sends the selfie as a data URL and returns the raw reply text.
func (p *LlamaCppProvider) CheckSpoof(ctx context.Context, imageData []byte, mimeType string) (string, error) {
	data, mt := prepareImage(imageData, mimeType)
	dataURL := "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(data)

	req := chatCompletionRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: antiSpoofingSystemPrompt},
			{Role: "user", Content: []chatPart{
				{Type: "text", Text: antiSpoofingInstruction},
				{Type: "image_url", ImageURL: &chatImage{URL: dataURL}},
			}},
		},
		MaxTokens:   verdictMaxTokens,
		Temperature: 0.1,
	}

	var reply chatCompletionReply
	if err := postJSON(ctx, p.client, p.completionsURL, req, &reply); err != nil {
		return "", fmt.Errorf("llama.cpp API error: %w", err)
	}

	p.track(reply.Usage.PromptTokens, reply.Usage.CompletionTokens)

	if len(reply.Choices) == 0 {
		return "", errors.New("no response from llama.cpp")
	}
	return reply.Choices[0].Message.Content, nil
}
