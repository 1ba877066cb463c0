package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama3.2-vision:11b"
)

// OllamaProvider asks a local Ollama vision model.
type OllamaProvider struct {
	usageTracker
	chatURL string
	model   string
	client  *http.Client
}

func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if model == "" {
		model = defaultOllamaModel
	}
	return &OllamaProvider{
		chatURL: strings.TrimSuffix(baseURL, "/") + "/api/chat",
		model:   model,
		client:  &http.Client{},
	}
}

func (p *OllamaProvider) Name() string {
	return p.model
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Format   string              `json:"format,omitempty"`
	Options  ollamaChatOptions   `json:"options"`
}

type ollamaChatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"` // base64, no data URL prefix
}

type ollamaChatOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

type ollamaChatReply struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	PromptEvalCount int `json:"prompt_eval_count"`
	EvalCount       int `json:"eval_count"`
}

// CheckSpoof asks for a JSON verdict. Local models cost nothing, but tokens
// are still counted.
func (p *OllamaProvider) CheckSpoof(ctx context.Context, imageData []byte, mimeType string) (string, error) {
	data, _ := prepareImage(imageData, mimeType)

	req := ollamaChatRequest{
		Model: p.model,
		Messages: []ollamaChatMessage{
			{Role: "system", Content: antiSpoofingSystemPrompt},
			{
				Role:    "user",
				Content: antiSpoofingInstruction,
				Images:  []string{base64.StdEncoding.EncodeToString(data)},
			},
		},
		Format:  "json",
		Options: ollamaChatOptions{NumPredict: verdictMaxTokens},
	}

	var reply ollamaChatReply
	if err := postJSON(ctx, p.client, p.chatURL, req, &reply); err != nil {
		return "", fmt.Errorf("ollama API error: %w", err)
	}

	p.track(reply.PromptEvalCount, reply.EvalCount)
	return reply.Message.Content, nil
}
