package ai

import (
	"context"
	"encoding/json"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var (
	_ SpoofChecker = (*OllamaProvider)(nil)
	_ SpoofChecker = (*LlamaCppProvider)(nil)
	_ SpoofChecker = (*OpenAIProvider)(nil)
	_ SpoofChecker = (*GeminiProvider)(nil)
)

func TestOllamaProvider_CheckSpoof(t *testing.T) {
	var got ollamaChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"m","message":{"role":"assistant","content":"{\"success\": false, \"confidence\": 0.9}"},"done":true,"prompt_eval_count":120,"eval_count":12}`))
	}))
	defer server.Close()

	p := NewOllamaProvider(server.URL+"/", "test-model")
	if p.Name() != "test-model" {
		t.Errorf("expected name test-model, got %s", p.Name())
	}

	data := encodeJPEG(createTestImage(32, 32, color.White))
	reply, err := p.CheckSpoof(context.Background(), data, "image/jpeg")
	if err != nil {
		t.Fatalf("CheckSpoof failed: %v", err)
	}

	parsed, err := ParseSpoofReply(reply)
	if err != nil {
		t.Fatalf("ParseSpoofReply failed: %v", err)
	}
	if !parsed.ScreenDetected(0.7) {
		t.Errorf("expected screen detected, got %+v", parsed)
	}

	if got.Format != "json" || got.Stream {
		t.Errorf("expected non-streaming json request, got format=%q stream=%v", got.Format, got.Stream)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || len(got.Messages[1].Images) != 1 {
		t.Errorf("expected system prompt and one image, got %+v", got.Messages)
	}

	usage := p.GetUsage()
	if usage.Requests != 1 || usage.InputTokens != 120 || usage.OutputTokens != 12 {
		t.Errorf("unexpected usage %+v", usage)
	}
}

func TestOllamaProvider_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	p := NewOllamaProvider(server.URL, "")
	_, err := p.CheckSpoof(context.Background(), []byte("x"), "image/jpeg")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status error, got %v", err)
	}
	if p.GetUsage().Requests != 0 {
		t.Error("failed requests should not be tracked")
	}
}

func TestNewLlamaCppProvider_InvalidURL(t *testing.T) {
	for _, u := range []string{"ftp://host", "http://", "://bad"} {
		if _, err := NewLlamaCppProvider(u, ""); err == nil {
			t.Errorf("expected error for %q", u)
		}
	}
}

func TestLlamaCppProvider_CheckSpoof(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req["model"] != "llava" {
			t.Errorf("expected default model llava, got %v", req["model"])
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"success\": true}"}}],"usage":{"prompt_tokens":50,"completion_tokens":5}}`))
	}))
	defer server.Close()

	p, err := NewLlamaCppProvider(server.URL, "")
	if err != nil {
		t.Fatalf("NewLlamaCppProvider failed: %v", err)
	}

	reply, err := p.CheckSpoof(context.Background(), encodePNG(createTestImage(16, 16, color.Black)), "image/png")
	if err != nil {
		t.Fatalf("CheckSpoof failed: %v", err)
	}
	parsed, err := ParseSpoofReply(reply)
	if err != nil || !parsed.Success {
		t.Fatalf("expected live reply, got %+v, %v", parsed, err)
	}
	if p.GetUsage().InputTokens != 50 {
		t.Errorf("expected 50 input tokens, got %d", p.GetUsage().InputTokens)
	}
}

func TestLlamaCppProvider_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	p, err := NewLlamaCppProvider(server.URL, "m")
	if err != nil {
		t.Fatalf("NewLlamaCppProvider failed: %v", err)
	}
	if _, err := p.CheckSpoof(context.Background(), []byte("x"), ""); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestPostJSON_TruncatesErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(strings.Repeat("x", 4*maxErrorSnippet)))
	}))
	defer server.Close()

	var out map[string]any
	err := postJSON(context.Background(), server.Client(), server.URL, map[string]string{"a": "b"}, &out)
	if err == nil {
		t.Fatal("expected error for 502")
	}
	if !strings.Contains(err.Error(), "502") || len(err.Error()) > maxErrorSnippet+64 {
		t.Errorf("expected short status error, got %d bytes: %.80s", len(err.Error()), err.Error())
	}
}
