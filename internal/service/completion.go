package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/set-night/streamchat/internal/domain"
)

// GenerationParams are sent with every completion request.
type GenerationParams struct {
	Model             string
	MaxTokens         int
	Temperature       float64
	TopP              float64
	TopK              int
	RepetitionPenalty float64
	Stop              []string
}

type CompletionService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	params     GenerationParams
}

// NewCompletionService builds a client for an OpenAI-compatible chat completions API.
// The HTTP client carries no overall timeout; streams are bounded by the caller's
// context and the chat's idle timeout.
func NewCompletionService(apiKey, baseURL string, params GenerationParams) *CompletionService {
	return &CompletionService{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		params:     params,
	}
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model             string        `json:"model"`
	Messages          []ChatMessage `json:"messages"`
	MaxTokens         int           `json:"max_tokens,omitempty"`
	Temperature       *float64      `json:"temperature,omitempty"`
	TopP              *float64      `json:"top_p,omitempty"`
	TopK              int           `json:"top_k,omitempty"`
	RepetitionPenalty *float64      `json:"repetition_penalty,omitempty"`
	Stop              []string      `json:"stop,omitempty"`
	Stream            bool          `json:"stream"`
}

func (s *CompletionService) Params() GenerationParams {
	return s.params
}

// OpenStream posts the conversation with stream=true and returns the event-stream
// body. Non-2xx responses come back as *domain.UpstreamError.
func (s *CompletionService) OpenStream(ctx context.Context, messages []domain.Message) (io.ReadCloser, error) {
	payload, err := json.Marshal(s.buildRequest(messages))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Err: fmt.Errorf("completion request: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &domain.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			Err:        fmt.Errorf("completion request: %s", resp.Status),
		}
	}
	return resp.Body, nil
}

func (s *CompletionService) buildRequest(messages []domain.Message) ChatRequest {
	msgs := make([]ChatMessage, len(messages))
	for i, m := range messages {
		msgs[i] = ChatMessage{Role: string(m.Role), Content: m.Content}
	}

	p := s.params
	return ChatRequest{
		Model:             p.Model,
		Messages:          msgs,
		MaxTokens:         p.MaxTokens,
		Temperature:       &p.Temperature,
		TopP:              &p.TopP,
		TopK:              p.TopK,
		RepetitionPenalty: &p.RepetitionPenalty,
		Stop:              p.Stop,
		Stream:            true,
	}
}
