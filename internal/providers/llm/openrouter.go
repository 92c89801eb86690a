package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/espejelomar/starknet-advisor-bot/internal/utils"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

// OpenRouter speaks the OpenAI-compatible chat completions API exposed
// by openrouter.ai.
type OpenRouter struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	maxTokens   int
	temperature float64
}

func NewOpenRouter(apiKey, baseURL string) *OpenRouter {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &OpenRouter{
		baseURL: baseURL,
		apiKey:  apiKey,
		// per-call deadlines come from the caller's context
		httpClient:  &http.Client{Timeout: 5 * time.Minute},
		maxTokens:   800,
		temperature: 0.7,
	}
}

func (o *OpenRouter) Close() error { return nil }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func (o *OpenRouter) Complete(ctx context.Context, req Request) (*Completion, error) {
	const op = "OpenRouter.Complete"

	msgs := make([]chatMessage, 0, len(req.History)+2)
	msgs = append(msgs, chatMessage{Role: "system", Content: req.Profile.SystemPrompt})
	for _, t := range req.History {
		msgs = append(msgs, chatMessage{Role: string(t.Role), Content: t.Message})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: req.Message})

	body, err := json.Marshal(chatRequest{
		Model:       req.Profile.Model,
		Messages:    msgs,
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, utils.E(utils.CodeTimeout, op, "completion timed out", ErrTimeout)
		}
		return nil, utils.E(utils.CodeUpstream, op, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return nil, utils.E(utils.CodeUpstream, op, "upstream rate limited", ErrUpstreamRateLimited)
	case resp.StatusCode != http.StatusOK:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, utils.E(utils.CodeUpstream, op, fmt.Sprintf("status %d: %s", resp.StatusCode, b), nil)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, utils.E(utils.CodeUpstream, op, "undecodable response", ErrMalformed)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return nil, utils.E(utils.CodeUpstream, op, "empty completion", ErrMalformed)
	}

	return &Completion{
		Text:        out.Choices[0].Message.Content,
		TotalTokens: out.Usage.TotalTokens,
	}, nil
}

// interface guard
var _ Provider = (*OpenRouter)(nil)
