package llm

import (
	"context"
	"errors"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"github.com/espejelomar/starknet-advisor-bot/internal/personas"
	"github.com/espejelomar/starknet-advisor-bot/internal/utils"
	"google.golang.org/api/option"
)

// VertexGemini is the alternative completion backend, selected with
// LLM_PROVIDER=vertex. Persona model names are ignored; every persona
// runs on the configured Gemini model.
type VertexGemini struct {
	client    *vertexgenai.Client
	modelName string
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string, opts ...option.ClientOption) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location, opts...)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &VertexGemini{client: c, modelName: modelName}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

// requestModel builds a model handle for a single completion. Completions
// run concurrently for different users, so instruction state must never
// live on shared fields.
func (v *VertexGemini) requestModel(profile personas.Profile) *vertexgenai.GenerativeModel {
	m := v.client.GenerativeModel(v.modelName)
	m.SystemInstruction = &vertexgenai.Content{
		Parts: []vertexgenai.Part{vertexgenai.Text(profile.SystemPrompt)},
	}
	return m
}

func (v *VertexGemini) Complete(ctx context.Context, req Request) (*Completion, error) {
	const op = "VertexGemini.Complete"

	var prompt strings.Builder
	for _, t := range req.History {
		prompt.WriteString(string(t.Role))
		prompt.WriteString(": ")
		prompt.WriteString(t.Message)
		prompt.WriteString("\n")
	}
	prompt.WriteString("user: ")
	prompt.WriteString(req.Message)

	resp, err := v.requestModel(req.Profile).GenerateContent(ctx, vertexgenai.Text(prompt.String()))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, utils.E(utils.CodeTimeout, op, "completion timed out", ErrTimeout)
		}
		return nil, utils.E(utils.CodeUpstream, op, "generate content failed", err)
	}

	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok {
				text.WriteString(string(t))
			}
		}
	}
	if text.Len() == 0 {
		return nil, utils.E(utils.CodeUpstream, op, "empty completion", ErrMalformed)
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &Completion{Text: text.String(), TotalTokens: tokens}, nil
}

var _ Provider = (*VertexGemini)(nil)
