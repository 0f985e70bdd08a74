// Package googleagent adapts Google's Gemini API (via google.golang.org/genai)
// to asl.Agent, grounded on the genai client usage pattern in the pack's
// hector repo's gemini provider.
package googleagent

import (
	"context"
	"fmt"

	"github.com/dshills/asl-go/asl"
	"google.golang.org/genai"
)

// Agent invokes Gemini as a Task/Debate participant. The input Document's
// "prompt" field becomes the user content; "system" is optional system
// instruction. The response is {"text": "..."}.
type Agent struct {
	AgentName string
	Model     string
	client    *genai.Client
}

// New builds a googleagent.Agent against the given API key. model defaults
// to gemini-2.0-flash when empty.
func New(ctx context.Context, name, apiKey, model string) (*Agent, error) {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("googleagent: create client: %w", err)
	}
	return &Agent{AgentName: name, Model: model, client: client}, nil
}

func (a *Agent) Name() string { return a.AgentName }

func (a *Agent) Execute(ctx context.Context, input asl.Document) (asl.Document, error) {
	prompt, _ := input["prompt"].(string)
	if prompt == "" {
		return nil, &asl.AgentError{Name: asl.ErrNameValidationError, Cause: "googleagent: input requires a \"prompt\" string field"}
	}

	config := &genai.GenerateContentConfig{}
	if system, ok := input["system"].(string); ok && system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}, Role: "user"}
	}

	contents := []*genai.Content{{Parts: []*genai.Part{{Text: prompt}}, Role: "user"}}
	resp, err := a.client.Models.GenerateContent(ctx, a.Model, contents, config)
	if err != nil {
		return nil, &asl.AgentError{Name: asl.ErrNameTaskFailed, Cause: fmt.Sprintf("googleagent: %v", err)}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return asl.Document{"text": ""}, nil
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if !part.Thought {
			text += part.Text
		}
	}
	out := asl.Document{"text": text, "finish_reason": string(resp.Candidates[0].FinishReason)}
	if resp.UsageMetadata != nil {
		out["input_tokens"] = int(resp.UsageMetadata.PromptTokenCount)
		out["output_tokens"] = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}
