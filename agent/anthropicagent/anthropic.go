// Package anthropicagent adapts Anthropic's Claude API to asl.Agent,
// grounded on the teacher's graph/model/anthropic adapter: extract the
// system prompt from the conversation, submit the rest as Claude messages,
// and translate SDK errors into retryable/catchable asl error names.
package anthropicagent

import (
	"context"
	"errors"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/dshills/asl-go/asl"
)

// Agent invokes Claude as a Task/Debate participant. The input Document's
// "prompt" field becomes the user message; "system" is optional system
// guidance. The response is {"text": "..."}.
type Agent struct {
	AgentName string
	Model     string
	client    anthropicsdk.Client
}

// New builds an anthropicagent.Agent. model defaults to Claude Sonnet when
// empty.
func New(name, apiKey, model string) *Agent {
	if model == "" {
		model = "claude-sonnet-4-5-20250929"
	}
	return &Agent{
		AgentName: name,
		Model:     model,
		client:    anthropicsdk.NewClient(option.WithAPIKey(apiKey)),
	}
}

func (a *Agent) Name() string { return a.AgentName }

func (a *Agent) Execute(ctx context.Context, input asl.Document) (asl.Document, error) {
	prompt, _ := input["prompt"].(string)
	if prompt == "" {
		return nil, &asl.AgentError{Name: asl.ErrNameValidationError, Cause: "anthropicagent: input requires a \"prompt\" string field"}
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(a.Model),
		MaxTokens: 4096,
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(prompt)),
		},
	}
	if system, ok := input["system"].(string); ok && system != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: system}}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, translateError(err)
	}

	var text string
	for _, block := range resp.Content {
		if tb, ok := block.AsAny().(anthropicsdk.TextBlock); ok {
			text += tb.Text
		}
	}
	return asl.Document{
		"text":          text,
		"stop_reason":   string(resp.StopReason),
		"input_tokens":  resp.Usage.InputTokens,
		"output_tokens": resp.Usage.OutputTokens,
	}, nil
}

// translateError maps SDK errors to AgentError names the Retry/Catch rules
// can match on; anything unrecognized surfaces as the generic TaskFailed.
func translateError(err error) error {
	var apiErr *anthropicsdk.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429:
			return &asl.AgentError{Name: asl.ErrNameRateLimitExceeded, Cause: apiErr.Error()}
		case 401, 403:
			return &asl.AgentError{Name: asl.ErrNamePermissions, Cause: apiErr.Error()}
		}
	}
	return &asl.AgentError{Name: asl.ErrNameTaskFailed, Cause: fmt.Sprintf("anthropicagent: %v", err)}
}
