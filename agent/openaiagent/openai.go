// Package openaiagent adapts OpenAI's chat completions API to asl.Agent,
// grounded on the teacher's graph/model/openai adapter.
package openaiagent

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/asl-go/asl"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Agent invokes an OpenAI chat model as a Task/Debate participant. The
// input Document's "prompt" field becomes the user message; "system" is
// optional system guidance. The response is {"text": "..."}.
type Agent struct {
	AgentName string
	Model     string
	client    openaisdk.Client
}

// New builds an openaiagent.Agent. model defaults to gpt-4o when empty.
func New(name, apiKey, model string) *Agent {
	if model == "" {
		model = "gpt-4o"
	}
	return &Agent{
		AgentName: name,
		Model:     model,
		client:    openaisdk.NewClient(option.WithAPIKey(apiKey)),
	}
}

func (a *Agent) Name() string { return a.AgentName }

func (a *Agent) Execute(ctx context.Context, input asl.Document) (asl.Document, error) {
	prompt, _ := input["prompt"].(string)
	if prompt == "" {
		return nil, &asl.AgentError{Name: asl.ErrNameValidationError, Cause: "openaiagent: input requires a \"prompt\" string field"}
	}

	messages := []openaisdk.ChatCompletionMessageParamUnion{}
	if system, ok := input["system"].(string); ok && system != "" {
		messages = append(messages, openaisdk.SystemMessage(system))
	}
	messages = append(messages, openaisdk.UserMessage(prompt))

	resp, err := a.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(a.Model),
		Messages: messages,
	})
	if err != nil {
		return nil, translateError(err)
	}
	if len(resp.Choices) == 0 {
		return asl.Document{"text": ""}, nil
	}
	return asl.Document{
		"text":          resp.Choices[0].Message.Content,
		"finish_reason": string(resp.Choices[0].FinishReason),
		"input_tokens":  resp.Usage.PromptTokens,
		"output_tokens": resp.Usage.CompletionTokens,
	}, nil
}

func translateError(err error) error {
	var apiErr *openaisdk.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429:
			return &asl.AgentError{Name: asl.ErrNameRateLimitExceeded, Cause: apiErr.Error()}
		case 401, 403:
			return &asl.AgentError{Name: asl.ErrNamePermissions, Cause: apiErr.Error()}
		}
	}
	return &asl.AgentError{Name: asl.ErrNameTaskFailed, Cause: fmt.Sprintf("openaiagent: %v", err)}
}
