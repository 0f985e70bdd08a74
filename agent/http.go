package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dshills/asl-go/asl"
)

// HTTP bridges a Task or Debate participant to an out-of-process agent
// reachable over HTTP: the input Document is POSTed as JSON and the
// response body is decoded back into a Document, grounded on the teacher's
// tool.HTTPTool but specialized to the asl.Agent request/response shape
// instead of a generic method/url/headers/body tool call.
type HTTP struct {
	AgentName string
	URL       string
	Headers   map[string]string
	Client    *http.Client
}

// NewHTTP builds an HTTP agent posting to url under the given name.
func NewHTTP(name, url string) *HTTP {
	return &HTTP{AgentName: name, URL: url, Client: &http.Client{Timeout: 60 * time.Second}}
}

func (h *HTTP) Name() string { return h.AgentName }

func (h *HTTP) Execute(ctx context.Context, input asl.Document) (asl.Document, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal agent request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range h.Headers {
		req.Header.Set(k, v)
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call agent %s: %w", h.AgentName, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read agent response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &asl.AgentError{Name: asl.ErrNameTaskFailed, Cause: fmt.Sprintf("agent %s returned HTTP %d: %s", h.AgentName, resp.StatusCode, string(respBody))}
	}

	var out asl.Document
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &out); err != nil {
			return nil, fmt.Errorf("decode agent response: %w", err)
		}
	}
	return out, nil
}
