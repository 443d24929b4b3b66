package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-vacation-planner/internal/config"
	"ai-vacation-planner/internal/shared"
)

const defaultOpenAIURL = "https://api.openai.com/v1/chat/completions"

// openAIReasoner talks to any OpenAI-compatible chat-completions endpoint
// and uses its tools/tool_calls protocol.
type openAIReasoner struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOpenAIReasoner creates a Reasoner for an OpenAI-compatible API.
func NewOpenAIReasoner(cfg *config.Config) Reasoner {
	baseURL := cfg.OpenAIBaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIURL
	}
	return &openAIReasoner{
		apiKey:  cfg.OpenAIAPIKey,
		baseURL: baseURL,
		model:   cfg.OpenAIModelName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (r *openAIReasoner) Model() string {
	return r.model
}

type oaToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type oaMessage struct {
	Role       string       `json:"role"`
	Content    string       `json:"content,omitempty"`
	ToolCalls  []oaToolCall `json:"tool_calls,omitempty"`
	ToolCallID string       `json:"tool_call_id,omitempty"`
}

// Reason sends the transcript to the chat-completions endpoint and maps the
// first choice back into a Decision.
func (r *openAIReasoner) Reason(ctx context.Context, system string, messages []Message, tools []ToolDefinition) (Decision, error) {
	oaMessages := []oaMessage{{Role: "system", Content: system}}

	// Tool calls and their results must share an id; the transcript pairs
	// them in order, so a running counter is enough.
	callSeq := 0
	for _, m := range messages {
		switch {
		case m.Call != nil:
			callSeq++
			call := oaToolCall{ID: fmt.Sprintf("call_%d", callSeq), Type: "function"}
			call.Function.Name = m.Call.Name
			args, err := json.Marshal(m.Call.Args)
			if err != nil {
				return Decision{}, fmt.Errorf("failed to marshal tool args: %w", err)
			}
			call.Function.Arguments = string(args)
			oaMessages = append(oaMessages, oaMessage{Role: "assistant", ToolCalls: []oaToolCall{call}})
		case m.Result != nil:
			payload, err := json.Marshal(toolResultPayload(m.Result))
			if err != nil {
				return Decision{}, fmt.Errorf("failed to marshal tool result: %w", err)
			}
			oaMessages = append(oaMessages, oaMessage{
				Role:       "tool",
				Content:    string(payload),
				ToolCallID: fmt.Sprintf("call_%d", callSeq),
			})
		case m.Role == RoleModel:
			oaMessages = append(oaMessages, oaMessage{Role: "assistant", Content: m.Text})
		default:
			oaMessages = append(oaMessages, oaMessage{Role: "user", Content: m.Text})
		}
	}

	reqBody := map[string]any{
		"model":       r.model,
		"messages":    oaMessages,
		"tools":       toOpenAITools(tools),
		"temperature": 0.1,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.baseURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return Decision{}, fmt.Errorf("chat completions api error: status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}

	var oaResp struct {
		Choices []struct {
			Message struct {
				Content   string       `json:"content"`
				ToolCalls []oaToolCall `json:"tool_calls"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&oaResp); err != nil {
		return Decision{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(oaResp.Choices) == 0 {
		return Decision{}, fmt.Errorf("no content generated")
	}

	decision := Decision{
		Usage: shared.TokenUsage{
			PromptTokens:     oaResp.Usage.PromptTokens,
			CompletionTokens: oaResp.Usage.CompletionTokens,
			TotalTokens:      oaResp.Usage.TotalTokens,
			Model:            r.model,
		},
	}

	choice := oaResp.Choices[0].Message
	if len(choice.ToolCalls) > 0 {
		call := choice.ToolCalls[0]
		var args map[string]any
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return Decision{}, fmt.Errorf("failed to parse tool call arguments: %w", err)
		}
		decision.Call = &ToolInvocation{Name: call.Function.Name, Args: args}
		return decision, nil
	}

	decision.Text = choice.Content
	return decision, nil
}

func toOpenAITools(tools []ToolDefinition) []map[string]any {
	out := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		props := make(map[string]any, len(t.Parameters.Properties))
		for name, p := range t.Parameters.Properties {
			props[name] = toOpenAIProperty(p)
		}
		out = append(out, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters": map[string]any{
					"type":       "object",
					"properties": props,
					"required":   t.Parameters.Required,
				},
			},
		})
	}
	return out
}

func toOpenAIProperty(p Property) map[string]any {
	prop := map[string]any{"type": p.Type}
	if p.Description != "" {
		prop["description"] = p.Description
	}
	if p.Items != nil {
		prop["items"] = toOpenAIProperty(*p.Items)
	}
	return prop
}
