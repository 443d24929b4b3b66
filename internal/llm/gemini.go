package llm

import (
	"context"
	"fmt"

	"ai-vacation-planner/internal/config"
	"ai-vacation-planner/internal/shared"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// geminiReasoner drives a Gemini model through its native function-calling
// API. The transcript is replayed as chat history on every round, so the
// reasoner itself holds no per-conversation state.
type geminiReasoner struct {
	client    *genai.Client
	modelName string
}

// NewGeminiReasoner creates a Reasoner backed by the Gemini API.
func NewGeminiReasoner(ctx context.Context, cfg *config.Config) (Reasoner, Closer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	r := &geminiReasoner{client: client, modelName: cfg.GeminiModelName}
	return r, client, nil
}

func (r *geminiReasoner) Model() string {
	return r.modelName
}

// Reason sends the transcript and tool schema to Gemini and maps the first
// candidate back into a Decision.
func (r *geminiReasoner) Reason(ctx context.Context, system string, messages []Message, tools []ToolDefinition) (Decision, error) {
	if len(messages) == 0 {
		return Decision{}, fmt.Errorf("empty transcript")
	}

	model := r.client.GenerativeModel(r.modelName)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	model.Tools = []*genai.Tool{{FunctionDeclarations: toGeminiDeclarations(tools)}}

	session := model.StartChat()
	for _, m := range messages[:len(messages)-1] {
		session.History = append(session.History, toGeminiContent(m))
	}

	last := toGeminiContent(messages[len(messages)-1])
	resp, err := session.SendMessage(ctx, last.Parts...)
	if err != nil {
		return Decision{}, fmt.Errorf("gemini request failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Decision{}, fmt.Errorf("no content generated")
	}

	decision := Decision{Usage: geminiUsage(resp, r.modelName)}
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.FunctionCall:
			// Exactly one tool call per round; ignore any extras.
			if decision.Call == nil {
				decision.Call = &ToolInvocation{Name: p.Name, Args: p.Args}
			}
		case genai.Text:
			decision.Text += string(p)
		}
	}
	if decision.Call == nil && decision.Text == "" {
		return Decision{}, fmt.Errorf("candidate contained neither text nor a tool call")
	}
	return decision, nil
}

func toGeminiContent(m Message) *genai.Content {
	switch {
	case m.Call != nil:
		return &genai.Content{
			Role:  "model",
			Parts: []genai.Part{genai.FunctionCall{Name: m.Call.Name, Args: m.Call.Args}},
		}
	case m.Result != nil:
		return &genai.Content{
			Role:  "function",
			Parts: []genai.Part{genai.FunctionResponse{Name: m.Result.Name, Response: toolResultPayload(m.Result)}},
		}
	default:
		role := "user"
		if m.Role == RoleModel {
			role = "model"
		}
		return &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Text)}}
	}
}

func toolResultPayload(res *ToolResult) map[string]any {
	if res.Err != "" {
		return map[string]any{"error": res.Err}
	}
	return res.Content
}

func toGeminiDeclarations(tools []ToolDefinition) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  toGeminiSchema(t.Parameters),
		})
	}
	return decls
}

func toGeminiSchema(params Parameters) *genai.Schema {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(params.Properties)),
		Required:   params.Required,
	}
	for name, prop := range params.Properties {
		schema.Properties[name] = toGeminiProperty(prop)
	}
	return schema
}

func toGeminiProperty(p Property) *genai.Schema {
	s := &genai.Schema{
		Type:        geminiType(p.Type),
		Description: p.Description,
	}
	if p.Items != nil {
		s.Items = toGeminiProperty(*p.Items)
	}
	return s
}

func geminiType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}

func geminiUsage(resp *genai.GenerateContentResponse, model string) shared.TokenUsage {
	if resp.UsageMetadata == nil {
		return shared.TokenUsage{Model: model}
	}
	return shared.TokenUsage{
		PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
		CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		Model:            model,
	}
}
