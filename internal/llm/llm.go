package llm

import (
	"context"

	"ai-vacation-planner/internal/shared"
)

// Message roles in a reasoning transcript.
const (
	RoleUser  = "user"
	RoleModel = "model"
	RoleTool  = "tool"
)

// ToolInvocation is a request from the model to run one named tool.
type ToolInvocation struct {
	Name string
	Args map[string]any
}

// ToolResult is the outcome of a tool invocation, fed back into the next
// reasoning round. Err carries a human-readable failure description so the
// model can adjust instead of crashing the loop.
type ToolResult struct {
	Name    string
	Content map[string]any
	Err     string
}

// Message is one entry of the reasoning transcript. Exactly one of Text,
// Call, or Result is set, depending on Role.
type Message struct {
	Role   string
	Text   string
	Call   *ToolInvocation
	Result *ToolResult
}

// Decision is the model's output for one round: either a single tool
// invocation or plain assistant text.
type Decision struct {
	Call  *ToolInvocation
	Text  string
	Usage shared.TokenUsage
}

// Property describes one parameter of a tool, in a backend-neutral shape.
type Property struct {
	Type        string // "string", "integer", "number", "boolean", "array", "object"
	Description string
	Items       *Property // element schema for arrays
}

// Parameters is the argument schema of a tool.
type Parameters struct {
	Properties map[string]Property
	Required   []string
}

// ToolDefinition declares one callable tool to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  Parameters
}

// Reasoner is the black-box reasoning step. Given a system prompt, the
// running transcript, and the tool schema, it returns either one tool
// invocation or a final text answer. Implementations must be safe for
// concurrent use.
type Reasoner interface {
	Reason(ctx context.Context, system string, messages []Message, tools []ToolDefinition) (Decision, error)
	// Model reports the configured model name, for the health surface.
	Model() string
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}
