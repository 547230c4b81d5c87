package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Tool is a function the model may call.
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  *JSONSchema `json:"parameters"`
	Handler     ToolHandler `json:"-"`
}

// ToolHandler executes a tool call and returns text for the model.
type ToolHandler func(ctx context.Context, args json.RawMessage) (string, error)

// JSONSchema is the subset of JSON Schema used for tool parameters.
type JSONSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
}

// ObjectSchema creates a JSON Schema for an object with the given properties.
func ObjectSchema(desc string, props map[string]*JSONSchema, required ...string) *JSONSchema {
	return &JSONSchema{Type: "object", Description: desc, Properties: props, Required: required}
}

// StringProp creates a JSON Schema for a string property.
func StringProp(desc string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: desc}
}

// ToolRegistry holds the tools offered to the model and executes calls.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewToolRegistry creates an empty tool registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]Tool)}
}

// Register adds a tool, replacing any tool with the same name.
func (r *ToolRegistry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name] = tool
}

// RegisterFunc registers a tool with an inline handler.
func (r *ToolRegistry) RegisterFunc(name, desc string, params *JSONSchema, handler ToolHandler) {
	r.Register(Tool{Name: name, Description: desc, Parameters: params, Handler: handler})
}

// Get retrieves a tool by name.
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns the tools sorted by name, so requests are reproducible.
func (r *ToolRegistry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Count returns the number of registered tools.
func (r *ToolRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute runs one tool call.
func (r *ToolRegistry) Execute(ctx context.Context, call ToolCall) (string, error) {
	tool, ok := r.Get(call.Name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, call.Name)
	}
	if tool.Handler == nil {
		return "", fmt.Errorf("llm: tool %q has no handler", call.Name)
	}
	return tool.Handler(ctx, call.Arguments)
}

// ExecuteAll runs the calls concurrently. Results keep the call order and
// a failing call never cancels the others.
func (r *ToolRegistry) ExecuteAll(ctx context.Context, calls []ToolCall) []ToolResult {
	results := make([]ToolResult, len(calls))
	var g errgroup.Group
	for i, call := range calls {
		g.Go(func() error {
			out, err := r.Execute(ctx, call)
			results[i] = ToolResult{ToolCallID: call.ID, Name: call.Name, Content: out, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// ToolResult is the outcome of one tool call.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Content    string `json:"content"`
	Err        error  `json:"-"`
}

// ToMessage converts a result into a tool message for the model. Errors
// are reported to the model as text so it can recover.
func (tr ToolResult) ToMessage() Message {
	content := tr.Content
	if tr.Err != nil {
		content = fmt.Sprintf("Error executing tool %s: %v", tr.Name, tr.Err)
	}
	return ToolResultMessage(tr.ToolCallID, tr.Name, content)
}

// ToolLoop drives a conversation in which the model may call tools before
// giving its final answer.
type ToolLoop struct {
	Provider      LLMProvider
	Registry      *ToolRegistry
	Options       *ChatOptions
	MaxIterations int // default 10
}

// Run sends msgs, executes requested tools and feeds their results back
// until the model answers without tool calls. It returns the final reply
// and the full conversation including tool traffic; the caller's slice is
// not modified.
func (l ToolLoop) Run(ctx context.Context, msgs []Message) (*Response, []Message, error) {
	maxIter := l.MaxIterations
	if maxIter <= 0 {
		maxIter = 10
	}
	var tools []Tool
	if l.Registry != nil {
		tools = l.Registry.List()
	}
	conv := append([]Message(nil), msgs...)

	for i := 0; i < maxIter; i++ {
		resp, err := l.Provider.Chat(ctx, conv, tools, l.Options)
		if err != nil {
			return nil, conv, err
		}
		if !resp.HasToolCalls() {
			return resp, conv, nil
		}
		if l.Registry == nil {
			return nil, conv, fmt.Errorf("%w: model requested tools but none are registered", ErrToolNotFound)
		}
		conv = append(conv, AssistantToolCallMessage(resp.ToolCalls))
		for _, res := range l.Registry.ExecuteAll(ctx, resp.ToolCalls) {
			if res.Err != nil {
				log.Printf("llm/tools: %s failed: %v", res.Name, res.Err)
			}
			conv = append(conv, res.ToMessage())
		}
	}
	return nil, conv, fmt.Errorf("llm: tool loop exceeded %d iterations", maxIter)
}
