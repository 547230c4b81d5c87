// Package agent implements the LLM-backed steps of a booking session: the
// request interpreter, the ticket writer and the confirmation writer, plus
// the orchestrator that runs a session from request to ticket.
package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/seenimoa/flightdesk/internal/config"
	"github.com/seenimoa/flightdesk/internal/llm"
	"github.com/seenimoa/flightdesk/internal/metrics"
	"github.com/seenimoa/flightdesk/pkg/models"
)

// ── Agent Interface ──

// Agent is an LLM-backed worker with a fixed role and tool set.
type Agent interface {
	// Name returns the agent's identifier (e.g., "flight_search").
	Name() string

	// Role returns a human-readable description of the agent's role.
	Role() string

	// SystemPrompt returns the prompt that configures the agent.
	SystemPrompt() string

	// Tools returns the tools the agent may call.
	Tools() []llm.Tool

	// Process runs a task in a fresh conversation.
	Process(ctx context.Context, task string) (*AgentResult, error)

	// ProcessWithMessages runs a task after an existing conversation.
	ProcessWithMessages(ctx context.Context, task string, history []llm.Message) (*AgentResult, error)
}

// ── AgentResult ──

// AgentResult holds the output of one agent call.
type AgentResult struct {
	AgentName string        `json:"agent_name"`
	Content   string        `json:"content"`
	ToolCalls int           `json:"tool_calls"`
	Tokens    int           `json:"tokens"`
	Duration  time.Duration `json:"duration"`
	Messages  []llm.Message `json:"messages"` // conversation including the final reply
	Error     string        `json:"error,omitempty"`
}

// ── Memory ──

// Memory is a sliding window of conversation history. When the window is
// full the oldest messages are dropped.
type Memory struct {
	mu       sync.RWMutex
	messages []llm.Message
	maxSize  int
}

// NewMemory creates a conversation memory with the given window size.
func NewMemory(maxSize int) *Memory {
	if maxSize <= 0 {
		maxSize = 50
	}
	return &Memory{maxSize: maxSize, messages: make([]llm.Message, 0, maxSize)}
}

// Add appends a message.
func (m *Memory) Add(msg llm.Message) {
	m.AddAll([]llm.Message{msg})
}

// AddAll appends messages, trimming the window.
func (m *Memory) AddAll(msgs []llm.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msgs...)
	if over := len(m.messages) - m.maxSize; over > 0 {
		m.messages = append(m.messages[:0:0], m.messages[over:]...)
	}
	// A window must not open with tool results whose call was trimmed.
	for len(m.messages) > 0 && m.messages[0].Role == llm.RoleTool {
		m.messages = m.messages[1:]
	}
}

// Messages returns a copy of the window.
func (m *Memory) Messages() []llm.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]llm.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Size returns the number of messages held.
func (m *Memory) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}

// Clear empties the memory.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = m.messages[:0]
}

// ── BaseAgent ──

// BaseAgent provides the shared tool-loop plumbing. Specialized agents
// embed it and add their own prompts and parsing.
type BaseAgent struct {
	name         string
	role         string
	systemPrompt string
	tools        []llm.Tool
	registry     *llm.ToolRegistry
	provider     llm.LLMProvider
	memory       *Memory
	opts         *llm.ChatOptions
	maxToolIter  int
}

// BaseAgentConfig configures a BaseAgent.
type BaseAgentConfig struct {
	Name         string
	Role         string
	SystemPrompt string
	Provider     llm.LLMProvider
	Registry     *llm.ToolRegistry // optional; tools are taken from it
	ChatOptions  *llm.ChatOptions
	MemorySize   int
	MaxToolIter  int
}

// NewBaseAgent creates a BaseAgent from the given configuration.
func NewBaseAgent(cfg BaseAgentConfig) *BaseAgent {
	if cfg.MaxToolIter <= 0 {
		cfg.MaxToolIter = 10
	}
	reg := cfg.Registry
	if reg == nil {
		reg = llm.NewToolRegistry()
	}
	return &BaseAgent{
		name:         cfg.Name,
		role:         cfg.Role,
		systemPrompt: cfg.SystemPrompt,
		tools:        reg.List(),
		registry:     reg,
		provider:     cfg.Provider,
		memory:       NewMemory(cfg.MemorySize),
		opts:         cfg.ChatOptions,
		maxToolIter:  cfg.MaxToolIter,
	}
}

func (a *BaseAgent) Name() string                  { return a.name }
func (a *BaseAgent) Role() string                  { return a.role }
func (a *BaseAgent) SystemPrompt() string          { return a.systemPrompt }
func (a *BaseAgent) Tools() []llm.Tool             { return a.tools }
func (a *BaseAgent) Provider() llm.LLMProvider     { return a.provider }
func (a *BaseAgent) Memory() *Memory               { return a.memory }
func (a *BaseAgent) ChatOptions() *llm.ChatOptions { return a.opts }

// Process executes a task with a fresh conversation.
func (a *BaseAgent) Process(ctx context.Context, task string) (*AgentResult, error) {
	return a.ProcessWithMessages(ctx, task, nil)
}

// ProcessWithMessages runs the tool loop over system prompt, history and
// task. The exchange, minus the system prompt, is appended to memory.
func (a *BaseAgent) ProcessWithMessages(ctx context.Context, task string, history []llm.Message) (*AgentResult, error) {
	start := time.Now()
	if a.provider == nil {
		return nil, fmt.Errorf("%w: agent %s has no LLM provider", llm.ErrNoProviders, a.name)
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.SystemMessage(a.systemPrompt))
	messages = append(messages, history...)
	messages = append(messages, llm.UserMessage(task))

	loop := llm.ToolLoop{Provider: a.provider, Registry: a.registry, Options: a.opts, MaxIterations: a.maxToolIter}
	if a.registry.Count() == 0 {
		loop.Registry = nil
	}
	resp, conv, err := loop.Run(ctx, messages)
	metrics.LLMCalls.WithLabelValues(a.name, metrics.Outcome(err)).Inc()
	if err != nil {
		return &AgentResult{
			AgentName: a.name,
			Error:     err.Error(),
			Duration:  time.Since(start),
			Messages:  conv,
		}, err
	}

	conv = append(conv, llm.AssistantMessage(resp.Content))
	toolCalls := 0
	for _, msg := range conv {
		toolCalls += len(msg.ToolCalls)
	}
	a.memory.AddAll(conv[1+len(history):])

	config.Debugf("agent/%s: %s", a.name, resp)
	return &AgentResult{
		AgentName: a.name,
		Content:   resp.Content,
		ToolCalls: toolCalls,
		Tokens:    resp.Usage.TotalTokens,
		Duration:  time.Since(start),
		Messages:  conv,
	}, nil
}

// ── Helper: JSON extraction ──

// ExtractJSON finds the JSON object in a model reply. It accepts a
// ```json fenced block, a bare ``` fence, or falls back to the text
// between the first '{' and the last '}'.
func ExtractJSON(content string) (string, error) {
	if i := strings.Index(content, "```json"); i >= 0 {
		rest := content[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j]), nil
		}
	}
	if i := strings.Index(content, "```"); i >= 0 {
		rest := content[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			if body := strings.TrimSpace(rest[:j]); strings.HasPrefix(body, "{") {
				return body, nil
			}
		}
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1], nil
	}
	return "", fmt.Errorf("%w: no JSON object in model reply", models.ErrValidation)
}
