package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/seenimoa/flightdesk/internal/infra"
)

// DefaultOllamaModel supports tool calling and runs on a laptop.
const DefaultOllamaModel = "qwen2.5:7b"

var ollamaModels = []string{"qwen2.5:7b", "qwen2.5:14b", "llama3.1:8b", "mistral:7b"}

// OllamaProvider implements LLMProvider for a local Ollama server.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// OllamaOption configures the Ollama provider.
type OllamaOption func(*OllamaProvider)

// WithOllamaModel sets the default model.
func WithOllamaModel(model string) OllamaOption {
	return func(p *OllamaProvider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithOllamaHTTPClient sets a custom HTTP client.
func WithOllamaHTTPClient(client *http.Client) OllamaOption {
	return func(p *OllamaProvider) { p.client = client }
}

// NewOllamaProvider creates an Ollama provider for baseURL
// (default http://localhost:11434).
func NewOllamaProvider(baseURL string, opts ...OllamaOption) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	p := &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   DefaultOllamaModel,
		// local models can be slow to load
		client: &http.Client{Timeout: 300 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *OllamaProvider) Name() string     { return ProviderOllama }
func (p *OllamaProvider) Models() []string { return ollamaModels }

// Ping checks if the Ollama server is reachable.
func (p *OllamaProvider) Ping(ctx context.Context) error {
	body, err := infra.Get(ctx, p.client, p.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderDown, err)
	}
	body.Close()
	return nil
}

// Chat sends a non-streaming request to /api/chat.
func (p *OllamaProvider) Chat(ctx context.Context, messages []Message, tools []Tool, opts *ChatOptions) (*Response, error) {
	start := time.Now()
	body, err := p.post(ctx, p.buildRequest(messages, tools, opts, false))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var result ollamaChatResponse
	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ollama: decode response: %w", err)
	}
	return parseOllamaResponse(&result, time.Since(start)), nil
}

// ChatStream streams newline-delimited JSON chunks from /api/chat.
func (p *OllamaProvider) ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamChunk, error) {
	body, err := p.post(ctx, p.buildRequest(messages, nil, opts, true))
	if err != nil {
		return nil, err
	}
	ch := make(chan StreamChunk, 32)
	go readOllamaStream(body, ch)
	return ch, nil
}

// ── Wire types ──

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Tools    []openAITool    `json:"tools,omitempty"` // same shape as OpenAI
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

type ollamaToolCall struct {
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

// ── Helpers ──

func (p *OllamaProvider) post(ctx context.Context, req ollamaChatRequest) (io.ReadCloser, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}
	body, err := infra.Do(ctx, p.client, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(data),
		map[string]string{"Content-Type": "application/json"})
	if err != nil {
		return nil, fmt.Errorf("%w: ollama: %v", ErrProviderDown, err)
	}
	return body, nil
}

func (p *OllamaProvider) buildRequest(messages []Message, tools []Tool, opts *ChatOptions, stream bool) ollamaChatRequest {
	r := ollamaChatRequest{
		Model:    p.model,
		Messages: convertToOllamaMessages(messages),
		Stream:   stream,
	}
	if len(tools) > 0 {
		r.Tools = convertToOpenAITools(tools)
	}
	if opts == nil {
		return r
	}
	if opts.Model != "" {
		r.Model = opts.Model
	}
	if opts.JSONMode {
		r.Format = "json"
	}
	if opts.Temperature > 0 || opts.MaxTokens > 0 {
		r.Options = &ollamaOptions{Temperature: opts.Temperature, NumPredict: opts.MaxTokens}
	}
	return r
}

func parseOllamaResponse(raw *ollamaChatResponse, latency time.Duration) *Response {
	r := &Response{
		Model:    raw.Model,
		Provider: ProviderOllama,
		Latency:  latency,
		Content:  raw.Message.Content,
		Usage: Usage{
			PromptTokens:     raw.PromptEvalCount,
			CompletionTokens: raw.EvalCount,
			TotalTokens:      raw.PromptEvalCount + raw.EvalCount,
		},
		FinishReason: FinishStop,
	}
	// Ollama does not assign call IDs.
	for i, tc := range raw.Message.ToolCalls {
		r.FinishReason = FinishToolCalls
		r.ToolCalls = append(r.ToolCalls, ToolCall{
			ID:        fmt.Sprintf("call_%d", i),
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return r
}

func readOllamaStream(body io.ReadCloser, ch chan<- StreamChunk) {
	defer close(ch)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var chunk ollamaChatResponse
		if err := json.Unmarshal(scanner.Bytes(), &chunk); err != nil {
			ch <- StreamChunk{Err: fmt.Errorf("ollama: stream parse: %w", err)}
			return
		}
		sc := StreamChunk{Content: chunk.Message.Content, Done: chunk.Done}
		if chunk.Done {
			sc.FinishReason = FinishStop
		}
		ch <- sc
		if chunk.Done {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		ch <- StreamChunk{Err: fmt.Errorf("ollama: stream read: %w", err)}
	}
}

func convertToOllamaMessages(messages []Message) []ollamaMessage {
	out := make([]ollamaMessage, 0, len(messages))
	for _, m := range messages {
		msg := ollamaMessage{Role: string(m.Role), Content: m.Content}
		for _, tc := range m.ToolCalls {
			var call ollamaToolCall
			call.Function.Name = tc.Name
			call.Function.Arguments = tc.Arguments
			msg.ToolCalls = append(msg.ToolCalls, call)
		}
		out = append(out, msg)
	}
	return out
}
