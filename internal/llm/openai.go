package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/seenimoa/flightdesk/internal/infra"
)

// DefaultOpenAIModel is small and cheap enough for request parsing.
const DefaultOpenAIModel = "gpt-4o-mini"

var openAIModels = []string{"gpt-4o-mini", "gpt-4o", "gpt-4.1-mini", "gpt-4.1"}

// OpenAIProvider implements LLMProvider for the Chat Completions API.
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// OpenAIOption configures the OpenAI provider.
type OpenAIOption func(*OpenAIProvider)

// WithOpenAIBaseURL sets a custom base URL (proxies, compatible servers).
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(p *OpenAIProvider) { p.baseURL = strings.TrimRight(url, "/") }
}

// WithOpenAIModel sets the default model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(p *OpenAIProvider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithOpenAIHTTPClient sets a custom HTTP client.
func WithOpenAIHTTPClient(client *http.Client) OpenAIOption {
	return func(p *OpenAIProvider) { p.client = client }
}

// NewOpenAIProvider creates an OpenAI provider.
func NewOpenAIProvider(apiKey string, opts ...OpenAIOption) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	p := &OpenAIProvider{
		apiKey:  apiKey,
		baseURL: "https://api.openai.com/v1",
		model:   DefaultOpenAIModel,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *OpenAIProvider) Name() string     { return ProviderOpenAI }
func (p *OpenAIProvider) Models() []string { return openAIModels }

// Ping verifies the API key by listing models.
func (p *OpenAIProvider) Ping(ctx context.Context) error {
	body, err := infra.Get(ctx, p.client, p.baseURL+"/models", p.headers())
	if err != nil {
		return p.mapError(err)
	}
	body.Close()
	return nil
}

// Chat sends a chat completion request.
func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message, tools []Tool, opts *ChatOptions) (*Response, error) {
	start := time.Now()
	body, err := p.post(ctx, p.buildRequest(messages, tools, opts, false))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var result openAIChatResponse
	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	return parseOpenAIResponse(&result, time.Since(start)), nil
}

// ChatStream streams a text reply using server-sent events.
func (p *OpenAIProvider) ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamChunk, error) {
	body, err := p.post(ctx, p.buildRequest(messages, nil, opts, true))
	if err != nil {
		return nil, err
	}
	ch := make(chan StreamChunk, 32)
	go readOpenAIStream(body, ch)
	return ch, nil
}

// ── Wire types ──

type openAIChatRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	Tools          []openAITool          `json:"tools,omitempty"`
	Stream         bool                  `json:"stream,omitempty"`
	Temperature    *float64              `json:"temperature,omitempty"`
	MaxTokens      *int                  `json:"max_tokens,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content,omitempty"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	Name       string           `json:"name,omitempty"`
}

type openAITool struct {
	Type     string            `json:"type"`
	Function openAIFunctionDef `json:"function"`
}

type openAIFunctionDef struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  *JSONSchema `json:"parameters"`
}

type openAIToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function openAIFunctionCall `json:"function"`
}

type openAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openAIChatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      openAIMessage `json:"message"`
		Delta        openAIMessage `json:"delta"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// ── Helpers ──

func (p *OpenAIProvider) headers() map[string]string {
	return map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + p.apiKey,
	}
}

func (p *OpenAIProvider) post(ctx context.Context, req openAIChatRequest) (io.ReadCloser, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}
	body, err := infra.Do(ctx, p.client, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(data), p.headers())
	if err != nil {
		return nil, p.mapError(err)
	}
	return body, nil
}

func (p *OpenAIProvider) buildRequest(messages []Message, tools []Tool, opts *ChatOptions, stream bool) openAIChatRequest {
	r := openAIChatRequest{
		Model:    p.model,
		Messages: convertToOpenAIMessages(messages),
		Stream:   stream,
	}
	if len(tools) > 0 {
		r.Tools = convertToOpenAITools(tools)
	}
	if opts != nil {
		if opts.Model != "" {
			r.Model = opts.Model
		}
		if opts.Temperature > 0 {
			t := opts.Temperature
			r.Temperature = &t
		}
		if opts.MaxTokens > 0 {
			n := opts.MaxTokens
			r.MaxTokens = &n
		}
		if opts.JSONMode {
			r.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
		}
	}
	return r
}

// mapError turns transport and HTTP failures into the package errors.
func (p *OpenAIProvider) mapError(err error) error {
	var he *infra.HTTPError
	if !errors.As(err, &he) {
		return fmt.Errorf("%w: %v", ErrProviderDown, err)
	}
	msg := he.Body
	var apiErr openAIErrorResponse
	if json.Unmarshal([]byte(he.Body), &apiErr) == nil && apiErr.Error.Message != "" {
		msg = apiErr.Error.Message
	}
	switch {
	case he.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrNoAPIKey, msg)
	case he.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimit, msg)
	case strings.Contains(apiErr.Error.Code, "context_length"):
		return fmt.Errorf("%w: %s", ErrContextLength, msg)
	case strings.Contains(apiErr.Error.Code, "model_not_found"):
		return fmt.Errorf("%w: %s", ErrInvalidModel, msg)
	case he.StatusCode >= 500:
		return fmt.Errorf("%w: HTTP %d: %s", ErrProviderDown, he.StatusCode, msg)
	}
	return fmt.Errorf("openai: HTTP %d: %s", he.StatusCode, msg)
}

func parseOpenAIResponse(raw *openAIChatResponse, latency time.Duration) *Response {
	r := &Response{
		Model:    raw.Model,
		Provider: ProviderOpenAI,
		Latency:  latency,
		Usage:    raw.Usage,
	}
	if len(raw.Choices) == 0 {
		return r
	}
	choice := raw.Choices[0]
	r.Content = choice.Message.Content
	r.FinishReason = FinishReason(choice.FinishReason)
	for _, tc := range choice.Message.ToolCalls {
		r.ToolCalls = append(r.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return r
}

func readOpenAIStream(body io.ReadCloser, ch chan<- StreamChunk) {
	defer close(ch)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			continue
		}
		if data == "[DONE]" {
			ch <- StreamChunk{Done: true, FinishReason: FinishStop}
			return
		}
		var chunk openAIChatResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			ch <- StreamChunk{Err: fmt.Errorf("openai: stream parse: %w", err)}
			return
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		sc := StreamChunk{Content: chunk.Choices[0].Delta.Content}
		if fr := chunk.Choices[0].FinishReason; fr != "" {
			sc.FinishReason = FinishReason(fr)
		}
		ch <- sc
	}
	if err := scanner.Err(); err != nil {
		ch <- StreamChunk{Err: fmt.Errorf("openai: stream read: %w", err)}
	}
}

func convertToOpenAIMessages(messages []Message) []openAIMessage {
	out := make([]openAIMessage, len(messages))
	for i, m := range messages {
		msg := openAIMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openAIToolCall{
				ID:       tc.ID,
				Type:     "function",
				Function: openAIFunctionCall{Name: tc.Name, Arguments: string(tc.Arguments)},
			})
		}
		out[i] = msg
	}
	return out
}

func convertToOpenAITools(tools []Tool) []openAITool {
	out := make([]openAITool, len(tools))
	for i, t := range tools {
		out[i] = openAITool{
			Type:     "function",
			Function: openAIFunctionDef{Name: t.Name, Description: t.Description, Parameters: t.Parameters},
		}
	}
	return out
}
