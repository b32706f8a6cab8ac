package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	cferrors "github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/errors"
)

// Gemini defaults.
const (
	DefaultGeminiModel      = "gemini-2.0-flash"
	DefaultGeminiAPIVersion = "v1beta"
)

// Gemini implements Client on the Google Gen AI SDK.
type Gemini struct {
	client  *genai.Client
	model   string
	baseURL string
	http    *http.Client
	retry   cferrors.RetryConfig
}

// GeminiOption configures Gemini.
type GeminiOption func(*Gemini)

// NewGemini creates a Gemini client authenticated with apiKey.
func NewGemini(ctx context.Context, apiKey string, opts ...GeminiOption) (*Gemini, error) {
	g := &Gemini{
		model: DefaultGeminiModel,
		http:  &http.Client{Timeout: 90 * time.Second},
		retry: cferrors.DefaultRetry,
	}
	for _, opt := range opts {
		opt(g)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.http,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    g.baseURL,
			APIVersion: DefaultGeminiAPIVersion,
		},
	})
	if err != nil {
		return nil, NewError("init", err, false)
	}
	g.client = client
	return g, nil
}

// WithGeminiModel sets the default model.
func WithGeminiModel(model string) GeminiOption {
	return func(g *Gemini) {
		if model != "" {
			g.model = model
		}
	}
}

// WithGeminiBaseURL points the client at another endpoint. The API
// version is appended by the SDK.
func WithGeminiBaseURL(u string) GeminiOption {
	return func(g *Gemini) {
		if u != "" {
			g.baseURL = strings.TrimRight(u, "/") + "/"
		}
	}
}

// WithGeminiHTTPClient replaces the HTTP client.
func WithGeminiHTTPClient(c *http.Client) GeminiOption {
	return func(g *Gemini) {
		if c != nil {
			g.http = c
		}
	}
}

// WithGeminiRetry sets the retry policy for transient failures.
func WithGeminiRetry(cfg cferrors.RetryConfig) GeminiOption {
	return func(g *Gemini) { g.retry = cfg }
}

// Complete implements Client.
func (g *Gemini) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()
	model := g.model
	if req.Model != "" {
		model = req.Model
	}

	cfg, err := generateConfig(req)
	if err != nil {
		return nil, NewError("encode", err, false)
	}
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.Role(role)))
	}

	res := cferrors.WithRetryContext(ctx, g.retry, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		out, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
		return out, g.categorize(ctx, err)
	})
	if res.Err != nil {
		return nil, NewError("complete", res.Err, cferrors.IsRetryable(res.Err))
	}

	out := res.Value
	var content strings.Builder
	finish := ""
	if len(out.Candidates) > 0 && out.Candidates[0] != nil {
		c := out.Candidates[0]
		if c.Content != nil {
			for _, p := range c.Content.Parts {
				if p != nil && !p.Thought {
					content.WriteString(p.Text)
				}
			}
		}
		finish = strings.ToLower(string(c.FinishReason))
	}
	text := strings.TrimSpace(content.String())
	if text == "" {
		return nil, NewError("complete", ErrEmptyResponse, false)
	}

	if out.ModelVersion != "" {
		model = out.ModelVersion
	}
	resp := &CompletionResponse{
		Content:      text,
		Model:        model,
		FinishReason: finish,
		Duration:     time.Since(start),
	}
	if u := out.UsageMetadata; u != nil {
		resp.Usage = TokenUsage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
			TotalTokens:  int(u.TotalTokenCount),
		}
	}
	return resp, nil
}

// categorize maps SDK errors onto the errors package so retry can tell
// transient failures from permanent ones.
func (g *Gemini) categorize(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &cferrors.HTTPError{StatusCode: apiErr.Code, Message: apiErr.Message, Endpoint: "generateContent"}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &cferrors.HTTPError{StatusCode: apiErrPtr.Code, Message: apiErrPtr.Message, Endpoint: "generateContent"}
	}
	return &cferrors.TimeoutError{Operation: "gemini generateContent: " + err.Error(), Duration: g.http.Timeout.String()}
}

func generateConfig(req CompletionRequest) (*genai.GenerateContentConfig, error) {
	cfg := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if len(req.Schema) > 0 {
		schema, err := toGenaiSchema(req.Schema)
		if err != nil {
			return nil, err
		}
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = schema
	}
	return cfg, nil
}

// jsonSchema is the subset of JSON Schema used for structured output.
type jsonSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Enum        []string               `json:"enum,omitempty"`
	Properties  map[string]*jsonSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Items       *jsonSchema            `json:"items,omitempty"`
}

// toGenaiSchema converts a JSON Schema document into the SDK's OpenAPI
// flavoured schema, whose type names are upper case.
func toGenaiSchema(raw json.RawMessage) (*genai.Schema, error) {
	var js jsonSchema
	if err := json.Unmarshal(raw, &js); err != nil {
		return nil, &cferrors.JSONParseError{Input: string(raw), Message: err.Error()}
	}
	return js.convert(), nil
}

func (js *jsonSchema) convert() *genai.Schema {
	if js == nil {
		return nil
	}
	s := &genai.Schema{
		Type:        genai.Type(strings.ToUpper(js.Type)),
		Description: js.Description,
		Enum:        js.Enum,
		Required:    js.Required,
		Items:       js.Items.convert(),
	}
	if len(js.Properties) > 0 {
		s.Properties = make(map[string]*genai.Schema, len(js.Properties))
		for name, p := range js.Properties {
			s.Properties[name] = p.convert()
		}
	}
	return s
}
