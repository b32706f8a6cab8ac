package llm

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/registry"
)

// ProviderConfig carries the settings any provider may need.
type ProviderConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	BinaryPath string
	Timeout    time.Duration
}

// Factory builds a Client from provider settings.
type Factory func(ProviderConfig) (Client, error)

var providers = registry.New[string, Factory]()

func init() {
	RegisterProvider("gemini", func(cfg ProviderConfig) (Client, error) {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini: API key is required")
		}
		opts := []GeminiOption{WithGeminiModel(cfg.Model), WithGeminiBaseURL(cfg.BaseURL)}
		if cfg.Timeout > 0 {
			opts = append(opts, WithGeminiHTTPClient(&http.Client{Timeout: cfg.Timeout}))
		}
		return NewGemini(context.Background(), cfg.APIKey, opts...)
	})
	RegisterProvider("claude-cli", func(cfg ProviderConfig) (Client, error) {
		opts := []ClaudeOption{WithClaudeModel(cfg.Model)}
		if cfg.BinaryPath != "" {
			opts = append(opts, WithClaudePath(cfg.BinaryPath))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, WithClaudeTimeout(cfg.Timeout))
		}
		return NewClaudeCLI(opts...), nil
	})
}

// RegisterProvider adds or replaces a named provider.
func RegisterProvider(name string, f Factory) {
	providers.Register(name, f)
}

// Providers lists registered provider names, sorted.
func Providers() []string {
	names := providers.Keys()
	sort.Strings(names)
	return names
}

// New builds the named provider.
func New(name string, cfg ProviderConfig) (Client, error) {
	f, ok := providers.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown llm provider %q (known: %v)", name, Providers())
	}
	return f(cfg)
}
