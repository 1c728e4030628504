// Package llm wraps the generative model providers behind one interface.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/raphaelgruber/courseforge/internal/config"
	"github.com/raphaelgruber/courseforge/internal/metrics"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Model wraps a langchaingo LLM for structured text generation.
type Model struct {
	llm       llms.Model
	modelName string
	metrics   *metrics.Collector
}

// NewModel creates an LLM model based on configuration.
func NewModel(cfg config.Config, mc *metrics.Collector) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	case config.ProviderBedrock:
		awsCfg, cfgErr := awsconfig.LoadDefaultConfig(context.Background())
		if cfgErr != nil {
			return nil, fmt.Errorf("load AWS config: %w", cfgErr)
		}
		client := bedrockruntime.NewFromConfig(awsCfg)
		model, err = bedrock.New(
			bedrock.WithClient(client),
			bedrock.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create bedrock model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Model{
		llm:       model,
		modelName: cfg.LLMModel,
		metrics:   mc,
	}, nil
}

// Model returns the LLM model name.
func (m *Model) Model() string {
	return m.modelName
}

// GenerateWithSystem generates text with a system prompt.
func (m *Model) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	start := time.Now()

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	response, err := m.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate with system: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	choice := response.Choices[0]
	if m.metrics != nil {
		m.metrics.RecordLLMUsage(metrics.OpLLMGenerate, time.Since(start),
			tokenCount(choice.GenerationInfo, "PromptTokens", "input_tokens"),
			tokenCount(choice.GenerationInfo, "CompletionTokens", "output_tokens"))
	}

	return choice.Content, nil
}

// GenerateJSON generates a response expected to be a single JSON object
// and strips any markdown fencing the provider wrapped it in. Parsing
// and schema validation are the caller's responsibility.
func (m *Model) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	raw, err := m.GenerateWithSystem(ctx, systemPrompt, userPrompt)
	if err != nil {
		return "", err
	}
	return ExtractJSON(raw), nil
}

// ExtractJSON trims a model response down to the outermost JSON object.
// Providers routinely wrap JSON in ```json fences or add prose around it.
func ExtractJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
		s = strings.TrimPrefix(s, "json")
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// IsFatalAPIError reports whether an error from the provider indicates
// an account-level problem that retrying will not fix. Jobs hitting one
// of these should fail immediately instead of burning retries.
func IsFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"credit balance",
		"rate limit",
		"quota exceeded",
		"billing",
		"invalid api key",
		"authentication",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// tokenCount fishes a token count out of provider generation info, which
// uses different key names per provider.
func tokenCount(info map[string]any, keys ...string) int64 {
	for _, key := range keys {
		if v, ok := info[key]; ok {
			switch n := v.(type) {
			case int:
				return int64(n)
			case int64:
				return n
			case float64:
				return int64(n)
			}
		}
	}
	return 0
}
