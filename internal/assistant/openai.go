package assistant

import (
	"fmt"

	"github.com/tmc/langchaingo/llms/openai"

	"github.com/hiufpe/hub-api/pkg/config"
)

// NewOpenAIModel builds the completion backend from configuration. Any OpenAI compatible
// endpoint works through BaseURL.
func NewOpenAIModel(cfg config.AssistantConfig) (Model, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("assistant enabled without LLM_API_KEY")
	}
	opts := []openai.Option{openai.WithToken(cfg.Token)}
	if cfg.Model != "" {
		opts = append(opts, openai.WithModel(cfg.Model))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init completion model: %w", err)
	}
	return llm, nil
}
