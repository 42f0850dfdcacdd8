package factory

import (
	"fmt"

	"github.com/ehcaw/documix/pkg/llm"
	"github.com/ehcaw/documix/pkg/llm/ollama"
	"github.com/ehcaw/documix/pkg/llm/openai"
)

func NewLLMProvider(providerType, modelName, ollamaBaseURL, openaiBaseURL, openaiAPIKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if ollamaBaseURL == "" {
			ollamaBaseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(ollamaBaseURL, modelName), nil
	case "openai":
		if openaiAPIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		if openaiBaseURL == "" {
			openaiBaseURL = "https://api.openai.com/v1"
		}
		return openai.NewOpenAIProvider(openaiBaseURL, openaiAPIKey, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
