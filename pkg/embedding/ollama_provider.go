package embedding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"
)

// OllamaProvider generates embeddings through a local Ollama instance.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaProvider(baseURL string, model string) EmbeddingProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	return &OllamaProvider{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Generate embeds text. The task type hint is accepted for interface parity;
// Ollama embedding models have no use for it.
func (p *OllamaProvider) Generate(text string, taskType string) (*EmbeddingResponse, error) {
	payload, err := json.Marshal(embedRequest{Model: p.model, Prompt: text})
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Post(p.baseURL+"/api/embeddings", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embeddings: unexpected status %d", resp.StatusCode)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{
			Values: toUnitVector(parsed.Embedding),
		},
	}, nil
}

// toUnitVector scales the embedding to unit length, which the cosine
// distance operator in pgvector assumes.
func toUnitVector(values []float64) []float32 {
	var sum float64
	for _, v := range values {
		sum += v * v
	}

	out := make([]float32, len(values))
	norm := math.Sqrt(sum)
	for i, v := range values {
		if norm == 0 {
			out[i] = float32(v)
		} else {
			out[i] = float32(v / norm)
		}
	}
	return out
}
