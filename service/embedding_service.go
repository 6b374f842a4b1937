package service

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/finqa-labs/finqa-be/utils"
)

const (
	defaultEmbeddingRetries    = 3
	defaultEmbeddingRetryDelay = 2 * time.Second
)

// EmbeddingService computes text embeddings through the OpenAI embeddings
// API with bounded retry for transient failures.
type EmbeddingService struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	maxRetries int
	retryDelay time.Duration
}

func NewEmbeddingService(baseURL, apiKey, model string) *EmbeddingService {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &EmbeddingService{
		client:     openai.NewClientWithConfig(config),
		model:      openai.EmbeddingModel(model),
		maxRetries: defaultEmbeddingRetries,
		retryDelay: defaultEmbeddingRetryDelay,
	}
}

// Embed returns one vector per input text, in input order.
func (s *EmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp openai.EmbeddingResponse
	var err error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(utils.CalculateBackoff(s.retryDelay, attempt)):
			}
		}
		resp, err = s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts,
			Model: s.model,
		})
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings after %d attempts: %w", s.maxRetries+1, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding API returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}
	vectors := make([][]float32, len(resp.Data))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding API returned out-of-range index %d", item.Index)
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}
