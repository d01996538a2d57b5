// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"
	"os"

	"github.com/papercomputeco/marquee/pkg/embeddings"
	"github.com/papercomputeco/marquee/pkg/embeddings/hashing"
	"github.com/papercomputeco/marquee/pkg/embeddings/ollama"
	"github.com/papercomputeco/marquee/pkg/embeddings/openai"
)

// Supported embedding providers.
const (
	ProviderOllama  = "ollama"
	ProviderOpenAI  = "openai"
	ProviderHashing = "hashing"
)

// Providers lists every supported provider name.
var Providers = []string{ProviderOllama, ProviderOpenAI, ProviderHashing}

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	Dimensions   uint

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string
}

func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	switch o.ProviderType {
	case ProviderOllama:
		return ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL:    o.TargetURL,
			Model:      o.Model,
			Dimensions: o.Dimensions,
		})
	case ProviderOpenAI:
		var apiKey string
		if o.APIKeyEnv != "" {
			apiKey = os.Getenv(o.APIKeyEnv)
			if apiKey == "" {
				return nil, fmt.Errorf("API key not found in environment variable: %s", o.APIKeyEnv)
			}
		}
		return openai.NewEmbedder(openai.EmbedderConfig{
			BaseURL:    o.TargetURL,
			APIKey:     apiKey,
			Model:      o.Model,
			Dimensions: o.Dimensions,
		})
	case ProviderHashing:
		return hashing.NewEmbedder(o.Dimensions), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
}
