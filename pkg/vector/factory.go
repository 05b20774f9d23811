package vector

import (
	"fmt"

	"github.com/Nithin8919/AI-policy-ASSISTANT--v2-sub000/pkg/config"
)

// NewProvider creates a vector provider from the store configuration.
func NewProvider(cfg config.VectorStoreConfig) (Provider, error) {
	switch cfg.Type {
	case "qdrant":
		return NewQdrantProvider(QdrantConfig{
			Host:   cfg.Host,
			Port:   cfg.Port,
			APIKey: cfg.APIKey,
			UseTLS: cfg.UseTLS,
		})
	case "chromem", "":
		return NewChromemProvider(ChromemConfig{PersistPath: cfg.PersistPath})
	case "pinecone":
		return NewPineconeProvider(PineconeConfig{
			APIKey:    cfg.APIKey,
			Host:      cfg.Host,
			IndexName: cfg.IndexName,
		})
	case "memory":
		return NewMemoryProvider(), nil
	default:
		return nil, fmt.Errorf("unknown vector store type: %q", cfg.Type)
	}
}
