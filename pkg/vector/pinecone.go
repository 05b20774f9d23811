package vector

import (
	"context"
	"fmt"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"google.golang.org/protobuf/types/known/structpb"
)

// PineconeConfig configures the Pinecone vector provider.
type PineconeConfig struct {
	// APIKey is required for Pinecone authentication.
	APIKey string `yaml:"api_key"`

	// Host is the Pinecone API host (optional).
	Host string `yaml:"host,omitempty"`

	// IndexName is the index used when a collection name is empty.
	IndexName string `yaml:"index_name"`
}

// PineconeProvider implements Provider using the Pinecone managed service.
type PineconeProvider struct {
	client    *pinecone.Client
	config    PineconeConfig
	indexName string
}

// NewPineconeProvider creates a new Pinecone provider.
func NewPineconeProvider(cfg PineconeConfig) (*PineconeProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for Pinecone")
	}

	clientParams := pinecone.NewClientParams{ApiKey: cfg.APIKey}
	if cfg.Host != "" {
		clientParams.Host = cfg.Host
	}

	client, err := pinecone.NewClient(clientParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pinecone client: %w", err)
	}

	indexName := cfg.IndexName
	if indexName == "" {
		indexName = "policy-index"
	}

	return &PineconeProvider{client: client, config: cfg, indexName: indexName}, nil
}

// Name returns the provider name.
func (p *PineconeProvider) Name() string {
	return "pinecone"
}

func (p *PineconeProvider) indexFor(collection string) string {
	if collection != "" {
		return collection
	}
	return p.indexName
}

func (p *PineconeProvider) connect(ctx context.Context, indexName string) (*pinecone.IndexConnection, error) {
	index, err := p.client.DescribeIndex(ctx, indexName)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index %s: %w", indexName, err)
	}
	conn, err := p.client.Index(pinecone.NewIndexConnParams{Host: index.Host})
	if err != nil {
		return nil, fmt.Errorf("failed to create index connection: %w", err)
	}
	return conn, nil
}

// Search finds the topK most similar vectors.
func (p *PineconeProvider) Search(ctx context.Context, collection string, vector []float32, topK int) ([]Result, error) {
	return p.SearchWithFilter(ctx, collection, vector, topK, nil, 0)
}

// SearchWithFilter combines similarity search with metadata filtering.
// Pinecone supports disjunction natively via $or/$in, so clauses translate
// directly; the score threshold is applied client-side.
func (p *PineconeProvider) SearchWithFilter(ctx context.Context, collection string, vector []float32, topK int, filter *Filter, scoreThreshold float32) ([]Result, error) {
	conn, err := p.connect(ctx, p.indexFor(collection))
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var metadataFilter *pinecone.MetadataFilter
	if !filter.Empty() {
		metadataFilter, err = buildPineconeFilter(filter)
		if err != nil {
			return nil, err
		}
	}

	resp, err := conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(topK),
		MetadataFilter:  metadataFilter,
		IncludeMetadata: true,
		IncludeValues:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query Pinecone: %w", err)
	}

	results := make([]Result, 0, len(resp.Matches))
	for _, match := range resp.Matches {
		if match.Vector == nil {
			continue
		}
		if scoreThreshold > 0 && match.Score < scoreThreshold {
			continue
		}
		metadata := make(map[string]any)
		if match.Vector.Metadata != nil {
			for k, v := range match.Vector.Metadata.AsMap() {
				metadata[k] = v
			}
		}
		results = append(results, Result{
			ID:       match.Vector.Id,
			Content:  contentFromMetadata(metadata),
			Score:    match.Score,
			Vector:   match.Vector.Values,
			Metadata: metadata,
		})
	}
	return results, nil
}

// Scroll enumerates vectors via ListVectors + FetchVectors pagination.
func (p *PineconeProvider) Scroll(ctx context.Context, collection string, limit int, offset string) ([]Result, string, error) {
	conn, err := p.connect(ctx, p.indexFor(collection))
	if err != nil {
		return nil, "", err
	}
	defer conn.Close()

	req := &pinecone.ListVectorsRequest{}
	lim := uint32(limit)
	req.Limit = &lim
	if offset != "" {
		req.PaginationToken = &offset
	}

	listResp, err := conn.ListVectors(ctx, req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list vectors: %w", err)
	}
	if len(listResp.VectorIds) == 0 {
		return nil, "", nil
	}

	ids := make([]string, 0, len(listResp.VectorIds))
	for _, id := range listResp.VectorIds {
		if id != nil {
			ids = append(ids, *id)
		}
	}

	fetchResp, err := conn.FetchVectors(ctx, ids)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch vectors: %w", err)
	}

	results := make([]Result, 0, len(fetchResp.Vectors))
	for _, vec := range fetchResp.Vectors {
		metadata := make(map[string]any)
		if vec.Metadata != nil {
			for k, v := range vec.Metadata.AsMap() {
				metadata[k] = v
			}
		}
		results = append(results, Result{
			ID:       vec.Id,
			Content:  contentFromMetadata(metadata),
			Vector:   vec.Values,
			Metadata: metadata,
		})
	}

	next := ""
	if listResp.NextPaginationToken != nil {
		next = *listResp.NextPaginationToken
	}
	return results, next, nil
}

// Upsert adds or updates a vector.
func (p *PineconeProvider) Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]any) error {
	conn, err := p.connect(ctx, p.indexFor(collection))
	if err != nil {
		return err
	}
	defer conn.Close()

	var pineconeMetadata *pinecone.Metadata
	if len(metadata) > 0 {
		pineconeMetadata, err = structpb.NewStruct(metadata)
		if err != nil {
			return fmt.Errorf("failed to convert metadata: %w", err)
		}
	}

	_, err = conn.UpsertVectors(ctx, []*pinecone.Vector{{
		Id:       id,
		Values:   vector,
		Metadata: pineconeMetadata,
	}})
	if err != nil {
		return fmt.Errorf("failed to upsert vector: %w", err)
	}
	return nil
}

// CreateCollection checks the index exists; Pinecone indexes are provisioned
// out of band.
func (p *PineconeProvider) CreateCollection(ctx context.Context, collection string, vectorDimension int) error {
	indexName := p.indexFor(collection)
	indexes, err := p.client.ListIndexes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list indexes: %w", err)
	}
	for _, idx := range indexes {
		if idx.Name == indexName {
			return nil
		}
	}
	return fmt.Errorf("index %s does not exist; create it via the Pinecone console or API", indexName)
}

// Close is a no-op; the Pinecone client holds no persistent connection.
func (p *PineconeProvider) Close() error {
	return nil
}

// buildPineconeFilter converts the neutral filter into Pinecone's
// Mongo-style filter document.
func buildPineconeFilter(filter *Filter) (*pinecone.MetadataFilter, error) {
	andTerms := make([]any, 0, len(filter.All))
	for _, clause := range filter.All {
		orTerms := make([]any, 0, len(clause.Any))
		for _, fm := range clause.Any {
			if len(fm.Values) == 0 {
				continue
			}
			values := make([]any, len(fm.Values))
			for i, v := range fm.Values {
				values[i] = v
			}
			orTerms = append(orTerms, map[string]any{
				fm.Field: map[string]any{"$in": values},
			})
		}
		switch len(orTerms) {
		case 0:
		case 1:
			andTerms = append(andTerms, orTerms[0])
		default:
			andTerms = append(andTerms, map[string]any{"$or": orTerms})
		}
	}

	var doc map[string]any
	switch len(andTerms) {
	case 0:
		return nil, nil
	case 1:
		m, ok := andTerms[0].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("unexpected filter term type")
		}
		doc = m
	default:
		doc = map[string]any{"$and": andTerms}
	}

	out, err := structpb.NewStruct(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert filter: %w", err)
	}
	return out, nil
}

// Ensure PineconeProvider implements Provider.
var _ Provider = (*PineconeProvider)(nil)
