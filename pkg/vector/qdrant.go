package vector

import (
	"context"
	"fmt"
	"strings"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantConfig configures the Qdrant provider.
type QdrantConfig struct {
	// Host is the Qdrant server hostname.
	Host string `yaml:"host"`

	// Port is the Qdrant gRPC port (default: 6334).
	Port int `yaml:"port"`

	// APIKey for authenticated access (optional).
	APIKey string `yaml:"api_key,omitempty"`

	// UseTLS enables TLS connections.
	UseTLS bool `yaml:"use_tls,omitempty"`
}

// QdrantProvider implements Provider using the Qdrant vector database.
type QdrantProvider struct {
	client *qdrant.Client
	config QdrantConfig
}

// NewQdrantProvider creates a new Qdrant provider.
func NewQdrantProvider(cfg QdrantConfig) (*QdrantProvider, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client for %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return &QdrantProvider{client: client, config: cfg}, nil
}

// Name returns the provider name.
func (p *QdrantProvider) Name() string {
	return "qdrant"
}

// Search finds the topK most similar vectors.
func (p *QdrantProvider) Search(ctx context.Context, collection string, vector []float32, topK int) ([]Result, error) {
	return p.SearchWithFilter(ctx, collection, vector, topK, nil, 0)
}

// SearchWithFilter combines vector similarity with payload filtering.
func (p *QdrantProvider) SearchWithFilter(ctx context.Context, collection string, vector []float32, topK int, filter *Filter, scoreThreshold float32) ([]Result, error) {
	searchRequest := &qdrant.SearchPoints{
		CollectionName: collection,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	}
	if scoreThreshold > 0 {
		searchRequest.ScoreThreshold = &scoreThreshold
	}
	if !filter.Empty() {
		searchRequest.Filter = buildQdrantFilter(filter)
	}

	pointsClient := p.client.GetPointsClient()
	searchResult, err := pointsClient.Search(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]Result, 0, len(searchResult.Result))
	for _, point := range searchResult.Result {
		results = append(results, Result{
			ID:       pointIDString(point.Id),
			Content:  contentFromMetadata(convertQdrantPayload(point.Payload)),
			Score:    point.Score,
			Vector:   denseVector(point.Vectors),
			Metadata: convertQdrantPayload(point.Payload),
		})
	}
	return results, nil
}

// Scroll enumerates a collection page by page.
func (p *QdrantProvider) Scroll(ctx context.Context, collection string, limit int, offset string) ([]Result, string, error) {
	req := &qdrant.ScrollPoints{
		CollectionName: collection,
		Limit:          qdrant.PtrOf(uint32(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if offset != "" {
		req.Offset = qdrant.NewID(offset)
	}

	pointsClient := p.client.GetPointsClient()
	resp, err := pointsClient.Scroll(ctx, req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to scroll collection %s: %w", collection, err)
	}

	results := make([]Result, 0, len(resp.Result))
	for _, point := range resp.Result {
		payload := convertQdrantPayload(point.Payload)
		results = append(results, Result{
			ID:       pointIDString(point.Id),
			Content:  contentFromMetadata(payload),
			Metadata: payload,
		})
	}

	next := ""
	if resp.NextPageOffset != nil {
		next = pointIDString(resp.NextPageOffset)
	}
	return results, next, nil
}

// Upsert adds or updates a point, creating the collection on first use.
func (p *QdrantProvider) Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]any) error {
	exists, err := p.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if !exists {
		err = p.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(len(vector)),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("failed to create collection: %w", err)
		}
	}

	payload := make(map[string]*qdrant.Value)
	for key, value := range metadata {
		val, err := qdrant.NewValue(value)
		if err != nil {
			return fmt.Errorf("failed to convert metadata value for key %s: %w", key, err)
		}
		payload[key] = val
	}

	_, err = p.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewID(id),
			Vectors: qdrant.NewVectors(vector...),
			Payload: payload,
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}
	return nil
}

// CreateCollection creates a collection if it does not exist.
func (p *QdrantProvider) CreateCollection(ctx context.Context, collection string, vectorDimension int) error {
	exists, err := p.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = p.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(vectorDimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// Close closes the Qdrant client.
func (p *QdrantProvider) Close() error {
	return p.client.Close()
}

// buildQdrantFilter converts the provider-neutral filter to a Qdrant filter.
// Each clause becomes a nested should-filter so multi-field matches stay
// disjunctive while clauses stay conjunctive.
func buildQdrantFilter(filter *Filter) *qdrant.Filter {
	must := make([]*qdrant.Condition, 0, len(filter.All))

	for _, clause := range filter.All {
		should := make([]*qdrant.Condition, 0, len(clause.Any))
		for _, fm := range clause.Any {
			if len(fm.Values) == 0 {
				continue
			}
			should = append(should, fieldCondition(fm))
		}
		if len(should) == 0 {
			continue
		}
		if len(should) == 1 {
			must = append(must, should[0])
			continue
		}
		must = append(must, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Filter{
				Filter: &qdrant.Filter{Should: should},
			},
		})
	}

	return &qdrant.Filter{Must: must}
}

func fieldCondition(fm FieldMatch) *qdrant.Condition {
	var match *qdrant.Match
	if len(fm.Values) == 1 {
		match = &qdrant.Match{
			MatchValue: &qdrant.Match_Keyword{Keyword: fm.Values[0]},
		}
	} else {
		match = &qdrant.Match{
			MatchValue: &qdrant.Match_Keywords{
				Keywords: &qdrant.RepeatedStrings{Strings: fm.Values},
			},
		}
	}
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{Key: fm.Field, Match: match},
		},
	}
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil || id.PointIdOptions == nil {
		return ""
	}
	switch idType := id.PointIdOptions.(type) {
	case *qdrant.PointId_Uuid:
		return idType.Uuid
	case *qdrant.PointId_Num:
		return fmt.Sprintf("%d", idType.Num)
	}
	return ""
}

func denseVector(vectors *qdrant.VectorsOutput) []float32 {
	if vectors == nil {
		return nil
	}
	vectorData := vectors.GetVector()
	if vectorData == nil {
		return nil
	}
	if dense, ok := vectorData.Vector.(*qdrant.VectorOutput_Dense); ok && dense.Dense != nil {
		return dense.Dense.Data
	}
	return nil
}

// convertQdrantPayload converts a Qdrant payload to a plain metadata map.
func convertQdrantPayload(payload map[string]*qdrant.Value) map[string]any {
	metadata := make(map[string]any, len(payload))
	for key, value := range payload {
		metadata[key] = qdrantValue(value)
	}
	return metadata
}

func qdrantValue(value *qdrant.Value) any {
	switch v := value.Kind.(type) {
	case *qdrant.Value_StringValue:
		return v.StringValue
	case *qdrant.Value_IntegerValue:
		return v.IntegerValue
	case *qdrant.Value_DoubleValue:
		return v.DoubleValue
	case *qdrant.Value_BoolValue:
		return v.BoolValue
	case *qdrant.Value_ListValue:
		if v.ListValue == nil {
			return nil
		}
		list := make([]any, len(v.ListValue.Values))
		for i, item := range v.ListValue.Values {
			list[i] = qdrantValue(item)
		}
		return list
	default:
		return value
	}
}

func contentFromMetadata(metadata map[string]any) string {
	if c, ok := metadata["content"].(string); ok {
		return c
	}
	return ""
}

// Ensure QdrantProvider implements Provider.
var _ Provider = (*QdrantProvider)(nil)
