package database

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/go-openapi/strfmt"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/finqa-labs/finqa-be/config"
	"github.com/finqa-labs/finqa-be/types"
)

const BATCH_SIZE = 100

// listDocumentsLimit bounds the metadata scan used for the per-document
// aggregation. Documents beyond it would need a cursor, which this store
// does not model.
const listDocumentsLimit = 10000

var (
	CHUNK_CLASS        = "FinancialChunk"
	CHUNK_CLASS_OBJECT = &models.Class{
		Class: CHUNK_CLASS,
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}},
			{Name: "filename", DataType: []string{"text"}},
			{Name: "documentId", DataType: []string{"text"}},
			{Name: "page", DataType: []string{"int"}},
			{Name: "chunkIndex", DataType: []string{"int"}},
			{Name: "totalChunks", DataType: []string{"int"}},
			{Name: "uploadDate", DataType: []string{"text"}},
			{Name: "custom", DataType: []string{"object"},
				NestedProperties: []*models.NestedProperty{
					{Name: "page_width", DataType: []string{"text"}},
					{Name: "page_height", DataType: []string{"text"}},
					{Name: "rotation", DataType: []string{"text"}},
				},
			},
		},
		// Vectors are computed client-side, never by a Weaviate module.
		Vectorizer:      "none",
		VectorIndexType: "hnsw",
	}

	chunkFields = []graphql.Field{
		{Name: "content"},
		{Name: "filename"},
		{Name: "documentId"},
		{Name: "page"},
		{Name: "chunkIndex"},
		{Name: "totalChunks"},
		{Name: "uploadDate"},
		{Name: "custom", Fields: []graphql.Field{
			{Name: "page_width"},
			{Name: "page_height"},
			{Name: "rotation"},
		}},
		{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}, {Name: "id"}}},
	}
)

// WeaviateStore implements VectorIndex on a Weaviate class holding one
// object per chunk, keyed by the chunk id.
type WeaviateStore struct {
	client    *weaviate.Client
	embedder  Embedder
	threshold float64
	ready     atomic.Bool
}

func NewWeaviateStore(cfg config.WeaviateStoreConfig, embedder Embedder, threshold float64) (*WeaviateStore, error) {
	var scheme string
	if strings.Contains(cfg.Host, "https") {
		scheme = "https"
	} else {
		scheme = "http"
	}
	host := strings.TrimPrefix(cfg.Host, scheme+"://")
	wcfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{
			Value: cfg.APIKey,
		}
	}
	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}

	return &WeaviateStore{
		client:    client,
		embedder:  embedder,
		threshold: threshold,
	}, nil
}

// Init creates the chunk class if it does not exist yet. Safe to call more
// than once.
func (s *WeaviateStore) Init(ctx context.Context) error {
	schema, err := s.client.Schema().Getter().Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to get schema: %w", err)
	}

	hasChunkClass := false
	for _, class := range schema.Classes {
		if class.Class == CHUNK_CLASS {
			hasChunkClass = true
			break
		}
	}
	if !hasChunkClass {
		if err := s.client.Schema().ClassCreator().WithClass(CHUNK_CLASS_OBJECT).Do(ctx); err != nil {
			return fmt.Errorf("failed to create %s class: %w", CHUNK_CLASS, err)
		}
	}
	s.ready.Store(true)
	return nil
}

func (s *WeaviateStore) Ready() bool {
	return s.ready.Load()
}

// ReInit drops and recreates the chunk class, discarding all indexed data.
func (s *WeaviateStore) ReInit(ctx context.Context) error {
	err := s.client.Schema().ClassDeleter().WithClassName(CHUNK_CLASS).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete %s class: %w", CHUNK_CLASS, err)
	}
	if err := s.client.Schema().ClassCreator().WithClass(CHUNK_CLASS_OBJECT).Do(ctx); err != nil {
		return fmt.Errorf("failed to create %s class: %w", CHUNK_CLASS, err)
	}
	s.ready.Store(true)
	return nil
}

func (s *WeaviateStore) Insert(ctx context.Context, chunks []types.DocumentChunk, documentID string) error {
	if !s.Ready() {
		return types.ErrIndexNotInitialized
	}
	if len(chunks) == 0 {
		return nil
	}

	total := len(chunks)
	for i := 0; i < total; i += BATCH_SIZE {
		end := i + BATCH_SIZE
		if end > total {
			end = total
		}

		texts := make([]string, 0, end-i)
		for j := i; j < end; j++ {
			texts = append(texts, chunks[j].Content)
		}
		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed batch %d-%d: %w", i, end, err)
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
		}

		batcher := s.client.Batch().ObjectsBatcher()
		for j := i; j < end; j++ {
			chunk := chunks[j]
			batcher = batcher.WithObjects(&models.Object{
				Class:      CHUNK_CLASS,
				ID:         strfmt.UUID(chunk.ID),
				Properties: chunkProperties(chunk, documentID),
				Vector:     vectors[j-i],
			})
		}
		if _, err := batcher.Do(ctx); err != nil {
			return fmt.Errorf("failed to insert batch %d-%d: %w", i, end, err)
		}

		log.Printf("Indexed chunks %d-%d of %d for document %s", i, end, total, documentID)
	}

	return nil
}

func (s *WeaviateStore) Search(ctx context.Context, query string, k int) ([]types.ScoredChunk, error) {
	if !s.Ready() {
		return nil, types.ErrIndexNotInitialized
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(vectors[0])

	result, err := s.client.GraphQL().Get().
		WithClassName(CHUNK_CLASS).
		WithFields(chunkFields...).
		WithNearVector(nearVector).
		WithLimit(k).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("search failed: %v", result.Errors[0].Message)
	}

	scored := parseScoredChunks(result.Data)
	return filterScored(scored, s.threshold), nil
}

func (s *WeaviateStore) DeleteByDocument(ctx context.Context, documentID string) error {
	if !s.Ready() {
		return types.ErrIndexNotInitialized
	}

	where := filters.Where().
		WithPath([]string{"documentId"}).
		WithOperator(filters.Equal).
		WithValueString(documentID)

	resp, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(CHUNK_CLASS).
		WithWhere(where).
		WithOutput("minimal").
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete chunks of document %s: %w", documentID, err)
	}
	if resp != nil && resp.Results != nil {
		log.Printf("Deleted %d chunks of document %s", resp.Results.Successful, documentID)
	}
	return nil
}

func (s *WeaviateStore) ListChunks(ctx context.Context, documentID string, page int, limit int) ([]types.DocumentChunk, error) {
	if !s.Ready() {
		return nil, types.ErrIndexNotInitialized
	}
	if limit <= 0 {
		limit = 100
	}

	getBuilder := s.client.GraphQL().Get().
		WithClassName(CHUNK_CLASS).
		WithFields(chunkFields...).
		WithLimit(limit)
	if where := buildChunkFilter(documentID, page); where != nil {
		getBuilder = getBuilder.WithWhere(where)
	}

	result, err := getBuilder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("failed to list chunks: %v", result.Errors[0].Message)
	}

	scored := parseScoredChunks(result.Data)
	chunks := make([]types.DocumentChunk, 0, len(scored))
	for _, sc := range scored {
		chunks = append(chunks, sc.Chunk)
	}
	return chunks, nil
}

func (s *WeaviateStore) ListDocuments(ctx context.Context) ([]types.DocumentInfo, error) {
	if !s.Ready() {
		return nil, types.ErrIndexNotInitialized
	}

	result, err := s.client.GraphQL().Get().
		WithClassName(CHUNK_CLASS).
		WithFields(
			graphql.Field{Name: "documentId"},
			graphql.Field{Name: "filename"},
			graphql.Field{Name: "uploadDate"},
		).
		WithLimit(listDocumentsLimit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("failed to list documents: %v", result.Errors[0].Message)
	}

	type docAgg struct {
		info types.DocumentInfo
	}
	docs := make(map[string]*docAgg)
	for _, item := range classItems(result.Data) {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		documentID := stringProp(obj, "documentId")
		filename := stringProp(obj, "filename")
		uploadDate := stringProp(obj, "uploadDate")

		key := documentID + "_" + filename
		agg, found := docs[key]
		if !found {
			agg = &docAgg{info: types.DocumentInfo{
				ID:         documentID,
				Filename:   filename,
				UploadDate: uploadDate,
				Status:     "processed",
			}}
			docs[key] = agg
		}
		agg.info.ChunksCount++
		// Keep the earliest timestamp seen for the document.
		if uploadDate != "" && (agg.info.UploadDate == "" || uploadDate < agg.info.UploadDate) {
			agg.info.UploadDate = uploadDate
		}
	}

	infos := make([]types.DocumentInfo, 0, len(docs))
	for _, agg := range docs {
		infos = append(infos, agg.info)
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].UploadDate != infos[j].UploadDate {
			return infos[i].UploadDate < infos[j].UploadDate
		}
		return infos[i].ID < infos[j].ID
	})
	return infos, nil
}

func chunkProperties(chunk types.DocumentChunk, documentID string) map[string]interface{} {
	properties := map[string]interface{}{
		"content":     chunk.Content,
		"filename":    chunk.Metadata.Filename,
		"documentId":  documentID,
		"page":        chunk.Page,
		"chunkIndex":  chunk.Metadata.ChunkIndex,
		"totalChunks": chunk.Metadata.TotalChunksInPage,
		"uploadDate":  chunk.Metadata.UploadDate,
	}
	if len(chunk.Metadata.Custom) > 0 {
		custom := make(map[string]interface{}, len(chunk.Metadata.Custom))
		for k, v := range chunk.Metadata.Custom {
			custom[k] = v
		}
		properties["custom"] = custom
	}
	return properties
}

func buildChunkFilter(documentID string, page int) *filters.WhereBuilder {
	var whereFilter *filters.WhereBuilder

	if documentID != "" {
		whereFilter = filters.Where().
			WithPath([]string{"documentId"}).
			WithOperator(filters.Equal).
			WithValueString(documentID)
	}
	if page > 0 {
		pageFilter := filters.Where().
			WithPath([]string{"page"}).
			WithOperator(filters.Equal).
			WithValueInt(int64(page))
		if whereFilter == nil {
			whereFilter = pageFilter
		} else {
			whereFilter = filters.Where().
				WithOperator(filters.And).
				WithOperands([]*filters.WhereBuilder{whereFilter, pageFilter})
		}
	}

	return whereFilter
}

// classItems digs the per-class object list out of a GraphQL Get response.
func classItems(data map[string]models.JSONObject) []interface{} {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	items, ok := get[CHUNK_CLASS].([]interface{})
	if !ok {
		return nil
	}
	return items
}

func parseScoredChunks(data map[string]models.JSONObject) []types.ScoredChunk {
	var scored []types.ScoredChunk
	for _, item := range classItems(data) {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		chunk := types.DocumentChunk{
			Content: stringProp(obj, "content"),
			Page:    intProp(obj, "page"),
			Metadata: types.ChunkMetadata{
				Filename:          stringProp(obj, "filename"),
				DocumentID:        stringProp(obj, "documentId"),
				Page:              intProp(obj, "page"),
				ChunkIndex:        intProp(obj, "chunkIndex"),
				TotalChunksInPage: intProp(obj, "totalChunks"),
				UploadDate:        stringProp(obj, "uploadDate"),
				Custom:            parseStringMap(obj["custom"]),
			},
		}

		var score float64
		if additional, ok := obj["_additional"].(map[string]interface{}); ok {
			if id, ok := additional["id"].(string); ok {
				chunk.ID = id
			}
			if certainty, ok := additional["certainty"].(float64); ok {
				score = certainty
			}
		}

		scored = append(scored, types.ScoredChunk{Chunk: chunk, Score: score})
	}
	return scored
}

// filterScored drops results below the certainty threshold. Weaviate
// certainty is higher-is-more-similar, so the comparison is >=. Order is
// preserved: Weaviate returns the best match first.
func filterScored(scored []types.ScoredChunk, threshold float64) []types.ScoredChunk {
	filtered := make([]types.ScoredChunk, 0, len(scored))
	for _, sc := range scored {
		if sc.Score >= threshold {
			filtered = append(filtered, sc)
		}
	}
	return filtered
}

// Helper functions
func stringProp(obj map[string]interface{}, key string) string {
	if v, ok := obj[key].(string); ok {
		return v
	}
	return ""
}

func intProp(obj map[string]interface{}, key string) int {
	if v, ok := obj[key].(float64); ok {
		return int(v)
	}
	return 0
}

func parseStringMap(v interface{}) map[string]string {
	if v == nil {
		return nil
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	result := make(map[string]string)
	for k, val := range m {
		if s, ok := val.(string); ok {
			result[k] = s
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
