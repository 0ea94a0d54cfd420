package index

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"lifeos-kb/internal/contextutil"
	"lifeos-kb/internal/knowledge"
)

// candidateFactor is how many vector candidates are fetched per requested
// result before keyword blending re-orders them.
const candidateFactor = 4

// QdrantIndex implements Index using two Qdrant collections, one per record kind.
// Duplicate detection is a read before write; concurrent inserts of the same
// chunk for one tenant can both succeed.
type QdrantIndex struct {
	client      *qdrant.Client
	embedder    Embedder
	collections map[Kind]string
}

// NewQdrantIndex creates a Qdrant-backed index.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
// The gRPC port is derived from the HTTP port.
func NewQdrantIndex(urlStr string, embedder Embedder, notesCollection, chunksCollection string) (*QdrantIndex, error) {
	host, port, err := grpcAddress(urlStr)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantIndex{
		client:   client,
		embedder: embedder,
		collections: map[Kind]string{
			KindNote:  notesCollection,
			KindChunk: chunksCollection,
		},
	}, nil
}

// grpcAddress returns the gRPC host and port for a Qdrant HTTP URL.
func grpcAddress(urlStr string) (string, int, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err != nil {
			return "", 0, fmt.Errorf("invalid Qdrant port %q: %w", parsedURL.Port(), err)
		}
		port = httpPort + 1
	}
	return host, port, nil
}

// Insert embeds and upserts records into their kind's collection.
func (s *QdrantIndex) Insert(ctx context.Context, records ...Record) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(records) == 0 {
		return nil
	}

	var (
		accepted []Record
		dups     []Record
	)
	for i := range records {
		r := records[i]
		if err := r.validate(); err != nil {
			return err
		}
		if r.Kind == KindChunk {
			exists, err := s.ExistsHash(ctx, r.OwnerTenant, r.ContentHash)
			if err != nil {
				return err
			}
			if exists {
				dups = append(dups, r)
				continue
			}
		}
		accepted = append(accepted, r)
	}

	if len(accepted) > 0 {
		texts := make([]string, len(accepted))
		for i, r := range accepted {
			texts[i] = r.Text
		}
		vectors, err := s.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return knowledge.Unavailable("embed", err)
		}
		if len(vectors) != len(accepted) {
			return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(accepted), len(vectors))
		}

		byKind := make(map[Kind][]*qdrant.PointStruct)
		for i, r := range accepted {
			byKind[r.Kind] = append(byKind[r.Kind], &qdrant.PointStruct{
				Id:      qdrant.NewID(r.ID),
				Vectors: qdrant.NewVectors(vectors[i]...),
				Payload: qdrant.NewValueMap(payloadFromRecord(r)),
			})
		}

		for kind, points := range byKind {
			_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
				CollectionName: s.collections[kind],
				Wait:           qdrant.PtrOf(true),
				Points:         points,
			})
			if err != nil {
				logger.ErrorContext(ctx, "failed to upsert points", "collection", s.collections[kind], "count", len(points), "error", err)
				return knowledge.Unavailable("insert", err)
			}
			logger.DebugContext(ctx, "upserted points", "collection", s.collections[kind], "count", len(points))
		}
	}

	if len(dups) > 0 {
		return &DuplicateError{Records: dups}
	}
	return nil
}

// ExistsHash counts chunk points with tenant and hash.
func (s *QdrantIndex) ExistsHash(ctx context.Context, tenant knowledge.TenantID, hash string) (bool, error) {
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collections[KindChunk],
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatchInt("owner_tenant", int64(tenant)),
				qdrant.NewMatchKeyword("content_hash", hash),
			},
		},
		Exact: qdrant.PtrOf(true),
	})
	if err != nil {
		return false, knowledge.Unavailable("exists_hash", err)
	}
	return n > 0, nil
}

// HybridQuery fetches vector candidates under the tenant filter and re-ranks
// them with the blended score.
func (s *QdrantIndex) HybridQuery(ctx context.Context, q Query) ([]Hit, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := q.validate(); err != nil {
		return nil, err
	}
	if q.ParentIDs != nil && len(q.ParentIDs) == 0 {
		return []Hit{}, nil
	}

	vecs, err := s.embedder.EmbedTexts(ctx, []string{q.Text})
	if err != nil {
		return nil, knowledge.Unavailable("embed", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedding count mismatch: expected 1, got %d", len(vecs))
	}

	limit := uint64(q.K * candidateFactor)
	scored, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collections[q.Kind],
		Query:          qdrant.NewQuery(vecs[0]...),
		Filter:         queryFilter(q),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", s.collections[q.Kind], "k", q.K, "error", err)
		return nil, knowledge.Unavailable("query", err)
	}

	hits := make([]Hit, 0, len(scored))
	for _, p := range scored {
		r := recordFromPayload(convertPayloadToMap(p.GetPayload()))
		if r.ID == "" && p.GetId() != nil {
			r.ID = p.GetId().GetUuid()
		}
		// The filter already enforces visibility; this guards against payloads written by other tools.
		if !knowledge.VisibleTo(r.OwnerTenant, r.Scope, q.Tenant) {
			continue
		}
		hits = append(hits, scoreHit(q, r, NormalizeScore(MetricCosine, float64(p.GetScore()))))
	}

	hits = rank(hits, q.K)
	logger.DebugContext(ctx, "hybrid query completed", "collection", s.collections[q.Kind], "candidates", len(scored), "results", len(hits))
	return hits, nil
}

// DeleteByParent deletes chunk points whose parent_id is noteID.
func (s *QdrantIndex) DeleteByParent(ctx context.Context, noteID string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collections[KindChunk],
		Wait:           qdrant.PtrOf(true),
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatchKeyword("parent_id", noteID)},
		}),
	})
	if err != nil {
		return knowledge.Unavailable("delete", err)
	}
	return nil
}

// Delete removes points by ID from both collections.
func (s *QdrantIndex) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewID(id))
	}

	for _, collection := range []string{s.collections[KindNote], s.collections[KindChunk]} {
		_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: collection,
			Wait:           qdrant.PtrOf(true),
			Points:         qdrant.NewPointsSelector(pointIDs...),
		})
		if err != nil {
			return knowledge.Unavailable("delete", err)
		}
	}
	return nil
}

// Ping runs a Qdrant health check.
func (s *QdrantIndex) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return knowledge.Unavailable("ping", err)
	}
	return nil
}

// EnsureCollections creates both collections with cosine vectors of vectorSize
// and keyword/integer payload indexes for the filter fields. Existing
// collections are validated against vectorSize.
func (s *QdrantIndex) EnsureCollections(ctx context.Context, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	for _, collection := range []string{s.collections[KindNote], s.collections[KindChunk]} {
		exists, err := s.client.CollectionExists(ctx, collection)
		if err != nil {
			return fmt.Errorf("failed to check collection existence: %w", err)
		}

		if exists {
			if err := s.validateCollection(ctx, collection, vectorSize); err != nil {
				return err
			}
			logger.InfoContext(ctx, "collection validated", "collection", collection, "vector_size", vectorSize)
			continue
		}

		logger.InfoContext(ctx, "creating collection", "collection", collection, "vector_size", vectorSize)
		err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(vectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}

		for field, fieldType := range payloadIndexes {
			_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
				CollectionName: collection,
				Wait:           qdrant.PtrOf(true),
				FieldName:      field,
				FieldType:      fieldType.Enum(),
			})
			if err != nil {
				return fmt.Errorf("failed to create payload index %s: %w", field, err)
			}
		}
	}
	return nil
}

var payloadIndexes = map[string]qdrant.FieldType{
	"owner_tenant": qdrant.FieldType_FieldTypeInteger,
	"scope":        qdrant.FieldType_FieldTypeKeyword,
	"parent_id":    qdrant.FieldType_FieldTypeKeyword,
	"content_hash": qdrant.FieldType_FieldTypeKeyword,
}

func (s *QdrantIndex) validateCollection(ctx context.Context, collection string, vectorSize int) error {
	info, err := s.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}

	config := info.GetConfig()
	if config == nil || config.GetParams() == nil {
		return fmt.Errorf("collection config is invalid")
	}
	params := config.GetParams().GetVectorsConfig().GetParams()
	if params == nil || params.GetSize() == 0 {
		return fmt.Errorf("could not determine collection vector size")
	}
	if int(params.GetSize()) != vectorSize {
		return fmt.Errorf("collection vector size mismatch: expected %d, got %d", vectorSize, params.GetSize())
	}
	return nil
}

// queryFilter builds kind-independent conditions: (owner == tenant OR scope == GLOBAL)
// and, for detail queries, parent_id in ParentIDs.
func queryFilter(q Query) *qdrant.Filter {
	must := []*qdrant.Condition{
		qdrant.NewFilterAsCondition(&qdrant.Filter{
			Should: []*qdrant.Condition{
				qdrant.NewMatchInt("owner_tenant", int64(q.Tenant)),
				qdrant.NewMatchKeyword("scope", string(knowledge.ScopeGlobal)),
			},
		}),
	}
	if len(q.ParentIDs) > 0 {
		ids := append([]string(nil), q.ParentIDs...)
		sort.Strings(ids)
		must = append(must, qdrant.NewMatchKeywords("parent_id", ids...))
	}
	return &qdrant.Filter{Must: must}
}

func payloadFromRecord(r Record) map[string]any {
	return map[string]any{
		"record_id":    r.ID,
		"kind":         string(r.Kind),
		"parent_id":    r.ParentID,
		"owner_tenant": int64(r.OwnerTenant),
		"scope":        string(r.Scope),
		"title":        r.Title,
		"source":       r.Source,
		"text":         r.Text,
		"content_hash": r.ContentHash,
		"chunk_index":  int64(r.ChunkIndex),
	}
}

func recordFromPayload(meta map[string]any) Record {
	str := func(key string) string {
		s, _ := meta[key].(string)
		return s
	}
	num := func(key string) int64 {
		switch v := meta[key].(type) {
		case int64:
			return v
		case float64:
			return int64(v)
		}
		return 0
	}
	return Record{
		ID:          str("record_id"),
		Kind:        Kind(str("kind")),
		ParentID:    str("parent_id"),
		OwnerTenant: knowledge.TenantID(num("owner_tenant")),
		Scope:       knowledge.Scope(str("scope")),
		Title:       str("title"),
		Source:      str("source"),
		Text:        str("text"),
		ContentHash: str("content_hash"),
		ChunkIndex:  int(num("chunk_index")),
	}
}

// convertPayloadToMap converts Qdrant payload to map[string]any.
func convertPayloadToMap(payload map[string]*qdrant.Value) map[string]any {
	result := make(map[string]any, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		result[k] = convertValue(v)
	}
	return result
}

func convertValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			list[i] = convertValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		return convertPayloadToMap(val.StructValue.Fields)
	default:
		return nil
	}
}
