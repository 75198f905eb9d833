// Package vectorstore is the sole owner of the two Qdrant collections the
// core depends on: docs (tenant-scoped document chunks) and cache
// (similarity-keyed cached answers). It generalizes the reference service's
// single-collection engine/semantic store into the two-collection,
// tenant-filtered model of SPEC_FULL.md §4.3/§4.4.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/WessleyAI/wessley-mvp/engine/tenant"
)

// Store owns one Qdrant connection shared by the docs and cache collections.
type Store struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient

	docsCollection  string
	cacheCollection string
}

// New dials Qdrant at addr and prepares a Store for the given collections.
func New(addr, docsCollection, cacheCollection string) (*Store, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("vectorstore: dial qdrant %s: %w", addr, err)
	}
	return &Store{
		conn:            conn,
		points:          pb.NewPointsClient(conn),
		collections:     pb.NewCollectionsClient(conn),
		docsCollection:  docsCollection,
		cacheCollection: cacheCollection,
	}, nil
}

// Close closes the underlying gRPC connection.
func (s *Store) Close() error { return s.conn.Close() }

// EnsureCollections creates both collections, if absent, with cosine
// distance and dimension dims (the embedder's output size, discovered once
// at startup).
func (s *Store) EnsureCollections(ctx context.Context, dims int) error {
	for _, name := range []string{s.docsCollection, s.cacheCollection} {
		if err := s.ensureCollection(ctx, name, dims); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ensureCollection(ctx context.Context, name string, dims int) error {
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("vectorstore: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == name {
			return nil
		}
	}
	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: name,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dims),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorstore: create collection %s: %w", name, err)
	}
	return nil
}

// UpsertDocuments atomically stores document vector points (§4.3 upsert_documents).
func (s *Store) UpsertDocuments(ctx context.Context, recs []DocPoint) error {
	if len(recs) == 0 {
		return nil
	}
	points := make([]*pb.PointStruct, len(recs))
	for i, r := range recs {
		payload := map[string]*pb.Value{
			"chunk_id":    {Kind: &pb.Value_StringValue{StringValue: r.ChunkID}},
			"document_id": {Kind: &pb.Value_StringValue{StringValue: r.DocumentID}},
			"filename":    {Kind: &pb.Value_StringValue{StringValue: r.Filename}},
		}
		if r.OrganizationID != nil {
			payload["organization_id"] = &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: *r.OrganizationID}}
		}
		if r.GroupID != nil {
			payload["group_id"] = &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: *r.GroupID}}
		}
		if r.OwnerID != nil {
			payload["owner_id"] = &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: *r.OwnerID}}
		}
		points[i] = &pb.PointStruct{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: r.ChunkID}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: r.Embedding}}},
			Payload: payload,
		}
	}
	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.docsCollection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("vectorstore: upsert %d document points: %w", len(recs), err)
	}
	return nil
}

// DeleteByDocument removes every point in the docs collection whose payload
// document_id equals documentID, as a single logical operation (§4.3
// delete_by_document).
func (s *Store) DeleteByDocument(ctx context.Context, documentID string) error {
	wait := true
	_, err := s.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: s.docsCollection,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: &pb.Filter{Must: []*pb.Condition{matchKeyword("document_id", documentID)}},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorstore: delete by document_id %s: %w", documentID, err)
	}
	return nil
}

// SearchDocs performs the §4.3 tenant-filtered document search. A nil slice
// with no error is returned when the filter is empty, per the "neither ->
// return empty result without calling the engine" rule.
func (s *Store) SearchDocs(ctx context.Context, queryVec []float32, filter tenant.DocFilter, limit int) ([]DocHit, error) {
	if filter.Empty {
		return nil, nil
	}

	var cond *pb.Condition
	if len(filter.GroupIDs) > 0 {
		cond = matchIntAny("group_id", filter.GroupIDs)
	} else {
		cond = matchInt("owner_id", filter.UserID)
	}

	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.docsCollection,
		Vector:         queryVec,
		Limit:          uint64(limit),
		Filter:         &pb.Filter{Must: []*pb.Condition{cond}},
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: search docs: %w", err)
	}

	hits := make([]DocHit, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		payload := r.GetPayload()
		hits[i] = DocHit{
			ChunkID:    payload["chunk_id"].GetStringValue(),
			DocumentID: payload["document_id"].GetStringValue(),
			Filename:   payload["filename"].GetStringValue(),
			Score:      r.GetScore(),
		}
	}
	return hits, nil
}

// SaveCache inserts a new cache entry with a fresh id (§4.4 save_cache). It
// is a no-op, per spec, when scope carries no identifiers.
func (s *Store) SaveCache(ctx context.Context, queryVec []float32, responseText string, scope tenant.Scope) error {
	entry := CacheEntry{ID: uuid.NewString(), Embedding: queryVec, ResponseText: responseText}
	switch sc := scope.(type) {
	case tenant.UserOnly:
		uid := sc.UserID
		entry.UserID = &uid
	case tenant.Groups:
		entry.GroupIDs = sc.GroupIDs
	case tenant.OrgGroups:
		oid := sc.OrganizationID
		entry.OrganizationID = &oid
		entry.GroupIDs = sc.GroupIDs
	case tenant.NoScope:
		return nil
	default:
		return nil
	}

	payload := map[string]*pb.Value{
		"response_text": {Kind: &pb.Value_StringValue{StringValue: entry.ResponseText}},
	}
	if entry.OrganizationID != nil {
		payload["organization_id"] = &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: *entry.OrganizationID}}
	}
	if len(entry.GroupIDs) > 0 {
		vals := make([]*pb.Value, len(entry.GroupIDs))
		for i, g := range entry.GroupIDs {
			vals[i] = &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: g}}
		}
		payload["group_ids"] = &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: vals}}}
	}
	if entry.UserID != nil {
		payload["user_id"] = &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: *entry.UserID}}
	}

	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.cacheCollection,
		Wait:           &wait,
		Points: []*pb.PointStruct{{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: entry.ID}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: entry.Embedding}}},
			Payload: payload,
		}},
	})
	if err != nil {
		return fmt.Errorf("vectorstore: save cache entry: %w", err)
	}
	return nil
}

// SearchCache performs the §4.4 search_cache scope-composed lookup. Returns
// (nil, nil) on a miss — callers MUST treat any error as a miss as well
// (degradation rule), not propagate it into the primary query path.
func (s *Store) SearchCache(ctx context.Context, queryVec []float32, scope tenant.Scope, threshold float32) (*CacheHit, error) {
	var must []*pb.Condition
	switch sc := scope.(type) {
	case tenant.OrgGroups:
		must = append(must, matchInt("organization_id", sc.OrganizationID))
		if len(sc.GroupIDs) > 0 {
			must = append(must, matchIntAny("group_ids", sc.GroupIDs))
		}
	case tenant.Groups:
		if len(sc.GroupIDs) == 0 {
			return nil, nil
		}
		must = append(must, matchIntAny("group_ids", sc.GroupIDs))
	case tenant.UserOnly:
		must = append(must, matchInt("user_id", sc.UserID))
	case tenant.NoScope:
		return nil, nil
	default:
		return nil, nil
	}

	scoreThreshold := threshold
	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.cacheCollection,
		Vector:         queryVec,
		Limit:          1,
		Filter:         &pb.Filter{Must: must},
		ScoreThreshold: &scoreThreshold,
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: search cache: %w", err)
	}
	results := resp.GetResult()
	if len(results) == 0 {
		return nil, nil
	}
	top := results[0]
	return &CacheHit{
		ResponseText: top.GetPayload()["response_text"].GetStringValue(),
		Score:        top.GetScore(),
	}, nil
}

func matchKeyword(key, value string) *pb.Condition {
	return &pb.Condition{ConditionOneOf: &pb.Condition_Field{Field: &pb.FieldCondition{
		Key:   key,
		Match: &pb.Match{MatchValue: &pb.Match_Keyword{Keyword: value}},
	}}}
}

func matchInt(key string, value int64) *pb.Condition {
	return &pb.Condition{ConditionOneOf: &pb.Condition_Field{Field: &pb.FieldCondition{
		Key:   key,
		Match: &pb.Match{MatchValue: &pb.Match_Integer{Integer: value}},
	}}}
}

func matchIntAny(key string, values []int64) *pb.Condition {
	return &pb.Condition{ConditionOneOf: &pb.Condition_Field{Field: &pb.FieldCondition{
		Key:   key,
		Match: &pb.Match{MatchValue: &pb.Match_Integers{Integers: &pb.RepeatedIntegers{Integers: values}}},
	}}}
}
