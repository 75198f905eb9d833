package query

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/WessleyAI/wessley-mvp/engine/chunkstore"
	"github.com/WessleyAI/wessley-mvp/engine/llm"
	"github.com/WessleyAI/wessley-mvp/engine/mlclient"
	"github.com/WessleyAI/wessley-mvp/engine/tenant"
	"github.com/WessleyAI/wessley-mvp/engine/tokenbudget"
	"github.com/WessleyAI/wessley-mvp/engine/vectorstore"
	"github.com/WessleyAI/wessley-mvp/proto/chatv1"
)

type fakeStream struct {
	grpc.ServerStream
	ctx  context.Context
	sent []*chatv1.ChatResponse
}

func (f *fakeStream) Context() context.Context           { return f.ctx }
func (f *fakeStream) Send(m *chatv1.ChatResponse) error {
	f.sent = append(f.sent, m)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeVectorStore is an in-memory stand-in for engine/vectorstore.Store,
// scoped to what the Chat pipeline calls: cache lookup/save plus
// tenant-filtered document search.
type fakeVectorStore struct {
	docs       []vectorstore.DocHit
	cache      map[string]string // scope key -> cached response text
	savedCalls int
	searchErr  error
}

func scopeKey(s tenant.Scope) string {
	switch s.(type) {
	case tenant.OrgGroups:
		return "org"
	case tenant.Groups:
		return "groups"
	case tenant.UserOnly:
		return "user"
	default:
		return "none"
	}
}

func (f *fakeVectorStore) SearchCache(ctx context.Context, queryVec []float32, scope tenant.Scope, threshold float32) (*vectorstore.CacheHit, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if text, ok := f.cache[scopeKey(scope)]; ok {
		return &vectorstore.CacheHit{ResponseText: text, Score: 0.99}, nil
	}
	return nil, nil
}

func (f *fakeVectorStore) SearchDocs(ctx context.Context, queryVec []float32, filter tenant.DocFilter, limit int) ([]vectorstore.DocHit, error) {
	if filter.Empty {
		return nil, nil
	}
	var out []vectorstore.DocHit
	for _, d := range f.docs {
		if len(filter.GroupIDs) > 0 {
			if d.DocumentID == "group-doc" {
				out = append(out, d)
			}
			continue
		}
		if filter.HasUser && d.DocumentID == "user-doc" {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeVectorStore) SaveCache(ctx context.Context, queryVec []float32, responseText string, scope tenant.Scope) error {
	f.savedCalls++
	if f.cache == nil {
		f.cache = map[string]string{}
	}
	f.cache[scopeKey(scope)] = responseText
	return nil
}

// fakeChunkHydrator is an in-memory stand-in for engine/chunkstore.Store's
// GetByIDs.
type fakeChunkHydrator struct {
	rows map[string]chunkstore.Chunk
}

func (f *fakeChunkHydrator) GetByIDs(ctx context.Context, ids []string) ([]chunkstore.Chunk, error) {
	var out []chunkstore.Chunk
	for _, id := range ids {
		if c, ok := f.rows[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// fakeReranker returns passages in the order given, truncated to topK,
// assigning descending scores.
type fakeReranker struct{}

func (fakeReranker) Rerank(ctx context.Context, query string, passages []mlclient.Passage, topK int) ([]mlclient.RankedPassage, error) {
	if len(passages) == 0 {
		return nil, nil
	}
	if topK > 0 && topK < len(passages) {
		passages = passages[:topK]
	}
	out := make([]mlclient.RankedPassage, len(passages))
	score := float32(1.0)
	for i, p := range passages {
		out[i] = mlclient.RankedPassage{Passage: p, Score: score}
		score -= 0.01
	}
	return out, nil
}

// fakeEmbedder returns a fixed three-dimensional vector per text, distinct
// enough for the fake store's string-keyed matching to be irrelevant.
type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (fakeEmbedder) Dimension() int { return 3 }

// fakeLLM streams a fixed sequence of chunks, ignoring its inputs.
type fakeLLM struct {
	chunks []string
}

func (f *fakeLLM) Generate(ctx context.Context, query string, contextDocs []string, history []llm.Message) <-chan string {
	out := make(chan string, len(f.chunks))
	for _, c := range f.chunks {
		out <- c
	}
	close(out)
	return out
}

func (f *fakeLLM) ProviderName() string { return "fake" }

func newTestService(vectors VectorStore, chunks ChunkHydrator, llmClient llm.Client) *Service {
	counter := tokenbudget.NewCounter("gpt-4", 100000, 0, testLogger())
	return New(fakeEmbedder{}, vectors, chunks, fakeReranker{}, counter, llmClient, DefaultOptions(), testLogger())
}

func metadataFor(userID int64, groupIDs []int64) metadata.MD {
	md := metadata.Pairs(userIDMetadataKey, itoa(userID))
	for _, g := range groupIDs {
		md.Append(groupIDsMetadataKey, itoa(g))
	}
	return md
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		digits = append([]byte{'-'}, digits...)
	}
	return string(digits)
}

// TestChatCacheMissThenHit drives seed scenario #1: the first call misses
// the semantic cache and populates it via saveCacheAsync; a second call
// with an identical scope then finds the cached answer.
func TestChatCacheMissThenHit(t *testing.T) {
	vectors := &fakeVectorStore{
		docs: []vectorstore.DocHit{{ChunkID: "c1", DocumentID: "user-doc", Filename: "f.txt", Score: 0.9}},
	}
	chunks := &fakeChunkHydrator{rows: map[string]chunkstore.Chunk{
		"c1": {ID: "c1", DocumentID: "user-doc", Content: "the answer lives here"},
	}}
	svc := newTestService(vectors, chunks, &fakeLLM{chunks: []string{"hello "}})

	md := metadataFor(42, nil)
	ctx := metadata.NewIncomingContext(context.Background(), md)
	stream := &fakeStream{ctx: ctx}

	if err := svc.Chat(&chatv1.ChatRequest{Query: "q"}, stream); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stream.sent) == 0 || stream.sent[0].IsCached {
		t.Fatalf("expected a cache miss on first call, got %+v", stream.sent)
	}

	// saveCacheAsync runs in a goroutine; poll briefly for it to land.
	for i := 0; i < 1000 && vectors.savedCalls == 0; i++ {
		<-time.After(time.Millisecond)
	}
	if vectors.savedCalls == 0 {
		t.Fatalf("expected the first call to populate the cache")
	}

	stream2 := &fakeStream{ctx: ctx}
	if err := svc.Chat(&chatv1.ChatRequest{Query: "q"}, stream2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stream2.sent) == 0 || !stream2.sent[0].IsCached {
		t.Fatalf("expected a cache hit on second call, got %+v", stream2.sent)
	}
}

// TestChatTenantIsolation drives seed scenario #2: a caller scoped to a
// group never sees a document that only a different user owns, and vice
// versa.
func TestChatTenantIsolation(t *testing.T) {
	vectors := &fakeVectorStore{
		docs: []vectorstore.DocHit{
			{ChunkID: "group-chunk", DocumentID: "group-doc", Filename: "g.txt", Score: 0.9},
			{ChunkID: "user-chunk", DocumentID: "user-doc", Filename: "u.txt", Score: 0.9},
		},
	}
	chunks := &fakeChunkHydrator{rows: map[string]chunkstore.Chunk{
		"group-chunk": {ID: "group-chunk", DocumentID: "group-doc", Content: "group content"},
		"user-chunk":  {ID: "user-chunk", DocumentID: "user-doc", Content: "user content"},
	}}
	svc := newTestService(vectors, chunks, &fakeLLM{chunks: []string{"ok"}})

	// A caller with only a user id must never see the group-owned document.
	userMD := metadataFor(1, nil)
	userCtx := metadata.NewIncomingContext(context.Background(), userMD)
	userStream := &fakeStream{ctx: userCtx}
	if err := svc.Chat(&chatv1.ChatRequest{Query: "q"}, userStream); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, resp := range userStream.sent {
		for _, src := range resp.SourceDocuments {
			if src.DocumentId == "group-doc" {
				t.Fatalf("user-scoped caller must not see group-doc, got sources %+v", resp.SourceDocuments)
			}
		}
	}

	// A caller scoped to the group must never see the user-owned document.
	groupMD := metadataFor(2, []int64{9})
	groupCtx := metadata.NewIncomingContext(context.Background(), groupMD)
	groupStream := &fakeStream{ctx: groupCtx}
	if err := svc.Chat(&chatv1.ChatRequest{Query: "q"}, groupStream); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, resp := range groupStream.sent {
		for _, src := range resp.SourceDocuments {
			if src.DocumentId == "user-doc" {
				t.Fatalf("group-scoped caller must not see user-doc, got sources %+v", resp.SourceDocuments)
			}
		}
	}
}

// TestChatStopsAfterLLMStreamError confirms an "Error"-prefixed chunk from
// the LLM short-circuits the pipeline: the chunk itself is still forwarded,
// but no terminal sources message follows and nothing is cached.
func TestChatStopsAfterLLMStreamError(t *testing.T) {
	vectors := &fakeVectorStore{
		docs: []vectorstore.DocHit{{ChunkID: "c1", DocumentID: "user-doc", Filename: "f.txt", Score: 0.9}},
	}
	chunks := &fakeChunkHydrator{rows: map[string]chunkstore.Chunk{
		"c1": {ID: "c1", DocumentID: "user-doc", Content: "content"},
	}}
	svc := newTestService(vectors, chunks, &fakeLLM{chunks: []string{"Error generating response (fake): boom"}})

	md := metadataFor(7, nil)
	ctx := metadata.NewIncomingContext(context.Background(), md)
	stream := &fakeStream{ctx: ctx}

	if err := svc.Chat(&chatv1.ChatRequest{Query: "q"}, stream); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stream.sent) != 1 {
		t.Fatalf("expected exactly one forwarded error chunk and no terminal sources message, got %d: %+v", len(stream.sent), stream.sent)
	}
	if vectors.savedCalls != 0 {
		t.Fatalf("expected no cache save after an LLM stream error, got %d saves", vectors.savedCalls)
	}
}

func TestChatRejectsMissingUserID(t *testing.T) {
	svc := New(nil, nil, nil, nil, nil, nil, DefaultOptions(), nil)
	stream := &fakeStream{ctx: context.Background()}

	if err := svc.Chat(&chatv1.ChatRequest{Query: "hi"}, stream); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stream.sent) != 1 {
		t.Fatalf("expected exactly one response, got %d", len(stream.sent))
	}
	if stream.sent[0].Answer != unauthorizedAnswer {
		t.Fatalf("got %q, want %q", stream.sent[0].Answer, unauthorizedAnswer)
	}
}

func TestSnippetOfTruncatesAndFlattensNewlines(t *testing.T) {
	long := ""
	for i := 0; i < 150; i++ {
		long += "x"
	}
	got := snippetOf("a\nb\nc" + long)
	if len(got) != snippetLength+3 { // +3 for "..."
		t.Fatalf("expected truncated snippet of length %d, got %d (%q)", snippetLength+3, len(got), got)
	}
	if got[len(got)-3:] != "..." {
		t.Fatalf("expected snippet to end with ..., got %q", got)
	}
}

func TestSnippetOfAlwaysAppendsEllipsisEvenWhenShort(t *testing.T) {
	got := snippetOf("short")
	if got != "short..." {
		t.Fatalf("got %q, want %q", got, "short...")
	}
}

func TestRequestFromMetadataParsesTenantFields(t *testing.T) {
	md := metadata.Pairs(
		userIDMetadataKey, "42",
		orgIDMetadataKey, "7",
		groupIDsMetadataKey, "1, 2,3",
	)
	req := requestFromMetadata(md)
	if !req.HasUserID || req.UserID != 42 {
		t.Fatalf("expected user id 42, got %+v", req)
	}
	if !req.HasOrgID || req.OrganizationID != 7 {
		t.Fatalf("expected org id 7, got %+v", req)
	}
	if len(req.GroupIDs) != 3 || req.GroupIDs[0] != 1 || req.GroupIDs[2] != 3 {
		t.Fatalf("expected group ids [1 2 3], got %v", req.GroupIDs)
	}
}

func TestHistoryFromMetadataFiltersIncompleteEntries(t *testing.T) {
	md := metadata.Pairs(historyMetadataKey, `[{"role":"user","content":"hi"},{"role":"assistant"},{"content":"no role"}]`)
	history := historyFromMetadata(md)
	if len(history) != 1 {
		t.Fatalf("expected exactly one complete entry, got %d: %+v", len(history), history)
	}
	if history[0].Role != "user" || history[0].Content != "hi" {
		t.Fatalf("unexpected entry: %+v", history[0])
	}
}

func TestHistoryFromMetadataAbsent(t *testing.T) {
	md := metadata.MD{}
	if history := historyFromMetadata(md); history != nil {
		t.Fatalf("expected nil history, got %v", history)
	}
}
