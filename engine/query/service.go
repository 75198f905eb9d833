// Package query implements the Chat RPC orchestration: embed, cache lookup,
// tenant-filtered search, hydrate, rerank, budget, LLM stream, cache save
// (§4.5). It generalizes the reference RAG service's straight-line,
// early-return orchestration style (engine/rag.Service.Query) rather than
// composing engine/fn.Stage values, because the pipeline's early-exit and
// streaming-response shape does not fit a linear Then-chain: every stage can
// terminate the RPC by sending a final message instead of propagating a
// value to the next stage.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc/metadata"

	"github.com/WessleyAI/wessley-mvp/engine/chunkstore"
	"github.com/WessleyAI/wessley-mvp/engine/llm"
	"github.com/WessleyAI/wessley-mvp/engine/mlclient"
	"github.com/WessleyAI/wessley-mvp/engine/tenant"
	"github.com/WessleyAI/wessley-mvp/engine/tokenbudget"
	"github.com/WessleyAI/wessley-mvp/engine/vectorstore"
	"github.com/WessleyAI/wessley-mvp/proto/chatv1"
)

const (
	unauthorizedAnswer  = "Unauthorized: User ID not provided."
	noDocumentsAnswer   = "I couldn't find any relevant documents to answer your question."
	noContentAnswer     = "I couldn't find the document content. Please try again."
	internalErrorAnswer = "Sorry, an internal error occurred while processing your request."

	snippetLength     = 100
	defaultPageNumber = 1
	cacheSaveTimeout  = 5 * time.Second
)

// Options configures pipeline-wide constants.
type Options struct {
	SystemPrompt   string
	CacheThreshold float32 // default 0.95 per §4.4
	SearchLimit    int     // default 25 per §4.5 step 4
	RerankTopK     int     // default 5 per §4.5 step 6
}

// DefaultOptions returns the spec's defaults.
func DefaultOptions() Options {
	return Options{
		SystemPrompt:   llm.DefaultSystemPrompt,
		CacheThreshold: 0.95,
		SearchLimit:    25,
		RerankTopK:     5,
	}
}

// VectorStore is the subset of engine/vectorstore.Store's API the Chat
// pipeline depends on: tenant-filtered document search plus the semantic
// cache's lookup/save pair (§4.3/§4.4). Narrowed to an interface so tests
// can drive the pipeline against an in-memory fake instead of Qdrant.
type VectorStore interface {
	SearchCache(ctx context.Context, queryVec []float32, scope tenant.Scope, threshold float32) (*vectorstore.CacheHit, error)
	SearchDocs(ctx context.Context, queryVec []float32, filter tenant.DocFilter, limit int) ([]vectorstore.DocHit, error)
	SaveCache(ctx context.Context, queryVec []float32, responseText string, scope tenant.Scope) error
}

// ChunkHydrator is the subset of engine/chunkstore.Store's API the Chat
// pipeline depends on to turn vector hits back into chunk content (§4.5
// step 5).
type ChunkHydrator interface {
	GetByIDs(ctx context.Context, ids []string) ([]chunkstore.Chunk, error)
}

// Service implements chatv1.ChatServiceServer.
type Service struct {
	chatv1.UnimplementedChatServiceServer

	embedder mlclient.Embedder
	vectors  VectorStore
	chunks   ChunkHydrator
	reranker mlclient.Reranker
	budgeter *tokenbudget.Counter
	llm      llm.Client
	opts     Options
	logger   *slog.Logger
}

// New builds a Service from its collaborators.
func New(
	embedder mlclient.Embedder,
	vectors VectorStore,
	chunks ChunkHydrator,
	reranker mlclient.Reranker,
	budgeter *tokenbudget.Counter,
	llmClient llm.Client,
	opts Options,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		embedder: embedder,
		vectors:  vectors,
		chunks:   chunks,
		reranker: reranker,
		budgeter: budgeter,
		llm:      llmClient,
		opts:     opts,
		logger:   logger,
	}
}

// Chat serves the streaming RPC.
func (s *Service) Chat(in *chatv1.ChatRequest, stream chatv1.ChatService_ChatServer) error {
	start := time.Now()
	md, _ := metadata.FromIncomingContext(stream.Context())
	req := requestFromMetadata(md)

	if !req.HasUserID {
		s.logger.Error("chat: user id not found in grpc metadata")
		return stream.Send(&chatv1.ChatResponse{Answer: unauthorizedAnswer})
	}

	history := historyFromMetadata(md)
	s.logger.Info("chat: question received", "session_id", in.SessionId, "user_id", req.UserID)

	if err := s.run(stream.Context(), in, req, history, start, stream); err != nil {
		s.logger.Error("chat: pipeline error", "err", err)
		return stream.Send(&chatv1.ChatResponse{Answer: internalErrorAnswer})
	}
	return nil
}

func (s *Service) run(
	ctx context.Context,
	in *chatv1.ChatRequest,
	req tenant.Request,
	history []llm.Message,
	start time.Time,
	stream chatv1.ChatService_ChatServer,
) error {
	// 2. Embed the query once.
	vecs, err := s.embedder.Embed(ctx, []string{in.Query})
	if err != nil {
		return fmt.Errorf("query: embed: %w", err)
	}
	q := vecs[0]
	scope := tenant.CacheScope(req)

	// 3. Cache lookup; any error degrades to a miss (§4.4).
	if hit, err := s.vectors.SearchCache(ctx, q, scope, s.opts.CacheThreshold); err != nil {
		s.logger.Warn("query: cache lookup failed, treating as miss", "err", err)
	} else if hit != nil {
		if err := stream.Send(&chatv1.ChatResponse{Answer: hit.ResponseText, IsCached: true}); err != nil {
			return err
		}
		return stream.Send(&chatv1.ChatResponse{
			Answer:           "",
			IsCached:         true,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		})
	}

	// 4. Tenant-filtered vector search.
	filter := tenant.DocFilterFor(req.GroupIDs, req.UserID, req.HasUserID)
	hits, err := s.vectors.SearchDocs(ctx, q, filter, s.opts.SearchLimit)
	if err != nil {
		return fmt.Errorf("query: search docs: %w", err)
	}
	if len(hits) == 0 {
		s.logger.Info("query: no documents found in initial search")
		return stream.Send(&chatv1.ChatResponse{Answer: noDocumentsAnswer})
	}

	// 5. Hydrate chunk content; drop stale pointers.
	chunkIDs := make([]string, len(hits))
	for i, h := range hits {
		chunkIDs[i] = h.ChunkID
	}
	rows, err := s.chunks.GetByIDs(ctx, chunkIDs)
	if err != nil {
		return fmt.Errorf("query: hydrate chunks: %w", err)
	}
	byID := make(map[string]chunkstore.Chunk, len(rows))
	for _, c := range rows {
		byID[c.ID] = c
	}

	passages := make([]mlclient.Passage, 0, len(hits))
	for _, h := range hits {
		c, ok := byID[h.ChunkID]
		if !ok {
			continue
		}
		meta := map[string]string{
			"chunk_id":    c.ID,
			"document_id": c.DocumentID,
			"filename":    h.Filename,
		}
		if c.PageNumber != nil {
			meta["page"] = strconv.Itoa(*c.PageNumber)
		}
		passages = append(passages, mlclient.Passage{Text: c.Content, Meta: meta})
	}
	if len(passages) == 0 {
		s.logger.Warn("query: no chunks found in database for vector hits")
		return stream.Send(&chatv1.ChatResponse{Answer: noContentAnswer})
	}

	// 6. Rerank.
	ranked, err := s.reranker.Rerank(ctx, in.Query, passages, s.opts.RerankTopK)
	if err != nil {
		return fmt.Errorf("query: rerank: %w", err)
	}

	// 7. Context budget: contiguous reranked-order prefix.
	scored := make([]tokenbudget.ScoredDoc, len(ranked))
	for i, r := range ranked {
		scored[i] = tokenbudget.ScoredDoc{Text: r.Passage.Text, Score: r.Score}
	}
	selected, _ := s.budgeter.TruncateContext(s.opts.SystemPrompt, in.Query, scored, history)
	selectedRanked := ranked[:len(selected)]

	contextDocs := make([]string, len(selected))
	for i, sd := range selected {
		contextDocs[i] = sd.Text
	}

	// 8. Stream the LLM response.
	var response strings.Builder
	llmErr := false
	for chunk := range s.llm.Generate(ctx, in.Query, contextDocs, history) {
		if chunk == "" {
			continue
		}
		if strings.HasPrefix(chunk, "Error") {
			llmErr = true
		}
		response.WriteString(chunk)
		if err := stream.Send(&chatv1.ChatResponse{Answer: chunk}); err != nil {
			return err
		}
	}
	if llmErr {
		return nil
	}

	// 9. Terminal message with sources.
	sources := make([]*chatv1.SourceDocument, len(selectedRanked))
	for i, r := range selectedRanked {
		page := defaultPageNumber
		if v, ok := r.Passage.Meta["page"]; ok {
			if n, err := strconv.Atoi(v); err == nil {
				page = n
			}
		}
		sources[i] = &chatv1.SourceDocument{
			DocumentId: r.Passage.Meta["document_id"],
			Filename:   r.Passage.Meta["filename"],
			Page:       int32(page),
			Snippet:    snippetOf(r.Passage.Text),
			Score:      r.Score,
		}
	}
	if err := stream.Send(&chatv1.ChatResponse{
		Answer:           "",
		SourceDocuments:  sources,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}); err != nil {
		return err
	}

	// 10. Cache save, off the client-facing path.
	if response.Len() > 0 {
		go s.saveCacheAsync(q, response.String(), scope)
	}
	return nil
}

func (s *Service) saveCacheAsync(q []float32, text string, scope tenant.Scope) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheSaveTimeout)
	defer cancel()
	if err := s.vectors.SaveCache(ctx, q, text, scope); err != nil {
		s.logger.Warn("query: cache save failed", "err", err)
	}
}

// snippetOf truncates text to the first snippetLength runes, flattens
// newlines to spaces, and appends "...", unconditionally, matching the
// distilled source's text[:100].replace("\n", " ") + "..." exactly.
func snippetOf(text string) string {
	r := []rune(text)
	if len(r) > snippetLength {
		r = r[:snippetLength]
	}
	return strings.ReplaceAll(string(r), "\n", " ") + "..."
}
