package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/WessleyAI/wessley-mvp/engine/chunkstore"
	"github.com/WessleyAI/wessley-mvp/engine/mlclient"
	"github.com/WessleyAI/wessley-mvp/engine/parser"
	"github.com/WessleyAI/wessley-mvp/engine/vectorstore"
	"github.com/WessleyAI/wessley-mvp/pkg/apperr"
	"github.com/WessleyAI/wessley-mvp/pkg/fn"
	"github.com/WessleyAI/wessley-mvp/proto/controlplanev1"
)

// ChunkPersister is the subset of engine/chunkstore.Store's API the worker
// depends on to persist parsed chunks ahead of embedding (§4.7 step 5).
type ChunkPersister interface {
	InsertDocumentChunks(ctx context.Context, documentID string, chunks []chunkstore.PendingChunk) ([]string, error)
}

// VectorIndexer is the subset of engine/vectorstore.Store's API the worker
// depends on to index embedded chunks (§4.7 step 7).
type VectorIndexer interface {
	UpsertDocuments(ctx context.Context, recs []vectorstore.DocPoint) error
}

// StatusReporter is the subset of engine/controlplane.Client's API the
// worker depends on to report ingestion progress (§4.7 steps 1, 4, 8).
type StatusReporter interface {
	UpdateDocumentStatus(ctx context.Context, documentID string, status controlplanev1.DocumentStatus, chunksCount int32, errorMessage string) bool
}

// WorkerDeps holds the worker's collaborators (spec components E, D, A, C, F).
type WorkerDeps struct {
	Parser       *parser.Parser
	ChunkStore   ChunkPersister
	Embedder     mlclient.Embedder
	VectorStore  VectorIndexer
	ControlPlane StatusReporter
	MaxFileSize  int64
	Logger       *slog.Logger
}

// Worker executes one ingestion task at a time (prefetch = 1, per §4.7):
// notify control plane, re-verify, parse, persist, embed, index, report.
type Worker struct {
	deps WorkerDeps
	log  *slog.Logger
}

// NewWorker builds a Worker. deps.MaxFileSize <= 0 uses DefaultMaxFileSize.
func NewWorker(deps WorkerDeps) *Worker {
	if deps.MaxFileSize <= 0 {
		deps.MaxFileSize = DefaultMaxFileSize
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Worker{deps: deps, log: log}
}

// StartConsumer subscribes to IngestSubject, generalizing the reference
// ingestion consumer's retry-count-header + DLQ-republish loop over a
// document-processing Task instead of a scraped-post payload. Raw
// nats.Msg access (rather than natsutil.Subscribe's typed wrapper) is
// required here to read and rewrite the X-Retry-Count header.
func (w *Worker) StartConsumer(nc *nats.Conn) (*nats.Subscription, error) {
	return nc.Subscribe(IngestSubject, func(msg *nats.Msg) {
		var task Task
		if err := json.Unmarshal(msg.Data, &task); err != nil {
			w.log.Error("ingest: unmarshal task failed", "err", err)
			return
		}

		retries := 0
		if msg.Header != nil {
			if v := msg.Header.Get("X-Retry-Count"); v != "" {
				fmt.Sscanf(v, "%d", &retries)
			}
		}

		w.handle(context.Background(), nc, msg, task, retries)
	})
}

func (w *Worker) handle(ctx context.Context, nc *nats.Conn, msg *nats.Msg, task Task, retries int) {
	err := w.processTask(ctx, task)
	if err == nil {
		deleteSourceFile(task.FilePath, w.log)
		ackIfReply(msg)
		return
	}

	w.log.Error("ingest: pipeline failed", "document_id", task.DocumentID, "retry", retries, "err", err)

	if retryDecision(err, retries) {
		w.deps.ControlPlane.UpdateDocumentStatus(ctx, task.DocumentID, controlplanev1.DocumentStatus_ERROR, 0, err.Error())
		deleteSourceFile(task.FilePath, w.log)
		if retries > 0 {
			publishDLQ(nc, w.log, task, err, retries+1)
		}
		ackIfReply(msg)
		return
	}

	time.Sleep(retryBackoff(retries))

	retries++
	retryMsg := nats.NewMsg(IngestSubject)
	retryMsg.Data = msg.Data
	retryMsg.Header = nats.Header{}
	retryMsg.Header.Set("X-Retry-Count", fmt.Sprintf("%d", retries))
	if pubErr := nc.PublishMsg(retryMsg); pubErr != nil {
		w.log.Error("ingest: retry publish failed", "document_id", task.DocumentID, "err", pubErr)
	}
	ackIfReply(msg)
}

// retryBackoff computes the exponential, jittered delay before republishing
// the retries-th retry, built from fn.DefaultRetry's wait/jitter policy so
// the ingestion retry loop shares its backoff shape with pkg/fn.Retry's
// in-process retries instead of reinventing one.
func retryBackoff(retries int) time.Duration {
	wait := fn.DefaultRetry.InitialWait
	for i := 0; i < retries; i++ {
		wait *= 2
		if wait >= fn.DefaultRetry.MaxWait {
			wait = fn.DefaultRetry.MaxWait
			break
		}
	}
	if fn.DefaultRetry.Jitter {
		wait = time.Duration(float64(wait) * (0.5 + rand.Float64()))
	}
	return wait
}

// processTask runs pipeline steps 1-8 of §4.7. The zero-chunk short
// circuit and the full-success path both report their own COMPLETED
// status inline, so the caller only needs to report ERROR when this
// returns a non-nil error.
func (w *Worker) processTask(ctx context.Context, task Task) error {
	w.deps.ControlPlane.UpdateDocumentStatus(ctx, task.DocumentID, controlplanev1.DocumentStatus_PROCESSING, 0, "")

	if err := verifyFile(task.FilePath, w.deps.MaxFileSize); err != nil {
		return err
	}

	chunks, err := w.deps.Parser.ParseFile(task.FilePath, task.Filename)
	if err != nil {
		return fmt.Errorf("ingest: parse %s: %w", task.Filename, err)
	}

	if len(chunks) == 0 {
		w.deps.ControlPlane.UpdateDocumentStatus(ctx, task.DocumentID, controlplanev1.DocumentStatus_COMPLETED, 0, "no text extracted from document")
		return nil
	}

	pending := make([]chunkstore.PendingChunk, len(chunks))
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		page := c.Page
		pending[i] = chunkstore.PendingChunk{Content: c.Content, PageNumber: &page}
		texts[i] = c.Content
	}

	ids, err := w.deps.ChunkStore.InsertDocumentChunks(ctx, task.DocumentID, pending)
	if err != nil {
		return fmt.Errorf("ingest: persist chunks: %w", err)
	}

	vectors, err := w.deps.Embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("ingest: embed: %w", err)
	}

	orgID := task.OrganizationID
	ownerID := task.OwnerID
	points := make([]vectorstore.DocPoint, len(ids))
	for i, id := range ids {
		points[i] = vectorstore.DocPoint{
			ChunkID:        id,
			DocumentID:     task.DocumentID,
			Filename:       task.Filename,
			Embedding:      vectors[i],
			OrganizationID: &orgID,
			GroupID:        task.GroupID,
			OwnerID:        &ownerID,
		}
	}
	if err := w.deps.VectorStore.UpsertDocuments(ctx, points); err != nil {
		return fmt.Errorf("ingest: upsert vectors: %w", err)
	}

	w.deps.ControlPlane.UpdateDocumentStatus(ctx, task.DocumentID, controlplanev1.DocumentStatus_COMPLETED, int32(len(ids)), "")
	return nil
}

// retryDecision reports whether err at the given prior-retry-count should
// be treated as terminal (finalize as ERROR, no further republish) per
// §4.7/§7: validation and missing-file errors never retry, and anything
// else stops retrying once MaxRetries retries have already been made.
func retryDecision(err error, retries int) bool {
	return !apperr.Retryable(err) || retries >= MaxRetries
}

func deleteSourceFile(path string, log *slog.Logger) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("ingest: source file delete failed", "path", path, "err", err)
	}
}

func ackIfReply(msg *nats.Msg) {
	if msg.Reply != "" {
		_ = msg.Ack()
	}
}

// dlqTask is published to DLQSubject once a task exhausts its retry budget.
type dlqTask struct {
	Task    Task   `json:"task"`
	Error   string `json:"error"`
	Retries int    `json:"retries"`
}

func publishDLQ(nc *nats.Conn, log *slog.Logger, task Task, err error, retries int) {
	dlq := dlqTask{Task: task, Error: err.Error(), Retries: retries}
	data, marshalErr := json.Marshal(dlq)
	if marshalErr != nil {
		log.Error("ingest: dlq marshal failed", "err", marshalErr)
		return
	}
	if pubErr := nc.Publish(DLQSubject, data); pubErr != nil {
		log.Error("ingest: dlq publish failed", "err", pubErr)
	}
}
