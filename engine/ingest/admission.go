// Package ingest implements the ingestion admission RPC and the background
// worker that executes the document pipeline (spec component H),
// generalizing the reference ingestion package's Deps/pipeline/consumer
// shape from scraped web content onto uploaded documents.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/nats-io/nats.go"
	"golang.org/x/time/rate"

	"github.com/WessleyAI/wessley-mvp/engine/vectorstore"
	"github.com/WessleyAI/wessley-mvp/pkg/apperr"
	"github.com/WessleyAI/wessley-mvp/pkg/natsutil"
	"github.com/WessleyAI/wessley-mvp/proto/kbv1"
)

// IngestSubject is the NATS subject admission publishes tasks onto and the
// worker subscribes to.
const IngestSubject = "ingest.documents"

// DLQSubject receives tasks that exhausted their retry budget.
const DLQSubject = "ingest.documents.dlq"

// MaxRetries bounds the retry-count header before a task is finalized as
// ERROR instead of republished.
const MaxRetries = 3

// DefaultMaxFileSize is the §4.6 default admission size ceiling (50 MiB).
const DefaultMaxFileSize = 50 * 1024 * 1024

// DefaultAdmissionRate and DefaultAdmissionBurst bound how fast ProcessDocument
// enqueues tasks, independent of the broker's own prefetch-of-one policy.
const (
	DefaultAdmissionRate  = rate.Limit(20) // documents/sec
	DefaultAdmissionBurst = 40
)

// Admission implements kbv1.KnowledgeBaseServiceServer: the synchronous
// front door that validates a file and hands it to the broker, never
// parsing or embedding synchronously (§4.6).
type Admission struct {
	kbv1.UnimplementedKnowledgeBaseServiceServer

	nc          *nats.Conn
	vectors     *vectorstore.Store
	maxFileSize int64
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// NewAdmission builds an Admission handler. maxFileSize <= 0 uses DefaultMaxFileSize.
func NewAdmission(nc *nats.Conn, vectors *vectorstore.Store, maxFileSize int64, logger *slog.Logger) *Admission {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Admission{
		nc:          nc,
		vectors:     vectors,
		maxFileSize: maxFileSize,
		limiter:     rate.NewLimiter(DefaultAdmissionRate, DefaultAdmissionBurst),
		logger:      logger,
	}
}

// ProcessDocument validates the file on disk and enqueues a task.
func (a *Admission) ProcessDocument(ctx context.Context, req *kbv1.ProcessDocumentRequest) (*kbv1.ProcessDocumentResponse, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("ingest: admission rate limit: %w", err)
	}

	if err := verifyFile(req.FilePath, a.maxFileSize); err != nil {
		a.logger.Warn("ingest: admission rejected", "document_id", req.DocumentId, "err", err)
		return &kbv1.ProcessDocumentResponse{
			DocumentId: req.DocumentId,
			Status:     "error",
			Message:    err.Error(),
		}, nil
	}

	task := Task{
		DocumentID:     req.DocumentId,
		FilePath:       req.FilePath,
		Filename:       req.Filename,
		OrganizationID: req.OrganizationId,
		GroupID:        normalizeGroupID(req.GroupId),
		OwnerID:        req.OwnerId,
	}

	if err := natsutil.Publish(ctx, a.nc, IngestSubject, task); err != nil {
		a.logger.Error("ingest: enqueue failed", "document_id", req.DocumentId, "err", err)
		return &kbv1.ProcessDocumentResponse{
			DocumentId: req.DocumentId,
			Status:     "error",
			Message:    "failed to enqueue document for processing",
		}, nil
	}

	a.logger.Info("ingest: document admitted", "document_id", req.DocumentId, "filename", req.Filename)
	return &kbv1.ProcessDocumentResponse{
		DocumentId: req.DocumentId,
		Status:     "success",
		Message:    fmt.Sprintf("document %s queued for processing", req.DocumentId),
	}, nil
}

// DeleteDocument removes every vector point for document_id. Idempotent:
// deleting an already-absent document still reports success (§4.7).
func (a *Admission) DeleteDocument(ctx context.Context, req *kbv1.DeleteDocumentRequest) (*kbv1.DeleteDocumentResponse, error) {
	if err := a.vectors.DeleteByDocument(ctx, req.DocumentId); err != nil {
		a.logger.Error("ingest: delete document failed", "document_id", req.DocumentId, "err", err)
		return &kbv1.DeleteDocumentResponse{Status: "error", Message: err.Error()}, nil
	}
	return &kbv1.DeleteDocumentResponse{Status: "success", Message: "vectors removed"}, nil
}

// normalizeGroupID implements the §4.6 rule: a wire group_id of 0 means
// "org-wide", represented as absent.
func normalizeGroupID(groupID int64) *int64 {
	if groupID == 0 {
		return nil
	}
	g := groupID
	return &g
}

// verifyFile checks existence and the §4.6/§4.7 size ceiling, returning
// errors the worker's retry logic can classify as non-retryable.
func verifyFile(path string, maxFileSize int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("ingest: file not found %s: %w", path, apperr.ErrFileMissing)
	}
	if info.Size() > maxFileSize {
		return fmt.Errorf("ingest: file size %d exceeds maximum %d: %w", info.Size(), maxFileSize, apperr.ErrValidation)
	}
	return nil
}
