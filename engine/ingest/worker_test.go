package ingest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/WessleyAI/wessley-mvp/engine/chunkstore"
	"github.com/WessleyAI/wessley-mvp/engine/parser"
	"github.com/WessleyAI/wessley-mvp/engine/vectorstore"
	"github.com/WessleyAI/wessley-mvp/pkg/apperr"
	"github.com/WessleyAI/wessley-mvp/proto/controlplanev1"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeChunkPersister is an in-memory stand-in for engine/chunkstore.Store's
// InsertDocumentChunks, minting predictable ids in call order.
type fakeChunkPersister struct {
	inserted [][]chunkstore.PendingChunk
}

func (f *fakeChunkPersister) InsertDocumentChunks(ctx context.Context, documentID string, chunks []chunkstore.PendingChunk) ([]string, error) {
	ids := make([]string, len(chunks))
	for i := range chunks {
		ids[i] = documentID + "-chunk-" + itoaN(i)
	}
	f.inserted = append(f.inserted, chunks)
	return ids, nil
}

func itoaN(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// fakeVectorIndexer fails its first failCount calls (simulating a transient
// downstream outage) before succeeding, recording every successful upsert.
type fakeVectorIndexer struct {
	failCount int
	calls     int
	upserted  []vectorstore.DocPoint
}

func (f *fakeVectorIndexer) UpsertDocuments(ctx context.Context, recs []vectorstore.DocPoint) error {
	f.calls++
	if f.calls <= f.failCount {
		return apperr.ErrDownstream
	}
	f.upserted = append(f.upserted, recs...)
	return nil
}

// fakeStatusReporter records every status transition reported to it.
type fakeStatusReporter struct {
	statuses []controlplanev1.DocumentStatus
}

func (f *fakeStatusReporter) UpdateDocumentStatus(ctx context.Context, documentID string, status controlplanev1.DocumentStatus, chunksCount int32, errorMessage string) bool {
	f.statuses = append(f.statuses, status)
	return true
}

// fakeIngestEmbedder returns a fixed-dimension vector per text.
type fakeIngestEmbedder struct{}

func (fakeIngestEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func (fakeIngestEmbedder) Dimension() int { return 2 }

func newTestWorker(chunks ChunkPersister, vectors VectorIndexer, status StatusReporter) *Worker {
	return NewWorker(WorkerDeps{
		Parser:       parser.New(parser.NewRecursiveSplitter(1000, 0)),
		ChunkStore:   chunks,
		Embedder:     fakeIngestEmbedder{},
		VectorStore:  vectors,
		ControlPlane: status,
		MaxFileSize:  DefaultMaxFileSize,
		Logger:       discardLogger(),
	})
}

// TestWorkerRetriesTransientFailureThenSucceeds drives seed scenario #4: a
// task that fails twice on a retryable downstream error is republished each
// time (via the real StartConsumer subscription, exercising the backoff
// delay) and completes successfully on the third attempt.
func TestWorkerRetriesTransientFailureThenSucceeds(t *testing.T) {
	nc := startTestNATS(t)

	vectors := &fakeVectorIndexer{failCount: 2}
	chunks := &fakeChunkPersister{}
	status := &fakeStatusReporter{}
	w := newTestWorker(chunks, vectors, status)

	if _, err := w.StartConsumer(nc); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	task := Task{DocumentID: "doc-retry", FilePath: path, Filename: "doc.txt", OrganizationID: 1, OwnerID: 2}
	data, err := json.Marshal(task)
	if err != nil {
		t.Fatal(err)
	}
	if err := nc.Publish(IngestSubject, data); err != nil {
		t.Fatal(err)
	}
	nc.Flush()

	deadline := time.Now().Add(10 * time.Second)
	for vectors.calls < 3 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if vectors.calls != 3 {
		t.Fatalf("expected exactly 3 upsert attempts (2 failures + 1 success), got %d", vectors.calls)
	}
	if len(vectors.upserted) == 0 {
		t.Fatal("expected the retried attempt to upsert vectors")
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected source file to be cleaned up after success, stat err: %v", err)
	}

	var sawCompleted bool
	for _, s := range status.statuses {
		if s == controlplanev1.DocumentStatus_COMPLETED {
			sawCompleted = true
		}
	}
	if !sawCompleted {
		t.Fatalf("expected a COMPLETED status report, got %v", status.statuses)
	}
}

// TestWorkerExhaustedRetriesPublishesDLQAndCleansUp drives the terminal half
// of seed scenario #4: once a task's retry budget is exhausted it is
// reported as ERROR, published to the dead-letter subject, and its source
// file is removed.
func TestWorkerExhaustedRetriesPublishesDLQAndCleansUp(t *testing.T) {
	nc := startTestNATS(t)

	dlq, err := nc.SubscribeSync(DLQSubject)
	if err != nil {
		t.Fatal(err)
	}
	defer dlq.Unsubscribe()

	vectors := &fakeVectorIndexer{failCount: 1000} // always fails
	chunks := &fakeChunkPersister{}
	status := &fakeStatusReporter{}
	w := newTestWorker(chunks, vectors, status)

	dir := t.TempDir()
	path := filepath.Join(dir, "doc2.txt")
	if err := os.WriteFile(path, []byte("hello again"), 0o644); err != nil {
		t.Fatal(err)
	}

	task := Task{DocumentID: "doc-exhausted", FilePath: path, Filename: "doc2.txt"}
	data, err := json.Marshal(task)
	if err != nil {
		t.Fatal(err)
	}
	msg := nats.NewMsg(IngestSubject)
	msg.Data = data

	// Call handle as if this were already the final retry attempt, so
	// retryDecision is terminal immediately and the test doesn't wait
	// through every intervening backoff.
	w.handle(context.Background(), nc, msg, task, MaxRetries)

	var sawError bool
	for _, s := range status.statuses {
		if s == controlplanev1.DocumentStatus_ERROR {
			sawError = true
		}
	}
	if !sawError {
		t.Fatalf("expected an ERROR status report, got %v", status.statuses)
	}

	if _, err := dlq.NextMsg(2 * time.Second); err != nil {
		t.Fatalf("expected a dead-letter publish, got: %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected source file to be cleaned up, stat err: %v", err)
	}
}

func TestRetryDecisionTerminalOnValidationError(t *testing.T) {
	wrapped := apperr.NewValidation("filename", "bad!.exe")
	if !retryDecision(wrapped, 0) {
		t.Fatal("expected validation errors to be terminal on first attempt")
	}
}

func TestRetryDecisionTerminalOnFileMissing(t *testing.T) {
	if !retryDecision(apperr.ErrFileMissing, 0) {
		t.Fatal("expected file-missing errors to be terminal on first attempt")
	}
}

func TestRetryDecisionRetriesTransientErrorsUntilExhausted(t *testing.T) {
	err := apperr.ErrDownstream
	for i := 0; i < MaxRetries; i++ {
		if retryDecision(err, i) {
			t.Fatalf("expected retry %d to not be terminal yet", i)
		}
	}
	if !retryDecision(err, MaxRetries) {
		t.Fatal("expected the attempt after MaxRetries retries to be terminal")
	}
}

func TestDeleteSourceFileMissingIsNotLoggedAsError(t *testing.T) {
	// Deleting an already-absent file must not panic or treat it as fatal.
	deleteSourceFile(filepath.Join(t.TempDir(), "already-gone.txt"), discardLogger())
}

func TestDeleteSourceFileRemovesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone-soon.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	deleteSourceFile(path, discardLogger())
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file to be removed, stat err: %v", err)
	}
}

func TestTaskJSONRoundTripOmitsAbsentGroupID(t *testing.T) {
	task := Task{DocumentID: "d1", FilePath: "/tmp/d1.pdf", Filename: "d1.pdf", OrganizationID: 1, OwnerID: 2}
	data, err := json.Marshal(task)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if _, present := decoded["group_id"]; present {
		t.Fatalf("expected group_id to be omitted when absent, got %v", decoded)
	}

	var roundTripped Task
	if err := json.Unmarshal(data, &roundTripped); err != nil {
		t.Fatal(err)
	}
	if roundTripped.GroupID != nil {
		t.Fatalf("expected nil GroupID after round trip, got %v", *roundTripped.GroupID)
	}
}

func TestTaskJSONRoundTripPreservesGroupID(t *testing.T) {
	groupID := int64(9)
	task := Task{DocumentID: "d2", GroupID: &groupID}
	data, err := json.Marshal(task)
	if err != nil {
		t.Fatal(err)
	}
	var roundTripped Task
	if err := json.Unmarshal(data, &roundTripped); err != nil {
		t.Fatal(err)
	}
	if roundTripped.GroupID == nil || *roundTripped.GroupID != 9 {
		t.Fatalf("expected GroupID 9, got %v", roundTripped.GroupID)
	}
}
