// Package controlplane is the outbound client to the authoritative
// document-metadata service (§4.8): the worker reports terminal/in-flight
// status to it, but never owns document_id, quota, or permission state
// itself.
package controlplane

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/WessleyAI/wessley-mvp/proto/controlplanev1"
)

const callTimeout = 30 * time.Second

// Client reports document status to the control plane over a lazily
// dialed, reused connection.
type Client struct {
	addr string
	logger *slog.Logger

	mu     sync.Mutex
	conn   *grpc.ClientConn
	client controlplanev1.ControlPlaneServiceClient
}

// New returns a Client that dials addr on first use.
func New(addr string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{addr: addr, logger: logger}
}

// NewWithConn wraps an already-established connection, bypassing lazy
// dialing entirely. Used by tests to point the client at an in-process
// bufconn server.
func NewWithConn(conn *grpc.ClientConn, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		conn:   conn,
		client: controlplanev1.NewControlPlaneServiceClient(conn),
		logger: logger,
	}
}

func (c *Client) ensureConn() (controlplanev1.ControlPlaneServiceClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	conn, err := grpc.NewClient(c.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = controlplanev1.NewControlPlaneServiceClient(conn)
	return c.client, nil
}

// UpdateDocumentStatus reports status for documentID. Every error — dial
// failure, RPC failure, or a reply with success=false — is captured and
// surfaced only as a false return; the worker's terminal path never fails
// because this call failed (§4.8).
func (c *Client) UpdateDocumentStatus(ctx context.Context, documentID string, status controlplanev1.DocumentStatus, chunksCount int32, errorMessage string) bool {
	client, err := c.ensureConn()
	if err != nil {
		c.logger.Warn("controlplane: dial failed", "err", err)
		return false
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := client.UpdateDocumentStatus(callCtx, &controlplanev1.UpdateDocumentStatusRequest{
		DocumentId:   documentID,
		Status:       status,
		ChunksCount:  chunksCount,
		ErrorMessage: errorMessage,
	})
	if err != nil {
		c.logger.Warn("controlplane: update document status failed", "document_id", documentID, "err", err)
		return false
	}
	return resp.Success
}

// Close releases the underlying connection, if one was ever established.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
