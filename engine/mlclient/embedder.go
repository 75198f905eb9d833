// Package mlclient holds the gRPC client-side implementations of the
// Embedder and Reranker collaborators (spec components A and B). Both
// model runtimes live outside this process; this package only talks to
// them, generalizing the reference service's pattern of treating an ML
// worker as a grpc.NewClient stub.
package mlclient

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/WessleyAI/wessley-mvp/proto/mlv1"
)

// Embedder embeds text into fixed-dimension dense vectors (§4.1).
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// GRPCEmbedder calls an external EmbedService.
type GRPCEmbedder struct {
	conn   *grpc.ClientConn
	client mlv1.EmbedServiceClient
	dim    int
}

// NewGRPCEmbedder dials addr and discovers the embedding dimension once, by
// embedding probeText, exactly as the distilled source's EmbeddingGenerator
// does at construction time — failing fast if the probe call errors rather
// than deferring discovery to the first real request.
func NewGRPCEmbedder(ctx context.Context, addr, probeText string) (*GRPCEmbedder, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("mlclient: dial embedder %s: %w", addr, err)
	}
	client := mlv1.NewEmbedServiceClient(conn)

	resp, err := client.Embed(ctx, &mlv1.EmbedRequest{Texts: []string{probeText}})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("mlclient: probe embed: %w", err)
	}
	if len(resp.Vectors) == 0 {
		conn.Close()
		return nil, fmt.Errorf("mlclient: probe embed returned no vectors")
	}

	return &GRPCEmbedder{conn: conn, client: client, dim: len(resp.Vectors[0].Values)}, nil
}

// Close closes the underlying gRPC connection.
func (e *GRPCEmbedder) Close() error { return e.conn.Close() }

// Dimension returns the fixed output dimension discovered at construction.
func (e *GRPCEmbedder) Dimension() int { return e.dim }

// Embed is a blocking, CPU/GPU-bound call; callers MUST offload it off any
// latency-sensitive scheduler (§4.1).
func (e *GRPCEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.Embed(ctx, &mlv1.EmbedRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("mlclient: embed %d texts: %w", len(texts), err)
	}
	out := make([][]float32, len(resp.Vectors))
	for i, v := range resp.Vectors {
		out[i] = v.Values
	}
	return out, nil
}
