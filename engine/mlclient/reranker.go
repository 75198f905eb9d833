package mlclient

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/WessleyAI/wessley-mvp/proto/mlv1"
)

// Passage is one candidate document handed to the reranker, carrying
// opaque metadata that must be preserved unchanged (§4.2).
type Passage struct {
	Text string
	Meta map[string]string
}

// RankedPassage is one rerank result.
type RankedPassage struct {
	Passage Passage
	Score   float32
}

// Reranker re-scores (query, passages) and returns the top_k, strictly
// descending by score (§4.2).
type Reranker interface {
	Rerank(ctx context.Context, query string, passages []Passage, topK int) ([]RankedPassage, error)
}

// GRPCReranker calls an external RerankService.
type GRPCReranker struct {
	conn   *grpc.ClientConn
	client mlv1.RerankServiceClient
}

// NewGRPCReranker dials addr.
func NewGRPCReranker(addr string) (*GRPCReranker, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("mlclient: dial reranker %s: %w", addr, err)
	}
	return &GRPCReranker{conn: conn, client: mlv1.NewRerankServiceClient(conn)}, nil
}

// Close closes the underlying gRPC connection.
func (r *GRPCReranker) Close() error { return r.conn.Close() }

// Rerank returns empty output without calling the underlying model on empty
// input, per §4.2 and the distilled source's RerankerService.rerank.
func (r *GRPCReranker) Rerank(ctx context.Context, query string, passages []Passage, topK int) ([]RankedPassage, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	wire := make([]*mlv1.Passage, len(passages))
	for i, p := range passages {
		wire[i] = &mlv1.Passage{Text: p.Text, Meta: p.Meta}
	}

	resp, err := r.client.Rerank(ctx, &mlv1.RerankRequest{Query: query, Passages: wire, TopK: int32(topK)})
	if err != nil {
		return nil, fmt.Errorf("mlclient: rerank %d passages: %w", len(passages), err)
	}

	out := make([]RankedPassage, len(resp.Results))
	for i, res := range resp.Results {
		out[i] = RankedPassage{
			Passage: Passage{Text: res.Passage.Text, Meta: res.Passage.Meta},
			Score:   res.Score,
		}
	}
	if len(out) > topK && topK > 0 {
		out = out[:topK]
	}
	return out, nil
}
