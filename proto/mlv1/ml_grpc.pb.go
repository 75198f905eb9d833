package mlv1

import (
	"context"

	"google.golang.org/grpc"

	"github.com/WessleyAI/wessley-mvp/pkg/grpcjson"
)

const (
	EmbedService_ServiceName          = "mlv1.EmbedService"
	EmbedService_Embed_FullMethodName = "/mlv1.EmbedService/Embed"

	RerankService_ServiceName           = "mlv1.RerankService"
	RerankService_Rerank_FullMethodName = "/mlv1.RerankService/Rerank"
)

func jsonCallOption() grpc.CallOption { return grpc.CallContentSubtype(grpcjson.Name) }

// EmbedServiceClient is the client API for EmbedService.
type EmbedServiceClient interface {
	Embed(ctx context.Context, in *EmbedRequest, opts ...grpc.CallOption) (*EmbedResponse, error)
}

type embedServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewEmbedServiceClient constructs a client bound to cc.
func NewEmbedServiceClient(cc grpc.ClientConnInterface) EmbedServiceClient {
	return &embedServiceClient{cc: cc}
}

func (c *embedServiceClient) Embed(ctx context.Context, in *EmbedRequest, opts ...grpc.CallOption) (*EmbedResponse, error) {
	opts = append([]grpc.CallOption{jsonCallOption()}, opts...)
	out := new(EmbedResponse)
	if err := c.cc.Invoke(ctx, EmbedService_Embed_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// RerankServiceClient is the client API for RerankService.
type RerankServiceClient interface {
	Rerank(ctx context.Context, in *RerankRequest, opts ...grpc.CallOption) (*RerankResponse, error)
}

type rerankServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewRerankServiceClient constructs a client bound to cc.
func NewRerankServiceClient(cc grpc.ClientConnInterface) RerankServiceClient {
	return &rerankServiceClient{cc: cc}
}

func (c *rerankServiceClient) Rerank(ctx context.Context, in *RerankRequest, opts ...grpc.CallOption) (*RerankResponse, error) {
	opts = append([]grpc.CallOption{jsonCallOption()}, opts...)
	out := new(RerankResponse)
	if err := c.cc.Invoke(ctx, RerankService_Rerank_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
