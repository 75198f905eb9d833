package kbv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/WessleyAI/wessley-mvp/pkg/grpcjson"
)

const (
	KnowledgeBaseService_ServiceName                 = "kbv1.KnowledgeBaseService"
	KnowledgeBaseService_ProcessDocument_FullMethodName = "/kbv1.KnowledgeBaseService/ProcessDocument"
	KnowledgeBaseService_DeleteDocument_FullMethodName  = "/kbv1.KnowledgeBaseService/DeleteDocument"
)

func jsonCallOption() grpc.CallOption { return grpc.CallContentSubtype(grpcjson.Name) }

// KnowledgeBaseServiceClient is the client API for KnowledgeBaseService.
type KnowledgeBaseServiceClient interface {
	ProcessDocument(ctx context.Context, in *ProcessDocumentRequest, opts ...grpc.CallOption) (*ProcessDocumentResponse, error)
	DeleteDocument(ctx context.Context, in *DeleteDocumentRequest, opts ...grpc.CallOption) (*DeleteDocumentResponse, error)
}

type knowledgeBaseServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewKnowledgeBaseServiceClient constructs a client bound to cc.
func NewKnowledgeBaseServiceClient(cc grpc.ClientConnInterface) KnowledgeBaseServiceClient {
	return &knowledgeBaseServiceClient{cc: cc}
}

func (c *knowledgeBaseServiceClient) ProcessDocument(ctx context.Context, in *ProcessDocumentRequest, opts ...grpc.CallOption) (*ProcessDocumentResponse, error) {
	opts = append([]grpc.CallOption{jsonCallOption()}, opts...)
	out := new(ProcessDocumentResponse)
	if err := c.cc.Invoke(ctx, KnowledgeBaseService_ProcessDocument_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *knowledgeBaseServiceClient) DeleteDocument(ctx context.Context, in *DeleteDocumentRequest, opts ...grpc.CallOption) (*DeleteDocumentResponse, error) {
	opts = append([]grpc.CallOption{jsonCallOption()}, opts...)
	out := new(DeleteDocumentResponse)
	if err := c.cc.Invoke(ctx, KnowledgeBaseService_DeleteDocument_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// KnowledgeBaseServiceServer is the server API for KnowledgeBaseService.
type KnowledgeBaseServiceServer interface {
	ProcessDocument(context.Context, *ProcessDocumentRequest) (*ProcessDocumentResponse, error)
	DeleteDocument(context.Context, *DeleteDocumentRequest) (*DeleteDocumentResponse, error)
}

// UnimplementedKnowledgeBaseServiceServer embeds into concrete
// implementations to satisfy forward compatibility.
type UnimplementedKnowledgeBaseServiceServer struct{}

func (UnimplementedKnowledgeBaseServiceServer) ProcessDocument(context.Context, *ProcessDocumentRequest) (*ProcessDocumentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ProcessDocument not implemented")
}

func (UnimplementedKnowledgeBaseServiceServer) DeleteDocument(context.Context, *DeleteDocumentRequest) (*DeleteDocumentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method DeleteDocument not implemented")
}

func _KnowledgeBaseService_ProcessDocument_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ProcessDocumentRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(KnowledgeBaseServiceServer).ProcessDocument(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: KnowledgeBaseService_ProcessDocument_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(KnowledgeBaseServiceServer).ProcessDocument(ctx, req.(*ProcessDocumentRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _KnowledgeBaseService_DeleteDocument_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(DeleteDocumentRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(KnowledgeBaseServiceServer).DeleteDocument(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: KnowledgeBaseService_DeleteDocument_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(KnowledgeBaseServiceServer).DeleteDocument(ctx, req.(*DeleteDocumentRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// KnowledgeBaseService_ServiceDesc is the grpc.ServiceDesc for KnowledgeBaseService.
var KnowledgeBaseService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: KnowledgeBaseService_ServiceName,
	HandlerType: (*KnowledgeBaseServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ProcessDocument", Handler: _KnowledgeBaseService_ProcessDocument_Handler},
		{MethodName: "DeleteDocument", Handler: _KnowledgeBaseService_DeleteDocument_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "kbv1/kb.proto",
}

// RegisterKnowledgeBaseServiceServer registers srv on s.
func RegisterKnowledgeBaseServiceServer(s grpc.ServiceRegistrar, srv KnowledgeBaseServiceServer) {
	s.RegisterService(&KnowledgeBaseService_ServiceDesc, srv)
}
