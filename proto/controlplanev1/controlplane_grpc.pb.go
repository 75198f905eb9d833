package controlplanev1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/WessleyAI/wessley-mvp/pkg/grpcjson"
)

const (
	ControlPlaneService_ServiceName                       = "controlplanev1.ControlPlaneService"
	ControlPlaneService_UpdateDocumentStatus_FullMethodName = "/controlplanev1.ControlPlaneService/UpdateDocumentStatus"
)

func jsonCallOption() grpc.CallOption { return grpc.CallContentSubtype(grpcjson.Name) }

// ControlPlaneServiceClient is the client API for ControlPlaneService.
type ControlPlaneServiceClient interface {
	UpdateDocumentStatus(ctx context.Context, in *UpdateDocumentStatusRequest, opts ...grpc.CallOption) (*UpdateDocumentStatusResponse, error)
}

type controlPlaneServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewControlPlaneServiceClient constructs a client bound to cc.
func NewControlPlaneServiceClient(cc grpc.ClientConnInterface) ControlPlaneServiceClient {
	return &controlPlaneServiceClient{cc: cc}
}

func (c *controlPlaneServiceClient) UpdateDocumentStatus(ctx context.Context, in *UpdateDocumentStatusRequest, opts ...grpc.CallOption) (*UpdateDocumentStatusResponse, error) {
	opts = append([]grpc.CallOption{jsonCallOption()}, opts...)
	out := new(UpdateDocumentStatusResponse)
	if err := c.cc.Invoke(ctx, ControlPlaneService_UpdateDocumentStatus_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ControlPlaneServiceServer is the server API for ControlPlaneService. The
// core never runs this side in production (it only calls out, per §4.8);
// it is hand-maintained alongside the client for test doubles, mirroring
// what protoc-gen-go-grpc would emit regardless of which side a given
// process happens to use.
type ControlPlaneServiceServer interface {
	UpdateDocumentStatus(context.Context, *UpdateDocumentStatusRequest) (*UpdateDocumentStatusResponse, error)
}

// UnimplementedControlPlaneServiceServer embeds into test doubles to
// satisfy forward compatibility, following the protoc-gen-go-grpc
// convention.
type UnimplementedControlPlaneServiceServer struct{}

func (UnimplementedControlPlaneServiceServer) UpdateDocumentStatus(context.Context, *UpdateDocumentStatusRequest) (*UpdateDocumentStatusResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method UpdateDocumentStatus not implemented")
}

func _ControlPlaneService_UpdateDocumentStatus_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(UpdateDocumentStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlPlaneServiceServer).UpdateDocumentStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ControlPlaneService_UpdateDocumentStatus_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlPlaneServiceServer).UpdateDocumentStatus(ctx, req.(*UpdateDocumentStatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ControlPlaneService_ServiceDesc is the grpc.ServiceDesc for ControlPlaneService.
var ControlPlaneService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ControlPlaneService_ServiceName,
	HandlerType: (*ControlPlaneServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "UpdateDocumentStatus",
			Handler:    _ControlPlaneService_UpdateDocumentStatus_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "controlplanev1/controlplane.proto",
}

// RegisterControlPlaneServiceServer registers srv on s.
func RegisterControlPlaneServiceServer(s grpc.ServiceRegistrar, srv ControlPlaneServiceServer) {
	s.RegisterService(&ControlPlaneService_ServiceDesc, srv)
}
