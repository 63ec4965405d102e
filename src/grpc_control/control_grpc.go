package grpc_control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the full gRPC name of the control service. Messages are the protobuf
// well-known Struct and Empty, so no generated code is needed on either side.
const ServiceName = "shopsim.control.v1.SimulationControl"

// -----------------------------------------------------------------------------
// Server side
// -----------------------------------------------------------------------------

type SimulationControlServer interface {
	CreateSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitBudget(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SelectList(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Resume(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListSessions(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	UpdateAnimation(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterSimulationControlServer(s grpc.ServiceRegistrar, srv SimulationControlServer) {
	s.RegisterService(&SimulationControl_ServiceDesc, srv)
}

var SimulationControl_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SimulationControlServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("CreateSession", SimulationControlServer.CreateSession),
		unaryMethod("SubmitBudget", SimulationControlServer.SubmitBudget),
		unaryMethod("SelectList", SimulationControlServer.SelectList),
		unaryMethod("Resume", SimulationControlServer.Resume),
		unaryMethod("GetSession", SimulationControlServer.GetSession),
		unaryMethod("ListSessions", SimulationControlServer.ListSessions),
		unaryMethod("UpdateAnimation", SimulationControlServer.UpdateAnimation),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shopsim/control/v1/control.proto",
}

// -----------------------------------------------------------------------------

// unaryMethod builds the descriptor entry of one unary method whose request type is Req.
func unaryMethod[Req any](name string, call func(SimulationControlServer, context.Context, *Req) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SimulationControlServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(SimulationControlServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// -----------------------------------------------------------------------------
// Client side
// -----------------------------------------------------------------------------

type SimulationControlClient struct {
	cc grpc.ClientConnInterface
}

func NewSimulationControlClient(cc grpc.ClientConnInterface) *SimulationControlClient {
	return &SimulationControlClient{cc: cc}
}

// -----------------------------------------------------------------------------

func (c *SimulationControlClient) invoke(ctx context.Context, method string, in interface{}, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SimulationControlClient) CreateSession(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "CreateSession", in, opts...)
}

func (c *SimulationControlClient) SubmitBudget(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "SubmitBudget", in, opts...)
}

func (c *SimulationControlClient) SelectList(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "SelectList", in, opts...)
}

func (c *SimulationControlClient) Resume(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Resume", in, opts...)
}

func (c *SimulationControlClient) GetSession(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetSession", in, opts...)
}

func (c *SimulationControlClient) ListSessions(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListSessions", in, opts...)
}

func (c *SimulationControlClient) UpdateAnimation(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "UpdateAnimation", in, opts...)
}
