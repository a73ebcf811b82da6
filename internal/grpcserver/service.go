package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"motorhub/internal/motor"
	"motorhub/pkg/models"
)

const serviceName = "motorhub.MotorService"

type ParseRequest struct {
	Description string   `json:"description"`
	Features    []string `json:"features,omitempty"`
}

type ParseResponse struct {
	Identity motor.Identity `json:"identity"`
}

type GetMotorRequest struct {
	Key string `json:"key"` // model key or slug
}

type GetMotorResponse struct {
	Motor models.MotorDB `json:"motor"`
}

type ListMotorsRequest struct {
	Q       string  `json:"q,omitempty"`
	Family  string  `json:"family,omitempty"`
	MinHP   float64 `json:"min_hp,omitempty"`
	MaxHP   float64 `json:"max_hp,omitempty"`
	InStock bool    `json:"in_stock,omitempty"`
	Limit   int32   `json:"limit,omitempty"`
	Offset  int32   `json:"offset,omitempty"`
}

type ListMotorsResponse struct {
	Total  int32            `json:"total"`
	Limit  int32            `json:"limit"`
	Offset int32            `json:"offset"`
	Items  []models.MotorDB `json:"items"`
}

// MotorServiceServer is the server side of motorhub.MotorService.
type MotorServiceServer interface {
	ParseDescription(context.Context, *ParseRequest) (*ParseResponse, error)
	GetMotor(context.Context, *GetMotorRequest) (*GetMotorResponse, error)
	ListMotors(context.Context, *ListMotorsRequest) (*ListMotorsResponse, error)
}

func RegisterMotorServiceServer(s grpc.ServiceRegistrar, srv MotorServiceServer) {
	s.RegisterService(&MotorServiceDesc, srv)
}

var MotorServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*MotorServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ParseDescription", Handler: parseDescriptionHandler},
		{MethodName: "GetMotor", Handler: getMotorHandler},
		{MethodName: "ListMotors", Handler: listMotorsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "motorhub/motor_service",
}

func parseDescriptionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ParseRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MotorServiceServer).ParseDescription(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ParseDescription"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MotorServiceServer).ParseDescription(ctx, req.(*ParseRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getMotorHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetMotorRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MotorServiceServer).GetMotor(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/GetMotor"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MotorServiceServer).GetMotor(ctx, req.(*GetMotorRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listMotorsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListMotorsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MotorServiceServer).ListMotors(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ListMotors"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MotorServiceServer).ListMotors(ctx, req.(*ListMotorsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// MotorServiceClient calls motorhub.MotorService over a connection that
// uses the JSON codec.
type MotorServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMotorServiceClient(cc grpc.ClientConnInterface) *MotorServiceClient {
	return &MotorServiceClient{cc: cc}
}

func (c *MotorServiceClient) ParseDescription(ctx context.Context, in *ParseRequest, opts ...grpc.CallOption) (*ParseResponse, error) {
	out := new(ParseResponse)
	if err := c.invoke(ctx, "ParseDescription", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MotorServiceClient) GetMotor(ctx context.Context, in *GetMotorRequest, opts ...grpc.CallOption) (*GetMotorResponse, error) {
	out := new(GetMotorResponse)
	if err := c.invoke(ctx, "GetMotor", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MotorServiceClient) ListMotors(ctx context.Context, in *ListMotorsRequest, opts ...grpc.CallOption) (*ListMotorsResponse, error) {
	out := new(ListMotorsResponse)
	if err := c.invoke(ctx, "ListMotors", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MotorServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...)
}
