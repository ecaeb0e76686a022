package grpc

import (
	"context"

	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "dashboard.v1.AnalyticsService"

// AnalyticsServer - запросы и ответы google.protobuf.Struct, выгрузка в google.api.HttpBody
type AnalyticsServer interface {
	GetDashboard(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GetServiceStats(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ExportTasks(ctx context.Context, in *structpb.Struct) (*httpbody.HttpBody, error)
	WatchDashboard(in *structpb.Struct, stream DashboardStream) error
}

// DashboardStream - серверный поток WatchDashboard
type DashboardStream interface {
	Send(*structpb.Struct) error
	Context() context.Context
}

type dashboardStream struct {
	grpc.ServerStream
}

func (s *dashboardStream) Send(m *structpb.Struct) error {
	return s.ServerStream.SendMsg(m)
}

var AnalyticsServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*AnalyticsServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetDashboard",
			Handler: unaryHandler("GetDashboard", func(srv AnalyticsServer, ctx context.Context, in *structpb.Struct) (interface{}, error) {
				return srv.GetDashboard(ctx, in)
			}),
		},
		{
			MethodName: "GetServiceStats",
			Handler: unaryHandler("GetServiceStats", func(srv AnalyticsServer, ctx context.Context, in *structpb.Struct) (interface{}, error) {
				return srv.GetServiceStats(ctx, in)
			}),
		},
		{
			MethodName: "ExportTasks",
			Handler: unaryHandler("ExportTasks", func(srv AnalyticsServer, ctx context.Context, in *structpb.Struct) (interface{}, error) {
				return srv.ExportTasks(ctx, in)
			}),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchDashboard",
			Handler:       watchDashboardHandler,
			ServerStreams: true,
		},
	},
	Metadata: "dashboard/v1/analytics.proto",
}

// RegisterAnalyticsServer регистрирует реализацию на gRPC сервере
func RegisterAnalyticsServer(s grpc.ServiceRegistrar, srv AnalyticsServer) {
	s.RegisterService(&AnalyticsServiceDesc, srv)
}

type unaryCall func(srv AnalyticsServer, ctx context.Context, in *structpb.Struct) (interface{}, error)

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AnalyticsServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + serviceName + "/" + method,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(AnalyticsServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func watchDashboardHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(AnalyticsServer).WatchDashboard(in, &dashboardStream{stream})
}
