package grpc

import (
	"context"
	"fmt"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type gatewayCall func(ctx context.Context, r *http.Request, pathParams map[string]string) (proto.Message, error)

// NewGatewayHandler - HTTP фасад, вызывает сервер в том же процессе.
// Личность вызывающего кладет в контекст middleware.RequireAuth.
func NewGatewayHandler(srv *Server) (http.Handler, error) {
	mux := runtime.NewServeMux()

	routes := []struct {
		method  string
		pattern string
		call    gatewayCall
	}{
		{http.MethodGet, "/v1/dashboard", func(ctx context.Context, r *http.Request, _ map[string]string) (proto.Message, error) {
			return srv.GetDashboard(ctx, &structpb.Struct{})
		}},
		{http.MethodGet, "/v1/services/{service_id}/stats", func(ctx context.Context, r *http.Request, p map[string]string) (proto.Message, error) {
			return srv.GetServiceStats(ctx, &structpb.Struct{Fields: map[string]*structpb.Value{
				"service_id": structpb.NewStringValue(p["service_id"]),
			}})
		}},
		{http.MethodGet, "/v1/tasks/export", func(ctx context.Context, r *http.Request, _ map[string]string) (proto.Message, error) {
			q := r.URL.Query()
			return srv.ExportTasks(ctx, &structpb.Struct{Fields: map[string]*structpb.Value{
				"q":       structpb.NewStringValue(q.Get("q")),
				"status":  structpb.NewStringValue(q.Get("status")),
				"service": structpb.NewStringValue(q.Get("service")),
			}})
		}},
	}

	for _, route := range routes {
		call := route.call
		err := mux.HandlePath(route.method, route.pattern, func(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
			ctx := r.Context()
			_, outbound := runtime.MarshalerForRequest(mux, r)

			resp, err := call(ctx, r, pathParams)
			if err != nil {
				runtime.HTTPError(ctx, mux, outbound, w, r, err)
				return
			}
			runtime.ForwardResponseMessage(ctx, mux, outbound, w, r, resp)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to register gateway route %s: %w", route.pattern, err)
		}
	}

	return mux, nil
}
