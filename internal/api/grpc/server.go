package grpc

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/St1cky1/service-tasks/internal/api/middleware"
	"github.com/St1cky1/service-tasks/internal/entity"
	"github.com/St1cky1/service-tasks/internal/usecase"
	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

type TaskLister interface {
	ListTasks(ctx context.Context, actor entity.Identity, filter usecase.TaskFilter) ([]entity.Task, error)
}

type ServiceLookup interface {
	GetService(ctx context.Context, id string) (*entity.Service, error)
}

// DashboardSource - последняя панель и поток обновлений
type DashboardSource interface {
	Current() *entity.Dashboard
	Watch() (<-chan *entity.Dashboard, func())
}

// Deps - зависимости gRPC сервера аналитики
type Deps struct {
	Tasks     TaskLister
	Services  ServiceLookup
	Dashboard DashboardSource
	Analytics *usecase.Analytics
	Auth      middleware.Authenticator
}

type Server struct {
	Deps
}

var _ AnalyticsServer = (*Server)(nil)

func NewServer(deps Deps) *Server {
	return &Server{Deps: deps}
}

// NewGRPCServer - gRPC сервер с проверкой токена на каждом вызове
func NewGRPCServer(srv *Server) *grpc.Server {
	s := grpc.NewServer(
		grpc.UnaryInterceptor(srv.unaryInterceptor),
		grpc.StreamInterceptor(srv.streamInterceptor),
	)
	RegisterAnalyticsServer(s, srv)
	return s
}

func (s *Server) mapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var se *entity.StoreError
	switch {
	case errors.Is(err, entity.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, entity.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, entity.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, entity.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.As(err, &se):
		log.Printf("grpc: store error: %v", err)
		return status.Error(codes.Unavailable, "storage unavailable")
	}
	log.Printf("grpc: unhandled error: %v", err)
	return status.Error(codes.Internal, err.Error())
}

// authenticate - личность уже в контексте при вызове через gateway
func (s *Server) authenticate(ctx context.Context) (context.Context, error) {
	if _, ok := middleware.IdentityFrom(ctx); ok {
		return ctx, nil
	}

	md, _ := metadata.FromIncomingContext(ctx)
	var token string
	if v := md.Get("authorization"); len(v) > 0 {
		token = middleware.BearerToken(v[0])
	}
	if token == "" || s.Auth == nil {
		return nil, status.Error(codes.Unauthenticated, "missing bearer token")
	}

	id, err := s.Auth.Authenticate(token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
	}
	return middleware.WithIdentity(ctx, id), nil
}

func (s *Server) unaryInterceptor(ctx context.Context, req interface{},
	info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	log.Printf("gRPC method: %s", info.FullMethod)
	ctx, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

type authStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authStream) Context() context.Context { return s.ctx }

func (s *Server) streamInterceptor(srv interface{}, ss grpc.ServerStream,
	info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	log.Printf("gRPC stream: %s", info.FullMethod)
	ctx, err := s.authenticate(ss.Context())
	if err != nil {
		return err
	}
	return handler(srv, &authStream{ServerStream: ss, ctx: ctx})
}

func actorFrom(ctx context.Context) (entity.Identity, error) {
	id, ok := middleware.IdentityFrom(ctx)
	if !ok {
		return entity.Identity{}, status.Error(codes.Unauthenticated, "missing identity")
	}
	return id, nil
}

func stringField(in *structpb.Struct, key string) string {
	return in.GetFields()[key].GetStringValue()
}

// toStruct - JSON представление значения в google.protobuf.Struct
func toStruct(v interface{}) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDashboard - сводная панель, только для администратора
func (s *Server) GetDashboard(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, s.mapError(entity.ErrForbidden)
	}

	out, err := toStruct(s.Dashboard.Current())
	if err != nil {
		return nil, s.mapError(err)
	}
	return out, nil
}

type serviceStatsView struct {
	Service *entity.Service      `json:"service"`
	Summary entity.SummaryCounts `json:"summary"`
	Stats   entity.ServiceStats  `json:"stats"`
}

// GetServiceStats - отдел видит только собственную статистику
func (s *Server) GetServiceStats(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	serviceID := stringField(in, "service_id")
	if serviceID == "" {
		return nil, s.mapError(&entity.ValidationError{Field: "service_id", Message: "service_id is required"})
	}
	if !actor.IsAdmin() && actor.ServiceID != serviceID {
		return nil, s.mapError(entity.ErrForbidden)
	}

	svc, err := s.Services.GetService(ctx, serviceID)
	if err != nil {
		return nil, s.mapError(err)
	}
	if svc.Deleted() {
		return nil, s.mapError(&entity.NotFoundError{Entity: "service", ID: serviceID})
	}

	tasks, err := s.Tasks.ListTasks(ctx, actor, usecase.TaskFilter{Service: serviceID})
	if err != nil {
		return nil, s.mapError(err)
	}

	view := serviceStatsView{
		Service: svc,
		Summary: s.Analytics.ServiceSummary(tasks, serviceID),
		Stats:   s.Analytics.PerServiceBreakdown(tasks, []entity.Service{*svc})[0],
	}
	out, err := toStruct(view)
	if err != nil {
		return nil, s.mapError(err)
	}
	return out, nil
}

var exportHeader = []string{"id", "title", "service_id", "priority", "status", "deadline", "completed_at", "created_at", "comments", "files"}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// ExportTasks - отфильтрованный список задач в CSV
func (s *Server) ExportTasks(ctx context.Context, in *structpb.Struct) (*httpbody.HttpBody, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	filter, err := usecase.ParseTaskFilter(stringField(in, "q"), stringField(in, "status"), stringField(in, "service"))
	if err != nil {
		return nil, s.mapError(err)
	}

	tasks, err := s.Tasks.ListTasks(ctx, actor, filter)
	if err != nil {
		return nil, s.mapError(err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, s.mapError(err)
	}
	for i := range tasks {
		t := &tasks[i]
		record := []string{
			t.ID,
			t.Title,
			t.ServiceID,
			string(t.Priority),
			string(t.Status),
			formatTime(t.Deadline),
			formatTime(t.CompletedAt),
			t.CreatedAt.Format(time.RFC3339),
			strconv.Itoa(len(t.Comments)),
			strconv.Itoa(len(t.Files)),
		}
		if err := w.Write(record); err != nil {
			return nil, s.mapError(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, s.mapError(fmt.Errorf("write csv: %w", err))
	}

	return &httpbody.HttpBody{
		ContentType: "text/csv; charset=utf-8",
		Data:        buf.Bytes(),
	}, nil
}

// WatchDashboard - текущая панель, затем каждое обновление до отмены вызова
func (s *Server) WatchDashboard(in *structpb.Struct, stream DashboardStream) error {
	ctx := stream.Context()
	actor, err := actorFrom(ctx)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return s.mapError(entity.ErrForbidden)
	}

	updates, cancel := s.Dashboard.Watch()
	defer cancel()

	send := func(d *entity.Dashboard) error {
		out, err := toStruct(d)
		if err != nil {
			return s.mapError(err)
		}
		return stream.Send(out)
	}

	if err := send(s.Dashboard.Current()); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d := <-updates:
			if err := send(d); err != nil {
				return err
			}
		}
	}
}
