// Package grpcapi implements the rpncalc.v1.Calculator gRPC service. Messages
// are protobuf well-known types, so clients need no generated code.
package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lemonberrylabs/rpncalc/pkg/api"
	"github.com/lemonberrylabs/rpncalc/pkg/calc"
	"github.com/lemonberrylabs/rpncalc/pkg/store"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "rpncalc.v1.Calculator"

// CalculatorServer is the server API for the Calculator service.
type CalculatorServer interface {
	Evaluate(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	GetEvaluation(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ListEvaluations(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// ServiceDesc describes the Calculator service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CalculatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: evaluateHandler},
		{MethodName: "GetEvaluation", Handler: getEvaluationHandler},
		{MethodName: "ListEvaluations", Handler: listEvaluationsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rpncalc/v1/calculator.proto",
}

// RegisterCalculatorServer registers srv on gs.
func RegisterCalculatorServer(gs *grpc.Server, srv CalculatorServer) {
	gs.RegisterService(&ServiceDesc, srv)
}

// Server implements CalculatorServer.
type Server struct {
	store   store.Backend
	cache   *calc.Cache
	metrics *api.Metrics
	grpc    *grpc.Server
}

// New creates a new gRPC server recording into s. cache and metrics may be nil.
func New(s store.Backend, cache *calc.Cache, metrics *api.Metrics) *Server {
	srv := &Server{
		store:   s,
		cache:   cache,
		metrics: metrics,
	}

	gs := grpc.NewServer()
	RegisterCalculatorServer(gs, srv)
	srv.grpc = gs

	return srv
}

// Serve starts listening on the given address and serves gRPC requests.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.grpc.Serve(lis)
}

// GracefulStop gracefully stops the gRPC server.
func (s *Server) GracefulStop() {
	s.grpc.GracefulStop()
}

// Evaluate evaluates an infix expression. A rejected expression is still
// recorded; the FAILED record is attached to the InvalidArgument status as a
// detail.
func (s *Server) Evaluate(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "expression is required")
	}

	ev, err := api.Evaluate(s.store, s.cache, s.metrics, req.GetValue(), store.SourceGRPC)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	pb, err := evaluationToProto(ev)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	if ev.State == store.EvaluationFailed {
		st := status.New(codes.InvalidArgument, ev.Error.Message)
		if detailed, derr := st.WithDetails(pb); derr == nil {
			st = detailed
		}
		return nil, st.Err()
	}
	return pb, nil
}

// GetEvaluation returns a recorded evaluation by id.
func (s *Server) GetEvaluation(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	ev, err := s.store.Get(req.GetValue())
	if errors.Is(err, store.ErrNotFound) {
		return nil, status.Error(codes.NotFound, err.Error())
	}
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	pb, err := evaluationToProto(ev)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return pb, nil
}

// ListEvaluations returns all recorded evaluations, newest first.
func (s *Server) ListEvaluations(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	evs, err := s.store.List(0)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	items := make([]interface{}, len(evs))
	for i, ev := range evs {
		items[i] = evaluationToMap(ev)
	}

	pb, err := structpb.NewStruct(map[string]interface{}{"evaluations": items})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return pb, nil
}

// --- Internal helpers ---

func evaluationToProto(ev *store.Evaluation) (*structpb.Struct, error) {
	return structpb.NewStruct(evaluationToMap(ev))
}

// evaluationToMap mirrors the REST representation. structpb only accepts
// plain interface{} slices, so tags are copied.
func evaluationToMap(ev *store.Evaluation) map[string]interface{} {
	m := map[string]interface{}{
		"name":       "evaluations/" + ev.ID,
		"id":         ev.ID,
		"expression": ev.Expression,
		"state":      string(ev.State),
		"createTime": ev.CreateTime.Format(time.RFC3339),
	}
	if ev.Source != "" {
		m["source"] = ev.Source
	}
	if ev.Postfix != "" {
		m["postfix"] = ev.Postfix
	}
	if ev.Result != "" {
		m["result"] = ev.Result
	}
	if ev.Error != nil {
		tags := make([]interface{}, len(ev.Error.Tags))
		for i, tag := range ev.Error.Tags {
			tags[i] = tag
		}
		m["error"] = map[string]interface{}{
			"message": ev.Error.Message,
			"tags":    tags,
		}
	}
	return m
}

// --- Method handlers ---

func evaluateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CalculatorServer).Evaluate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Evaluate"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CalculatorServer).Evaluate(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func getEvaluationHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CalculatorServer).GetEvaluation(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetEvaluation"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CalculatorServer).GetEvaluation(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func listEvaluationsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CalculatorServer).ListEvaluations(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/ListEvaluations"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CalculatorServer).ListEvaluations(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}
