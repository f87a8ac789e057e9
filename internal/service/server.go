package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/witness-metrics/internal/metrics"
	"github.com/danielpatrickdp/witness-metrics/internal/store"
	"github.com/danielpatrickdp/witness-metrics/internal/witness"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "witmetrics.v1.MetricsService"
	// ComputeMethod is the full method path of the Compute RPC.
	ComputeMethod = "/" + ServiceName + "/Compute"

	resultOK      = "ok"
	resultEmpty   = "empty"
	resultInvalid = "invalid"
)

// #region request
// Request is the JSON shape carried in the Compute request Struct. Zero
// settings fall back to the server's engine configuration.
type Request struct {
	Polarity  string            `json:"polarity,omitempty"`
	Levels    int               `json:"levels,omitempty"`
	Coverage  int               `json:"coverage,omitempty"`
	Witnesses []witness.Witness `json:"witnesses"`
}

// apply overlays the request settings on base.
func (r Request) apply(base metrics.Config) metrics.Config {
	cfg := base
	if r.Polarity != "" {
		cfg.Polarity.Polarity = r.Polarity
	}
	if r.Levels > 0 {
		cfg.Selection.Levels = r.Levels
	}
	if r.Coverage > 0 {
		cfg.Selection.Coverage = r.Coverage
	}
	return cfg
}

// #endregion request

// #region service-desc
// MetricsServer is the server API for the metrics service.
type MetricsServer interface {
	Compute(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the metrics service for grpc.ServiceRegistrar.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MetricsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Compute", Handler: computeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "witmetrics/v1/metrics.proto",
}

// Register attaches srv to a gRPC server.
func Register(r grpc.ServiceRegistrar, srv MetricsServer) {
	r.RegisterService(&ServiceDesc, srv)
}

func computeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MetricsServer).Compute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ComputeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MetricsServer).Compute(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// #endregion service-desc

// #region server
// Server implements MetricsServer on top of a metrics engine configuration.
type Server struct {
	config     metrics.Config
	logger     *zap.Logger
	collectors *Collectors
	store      *store.Store
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCollectors enables Prometheus instrumentation.
func WithCollectors(c *Collectors) Option {
	return func(s *Server) { s.collectors = c }
}

// WithStore records every computation in the run history.
func WithStore(st *store.Store) Option {
	return func(s *Server) { s.store = st }
}

// NewServer creates a Server whose requests default to config.
func NewServer(config metrics.Config, opts ...Option) *Server {
	s := &Server{config: config, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compute decodes the request Struct, runs the engine and returns the report
// as a Struct. Empty witness lists yield {"available": false}.
func (s *Server) Compute(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}

	req, err := DecodeRequest(in)
	if err != nil {
		s.collectors.observe(resultInvalid, 0, 0)
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	cfg := req.apply(s.config)
	start := time.Now()
	report := metrics.NewEngine(cfg, metrics.WithLogger(s.logger)).Compute(req.Witnesses)
	elapsed := time.Since(start)

	result := resultOK
	if !report.Available {
		result = resultEmpty
	}
	s.collectors.observe(result, len(req.Witnesses), elapsed.Seconds())

	if s.store != nil {
		run, err := s.store.RecordRun(store.Run{
			Settings:  cfg,
			Witnesses: req.Witnesses,
			Report:    report,
		}, "grpc")
		if err != nil {
			s.logger.Warn("record run failed", zap.Error(err))
		} else {
			s.logger.Debug("run recorded", zap.String("run_id", run.RunID))
		}
	}

	out, err := EncodeReport(report)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// #endregion server

// #region codec
// DecodeRequest converts a request Struct into a Request.
func DecodeRequest(in *structpb.Struct) (Request, error) {
	var req Request
	if in == nil {
		return req, nil
	}
	data, err := protojson.Marshal(in)
	if err != nil {
		return Request{}, fmt.Errorf("encode request: %w", err)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

// EncodeRequest converts a Request into a Struct.
func EncodeRequest(req Request) (*structpb.Struct, error) {
	return toStruct(req)
}

// EncodeReport converts a report into a Struct with the report's JSON shape.
func EncodeReport(report metrics.Report) (*structpb.Struct, error) {
	return toStruct(report)
}

// DecodeReport converts a response Struct back into a report.
func DecodeReport(out *structpb.Struct) (metrics.Report, error) {
	data, err := protojson.Marshal(out)
	if err != nil {
		return metrics.Report{}, fmt.Errorf("encode report: %w", err)
	}
	var report metrics.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return metrics.Report{}, fmt.Errorf("decode report: %w", err)
	}
	return report, nil
}

func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("to struct: %w", err)
	}
	return out, nil
}

// #endregion codec

// #region interceptor
// UnaryLogger logs every unary call with its code and latency.
func UnaryLogger(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("rpc",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("elapsed", time.Since(start)),
		)
		return resp, err
	}
}

// #endregion interceptor
