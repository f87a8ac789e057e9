package service

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/witness-metrics/internal/metrics"
	"github.com/danielpatrickdp/witness-metrics/internal/store"
	"github.com/danielpatrickdp/witness-metrics/internal/witness"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// startServer serves srv over an in-memory listener and returns a connected
// client. Everything is torn down with the test.
func startServer(t *testing.T, srv *Server, opts ...grpc.ServerOption) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer(opts...)
	Register(gs, srv)
	go func() { _ = gs.Serve(lis) }()

	client, err := NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		client.Close()
		gs.Stop()
		lis.Close()
	})
	return client
}

func sampleRequest() Request {
	return Request{Witnesses: []witness.Witness{
		witness.Scored(10, "a"),
		witness.Scored(10, "a", "b"),
		witness.Scored(15, "c"),
		witness.Scored(20, "c"),
	}}
}

func callCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestComputeOverGRPC(t *testing.T) {
	client := startServer(t, NewServer(metrics.DefaultConfig()))

	report, err := client.Compute(callCtx(t), sampleRequest())
	require.NoError(t, err)
	require.True(t, report.Available)
	assert.Equal(t, 10.0, report.Global.Optimal)
	assert.Equal(t, []float64{10, 15}, report.Global.AllowedLevels)
	assert.Equal(t, 3, report.Global.NumInS)
	require.NotNil(t, report.Atoms["a"].Penalty)
	assert.Equal(t, -5.0, *report.Atoms["a"].Penalty)
	assert.Nil(t, report.Atoms["a"].PiS)
	assert.Equal(t, "cost", string(report.Context.Polarity))
}

func TestComputeRequestOverridesSettings(t *testing.T) {
	client := startServer(t, NewServer(metrics.DefaultConfig()))

	req := sampleRequest()
	req.Polarity = "strength"
	req.Levels = 1
	req.Coverage = 1
	report, err := client.Compute(callCtx(t), req)
	require.NoError(t, err)
	assert.Equal(t, 20.0, report.Global.Optimal)
	assert.Equal(t, 1, report.Global.NumInS)
	assert.Equal(t, "strength", string(report.Context.Polarity))
}

func TestComputeEmpty(t *testing.T) {
	client := startServer(t, NewServer(metrics.DefaultConfig()))

	report, err := client.Compute(callCtx(t), Request{})
	require.NoError(t, err)
	assert.False(t, report.Available)
	assert.Nil(t, report.Global)
}

func TestComputeInvalidArgument(t *testing.T) {
	srv := NewServer(metrics.DefaultConfig())
	in, err := structpb.NewStruct(map[string]any{"witnesses": "not a list"})
	require.NoError(t, err)

	_, err = srv.Compute(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	in, err = structpb.NewStruct(map[string]any{"levels": 1.5})
	require.NoError(t, err)
	_, err = srv.Compute(context.Background(), in)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestComputeCanceledContext(t *testing.T) {
	srv := NewServer(metrics.DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := srv.Compute(ctx, &structpb.Struct{})
	assert.Equal(t, codes.Canceled, status.Code(err))
}

func TestCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	srv := NewServer(metrics.DefaultConfig(), WithCollectors(NewCollectors(reg)))
	client := startServer(t, srv)

	_, err := client.Compute(callCtx(t), sampleRequest())
	require.NoError(t, err)
	_, err = client.Compute(callCtx(t), Request{})
	require.NoError(t, err)
	bad, _ := structpb.NewStruct(map[string]any{"witnesses": 3.0})
	_, _ = srv.Compute(context.Background(), bad)

	assert.Equal(t, 1.0, testutil.ToFloat64(srv.collectors.computations.WithLabelValues(resultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.collectors.computations.WithLabelValues(resultEmpty)))
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.collectors.computations.WithLabelValues(resultInvalid)))

	n, err := testutil.GatherAndCount(reg, "witmetrics_witnesses", "witmetrics_compute_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestComputeRecordsRuns(t *testing.T) {
	st, err := store.NewStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	client := startServer(t, NewServer(metrics.DefaultConfig(), WithStore(st)))
	_, err = client.Compute(callCtx(t), sampleRequest())
	require.NoError(t, err)

	runs, err := st.ListRunsWithLog(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "grpc", runs[0].Source)
	assert.Equal(t, 4, runs[0].WitnessCount)
	assert.Equal(t, "computed", runs[0].Outcome)
}

func TestUnaryLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	client := startServer(t, NewServer(metrics.DefaultConfig()),
		grpc.UnaryInterceptor(UnaryLogger(zap.New(core))))

	_, err := client.Compute(callCtx(t), sampleRequest())
	require.NoError(t, err)

	entries := logs.FilterMessage("rpc").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, ComputeMethod, fields["method"])
	assert.Equal(t, "OK", fields["code"])
}

func TestEncodeDecodeReport(t *testing.T) {
	report := metrics.NewEngine(metrics.DefaultConfig()).Compute(sampleRequest().Witnesses)
	out, err := EncodeReport(report)
	require.NoError(t, err)
	assert.True(t, out.Fields["available"].GetBoolValue())

	back, err := DecodeReport(out)
	require.NoError(t, err)
	assert.Equal(t, report.Global.Members, back.Global.Members)
	assert.Equal(t, report.AtomNames(), back.AtomNames())

	empty, err := EncodeReport(metrics.NoData())
	require.NoError(t, err)
	assert.Len(t, empty.Fields, 1)
}
