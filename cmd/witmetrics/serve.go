package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/danielpatrickdp/witness-metrics/internal/service"
	"github.com/danielpatrickdp/witness-metrics/internal/store"
)

// #region serve

var (
	serveAddr        string
	serveMetricsAddr string
	serveRecord      bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the gRPC MetricsService with Prometheus metrics",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "gRPC listen address (default from config)")
	serveCmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", "", "Prometheus /metrics address, empty string in config disables")
	serveCmd.Flags().BoolVar(&serveRecord, "record", false, "record every computation in the history database")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	metricsAddr := cfg.Server.MetricsAddr
	if serveMetricsAddr != "" {
		metricsAddr = serveMetricsAddr
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithCollectors(service.NewCollectors(reg)),
	}
	if serveRecord {
		st, err := store.NewStore(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()
		opts = append(opts, service.WithStore(st))
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	gs := grpc.NewServer(grpc.UnaryInterceptor(service.UnaryLogger(logger)))
	service.Register(gs, service.NewServer(cfg.EngineConfig(), opts...))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("grpc listening", zap.String("addr", lis.Addr().String()))
		return gs.Serve(lis)
	})

	var httpSrv *http.Server
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		httpSrv = &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logger.Info("metrics listening", zap.String("addr", metricsAddr))
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		gs.GracefulStop()
		if httpSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		}
		return nil
	})

	return g.Wait()
}

// #endregion serve
