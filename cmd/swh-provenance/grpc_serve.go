package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/softwareheritage/swh-provenance/api/provenancepb"
	"github.com/softwareheritage/swh-provenance/internal/grpcserver"
	"github.com/softwareheritage/swh-provenance/internal/metrics"
	"github.com/softwareheritage/swh-provenance/internal/provenance"
	"github.com/softwareheritage/swh-provenance/internal/tableset"
)

var (
	metricsExporter string
	otlpEndpoint    string
	httpBind        string
)

var grpcServeCmd = &cobra.Command{
	Use:   "grpc-serve",
	Short: "Serve ProvenanceService.WhereIsOne/WhereAreOne over gRPC (spec §6.1)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := loadGraphClient(cfg)
		if err != nil {
			return err
		}
		dbDir, err := tableSetDir(cfg)
		if err != nil {
			return err
		}
		log := newLogger(cmd)
		ctx, cancel := signalContext()
		defer cancel()

		shutdownMetrics, err := metrics.Init(ctx, metrics.Exporter(metricsExporter), otlpEndpoint)
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		defer func() { _ = shutdownMetrics(ctx) }()

		set, err := tableset.Open(dbDir, cfg.GCGracePeriod, cfg.FooterCacheMB, cfg.PageCacheMB)
		if err != nil {
			return fmt.Errorf("open table set %s: %w", dbDir, err)
		}
		go watchTableSet(ctx, set, log)

		engine := provenance.NewEngine(set, client)
		server := grpcserver.New(engine)

		lis, err := net.Listen("tcp", cfg.Bind)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.Bind, err)
		}

		grpcSrv := grpc.NewServer()
		provenancepb.RegisterProvenanceServiceServer(grpcSrv, server)

		var httpSrv *http.Server
		if httpBind != "" {
			httpSrv = &http.Server{Addr: httpBind, Handler: grpcserver.NewGateway(server)}
			go func() {
				log.Info("serving HTTP/JSON gateway", "bind", httpBind)
				if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Warn("HTTP gateway exited", "error", err)
				}
			}()
		}

		go func() {
			<-ctx.Done()
			log.Info("shutting down gRPC server")
			grpcSrv.GracefulStop()
			if httpSrv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = httpSrv.Shutdown(shutdownCtx)
			}
		}()

		log.Info("serving ProvenanceService", "bind", cfg.Bind, "table_set_dir", dbDir)
		if err := grpcSrv.Serve(lis); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	},
}

func init() {
	grpcServeCmd.Flags().StringVar(&metricsExporter, "metrics-exporter", "none", "metrics exporter: none, stdout, or otlp")
	grpcServeCmd.Flags().StringVar(&otlpEndpoint, "otlp-endpoint", "", "OTLP endpoint when --metrics-exporter=otlp")
	grpcServeCmd.Flags().StringVar(&httpBind, "http-bind", "", "optional HTTP/JSON gateway bind address (spec §6.1 optional HTTP bridge); empty disables it")
}

// watchTableSet periodically refreshes set to the newest promoted
// generation and collects any generation whose grace period has elapsed
// (spec §3 "table sets older than a configurable grace period may be
// deleted"), until ctx is cancelled.
func watchTableSet(ctx context.Context, set *tableset.Set, log *slog.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := set.Refresh(); err != nil {
				log.Warn("table-set refresh failed", "error", err)
			}
			if err := set.CollectGarbage(ctx); err != nil && ctx.Err() == nil {
				log.Warn("table-set garbage collection failed", "error", err)
			}
		}
	}
}
