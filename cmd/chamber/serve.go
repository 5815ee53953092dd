package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/bubble-chamber/internal/config"
	"github.com/vovakirdan/bubble-chamber/internal/export"
	"github.com/vovakirdan/bubble-chamber/internal/platform/tui"
	"github.com/vovakirdan/bubble-chamber/internal/telemetry"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
	flagMetricsAddr string
	flagExportDir   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chamber SSH server",
	Long: `Start an SSH server that lets users watch the chamber remotely, and a
Prometheus metrics endpoint.

Each SSH connection gets its own session with a scenario menu. Naming a
scenario on the SSH command line opens it directly. Runs are recorded in
the server's run history.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.chamber/host_key

Examples:
  chamber serve                          # SSH on :23234, metrics on :9090
  chamber serve --ssh :2222 --metrics "" # No metrics endpoint
  chamber serve --export-dir ./exports   # Let sessions export SVGs

Users can connect with:
  ssh localhost -p 23234
  ssh -t localhost -p 23234 cascade`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23234", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
	serveCmd.Flags().StringVar(&flagMetricsAddr, "metrics", ":9090", "Metrics HTTP address (empty to disable)")
	serveCmd.Flags().StringVar(&flagExportDir, "export-dir", "", "Directory for SVG exports from sessions (disabled if empty)")
}

func runServe(cmd *cobra.Command, _ []string) {
	preset, err := config.ParsePreset(flagPreset)
	if err != nil {
		fail("%v", err)
	}
	cfg, err := config.Load(flagConfig)
	if err != nil {
		fail("%v", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.New(reg)

	store := openStore(cfg)
	if store != nil {
		defer store.Close()
	}

	srvCfg := tui.DefaultSSHServerConfig()
	srvCfg.Address = flagSSHAddr
	srvCfg.HostKeyPath = flagHostKey
	srvCfg.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
	srvCfg.Preset = preset
	srvCfg.Store = store
	srvCfg.Metrics = metrics
	srvCfg.Logger = logger
	if flagExportDir != "" {
		srvCfg.Sink = export.FileSink{Dir: flagExportDir}
	}

	server, err := tui.NewSSHServer(srvCfg)
	if err != nil {
		fail("creating server: %v", err)
	}

	if flagMetricsAddr != "" {
		go serveMetrics(ctx, flagMetricsAddr, reg)
	}

	fmt.Printf("Starting chamber SSH server on %s\n", server.Addr())
	fmt.Println("Connect with: ssh localhost -p 23234")
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Serve(ctx); err != nil {
		fail("server: %v", err)
	}
}

// serveMetrics exposes reg over HTTP until ctx is cancelled.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler(reg))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck // best effort on exit
	}()

	logger.Info("serving metrics", "address", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server", "error", err)
	}
}
