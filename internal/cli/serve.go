package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/clauserisk/internal/logging"
	"github.com/ppiankov/clauserisk/internal/metrics"
	"github.com/ppiankov/clauserisk/internal/pipeline"
	"github.com/ppiankov/clauserisk/internal/server"
)

var (
	serveAddr  string
	serveFlags analysisFlags
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP analysis API",
	Long: `Serve exposes the analyzer over HTTP:
  POST /v1/analyze   {"text": "...", "source": "..."} -> report JSON
  GET  /healthz      liveness check
  GET  /metrics      Prometheus metrics

Example:
  clauserisk serve
  clauserisk serve --addr 127.0.0.1:9090 --audit`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	serveFlags.register(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd, &serveFlags)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	rec := metrics.NewPrometheusRecorder("clauserisk")
	p, closer, err := buildPipeline(cfg, logger, pipeline.WithRecorder(rec))
	if err != nil {
		return err
	}
	defer closer()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting server",
		logging.String("addr", cfg.Server.Addr),
		logging.Bool("semantic", p.SemanticEnabled()),
		logging.String("provider", p.SemanticProvider()),
		logging.Bool("audit", cfg.Audit.Enabled))
	fmt.Fprintf(os.Stderr, "clauserisk %s listening on %s\n", Version, cfg.Server.Addr)

	srv := server.New(cfg.Server, p, rec.Handler(), logger)
	return srv.Run(ctx)
}
