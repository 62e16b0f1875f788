package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/aaradio/internal/config"
	internalhttp "github.com/jmylchreest/aaradio/internal/http"
	"github.com/jmylchreest/aaradio/internal/http/handlers"
	"github.com/jmylchreest/aaradio/internal/scheduler"
	"github.com/jmylchreest/aaradio/internal/service"
	"github.com/jmylchreest/aaradio/internal/version"
	"github.com/jmylchreest/aaradio/pkg/audioaddict"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the aaradio server",
	Long: `Start the aaradio HTTP server and API.

The server provides:
- REST API for services, qualities, channels and stream URLs
- /listen/{service}/{key} redirects to a freshly resolved stream
- /playlist/{service}.m3u playlists routed through /listen
- Health check endpoints
- OpenAPI documentation at /docs`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("refresh-schedule", "", "cron expression (6 fields) for refreshing channel directories")
	serveCmd.Flags().String("public-url", "", "externally reachable base URL used in playlists")

	mustBindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	mustBindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	mustBindPFlag("server.refresh_schedule", serveCmd.Flags().Lookup("refresh-schedule"))
	mustBindPFlag("server.public_url", serveCmd.Flags().Lookup("public-url"))
}

// serveStack is everything serve runs.
type serveStack struct {
	server    *internalhttp.Server
	scheduler *scheduler.Scheduler
	radio     *service.RadioService
}

// newServeStack wires the transport, radio service, refresh jobs and HTTP
// handlers from configuration. extra options are applied after the defaults.
func newServeStack(cfg *config.Config, logger *slog.Logger, extra ...audioaddict.ClientOption) (*serveStack, error) {
	hc := newHTTPClient(cfg, logger)

	opts := append(clientOptions(cfg, hc, logger), extra...)
	radio, err := service.NewRadioService(cfg.AudioAddict, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating radio service: %w", err)
	}
	radio.WithLogger(logger)

	sched := scheduler.New().WithLogger(logger)
	if cfg.Server.RefreshSchedule != "" {
		for _, info := range radio.Services() {
			id := info.ID
			err := sched.Add("refresh-"+id, cfg.Server.RefreshSchedule, func(ctx context.Context) error {
				_, err := radio.Refresh(ctx, id)
				return err
			})
			if err != nil {
				return nil, fmt.Errorf("scheduling refresh for %s: %w", id, err)
			}
		}
	}

	server := internalhttp.NewServer(cfg.Server, logger, version.Version)

	handlers.NewHealthHandler(version.Version).
		WithUpstreamStats(hc).
		WithDirectories(radio).
		WithJobs(sched).
		Register(server.API())
	handlers.NewRadioHandler(radio).
		WithPublicURL(cfg.Server.PublicURL).
		Register(server.API())

	return &serveStack{server: server, scheduler: sched, radio: radio}, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := slog.Default()
	stack, err := newServeStack(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := stack.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer stack.scheduler.Stop()

	logger.Info("aaradio starting",
		slog.String("version", version.Short()),
		slog.String("address", cfg.Server.Address()),
		slog.String("default_quality", cfg.AudioAddict.StreamQuality),
		slog.String("refresh_schedule", cfg.Server.RefreshSchedule),
	)

	if err := stack.server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("running server: %w", err)
	}

	logger.Info("aaradio stopped")
	return nil
}
