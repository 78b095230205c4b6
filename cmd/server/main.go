package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/BioHazard786/chessrelay/internal/config"
	"github.com/BioHazard786/chessrelay/internal/events"
	"github.com/BioHazard786/chessrelay/internal/lobby"
	"github.com/BioHazard786/chessrelay/internal/logging"
	"github.com/BioHazard786/chessrelay/internal/server"
	"github.com/BioHazard786/chessrelay/internal/version"
)

const shutdownTimeout = 30 * time.Second

var opts config.ServerOptions

var rootCmd = &cobra.Command{
	Use:           "chessrelay-server",
	Short:         "Chess matchmaking and move relay server",
	Long:          `chessrelay-server pairs incoming websocket connections two per room, assigns white and black, and relays moves between the two players of a room.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadServer(opts)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return run(cmd.Context(), cfg)
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&opts.ConfigFile, "config", "c", "", "Path to a YAML config file")
	f.StringVarP(&opts.Addr, "addr", "a", "", "Listen address (default \":3001\")")
	f.StringVar(&opts.AllowedOrigins, "allowed-origins", "", "Comma separated websocket origins, * for any (default \"*\")")
	f.StringVar(&opts.Cleanup, "cleanup", "", "Disconnect policy: grace or immediate (default \"grace\")")
	f.StringVar(&opts.NATSURL, "nats-url", "", "Publish room events to this NATS server")
	f.StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info, warn, error (default \"info\")")
	f.StringVar(&opts.LogFormat, "log-format", "", "Log format: text or json (default \"text\")")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "chessrelay-server: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Server) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := logging.New(os.Stderr, logging.ParseLevel(cfg.LogLevel, slog.LevelInfo), cfg.LogFormat)
	slog.SetDefault(logger)

	var sink lobby.EventSink = events.Nop{}
	if cfg.NATSURL != "" {
		nc, err := events.NewNATS(events.NATSOptions{
			URL:           cfg.NATSURL,
			SubjectPrefix: cfg.NATSSubjectPrefix,
			Logger:        logger,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := nc.Close(); err != nil {
				logger.Warn("close event sink", "error", err)
			}
		}()
		sink = nc
		logger.Info("publishing room events", "nats_url", cfg.NATSURL)
	}

	hub := lobby.NewHub(lobby.Options{
		Policy: cfg.Cleanup,
		Events: sink,
		Logger: logger.With("component", "hub"),
	})

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: server.NewRouter(server.Options{
			Hub:            hub,
			AllowedOrigins: cfg.AllowedOrigins,
			Logger:         logger.With("component", "http"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("starting server",
			"addr", cfg.Addr,
			"cleanup", cfg.Cleanup,
			"version", version.Version)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			srv.Close()
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
