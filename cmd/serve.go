package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kardianos/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"shinobi-relay/internal/armed"
	"shinobi-relay/internal/bot"
	"shinobi-relay/internal/config"
	"shinobi-relay/internal/metrics"
	"shinobi-relay/internal/relay"
	"shinobi-relay/internal/server"
	"shinobi-relay/internal/telegram"
	"shinobi-relay/internal/telemetry"
	"shinobi-relay/pkg/models"
)

const serviceName = "shinobi-relay"

var serviceAction string // "install", "uninstall", "start", "stop"

// --- SERVICE WRAPPER ---

// program implements the kardianos/service interface
type program struct {
	cfg    config.Config
	log    zerolog.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

func (p *program) Start(s service.Service) error {
	// Start should not block. Do the actual work async.
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go func() {
		defer close(p.done)
		if err := p.run(ctx); err != nil {
			// Exit so the service manager attempts a restart.
			p.log.Error().Err(err).Msg("relay service failed")
			os.Exit(1)
		}
	}()
	return nil
}

func (p *program) run(ctx context.Context) error {
	shutdownTracing, err := telemetry.InitTracing(ctx, serviceName, p.cfg.OTel.Endpoint)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			p.log.Error().Err(err).Msg("shutdown tracing")
		}
	}()

	// Long polls and sends get separate clients so each has its own timeout.
	pollAPI, err := telegram.NewBotAPI(p.cfg.Telegram.BotKey, p.cfg.Telegram.Timeout)
	if err != nil {
		return err
	}
	sendAPI, err := telegram.NewBotAPI(p.cfg.Telegram.BotKey, p.cfg.Telegram.SendTimeout)
	if err != nil {
		return err
	}
	p.log.Info().Str("bot", pollAPI.Self.UserName).Msg("connected to telegram")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	state := &armed.State{}
	sink := telegram.NewSink(sendAPI, p.log)
	pipeline := newPipeline(p.cfg, sink, p.log, metrics.New(registry, state))

	srv := server.New(pipeline, state, server.Options{
		TriggerPath: p.cfg.HTTP.TriggerPath,
		RateLimit:   p.cfg.HTTP.RateLimit,
		Destination: models.Destination(p.cfg.Telegram.ChatID),
		Gatherer:    registry,
	}, p.log)
	httpServer := server.NewHTTPServer(p.cfg.HTTP.ListenAddr, otelhttp.NewHandler(srv.Routes(), serviceName))

	listener := bot.NewListener(pollAPI, pipeline, sink, state, pollAPI.Self.UserName, p.cfg.Telegram.PollTimeout, p.log)

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		p.log.Info().Str("addr", p.cfg.HTTP.ListenAddr).Str("trigger", p.cfg.HTTP.TriggerPath).Msg("http listener started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := listener.Run(ctx); err != nil {
			errCh <- fmt.Errorf("telegram listener: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	p.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		p.log.Error().Err(err).Msg("server forced to shutdown")
	}
	p.cancel()
	wg.Wait()

	return runErr
}

func (p *program) Stop(s service.Service) error {
	p.log.Info().Msg("stopping service")
	if p.cancel != nil {
		p.cancel()
	}
	if p.done != nil {
		select {
		case <-p.done:
		case <-time.After(15 * time.Second):
			p.log.Warn().Msg("timed out waiting for relay service to stop")
		}
	}
	return nil
}

func newPipeline(cfg config.Config, sink relay.PhotoSink, logger zerolog.Logger, m *metrics.Metrics) *relay.Pipeline {
	return relay.New(newShinobiClient(cfg), sink, relay.Options{
		Group:       cfg.Shinobi.GroupKey,
		Concurrency: cfg.Relay.Concurrency,
		AllowEmpty:  cfg.Relay.AllowEmpty,
		CaptionGaps: cfg.Relay.CaptionGaps,
	}, logger, m)
}

// --- COMMAND ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook listener and Telegram bot",
	Long: `Starts the HTTP trigger endpoint Shinobi calls on motion events and the
Telegram bot that answers /photo, /arm, /disarm and /status.
Can be installed as a system service.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		// Missing secrets or endpoints are fatal before anything starts.
		if err := cfg.Validate(); err != nil {
			return err
		}

		svcConfig := &service.Config{
			Name:        serviceName,
			DisplayName: "Shinobi Telegram Relay",
			Description: "Relays Shinobi camera snapshots to Telegram",
			Arguments:   []string{"serve"},
		}
		if cfgFile != "" {
			abs, err := filepath.Abs(cfgFile)
			if err != nil {
				return err
			}
			svcConfig.Arguments = append(svcConfig.Arguments, "--config", abs)
		}

		prg := &program{cfg: cfg, log: logger}
		s, err := service.New(prg, svcConfig)
		if err != nil {
			return err
		}

		// Handle Service Control Actions (Install, Start, Stop, Uninstall)
		if serviceAction != "" {
			if err := service.Control(s, serviceAction); err != nil {
				return fmt.Errorf("failed to %s service: %w", serviceAction, err)
			}
			fmt.Printf("Service action '%s' completed successfully.\n", serviceAction)
			return nil
		}

		// Blocks until the service manager (or Ctrl-C when interactive) stops us.
		if err := s.Run(); err != nil {
			logger.Error().Err(err).Msg("service run")
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serviceAction, "service", "", "Service action: install, uninstall, start, stop")
}
