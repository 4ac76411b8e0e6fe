package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/alfredjeanlab/secretary/internal/clock"
	"github.com/alfredjeanlab/secretary/internal/config"
	"github.com/alfredjeanlab/secretary/internal/events"
	"github.com/alfredjeanlab/secretary/internal/gate"
	"github.com/alfredjeanlab/secretary/internal/identity"
	"github.com/alfredjeanlab/secretary/internal/model"
	"github.com/alfredjeanlab/secretary/internal/responder"
	"github.com/alfredjeanlab/secretary/internal/server"
	secsync "github.com/alfredjeanlab/secretary/internal/sync"
	"github.com/alfredjeanlab/secretary/internal/transport"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Run the responder, gate, and admin API",
	GroupID: "system",
	// Override PersistentPreRunE so we don't build an API client.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}
	}()

	clk := clock.Real()
	identities := identity.NewResolver(identity.StaticContacts(cfg.Contacts), st, clk, logger)
	if err := identities.Load(ctx); err != nil {
		logger.Warn("loading identity profiles failed, starting empty", "err", err)
	}

	nc, err := events.Connect(cfg.NATSURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats: disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats: reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return err
	}
	defer nc.Close()

	var publisher events.Publisher = &events.NoopPublisher{}
	if cfg.EventsEnabled {
		publisher = events.NewNATSPublisherConn(nc)
		logger.Info("events enabled", "nats_url", cfg.NATSURL)
	} else {
		logger.Info("events disabled (SECRETARY_EVENTS=false)")
	}
	broadcaster := server.NewBroadcaster(publisher)

	sender := transport.NewNATSSender(nc, cfg.OutboundSubject)
	controller, err := gate.New(gate.Config{
		ApproverID:      cfg.ApproverID,
		Timeout:         cfg.PendingTimeout,
		SessionDuration: cfg.SessionDuration,
		MaxPending:      cfg.MaxPending,
	}, gate.Deps{
		Clock:      clk,
		Identities: identities,
		Notifier:   sender,
		Events:     broadcaster,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	replier, err := responder.NewTemplateReplier(cfg.ReplyTemplate, cfg.Replies)
	if err != nil {
		return err
	}
	pipeline := responder.New(controller, identities, responder.AllowAll{}, replier, sender, logger)
	pipeline.OnOutcome = func(msg model.Message, outcome responder.Outcome, verdict model.Verdict) {
		logger.Debug("message handled", "sender", msg.SenderID, "outcome", outcome, "verdict", verdict)
	}

	listenCtx, stopListening := context.WithCancel(ctx)
	listener := transport.NewListener(events.NewNATSSubscriberConn(nc), cfg.InboundSubject, logger)
	listenDone := make(chan error, 1)
	go func() { listenDone <- listener.Run(listenCtx, pipeline.Handle) }()

	// Event streams hold requests open; cancel their base context on
	// shutdown so Shutdown does not wait them out.
	requestCtx, cancelRequests := context.WithCancel(context.Background())
	defer cancelRequests()
	api := server.New(controller, identities, broadcaster, logger)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewHTTPHandler(cfg.AuthToken),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return requestCtx },
	}
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "err", err)
		}
	}()

	var scheduler *secsync.Scheduler
	if cfg.SyncInterval > 0 {
		dests, err := buildDestinations(ctx, cfg, logger)
		if err != nil {
			logger.Error("sync destination setup failed", "err", err)
		}
		if len(dests) > 0 {
			scheduler = secsync.NewScheduler(st, dests, cfg.SyncInterval, logger)
			scheduler.Start()
			logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
		}
	}

	logger.Info("secretary started",
		"approver", cfg.ApproverID,
		"inbound", cfg.InboundSubject,
		"outbound", cfg.OutboundSubject,
		"pending_timeout", cfg.PendingTimeout,
		"session_duration", cfg.SessionDuration,
	)

	select {
	case <-ctx.Done():
		logger.Info("received signal, shutting down")
	case err := <-listenDone:
		if err != nil {
			logger.Error("inbound listener stopped", "err", err)
		} else {
			logger.Info("inbound subscription closed, shutting down")
		}
	}

	// Stop intake first, then release anyone still waiting on the approver.
	stopListening()
	if err := controller.Close(); err != nil {
		logger.Error("error closing gate", "err", err)
	}
	pipeline.Wait()

	if scheduler != nil {
		scheduler.Stop()
		logger.Info("sync scheduler stopped")
	}

	cancelRequests()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "err", err)
	}
	logger.Info("HTTP server stopped")

	if err := broadcaster.Close(); err != nil {
		logger.Error("error closing publisher", "err", err)
	}
	if err := nc.Drain(); err != nil {
		logger.Warn("nats drain failed", "err", err)
	}

	logger.Info("shutdown complete")
	return nil
}
