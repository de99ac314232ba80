package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/sourcegraph/conc/pool"

	"github.com/riskibarqy/team-schedule/internal/config"
	"github.com/riskibarqy/team-schedule/internal/infrastructure/calendarfeed"
	"github.com/riskibarqy/team-schedule/internal/interfaces/httpapi"
	"github.com/riskibarqy/team-schedule/internal/interfaces/realtime"
	idgen "github.com/riskibarqy/team-schedule/internal/platform/id"
	"github.com/riskibarqy/team-schedule/internal/platform/logging"
	"github.com/riskibarqy/team-schedule/internal/platform/resilience"
	"github.com/riskibarqy/team-schedule/internal/usecase"
)

const defaultShutdownTimeout = 10 * time.Second

// Runtime owns the HTTP server and every long-lived resource behind it.
type Runtime struct {
	Server *http.Server

	logger          *logging.Logger
	sessions        *realtime.ConnectionManager
	relay           *realtime.NATSRelay
	db              *sqlx.DB
	shutdownTimeout time.Duration
}

func NewRuntime(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	clock := clockwork.NewRealClock()
	rt := &Runtime{logger: logger, shutdownTimeout: defaultShutdownTimeout}

	repo, db, err := openTeamRepository(ctx, cfg, clock, logger)
	if err != nil {
		return nil, err
	}
	rt.db = db

	rt.sessions = realtime.NewConnectionManager(realtime.ConnectionConfig{
		WriteTimeout:    cfg.WSWriteTimeout,
		ReadTimeout:     cfg.WSReadTimeout,
		PingInterval:    cfg.WSPingInterval,
		MaxMessageBytes: cfg.WSMaxMessageBytes,
		SendBuffer:      cfg.WSSendBuffer,
		CheckOrigin:     httpapi.CheckOrigin(cfg.CORSAllowedOrigins),
		Clock:           clock,
	}, logger)

	if cfg.NATSEnabled {
		if err := rt.startRelay(cfg); err != nil {
			rt.closeResources()
			return nil, err
		}
	}

	feeds := calendarfeed.NewClient(calendarfeed.ClientConfig{
		Timeout:  cfg.CalendarFetchTimeout,
		MaxBytes: cfg.CalendarFetchMaxBytes,
		Workers:  cfg.CalendarFetchWorkers,
		Logger:   logger,
		Clock:    clock,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.CalendarCircuitEnabled,
			FailureThreshold: cfg.CalendarCircuitFailureCount,
			OpenTimeout:      cfg.CalendarCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.CalendarCircuitHalfOpenMaxReq,
		},
	})

	mutator := usecase.NewTeamMutator(repo, rt.sessions, logger, usecase.WithClock(clock))
	teamSvc := usecase.NewTeamService(mutator, idgen.NewTeamIDs(nil))
	predictionSvc := usecase.NewPredictionService(mutator)
	calendarSvc := usecase.NewCalendarService(mutator, feeds)

	handler := httpapi.NewHandler(teamSvc, predictionSvc, calendarSvc, logger)
	sessions := realtime.NewSessions(rt.sessions, teamSvc, predictionSvc, calendarSvc, logger)
	router := httpapi.NewRouter(handler, sessions, logger, cfg.CORSAllowedOrigins)

	rt.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("runtime ready",
		"store", cfg.StoreDriver,
		"cache_enabled", cfg.CacheEnabled,
		"nats_enabled", cfg.NATSEnabled,
	)
	return rt, nil
}

func (rt *Runtime) startRelay(cfg config.Config) error {
	nc, err := realtime.ConnectNATS(realtime.NATSConfig{
		URL:           cfg.NATSURL,
		SubjectPrefix: cfg.NATSSubjectPrefix,
	}, rt.logger)
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}

	relay := realtime.NewNATSRelay(nc, cfg.NATSSubjectPrefix, rt.sessions, rt.logger)
	if err := relay.Start(); err != nil {
		nc.Close()
		return fmt.Errorf("start nats relay: %w", err)
	}
	rt.relay = relay
	rt.sessions.SetRelay(relay)
	return nil
}

// Run serves HTTP until ctx is cancelled or the listener fails, then shuts
// everything down.
func (rt *Runtime) Run(ctx context.Context) error {
	p := pool.New().WithContext(ctx).WithCancelOnError()

	p.Go(func(context.Context) error {
		rt.logger.Info("http server starting", "addr", rt.Server.Addr)
		if err := rt.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	p.Go(func(ctx context.Context) error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rt.shutdownTimeout)
		defer cancel()
		return rt.Shutdown(shutdownCtx)
	})

	return p.Wait()
}

// Shutdown stops accepting requests, closes websocket sessions and releases
// the relay and database.
func (rt *Runtime) Shutdown(ctx context.Context) error {
	err := rt.Server.Shutdown(ctx)
	if err != nil {
		err = fmt.Errorf("shutdown http server: %w", err)
	}
	rt.closeResources()
	rt.logger.Info("http server stopped")
	return err
}

func (rt *Runtime) closeResources() {
	// Sessions first so the relay stops delivering into closed sockets.
	if rt.sessions != nil {
		rt.sessions.Close()
	}
	if rt.relay != nil {
		if err := rt.relay.Close(); err != nil {
			rt.logger.Warn("close nats relay failed", "error", err)
		}
	}
	if rt.db != nil {
		if err := rt.db.Close(); err != nil {
			rt.logger.Warn("close database failed", "error", err)
		}
	}
}
