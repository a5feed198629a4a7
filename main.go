package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	orchestratorx "github.com/tanpawarit/salon-agent-gateway/agent/agents/orchestrator"
	breakerx "github.com/tanpawarit/salon-agent-gateway/agent/breaker"
	specialistx "github.com/tanpawarit/salon-agent-gateway/agent/agents/specialist"
	contractx "github.com/tanpawarit/salon-agent-gateway/agent/contract"
	eventsx "github.com/tanpawarit/salon-agent-gateway/agent/events"
	idempotencyx "github.com/tanpawarit/salon-agent-gateway/agent/idempotency"
	journalx "github.com/tanpawarit/salon-agent-gateway/agent/journal"
	registryx "github.com/tanpawarit/salon-agent-gateway/agent/registry"
	apix "github.com/tanpawarit/salon-agent-gateway/api"
	configx "github.com/tanpawarit/salon-agent-gateway/pkg/config"
	_ "github.com/tanpawarit/salon-agent-gateway/pkg/logger/autoload"
	qstashx "github.com/tanpawarit/salon-agent-gateway/pkg/qstash"
)

type AppConfig struct {
	Port                int           `envconfig:"PORT" default:"3000"`
	FirestoreDatabaseID string        `envconfig:"FIRESTORE_DATABASE_ID" default:"salon-database"`
	TenantID            string        `envconfig:"TENANT_ID" default:"default-tenant"`
	DuplicatePolicy     string        `envconfig:"REGISTRY_DUPLICATE_POLICY" default:"replace"`
	GinMode             string        `envconfig:"GIN_MODE" default:"release"`
	ShutdownTimeout     time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("salon agent gateway stopped")
	}
}

func run() error {
	appCfg := configx.MustNew[AppConfig]("")
	gin.SetMode(appCfg.GinMode)

	policy, err := registryx.ParseDuplicatePolicy(appCfg.DuplicatePolicy)
	if err != nil {
		return err
	}
	registry := registryx.New(policy)
	if err := specialistx.RegisterAll(registry); err != nil {
		return fmt.Errorf("register agents: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := apix.Options{Agents: registry}
	var recorders []contractx.DispatchRecorder
	breakerCfg := configx.MustNew[breakerx.Config]("BREAKER")
	guard := func(name string, rec contractx.DispatchRecorder) error {
		guarded, err := breakerx.Wrap(name, rec, *breakerCfg)
		if err != nil {
			return err
		}
		recorders = append(recorders, guarded)
		return nil
	}

	journalCfg := configx.MustNew[journalx.Config]("JOURNAL")
	if journalCfg.Enabled() {
		journal, err := journalx.Open(*journalCfg)
		if err != nil {
			return err
		}
		defer journal.Close()
		if journalCfg.CreateSchema {
			if err := journal.CreateSchema(ctx); err != nil {
				return err
			}
		}
		if err := guard("journal", journal); err != nil {
			return err
		}
		opts.Journal = journal
	}

	qstashCfg := configx.MustNew[qstashx.Config]("QSTASH")
	if qstashCfg.Enabled() {
		publisher, err := eventsx.NewPublisher(qstashx.MustNew(*qstashCfg), appCfg.TenantID)
		if err != nil {
			return err
		}
		if err := guard("events", publisher); err != nil {
			return err
		}
	}

	upstashCfg := configx.MustNew[idempotencyx.UpstashRedisConfig]("UPSTASH_REDIS")
	if upstashCfg.Enabled() {
		store, err := idempotencyx.NewUpstashRedisStore(*upstashCfg)
		if err != nil {
			return err
		}
		opts.Idempotency = store
	} else {
		opts.Idempotency = idempotencyx.NewMemoryStore(upstashCfg.TTL)
	}

	orchestrator, err := orchestratorx.New(registry, recorders...)
	if err != nil {
		return err
	}
	opts.Dispatcher = orchestrator

	router, err := apix.NewRouter(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", appCfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Int("port", appCfg.Port).
			Str("firestore_database_id", appCfg.FirestoreDatabaseID).
			Strs("agents", registry.Names()).
			Bool("journal", journalCfg.Enabled()).
			Bool("events", qstashCfg.Enabled()).
			Msgf("AI Agents server running on port %d", appCfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
