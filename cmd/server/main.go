package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"h2ledger/internal/certification"
	"h2ledger/internal/credits"
	"h2ledger/internal/events"
	eventsconsumer "h2ledger/internal/events/consumer"
	eventspg "h2ledger/internal/events/postgres"
	"h2ledger/internal/ledger"
	"h2ledger/internal/minting"
	"h2ledger/internal/platform/config"
	"h2ledger/internal/platform/httpserver"
	"h2ledger/internal/platform/kafka"
	"h2ledger/internal/platform/logger"
	"h2ledger/internal/platform/postgres"
	redisplatform "h2ledger/internal/platform/redis"
	"h2ledger/internal/roles"
	httptransport "h2ledger/internal/transport/http"
	"h2ledger/pkg/domain"
)

const shutdownTimeout = 10 * time.Second

// main wires backends, services, and the HTTP router, then runs everything
// under one errgroup so a failing worker takes the process down cleanly.
// Backends are optional: with no Postgres/Redis/Kafka configured the ledger
// runs entirely in memory, which is the single-node development mode.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	rdb, err := redisplatform.New(cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// Stores. Postgres when configured, memory otherwise. With Postgres the
	// hash ledger stays on Postgres too: it joins the mint transaction, so an
	// aborted mint rolls the consume back. Redis backs the hash ledger only
	// for the memory deployment, where it shares the consumed set across
	// instances.
	var (
		tx         ledger.Tx
		roleStore  roles.Store
		credStore  credits.Store
		hashLedger credits.HashLedger
		eventStore events.Store
		outbox     events.Outbox
	)
	if db != nil {
		pgEvents := eventspg.New(db)
		pgRoles := roles.NewPostgresStore(db)
		pgCredits := credits.NewPostgresStore(db)
		pgHashes := credits.NewPostgresHashLedger(db)
		for _, ensure := range []func(context.Context) error{
			pgEvents.EnsureSchema, pgRoles.EnsureSchema, pgCredits.EnsureSchema,
		} {
			if err := ensure(ctx); err != nil {
				return err
			}
		}
		tx = ledger.NewPostgresTx(db)
		roleStore = pgRoles
		credStore = pgCredits
		hashLedger = pgHashes
		eventStore = pgEvents
		outbox = pgEvents
	} else {
		tx = ledger.NewMemoryTx()
		roleStore = roles.NewInMemoryStore()
		credStore = credits.NewInMemoryStore()
		hashLedger = credits.NewInMemoryHashLedger()
		eventStore = events.NewInMemoryStore()
	}
	if db == nil && rdb != nil {
		hashLedger = credits.NewRedisHashLedger(rdb.Client)
	}

	eventMetrics := events.NewMetrics()
	sink := events.NewPublisher(eventStore, log, eventMetrics)

	roleSvc := roles.NewService(roleStore, tx, sink, log, roles.NewMetrics())
	creditLedger := credits.NewLedger(credStore, hashLedger, tx, roleSvc, sink, log, credits.NewMetrics(), cfg.MintCeiling)
	verifier := certification.NewVerifier(roleSvc)
	minter := minting.NewOrchestrator(verifier, creditLedger, roleSvc, log, minting.NewMetrics())

	if cfg.Genesis != "" {
		genesis, err := domain.ParseAddress(cfg.Genesis)
		if err != nil {
			return err
		}
		if err := roleSvc.Bootstrap(ctx, genesis); err != nil {
			return err
		}
		log.Info("genesis main admin bootstrapped", "account", genesis.String())
	}

	router := httptransport.NewRouter(log,
		httptransport.NewRolesHandler(roleSvc, log),
		httptransport.NewCreditsHandler(minter, creditLedger, log),
		httptransport.NewAdminHandler(creditLedger, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting h2ledger", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// The event relay and mirror consumer only run with both Postgres (the
	// outbox) and Kafka configured.
	if outbox != nil && len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return err
		}
		defer producer.Close()

		relay := events.NewRelay(outbox, producer, cfg.Kafka.RelayInterval, log, eventMetrics)
		g.Go(func() error { return relay.Run(ctx) })

		consumer, err := kafka.NewConsumer(cfg.Kafka, log)
		if err != nil {
			return err
		}
		defer consumer.Close()

		mirrorStore := eventsconsumer.NewPostgresMirror(db)
		if err := mirrorStore.EnsureSchema(ctx); err != nil {
			return err
		}
		mirror := eventsconsumer.NewMirror(mirrorStore, log)
		g.Go(func() error { return consumer.Run(ctx, mirror) })
	}

	return g.Wait()
}
