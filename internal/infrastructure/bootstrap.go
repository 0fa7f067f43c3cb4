package infrastructure

import (
	"context"
	"log/slog"

	"renderbot/internal/catalog"
	"renderbot/internal/config"
	"renderbot/internal/imagegen"
	"renderbot/internal/payment"
	"renderbot/internal/repository"
	"renderbot/internal/service"
	transportHTTP "renderbot/internal/transport/http"
	"renderbot/internal/transport/inproc"
	transportNATS "renderbot/internal/transport/nats"
	"renderbot/internal/transport/telegram"
	"renderbot/internal/worker"
)

// Bootstrap initialises all dependencies from config and wires up the
// application. Missing credentials disable their subsystem instead of
// failing the whole process, so the status page and the webhook stay up.
// Returns the App, a cleanup function, or an error.
func Bootstrap(ctx context.Context) (*App, func(), error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, err
	}

	var cleanupFns []func()
	var servers []Server

	// 1. Bus: NATS when configured, in-process otherwise.
	var bus repository.MessageBus
	switch cfg.BusProvider {
	case "nats":
		nc, err := connectNats(cfg.NatsAddr())
		if err != nil {
			return nil, runCleanup(cleanupFns), err
		}
		bus = transportNATS.NewBus(nc)
		cleanupFns = append(cleanupFns, nc.Close)
	default:
		bus = inproc.NewBus()
	}

	// 2. Ledger: Postgres+Redis when configured, in-memory otherwise.
	var ledger service.Ledger
	var payments service.PaymentStore
	storeKind := "memory"

	if cfg.StoreEnabled() {
		db, err := connectPostgres(cfg.DSN())
		if err != nil {
			return nil, runCleanup(cleanupFns), err
		}
		rdb, err := connectRedis(cfg.RedisAddr())
		if err != nil {
			db.Close()
			return nil, runCleanup(cleanupFns), err
		}
		cleanupFns = append(cleanupFns, func() {
			db.Close()
			_ = rdb.Close()
		})

		repo := repository.NewLedgerRepo(rdb, db, bus)
		ledger = repo
		payments = repo
		servers = append(servers, worker.NewDebitSyncWorker(repo, bus))
		storeKind = "postgres"
	} else {
		slog.Warn("postgres/redis not configured, credits are held in memory only")
		mem := repository.NewMemoryLedger()
		ledger = mem
		payments = mem
	}

	// 3. Telegram gateway, optional.
	var gw *telegram.Gateway
	var msgr service.Messenger
	if cfg.BotEnabled() {
		gw, err = telegram.NewGateway(cfg.TelegramToken)
		if err != nil {
			return nil, runCleanup(cleanupFns), err
		}
		msgr = gw
	} else {
		slog.Warn("telegram token not configured, bot handlers are disabled")
	}

	// 4. Payments, optional.
	var checkout service.Checkout
	var verifier transportHTTP.Verifier
	if cfg.PaymentsEnabled() {
		pg := payment.NewGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.StripeSuccessURL, cfg.StripeCancelURL)
		checkout = pg
		verifier = pg
	} else {
		slog.Warn("stripe not configured, purchases are disabled")
	}

	// 5. Image vendor, optional.
	var gen service.Generator
	if cfg.VendorEnabled() {
		gen = imagegen.NewClient(cfg.XAIBaseURL, cfg.XAIAPIKey, cfg.XAIModel)
	} else {
		slog.Warn("xai key not configured, renders will be rejected")
	}

	// 6. Core services and workers.
	fulfillment := service.NewFulfillmentService(payments, msgr)
	servers = append(servers, worker.NewFulfillmentWorker(fulfillment, bus))

	if gw != nil {
		render := service.NewRenderService(ledger, gen, msgr)
		servers = append(servers, telegram.NewHandler(gw, ledger, catalog.New(), checkout, render))
	}

	// 7. HTTP: webhook + status page, always on.
	status := transportHTTP.Status{
		Store:    storeKind,
		Bot:      cfg.BotEnabled(),
		Payments: cfg.PaymentsEnabled(),
		Vendor:   cfg.VendorEnabled(),
	}
	httpHandler := transportHTTP.NewHandler(verifier, bus, status)
	servers = append(servers, transportHTTP.NewServer(cfg.HTTPAddr(), httpHandler))

	return NewApp(servers), runCleanup(cleanupFns), nil
}

// runCleanup returns a single function that calls all cleanup functions in reverse order.
func runCleanup(fns []func()) func() {
	return func() {
		for i := len(fns) - 1; i >= 0; i-- {
			fns[i]()
		}
	}
}
