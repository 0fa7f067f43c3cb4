package infrastructure

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Server is anything with a blocking Start and an idempotent Stop: the
// HTTP server, the Telegram handler and the bus workers all fit.
type Server interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type App struct {
	servers []Server
}

func NewApp(servers []Server) *App {
	return &App{servers: servers}
}

func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, srv := range a.servers {
		s := srv
		g.Go(func() error {
			return s.Start(ctx)
		})
	}

	<-ctx.Done()
	slog.Info("shutdown signal received, stopping servers...")

	for _, srv := range a.servers {
		_ = srv.Stop(context.Background())
	}

	return g.Wait()
}
