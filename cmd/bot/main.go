package main

import (
	"context"
	"log"

	"signal_relay/internal/modules/config"
	"signal_relay/internal/modules/dispatcher"
	"signal_relay/internal/modules/exchange"
	"signal_relay/internal/modules/orders"
	"signal_relay/internal/modules/postgres"
	"signal_relay/internal/modules/reconciler"
	"signal_relay/internal/modules/scraper"
	telegram "signal_relay/internal/modules/telegram_bot"
	"signal_relay/pkg/logger"
	"signal_relay/pkg/tracing"

	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		postgres.Module(),
		orders.Module(),
		exchange.Module(),
		scraper.Module(),
		dispatcher.Module(),
		reconciler.Module(),
		telegram.Module(),

		fx.Invoke(
			func(lc fx.Lifecycle, cfg *config.Config) error {
				if cfg.Jaeger.Host == "" {
					return nil
				}
				_, closeTracer, err := tracing.InitTracer(tracing.Config{
					Host: cfg.Jaeger.Host,
					Port: cfg.Jaeger.Port,
				})
				if err != nil {
					logger.Warn("jaeger init failed, tracing disabled: %v", err)
					return nil
				}
				lc.Append(fx.Hook{
					OnStop: func(context.Context) error {
						closeTracer()
						return nil
					},
				})
				return nil
			},
		),
	)
	if err := app.Err(); err != nil {
		log.Fatal(err)
	}
	app.Run()
}
