package reconciler

import (
	"context"

	"signal_relay/internal/modules/config"
	exchangesvc "signal_relay/internal/modules/exchange/service"
	ordersvc "signal_relay/internal/modules/orders/service"
	"signal_relay/internal/modules/reconciler/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("reconciler",
		fx.Provide(
			func(cfg *config.Config, store *ordersvc.PgStore, ex *exchangesvc.Client, m *ordersvc.Machine) *service.Loop {
				return service.NewLoop(store, ex, m, cfg.ReconcileInterval, cfg.QueryTimeout)
			},
		),
		fx.Invoke(
			func(lc fx.Lifecycle, loop *service.Loop, ex *exchangesvc.Client) {
				ctx, cancel := context.WithCancel(context.Background())
				lc.Append(fx.Hook{
					OnStart: func(context.Context) error {
						go loop.Run(ctx)
						go loop.ConsumeUpdates(ctx, ex.StreamOrderUpdates(ctx))
						return nil
					},
					OnStop: func(context.Context) error {
						cancel()
						return nil
					},
				})
			},
		),
	)
}
