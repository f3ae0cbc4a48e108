package orders

import (
	"context"

	"signal_relay/internal/modules/config"
	"signal_relay/internal/modules/orders/service"
	"signal_relay/pkg/db"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("orders",
		fx.Provide(
			func(m *db.PgTxManager) *service.PgStore {
				return service.NewPgStore(m)
			},
			func(s *service.PgStore) service.Store {
				return s
			},
			func(cfg *config.Config, store service.Store, gw service.ExchangeGateway) *service.Machine {
				return service.NewMachine(store, gw, service.Options{
					Quantity:       cfg.OrderQuantity,
					MaxAttempts:    cfg.RetryMaxAttempts,
					InitialBackoff: cfg.RetryInitialBackoff,
				})
			},
		),
		// схема до того, как кто-либо начнёт писать ордера
		fx.Invoke(
			func(lc fx.Lifecycle, s *service.PgStore) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return s.EnsureSchema(ctx)
					},
				})
			},
		),
	)
}
