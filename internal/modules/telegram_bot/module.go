package telegram

import (
	"context"

	dispsvc "signal_relay/internal/modules/dispatcher/service"
	ordersvc "signal_relay/internal/modules/orders/service"
	"signal_relay/internal/modules/telegram_bot/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			service.NewTelegram,

			// адаптеры под интерфейсы сервиса
			func(d *dispsvc.Dispatcher) service.Router {
				return d
			},
			func(m *ordersvc.Machine) service.OrderPlacer {
				return m
			},
		),
		// запуск long-poll через Lifecycle
		fx.Invoke(
			func(lc fx.Lifecycle, t *service.Telegram) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						t.Start(context.Background())
						return nil
					},
					OnStop: func(context.Context) error {
						t.Stop()
						return nil
					},
				})
			},
		),
	)
}
