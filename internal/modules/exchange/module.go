package exchange

import (
	"signal_relay/internal/modules/exchange/service"
	orders "signal_relay/internal/modules/orders/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("exchange",
		fx.Provide(
			service.NewClient,

			// адаптер: *service.Client -> orders.ExchangeGateway
			func(c *service.Client) orders.ExchangeGateway {
				return c
			},
		),
	)
}
