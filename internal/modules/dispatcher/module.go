package dispatcher

import (
	"signal_relay/internal/modules/config"
	"signal_relay/internal/modules/dispatcher/service"
	scrapersvc "signal_relay/internal/modules/scraper/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("dispatcher",
		fx.Provide(
			func(cfg *config.Config, sc *scrapersvc.Scraper) *service.Dispatcher {
				return service.NewDispatcher(cfg, sc)
			},
		),
	)
}
