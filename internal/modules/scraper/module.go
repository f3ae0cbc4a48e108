package scraper

import (
	"signal_relay/internal/modules/scraper/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("scraper",
		fx.Provide(service.NewScraper),
	)
}
