package service

import (
	"context"
	"time"

	"signal_relay/internal/models"
	"signal_relay/internal/modules/config"
	"signal_relay/internal/signal"
	"signal_relay/pkg/logger"

	"github.com/opentracing/opentracing-go"
)

type ActionKind int

const (
	ActionIgnore ActionKind = iota
	ActionForward
	ActionCreateOrder
)

func (k ActionKind) String() string {
	switch k {
	case ActionForward:
		return "forward"
	case ActionCreateOrder:
		return "create_order"
	}
	return "ignore"
}

// Action — решение по одному сообщению. Signal заполнен для всего,
// кроме ActionIgnore.
type Action struct {
	Kind   ActionKind
	Signal models.NormalizedSignal
}

// PageFetcher достаёт текст страницы сигнала по ссылке.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

// Dispatcher решает судьбу входящего сообщения: игнорировать, переслать
// в целевой чат или ещё и завести ордер. Сам он ничего не пересылает и
// не торгует, только классифицирует.
type Dispatcher struct {
	forwardChats    map[int64]bool
	tradeChats      map[int64]bool
	fetcher         PageFetcher
	dedup           *deduper
	defaultLeverage int
	tradingEnabled  bool
	scrapeTimeout   time.Duration
}

func NewDispatcher(cfg *config.Config, fetcher PageFetcher) *Dispatcher {
	d := &Dispatcher{
		forwardChats:    make(map[int64]bool),
		tradeChats:      make(map[int64]bool),
		fetcher:         fetcher,
		dedup:           newDeduper(cfg.DedupWindow),
		defaultLeverage: cfg.DefaultLeverage,
		tradingEnabled:  cfg.TradingEnabled,
		scrapeTimeout:   cfg.ScrapeTimeout,
	}
	// чаты храним в канонической форме, сравнение дальше тривиальное
	for _, id := range cfg.ForwardChatIDs {
		d.forwardChats[CanonicalChatID(id)] = true
	}
	for _, id := range cfg.TradeChatIDs {
		d.tradeChats[CanonicalChatID(id)] = true
	}
	return d
}

// Route — один вход для всех сообщений из всех чатов.
func (d *Dispatcher) Route(ctx context.Context, raw models.RawMessage) Action {
	span, ctx := opentracing.StartSpanFromContext(ctx, "dispatcher.Route")
	defer span.Finish()

	cid := CanonicalChatID(raw.ChatID)
	isTrade := d.tradeChats[cid]
	if !isTrade && !d.forwardChats[cid] {
		return Action{Kind: ActionIgnore}
	}

	// для trade-чатов подтягиваем страницу сигнала: в сообщении часто
	// только ссылка, полный сигнал лежит на сайте
	var page string
	if isTrade && d.fetcher != nil {
		if url := signal.SiteURL(raw, time.Now().UTC()); url != "" {
			fctx, cancel := context.WithTimeout(ctx, d.scrapeTimeout)
			p, err := d.fetcher.FetchPage(fctx, url)
			cancel()
			if err != nil {
				logger.Warn("chat %d: fetch %s: %v", raw.ChatID, url, err)
			} else {
				page = p
			}
		}
	}

	cand := signal.Extract(raw, page)
	if cand == nil {
		return Action{Kind: ActionIgnore}
	}

	n := signal.Normalize(*cand, d.defaultLeverage)
	if d.dedup.Seen(n) {
		logger.Info("duplicate signal %s %s dropped", n.Direction, n.Pair())
		return Action{Kind: ActionIgnore}
	}

	if isTrade {
		if !d.tradingEnabled {
			logger.Warn("trading disabled, downgrading %s %s to forward-only", n.Direction, n.Pair())
			return Action{Kind: ActionForward, Signal: n}
		}
		return Action{Kind: ActionCreateOrder, Signal: n}
	}
	return Action{Kind: ActionForward, Signal: n}
}
