package service

import (
	"context"
	"sync"

	"signal_relay/internal/models"
	"signal_relay/internal/modules/config"
	dispsvc "signal_relay/internal/modules/dispatcher/service"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Router классифицирует входящее сообщение.
type Router interface {
	Route(ctx context.Context, raw models.RawMessage) dispsvc.Action
}

// OrderPlacer заводит и отправляет ордер по нормализованному сигналу.
type OrderPlacer interface {
	Create(ctx context.Context, sig models.NormalizedSignal) (*models.Order, error)
	SubmitWithRetry(ctx context.Context, o *models.Order) error
}

// Telegram — вход и выход ретранслятора: слушает мониторенные чаты,
// публикует переформатированные сигналы в целевой чат.
type Telegram struct {
	bot    *tgbot.BotAPI
	cfg    *config.Config
	router Router
	orders OrderPlacer
	wg     sync.WaitGroup
}

func NewTelegram(cfg *config.Config, router Router, orders OrderPlacer) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}

	return &Telegram{
		bot:    b,
		cfg:    cfg,
		router: router,
		orders: orders,
	}, nil
}

// Publish — отправка готового блока в целевой чат.
func (t *Telegram) Publish(_ context.Context, text string) (tgbot.Message, error) {
	return t.bot.Send(tgbot.NewMessage(t.cfg.Telegram.TargetChatID, text))
}

// Start крутит long-poll. Каждое сообщение обрабатывается в своей
// горутине: скрейп и ретраи ордера не должны тормозить очередь апдейтов.
func (t *Telegram) Start(ctx context.Context) {
	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for update := range updates {
			update := update
			t.wg.Add(1)
			go func() {
				defer t.wg.Done()
				t.handleUpdate(ctx, update)
			}()
		}
	}()
}

func (t *Telegram) Stop() {
	t.bot.StopReceivingUpdates()
	t.wg.Wait()
}
