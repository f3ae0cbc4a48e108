package service

import (
	"context"

	"signal_relay/internal/models"
	dispsvc "signal_relay/internal/modules/dispatcher/service"
	"signal_relay/internal/signal"
	"signal_relay/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (t *Telegram) handleUpdate(ctx context.Context, update tgbot.Update) {
	// сигнальные каналы приходят как ChannelPost, группы как Message
	msg := update.Message
	if msg == nil {
		msg = update.ChannelPost
	}
	if msg == nil || (msg.Text == "" && msg.Caption == "") {
		return
	}

	raw := toRawMessage(msg)
	action := t.router.Route(ctx, raw)

	switch action.Kind {
	case dispsvc.ActionForward:
		t.forward(ctx, action.Signal)

	case dispsvc.ActionCreateOrder:
		// сигнал публикуем в любом случае, ордер поверх
		t.forward(ctx, action.Signal)
		t.placeOrder(ctx, action.Signal)
	}
}

// toRawMessage переносит текст и entity-ссылки, больше ничего не нужно.
// Для фото с подписью текстом служит caption.
func toRawMessage(msg *tgbot.Message) models.RawMessage {
	text, entities := msg.Text, msg.Entities
	if text == "" {
		text, entities = msg.Caption, msg.CaptionEntities
	}

	raw := models.RawMessage{
		Text:      text,
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
	}
	for _, e := range entities {
		if e.URL == "" {
			continue
		}
		raw.Entities = append(raw.Entities, models.MessageEntity{
			Offset: e.Offset,
			Length: e.Length,
			URL:    e.URL,
		})
	}
	return raw
}

func (t *Telegram) forward(ctx context.Context, s models.NormalizedSignal) {
	if _, err := t.Publish(ctx, signal.Render(s)); err != nil {
		logger.Error("publish %s %s: %v", s.Direction, s.Pair(), err)
		return
	}
	logger.Info("published %s %s to %d", s.Direction, s.Pair(), t.cfg.Telegram.TargetChatID)
}

func (t *Telegram) placeOrder(ctx context.Context, s models.NormalizedSignal) {
	o, err := t.orders.Create(ctx, s)
	if err != nil {
		logger.Error("create order for %s %s: %v", s.Direction, s.Pair(), err)
		return
	}
	if err := t.orders.SubmitWithRetry(ctx, o); err != nil {
		logger.Error("submit order %s: %v", o.ID, err)
	}
}
