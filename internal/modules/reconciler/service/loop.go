package service

import (
	"context"
	"time"

	"signal_relay/internal/models"
	ordersvc "signal_relay/internal/modules/orders/service"
	"signal_relay/pkg/logger"

	"github.com/pkg/errors"
)

// Store — что реконсиляции нужно от хранилища ордеров.
type Store interface {
	ListOpen(ctx context.Context) ([]*models.Order, error)
	GetByExchangeID(ctx context.Context, exchangeOrderID string) (*models.Order, error)
}

// Applier накладывает биржевой факт на локальное состояние ордера.
type Applier interface {
	ApplyExchangeStatus(ctx context.Context, o *models.Order, report models.ExchangeOrderReport) error
}

// StatusSource — опрос биржи по биржевому идентификатору ордера.
type StatusSource interface {
	QueryOrderStatus(ctx context.Context, exchangeOrderID, symbol string) (models.ExchangeOrderReport, error)
}

// UpdateStream — необязательный push-канал тех же фактов между опросами.
type UpdateStream interface {
	StreamOrderUpdates(ctx context.Context) <-chan models.ExchangeOrderReport
}

// Loop сверяет нетерминальные ордера с биржей по таймеру. Биржевая правда
// двигает статус вперёд; откатов назад не бывает (их отбрасывает стейт-машина).
type Loop struct {
	store        Store
	source       StatusSource
	applier      Applier
	interval     time.Duration
	queryTimeout time.Duration
}

func NewLoop(store Store, source StatusSource, applier Applier, interval, queryTimeout time.Duration) *Loop {
	return &Loop{
		store:        store,
		source:       source,
		applier:      applier,
		interval:     interval,
		queryTimeout: queryTimeout,
	}
}

func (l *Loop) Run(ctx context.Context) {
	logger.Info("reconciliation loop started, interval %s", l.interval)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("reconciliation loop stopped")
			return
		case <-ticker.C:
			l.RunCycle(ctx)
		}
	}
}

// RunCycle — один проход. Ошибка по одному ордеру никогда не прерывает
// сверку остальных: ордер остаётся как есть до следующего цикла.
func (l *Loop) RunCycle(ctx context.Context) {
	open, err := l.store.ListOpen(ctx)
	if err != nil {
		logger.Error("reconcile: list open orders: %v", err)
		return
	}

	for _, o := range open {
		if err := l.reconcileOne(ctx, o); err != nil {
			var ierr *ordersvc.InconsistentStateError
			if errors.As(err, &ierr) {
				logger.Warn("reconcile: %v", ierr)
				continue
			}
			// транзиентная ошибка запроса: ордер не трогаем, доберём в
			// следующем цикле
			logger.Warn("reconcile order %s: %v", o.ID, err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (l *Loop) reconcileOne(ctx context.Context, o *models.Order) error {
	// индивидуальный таймаут: один тормозящий ордер не стопорит цикл
	qctx, cancel := context.WithTimeout(ctx, l.queryTimeout)
	defer cancel()

	report, err := l.source.QueryOrderStatus(qctx, o.ExchangeOrderID, o.Symbol)
	if err != nil {
		return errors.Wrap(err, "query exchange")
	}
	return l.applier.ApplyExchangeStatus(ctx, o, report)
}

// ConsumeUpdates гонит push-отчёты через тот же ApplyExchangeStatus-путь.
func (l *Loop) ConsumeUpdates(ctx context.Context, updates <-chan models.ExchangeOrderReport) {
	for {
		select {
		case <-ctx.Done():
			return
		case report, ok := <-updates:
			if !ok {
				return
			}
			o, err := l.store.GetByExchangeID(ctx, report.ExchangeOrderID)
			if err != nil {
				logger.Warn("ws update for unknown order %s: %v", report.ExchangeOrderID, err)
				continue
			}
			if o.Status.Terminal() {
				continue
			}
			if err := l.applier.ApplyExchangeStatus(ctx, o, report); err != nil {
				logger.Warn("ws update order %s: %v", o.ID, err)
			}
		}
	}
}
