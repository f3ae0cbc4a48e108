package service

import (
	"context"
	"strings"
	"time"

	"signal_relay/internal/models"
	"signal_relay/pkg/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Store — что стейт-машине нужно от хранилища.
type Store interface {
	Insert(ctx context.Context, o *models.Order) error
	Update(ctx context.Context, o *models.Order, fromStatus models.OrderStatus) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	ListOpen(ctx context.Context) ([]*models.Order, error)
}

// ExchangeGateway — исполнитель ордеров. Поставляет факты, ордер не мутирует.
type ExchangeGateway interface {
	SubmitOrder(ctx context.Context, symbol string, direction models.Direction, qty decimal.Decimal) (string, error)
}

type Options struct {
	Quantity       decimal.Decimal
	MaxAttempts    int
	InitialBackoff time.Duration
}

// Machine владеет жизненным циклом ордера:
// PENDING -> SUBMITTED -> {FILLED, PARTIALLY_FILLED, CANCELLED, REJECTED},
// SUBMITTED -> FAILED после исчерпания ретраев.
type Machine struct {
	store Store
	gw    ExchangeGateway
	opts  Options
	locks *keyedMutex
}

func NewMachine(store Store, gw ExchangeGateway, opts Options) *Machine {
	return &Machine{
		store: store,
		gw:    gw,
		opts:  opts,
		locks: newKeyedMutex(),
	}
}

// Create заводит ордер в PENDING. Количество берётся из конфига, не из
// сигнала. Дедупликацию по сигналу делает диспетчер до вызова Create.
func (m *Machine) Create(ctx context.Context, sig models.NormalizedSignal) (*models.Order, error) {
	now := time.Now().UTC()
	o := &models.Order{
		ID:             uuid.NewString(),
		Symbol:         sig.Ticker(),
		Direction:      sig.Direction,
		Quantity:       m.opts.Quantity,
		FilledQuantity: decimal.Zero,
		Status:         models.OrderStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := m.store.Insert(ctx, o); err != nil {
		return nil, err
	}
	logger.Info("order %s created: %s %s qty=%s", o.ID, o.Direction, o.Symbol, o.Quantity)
	return o, nil
}

// Submit — одна попытка PENDING -> SUBMITTED. При отказе биржи состояние
// остаётся PENDING, retry_count растёт, возвращается *SubmissionError.
func (m *Machine) Submit(ctx context.Context, o *models.Order) error {
	l := m.locks.lockFor(o.ID)
	l.Lock()
	defer l.Unlock()

	if o.Status != models.OrderStatusPending {
		return errors.Errorf("submit order %s: unexpected status %s", o.ID, o.Status)
	}

	exchangeID, err := m.gw.SubmitOrder(ctx, o.Symbol, o.Direction, o.Quantity)
	if err != nil {
		o.RetryCount++
		o.LastError = err.Error()
		o.UpdatedAt = time.Now().UTC()
		if uerr := m.store.Update(ctx, o, models.OrderStatusPending); uerr != nil {
			logger.Error("order %s: persist failed attempt: %v", o.ID, uerr)
		}
		return &SubmissionError{OrderID: o.ID, Err: err}
	}

	o.Status = models.OrderStatusSubmitted
	o.ExchangeOrderID = exchangeID
	o.LastError = ""
	o.UpdatedAt = time.Now().UTC()
	if err := m.store.Update(ctx, o, models.OrderStatusPending); err != nil {
		return err
	}
	logger.Info("order %s submitted, exchange id %s", o.ID, exchangeID)
	return nil
}

// SubmitWithRetry гоняет Submit по экспоненциальному расписанию с явным
// счётчиком попыток. Исчерпали лимит — ордер уходит в FAILED, молча
// висящего PENDING не бывает.
func (m *Machine) SubmitWithRetry(ctx context.Context, o *models.Order) error {
	bo := backoff.NewExponentialBackOff()
	if m.opts.InitialBackoff > 0 {
		bo.InitialInterval = m.opts.InitialBackoff
	}

	for attempt := 1; ; attempt++ {
		err := m.Submit(ctx, o)
		if err == nil {
			return nil
		}
		var serr *SubmissionError
		if !errors.As(err, &serr) {
			return err
		}

		logger.Warn("order %s: submit attempt %d/%d failed: %v",
			o.ID, attempt, m.opts.MaxAttempts, err)

		if attempt >= m.opts.MaxAttempts {
			return m.fail(ctx, o, err)
		}

		timer := time.NewTimer(bo.NextBackOff())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (m *Machine) fail(ctx context.Context, o *models.Order, cause error) error {
	l := m.locks.lockFor(o.ID)
	l.Lock()
	defer l.Unlock()

	o.Status = models.OrderStatusFailed
	o.LastError = cause.Error()
	o.UpdatedAt = time.Now().UTC()
	if err := m.store.Update(ctx, o, models.OrderStatusPending); err != nil {
		return err
	}
	logger.Error("order %s moved to FAILED after %d attempts: %v", o.ID, o.RetryCount, cause)
	return cause
}

// ApplyExchangeStatus накладывает отчёт биржи на локальный статус.
// Повторный отчёт о текущем статусе — no-op: реконсиляция зовёт это
// регулярно. Откат назад — *InconsistentStateError, состояние не трогаем.
func (m *Machine) ApplyExchangeStatus(ctx context.Context, o *models.Order, report models.ExchangeOrderReport) error {
	l := m.locks.lockFor(o.ID)
	l.Lock()
	defer l.Unlock()

	reported, ok := mapExchangeStatus(report.Status)
	if !ok {
		return errors.Errorf("order %s: unknown exchange status %q", o.ID, report.Status)
	}

	if reported == o.Status {
		// подтверждение текущего состояния; обновим только исполненный объём
		if !report.ExecutedQty.IsZero() && !report.ExecutedQty.Equal(o.FilledQuantity) {
			prev := o.Status
			o.FilledQuantity = report.ExecutedQty
			o.UpdatedAt = time.Now().UTC()
			return m.store.Update(ctx, o, prev)
		}
		return nil
	}

	if o.Status.Terminal() || reported.Rank() < o.Status.Rank() {
		return &InconsistentStateError{OrderID: o.ID, Local: o.Status, Reported: reported}
	}

	prev := o.Status
	o.Status = reported
	if !report.ExecutedQty.IsZero() {
		o.FilledQuantity = report.ExecutedQty
	}
	o.UpdatedAt = time.Now().UTC()
	if err := m.store.Update(ctx, o, prev); err != nil {
		return err
	}
	logger.Info("order %s: %s -> %s (exchange %s)", o.ID, prev, o.Status, report.Status)
	return nil
}

// mapExchangeStatus переводит словарь биржи во внутренний enum.
func mapExchangeStatus(s string) (models.OrderStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PENDING":
		return models.OrderStatusPending, true
	case "NEW", "SUBMITTED", "ACCEPTED":
		return models.OrderStatusSubmitted, true
	case "PARTIALLY_FILLED":
		return models.OrderStatusPartiallyFilled, true
	case "FILLED":
		return models.OrderStatusFilled, true
	case "CANCELED", "CANCELLED", "EXPIRED":
		return models.OrderStatusCancelled, true
	case "REJECTED":
		return models.OrderStatusRejected, true
	}
	return "", false
}
