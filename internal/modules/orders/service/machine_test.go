package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"signal_relay/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore — хранилище в памяти с той же семантикой guarded update, что у PgStore.
type memStore struct {
	mu     sync.Mutex
	orders map[string]models.Order
}

func newMemStore() *memStore {
	return &memStore{orders: make(map[string]models.Order)}
}

func (s *memStore) Insert(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; ok {
		return errors.Errorf("duplicate order %s", o.ID)
	}
	s.orders[o.ID] = *o
	return nil
}

func (s *memStore) Update(_ context.Context, o *models.Order, from models.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.orders[o.ID]
	if !ok {
		return errors.Errorf("order %s not found", o.ID)
	}
	if cur.Status != from {
		return errors.Errorf("order %s is no longer in status %s", o.ID, from)
	}
	s.orders[o.ID] = *o
	return nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, errors.Errorf("order %s not found", id)
	}
	return &o, nil
}

func (s *memStore) ListOpen(_ context.Context) ([]*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Order
	for id := range s.orders {
		o := s.orders[id]
		if !o.Status.Terminal() && o.ExchangeOrderID != "" {
			out = append(out, &o)
		}
	}
	return out, nil
}

type fakeGateway struct {
	mu       sync.Mutex
	failures int // сколько первых вызовов отвергнуть
	calls    int
}

func (g *fakeGateway) SubmitOrder(_ context.Context, _ string, _ models.Direction, _ decimal.Decimal) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.calls <= g.failures {
		return "", errors.New("exchange unavailable")
	}
	return "ex-123", nil
}

func testMachine(gw ExchangeGateway) (*Machine, *memStore) {
	store := newMemStore()
	return NewMachine(store, gw, Options{
		Quantity:       decimal.RequireFromString("0.01"),
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	}), store
}

func testSignal() models.NormalizedSignal {
	return models.NormalizedSignal{
		Direction: models.DirectionLong,
		Base:      "API3",
		Quote:     "USDT",
	}
}

func TestCreateAndSubmit(t *testing.T) {
	m, store := testMachine(&fakeGateway{})
	ctx := context.Background()

	o, err := m.Create(ctx, testSignal())
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, o.Status)
	assert.Equal(t, "API3USDT", o.Symbol)
	assert.Equal(t, "0.01", o.Quantity.String())

	require.NoError(t, m.Submit(ctx, o))
	assert.Equal(t, models.OrderStatusSubmitted, o.Status)
	assert.Equal(t, "ex-123", o.ExchangeOrderID)

	saved, err := store.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusSubmitted, saved.Status)
}

func TestSubmitFailureKeepsPending(t *testing.T) {
	m, store := testMachine(&fakeGateway{failures: 99})
	ctx := context.Background()

	o, err := m.Create(ctx, testSignal())
	require.NoError(t, err)

	err = m.Submit(ctx, o)
	var serr *SubmissionError
	require.ErrorAs(t, err, &serr)

	saved, err := store.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, saved.Status)
	assert.Equal(t, 1, saved.RetryCount)
	assert.NotEmpty(t, saved.LastError)
}

// три неудачи при лимите в три попытки -> FAILED, retry_count == 3
func TestSubmitRetryExhaustion(t *testing.T) {
	m, store := testMachine(&fakeGateway{failures: 99})
	ctx := context.Background()

	o, err := m.Create(ctx, testSignal())
	require.NoError(t, err)

	err = m.SubmitWithRetry(ctx, o)
	require.Error(t, err)

	saved, err := store.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusFailed, saved.Status)
	assert.Equal(t, 3, saved.RetryCount)
	assert.NotEmpty(t, saved.LastError)
}

func TestSubmitRetryRecovers(t *testing.T) {
	m, _ := testMachine(&fakeGateway{failures: 2})
	ctx := context.Background()

	o, err := m.Create(ctx, testSignal())
	require.NoError(t, err)

	require.NoError(t, m.SubmitWithRetry(ctx, o))
	assert.Equal(t, models.OrderStatusSubmitted, o.Status)
	assert.Equal(t, 2, o.RetryCount)
}

func TestApplyExchangeStatusLifecycle(t *testing.T) {
	m, store := testMachine(&fakeGateway{})
	ctx := context.Background()

	o, err := m.Create(ctx, testSignal())
	require.NoError(t, err)
	require.NoError(t, m.Submit(ctx, o))

	// биржа подтверждает текущее состояние — no-op, не ошибка
	require.NoError(t, m.ApplyExchangeStatus(ctx, o, models.ExchangeOrderReport{Status: "NEW"}))
	assert.Equal(t, models.OrderStatusSubmitted, o.Status)

	// частичное исполнение
	require.NoError(t, m.ApplyExchangeStatus(ctx, o, models.ExchangeOrderReport{
		Status:      "PARTIALLY_FILLED",
		ExecutedQty: decimal.RequireFromString("0.005"),
	}))
	assert.Equal(t, models.OrderStatusPartiallyFilled, o.Status)
	assert.Equal(t, "0.005", o.FilledQuantity.String())

	// полное исполнение
	require.NoError(t, m.ApplyExchangeStatus(ctx, o, models.ExchangeOrderReport{
		Status:      "FILLED",
		ExecutedQty: decimal.RequireFromString("0.01"),
	}))
	assert.Equal(t, models.OrderStatusFilled, o.Status)

	// устаревшее чтение "PENDING" не откатывает FILLED
	err = m.ApplyExchangeStatus(ctx, o, models.ExchangeOrderReport{Status: "PENDING"})
	var ierr *InconsistentStateError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, models.OrderStatusFilled, o.Status)

	saved, err := store.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusFilled, saved.Status)
}

func TestApplyExchangeStatusRegression(t *testing.T) {
	m, _ := testMachine(&fakeGateway{})
	ctx := context.Background()

	o, err := m.Create(ctx, testSignal())
	require.NoError(t, err)
	require.NoError(t, m.Submit(ctx, o))

	require.NoError(t, m.ApplyExchangeStatus(ctx, o, models.ExchangeOrderReport{Status: "PARTIALLY_FILLED"}))

	// назад в SUBMITTED нельзя
	err = m.ApplyExchangeStatus(ctx, o, models.ExchangeOrderReport{Status: "NEW"})
	var ierr *InconsistentStateError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, models.OrderStatusPartiallyFilled, o.Status)
}

func TestApplyExchangeStatusUnknown(t *testing.T) {
	m, _ := testMachine(&fakeGateway{})
	ctx := context.Background()

	o, err := m.Create(ctx, testSignal())
	require.NoError(t, err)
	require.NoError(t, m.Submit(ctx, o))

	err = m.ApplyExchangeStatus(ctx, o, models.ExchangeOrderReport{Status: "???"})
	require.Error(t, err)
	assert.Equal(t, models.OrderStatusSubmitted, o.Status)
}

func TestMapExchangeStatus(t *testing.T) {
	cases := map[string]models.OrderStatus{
		"NEW":              models.OrderStatusSubmitted,
		"filled":           models.OrderStatusFilled,
		"CANCELED":         models.OrderStatusCancelled,
		"CANCELLED":        models.OrderStatusCancelled,
		"EXPIRED":          models.OrderStatusCancelled,
		"REJECTED":         models.OrderStatusRejected,
		"PARTIALLY_FILLED": models.OrderStatusPartiallyFilled,
	}
	for in, want := range cases {
		got, ok := mapExchangeStatus(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	_, ok := mapExchangeStatus("SOMETHING_ELSE")
	assert.False(t, ok)
}
