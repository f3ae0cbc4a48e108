package service

import (
	"context"
	"fmt"
	"time"

	"signal_relay/internal/models"
	"signal_relay/pkg/db"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id                TEXT PRIMARY KEY,
	symbol            TEXT NOT NULL,
	direction         TEXT NOT NULL,
	quantity          NUMERIC NOT NULL,
	filled_quantity   NUMERIC NOT NULL DEFAULT 0,
	status            TEXT NOT NULL,
	exchange_order_id TEXT,
	retry_count       INT NOT NULL DEFAULT 0,
	last_error        TEXT,
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS orders_status_idx ON orders (status);
CREATE INDEX IF NOT EXISTS orders_exchange_order_id_idx ON orders (exchange_order_id);
`

// PgStore держит ордера в Postgres. Ордера не удаляются никогда,
// только доходят до терминального статуса.
type PgStore struct {
	db *db.PgTxManager
}

func NewPgStore(m *db.PgTxManager) *PgStore {
	return &PgStore{db: m}
}

func (s *PgStore) EnsureSchema(ctx context.Context) error {
	return s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, schema)
		return errors.Wrap(err, "ensure orders schema")
	})
}

func (s *PgStore) Insert(ctx context.Context, o *models.Order) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("PgStore.Insert: %w", err)
		}
	}()

	return s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, `
			INSERT INTO orders
				(id, symbol, direction, quantity, filled_quantity, status,
				 exchange_order_id, retry_count, last_error, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,''),$8,NULLIF($9,''),$10,$11)`,
			o.ID, o.Symbol, string(o.Direction), o.Quantity.String(),
			o.FilledQuantity.String(), string(o.Status), o.ExchangeOrderID,
			o.RetryCount, o.LastError, o.CreatedAt, o.UpdatedAt,
		)
		return err
	})
}

// Update перезаписывает мутируемые поля, но только если статус в базе
// всё ещё тот, от которого мы отталкивались — read-modify-write без гонок.
func (s *PgStore) Update(ctx context.Context, o *models.Order, fromStatus models.OrderStatus) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("PgStore.Update: %w", err)
		}
	}()

	return s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctxTx, `
			UPDATE orders SET
				filled_quantity = $2, status = $3, exchange_order_id = NULLIF($4,''),
				retry_count = $5, last_error = NULLIF($6,''), updated_at = $7
			WHERE id = $1 AND status = $8`,
			o.ID, o.FilledQuantity.String(), string(o.Status), o.ExchangeOrderID,
			o.RetryCount, o.LastError, o.UpdatedAt, string(fromStatus),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errors.Errorf("order %s is no longer in status %s", o.ID, fromStatus)
		}
		return nil
	})
}

func (s *PgStore) GetByID(ctx context.Context, id string) (o *models.Order, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("PgStore.GetByID: %w", err)
		}
	}()

	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctxTx, selectOrder+` WHERE id = $1`, id)
		o, err = scanOrder(row)
		return err
	})
	return o, err
}

func (s *PgStore) GetByExchangeID(ctx context.Context, exchangeOrderID string) (o *models.Order, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("PgStore.GetByExchangeID: %w", err)
		}
	}()

	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctxTx, selectOrder+` WHERE exchange_order_id = $1`, exchangeOrderID)
		o, err = scanOrder(row)
		return err
	})
	return o, err
}

// ListOpen — все нетерминальные ордера с биржевым идентификатором:
// кандидаты на реконсиляцию. Индекс по status держит выборку дешёвой.
func (s *PgStore) ListOpen(ctx context.Context) (out []*models.Order, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("PgStore.ListOpen: %w", err)
		}
	}()

	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctxTx, selectOrder+`
			WHERE status NOT IN ('FILLED','CANCELLED','REJECTED','FAILED')
			  AND exchange_order_id IS NOT NULL
			ORDER BY created_at`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			o, err := scanOrder(rows)
			if err != nil {
				return err
			}
			out = append(out, o)
		}
		return rows.Err()
	})
	return out, err
}

const selectOrder = `
	SELECT id, symbol, direction, quantity::text, filled_quantity::text, status,
	       COALESCE(exchange_order_id, ''), retry_count, COALESCE(last_error, ''),
	       created_at, updated_at
	FROM orders`

func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		o         models.Order
		direction string
		status    string
		qty, fqty string
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&o.ID, &o.Symbol, &direction, &qty, &fqty, &status,
		&o.ExchangeOrderID, &o.RetryCount, &o.LastError, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	o.Direction = models.Direction(direction)
	o.Status = models.OrderStatus(status)
	o.CreatedAt = createdAt
	o.UpdatedAt = updatedAt
	if o.Quantity, err = decimal.NewFromString(qty); err != nil {
		return nil, errors.Wrap(err, "scan quantity")
	}
	if o.FilledQuantity, err = decimal.NewFromString(fqty); err != nil {
		return nil, errors.Wrap(err, "scan filled_quantity")
	}
	return &o, nil
}
