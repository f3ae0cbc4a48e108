package service

import (
	"context"
	"time"

	"signal_relay/internal/models"
	"signal_relay/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
)

// ===== WS: push-обновления статусов ордеров =====

// StreamOrderUpdates слушает приватный ordersUpdate-канал и отдаёт отчёты
// в том же виде, что и REST-опрос. Поллинг остаётся источником истины,
// стрим лишь сокращает задержку между циклами.
func (c *Client) StreamOrderUpdates(ctx context.Context) <-chan models.ExchangeOrderReport {
	ch := make(chan models.ExchangeOrderReport)
	go func() {
		defer close(ch)
		if c.wsURL == "" {
			return
		}
		retry := 0
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			conn, _, err := c.wsDialer.Dial(c.wsURL, nil)
			if err != nil {
				retry++
				if retry > 8 {
					logger.Error("ws: giving up after %d dial attempts: %v", retry, err)
					return
				}
				time.Sleep(time.Duration(300*retry) * time.Millisecond)
				continue
			}
			retry = 0
			_ = conn.WriteJSON(map[string]any{"method": "sub.orders", "apiKey": c.apiKey})

			stopPing := make(chan struct{})
			go func() {
				t := time.NewTicker(15 * time.Second)
				defer t.Stop()
				for {
					select {
					case <-stopPing:
						return
					case <-ctx.Done():
						return
					case <-t.C:
						_ = conn.WriteJSON(map[string]any{"method": "ping"})
					}
				}
			}()

			for {
				_, data, err := conn.ReadMessage()
				if err != nil {
					break
				}
				var ev wsOrderEvent
				if err := sonic.Unmarshal(data, &ev); err != nil {
					continue
				}
				if ev.EventType != "ORDER_TRADE_UPDATE" || ev.Order.OrderID == "" {
					continue
				}
				report := models.ExchangeOrderReport{
					ExchangeOrderID: ev.Order.OrderID,
					Status:          ev.Order.Status,
				}
				if q := ev.Order.ExecutedQty; q != "" {
					if d, err := decimal.NewFromString(q); err == nil {
						report.ExecutedQty = d
					}
				}
				select {
				case ch <- report:
				case <-ctx.Done():
					close(stopPing)
					_ = conn.Close()
					return
				}
			}

			close(stopPing)
			_ = conn.Close()

			select {
			case <-ctx.Done():
				return
			default:
				// reconnect
			}
		}
	}()
	return ch
}
