package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"signal_relay/internal/models"
	"signal_relay/internal/modules/config"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Client — исполнитель ордеров (BingX swap API). Поставляет факты о статусе,
// локальный Order никогда не мутирует.
type Client struct {
	http      *http.Client
	wsDialer  *websocket.Dialer
	baseURL   string
	wsURL     string
	apiKey    string
	apiSecret string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		http:      &http.Client{Timeout: 10 * time.Second},
		wsDialer:  &websocket.Dialer{},
		baseURL:   cfg.Exchange.BaseURL,
		wsURL:     cfg.Exchange.WSURL,
		apiKey:    cfg.Exchange.APIKey,
		apiSecret: cfg.Exchange.APISecret,
	}
}

// SubmitOrder отправляет маркет-ордер и возвращает биржевой идентификатор.
func (c *Client) SubmitOrder(ctx context.Context, symbol string, direction models.Direction, qty decimal.Decimal) (string, error) {
	side := "BUY"
	if direction == models.DirectionShort {
		side = "SELL"
	}
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", side)
	params.Set("type", "MARKET")
	params.Set("quantity", qty.String())

	body, err := c.signedRequest(ctx, http.MethodPost, "/openApi/swap/v2/trade/order", params)
	if err != nil {
		return "", err
	}

	var resp submitOrderResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return "", errors.Wrap(err, "decode submit response")
	}
	if resp.Code != 0 {
		return "", errors.Errorf("exchange rejected order: code=%d msg=%s", resp.Code, resp.Msg)
	}
	if resp.Data.Order.OrderID == "" {
		return "", errors.New("exchange returned no order id")
	}
	return resp.Data.Order.OrderID, nil
}

// QueryOrderStatus читает текущий статус ордера по биржевому идентификатору.
func (c *Client) QueryOrderStatus(ctx context.Context, exchangeOrderID, symbol string) (models.ExchangeOrderReport, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", exchangeOrderID)

	body, err := c.signedRequest(ctx, http.MethodGet, "/openApi/swap/v2/trade/order", params)
	if err != nil {
		return models.ExchangeOrderReport{}, err
	}

	var resp queryOrderResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return models.ExchangeOrderReport{}, errors.Wrap(err, "decode query response")
	}
	if resp.Code != 0 {
		return models.ExchangeOrderReport{}, errors.Errorf("exchange query error: code=%d msg=%s", resp.Code, resp.Msg)
	}

	report := models.ExchangeOrderReport{
		ExchangeOrderID: resp.Data.Order.OrderID,
		Status:          resp.Data.Order.Status,
	}
	if q := resp.Data.Order.ExecutedQty; q != "" {
		if report.ExecutedQty, err = decimal.NewFromString(q); err != nil {
			return models.ExchangeOrderReport{}, errors.Wrap(err, "parse executedQty")
		}
	}
	return report, nil
}

func (c *Client) signedRequest(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))

	query := params.Encode()
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(query))
	query += "&signature=" + hex.EncodeToString(h.Sum(nil))

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+query, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-BX-APIKEY", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	rb, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(rb))
	}
	return rb, nil
}
