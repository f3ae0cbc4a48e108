package service

// Ответы биржевого REST API. Поля — подмножество того, что реально нужно:
// идентификатор, статус, исполненный объём.

type submitOrderResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Order struct {
			OrderID string `json:"orderId"`
		} `json:"order"`
	} `json:"data"`
}

type queryOrderResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Order struct {
			OrderID     string `json:"orderId"`
			Status      string `json:"status"`
			ExecutedQty string `json:"executedQty"`
		} `json:"order"`
	} `json:"data"`
}

// wsOrderEvent — push-событие по ордеру из приватного websocket-канала.
type wsOrderEvent struct {
	EventType string `json:"e"`
	Order     struct {
		OrderID     string `json:"i"`
		Status      string `json:"X"`
		ExecutedQty string `json:"z"`
	} `json:"o"`
}
