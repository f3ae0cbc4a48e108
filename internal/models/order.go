package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusSubmitted       OrderStatus = "SUBMITTED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusRejected        OrderStatus = "REJECTED"
	OrderStatusFailed          OrderStatus = "FAILED"
)

// Terminal — из этих статусов ордер уже не выходит.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected, OrderStatusFailed:
		return true
	}
	return false
}

// Rank задаёт частичный порядок жизненного цикла. Биржевой отчёт со
// статусом меньшего ранга, чем локальный, считается устаревшим.
func (s OrderStatus) Rank() int {
	switch s {
	case OrderStatusPending:
		return 0
	case OrderStatusSubmitted:
		return 1
	case OrderStatusPartiallyFilled:
		return 2
	}
	return 3
}

type Order struct {
	ID              string
	Symbol          string
	Direction       Direction
	Quantity        decimal.Decimal
	FilledQuantity  decimal.Decimal
	Status          OrderStatus
	ExchangeOrderID string
	RetryCount      int
	LastError       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ExchangeOrderReport — факт с биржи, источник истины при сверке.
type ExchangeOrderReport struct {
	ExchangeOrderID string
	Status          string
	ExecutedQty     decimal.Decimal
}
