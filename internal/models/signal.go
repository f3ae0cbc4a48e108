package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

func (d Direction) Valid() bool {
	return d == DirectionLong || d == DirectionShort
}

func ParseDirection(s string) (Direction, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LONG", "BUY":
		return DirectionLong, true
	case "SHORT", "SELL":
		return DirectionShort, true
	}
	return "", false
}

// SignalSource — откуда пришёл сигнал.
type SignalSource string

const (
	SourceForwardedGroup SignalSource = "forwarded_group"
	SourceScrapedSite    SignalSource = "scraped_site"
)

// TargetLine — одна строка цели как она встретилась в источнике.
// Unlimited-цели доезжают до нормализации и выбрасываются там.
type TargetLine struct {
	Raw       string
	Price     decimal.Decimal
	Unlimited bool
}

// CandidateSignal — сырой результат извлечения, ещё без канонизации.
// Leverage == 0 означает «в источнике не указано».
type CandidateSignal struct {
	Direction  Direction
	Symbol     string
	Entry      decimal.Decimal
	HasEntry   bool
	Targets    []TargetLine
	MarginMode string
	Leverage   int
	StopLoss   decimal.Decimal
	HasStop    bool
	Source     SignalSource
}

// NormalizedSignal — канонический сигнал, готовый к публикации и к ордеру.
// MarginMode хранится уже собранным текстом вида "Cross (25X)".
type NormalizedSignal struct {
	Direction  Direction
	Base       string
	Quote      string
	Entry      decimal.Decimal
	HasEntry   bool
	Targets    []decimal.Decimal
	MarginMode string
	StopLoss   decimal.Decimal
	HasStop    bool
	Source     SignalSource
}

// Pair — вид для публикации: "API3/USDT".
func (s NormalizedSignal) Pair() string {
	if s.Quote == "" {
		return s.Base
	}
	return s.Base + "/" + s.Quote
}

// Ticker — вид для биржи: "API3USDT".
func (s NormalizedSignal) Ticker() string {
	return s.Base + s.Quote
}
