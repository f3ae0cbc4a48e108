package service

import (
	"fmt"

	"signal_relay/internal/models"
)

// SubmissionError — биржа отвергла или не приняла ордер на этапе submit.
// Состояние остаётся PENDING, ретраи ограничены конфигом.
type SubmissionError struct {
	OrderID string
	Err     error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit order %s: %v", e.OrderID, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// InconsistentStateError — биржа сообщила статус "раньше" локального.
// Локальное состояние авторитетнее устаревшего чтения: не перезаписываем,
// а поднимаем наверх для warn-лога.
type InconsistentStateError struct {
	OrderID  string
	Local    models.OrderStatus
	Reported models.OrderStatus
}

func (e *InconsistentStateError) Error() string {
	return fmt.Sprintf("order %s: exchange reported %s but local state is %s",
		e.OrderID, e.Reported, e.Local)
}
