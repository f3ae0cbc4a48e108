package service

import (
	"fmt"
	"sync"
	"time"

	"signal_relay/internal/models"
)

// deduper отбрасывает повторы одного сигнала внутри окна.
// Один и тот же сигнал прилетает и из группы, и со скрейпа сайта.
type deduper struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time
	now    func() time.Time
}

func newDeduper(window time.Duration) *deduper {
	return &deduper{
		window: window,
		seen:   make(map[string]time.Time),
		now:    time.Now,
	}
}

func dedupKey(s models.NormalizedSignal) string {
	return fmt.Sprintf("%s|%s|%s", s.Direction, s.Pair(), s.Entry)
}

// Seen возвращает true на повтор и заодно регистрирует сигнал.
func (d *deduper) Seen(s models.NormalizedSignal) bool {
	key := dedupKey(s)
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	for k, at := range d.seen {
		if now.Sub(at) > d.window {
			delete(d.seen, k)
		}
	}

	if at, ok := d.seen[key]; ok && now.Sub(at) <= d.window {
		return true
	}
	d.seen[key] = now
	return false
}
