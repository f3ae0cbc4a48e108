package signal

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"signal_relay/internal/models"
)

const siteHost = "cryptet.com"

var (
	reSiteURL    = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?cryptet\.com/\S+`)
	reBareSymbol = regexp.MustCompile(`(?i)^[A-Z0-9]{2,10}/?USDT?$`)
)

// SiteURL достаёт ссылку на сигнальный сайт из сообщения.
// Приоритет: entity-URL (его не режет display-текст) -> URL в тексте ->
// сгенерированный из голого тикера ("API3/USDT") адрес свежего сигнала.
// Пустая строка — ссылки нет, скрейпить нечего.
func SiteURL(raw models.RawMessage, now time.Time) string {
	for _, e := range raw.Entities {
		if e.URL != "" && strings.Contains(strings.ToLower(e.URL), siteHost) {
			return e.URL
		}
	}

	if m := reSiteURL.FindString(raw.Text); m != "" {
		u := strings.TrimRight(m, ".,;!?")
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			u = "https://" + u
		}
		return u
	}

	if sym := strings.TrimSpace(raw.Text); reBareSymbol.MatchString(sym) {
		return symbolURL(sym, now)
	}
	return ""
}

// symbolURL — адрес страницы свежего сигнала по голому тикеру.
func symbolURL(sym string, now time.Time) string {
	base := strings.ToUpper(sym)
	if i := strings.Index(base, "/"); i > 0 {
		base = base[:i]
	} else {
		base = strings.TrimSuffix(base, "USDT")
		base = strings.TrimSuffix(base, "USD")
	}
	return fmt.Sprintf("https://%s/signals/one/%s_usdt/%d/%02d/%02d",
		siteHost, strings.ToLower(base), now.Year(), int(now.Month()), now.Day())
}
