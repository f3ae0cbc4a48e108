package signal

import (
	"fmt"
	"sort"
	"strings"

	"signal_relay/internal/models"

	"github.com/shopspring/decimal"
)

// Котировки, которые умеем отделять от бесслэшевого тикера.
var knownQuotes = []string{"USDT", "USDC", "BUSD", "USD"}

// Normalize применяет канонизацию к кандидату: фильтр unlimited-целей,
// дефолтное плечо, порядок целей по направлению, разбор символа.
// Чистая функция, кандидата не мутирует.
func Normalize(c models.CandidateSignal, defaultLeverage int) models.NormalizedSignal {
	n := models.NormalizedSignal{
		Direction: c.Direction,
		Entry:     c.Entry,
		HasEntry:  c.HasEntry,
		StopLoss:  c.StopLoss,
		HasStop:   c.HasStop,
		Source:    c.Source,
	}

	n.Base, n.Quote = splitSymbol(c.Symbol)

	// unlimited-цели выбрасываем целиком, ничем не подменяя
	for _, t := range c.Targets {
		if t.Unlimited || reUnlimited.MatchString(t.Raw) {
			continue
		}
		n.Targets = append(n.Targets, t.Price)
	}

	// ошибки порядка в источнике исправляем, а не пробрасываем:
	// LONG — по возрастанию, SHORT — по убыванию. Stable: уже монотонный
	// список не перетасовывается.
	sort.SliceStable(n.Targets, func(i, j int) bool {
		if c.Direction == models.DirectionShort {
			return n.Targets[i].GreaterThan(n.Targets[j])
		}
		return n.Targets[i].LessThan(n.Targets[j])
	})

	n.MarginMode = marginModeText(c.MarginMode, c.Leverage, defaultLeverage)
	return n
}

// marginModeText никогда не выдумывает множитель, отличный от явно
// указанного в источнике; дефолт подставляется только при его отсутствии.
func marginModeText(mode string, leverage, defaultLeverage int) string {
	if mode == "" {
		mode = "Cross"
	}
	if leverage <= 0 {
		leverage = defaultLeverage
	}
	mode = strings.ToUpper(mode[:1]) + strings.ToLower(mode[1:])
	return fmt.Sprintf("%s (%dX)", mode, leverage)
}

func splitSymbol(symbol string) (base, quote string) {
	up := strings.ToUpper(strings.TrimSpace(symbol))
	if i := strings.Index(up, "/"); i > 0 {
		return up[:i], up[i+1:]
	}
	for _, q := range knownQuotes {
		if strings.HasSuffix(up, q) && len(up) > len(q) {
			return strings.TrimSuffix(up, q), q
		}
	}
	return up, ""
}

// FormatPrice prints a price the way the published block expects:
// без хвостовых нулей, "50.0" -> "50".
func FormatPrice(d decimal.Decimal) string {
	s := d.String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}
