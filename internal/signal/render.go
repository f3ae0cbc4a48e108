package signal

import (
	"fmt"
	"strings"

	"signal_relay/internal/models"
)

// Render выводит публикуемый блок. Это производное представление
// NormalizedSignal, не отдельное мутируемое поле.
//
//	🟢 Long
//	Name: API3/USDT
//	Margin mode: Cross (25X)
//
//	↪️ Entry price(USDT):
//	1.4619
//
//	Targets(USDT):
//	1) 1.4765
//	...
//
// Синтетическая строка "unlimited" в конец никогда не дописывается.
func Render(s models.NormalizedSignal) string {
	emoji := "🟢"
	word := "Long"
	if s.Direction == models.DirectionShort {
		emoji = "🔴"
		word = "Short"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", emoji, word)
	fmt.Fprintf(&b, "Name: %s\n", s.Pair())
	fmt.Fprintf(&b, "Margin mode: %s\n\n", s.MarginMode)

	b.WriteString("↪️ Entry price(USDT):\n")
	if s.HasEntry {
		b.WriteString(FormatPrice(s.Entry) + "\n")
	} else {
		b.WriteString("Market\n")
	}

	b.WriteString("\nTargets(USDT):\n")
	for i, t := range s.Targets {
		fmt.Fprintf(&b, "%d) %s\n", i+1, FormatPrice(t))
	}

	if s.HasStop {
		fmt.Fprintf(&b, "\nStop loss(USDT):\n%s\n", FormatPrice(s.StopLoss))
	}
	return b.String()
}
