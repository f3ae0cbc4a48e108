package signal

import (
	"testing"
	"time"

	"signal_relay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBlock = "🟢 Long\nName: API3/USDT\nMargin mode: Cross (25.0X)\n\n↪️ Entry price(USDT):\n1.4619\n\nTargets(USDT):\n1) 1.4765\n2) 1.4911\n3) 1.5058\n4) 1.5204\n5) 🔝 unlimited"

func TestExtractStructuredBlock(t *testing.T) {
	c := Extract(models.RawMessage{Text: sampleBlock, ChatID: -1002299206473}, "")
	require.NotNil(t, c)

	assert.Equal(t, models.DirectionLong, c.Direction)
	assert.Equal(t, "API3/USDT", c.Symbol)
	assert.Equal(t, "Cross", c.MarginMode)
	assert.Equal(t, 25, c.Leverage)
	require.True(t, c.HasEntry)
	assert.Equal(t, "1.4619", c.Entry.String())

	// unlimited-строка переносится как есть, её выкидывает нормализатор
	require.Len(t, c.Targets, 5)
	assert.Equal(t, "1.4765", c.Targets[0].Price.String())
	assert.Equal(t, "1.5204", c.Targets[3].Price.String())
	assert.True(t, c.Targets[4].Unlimited)
	assert.Equal(t, models.SourceForwardedGroup, c.Source)
}

func TestExtractShortBlock(t *testing.T) {
	text := "🔴 Short\nName: ETH/USDT\nMargin mode: Cross (50X)\n\n↪️ Entry price(USDT):\n2450.5\n\nTargets(USDT):\n1) 2400\n2) 2350"
	c := Extract(models.RawMessage{Text: text}, "")
	require.NotNil(t, c)
	assert.Equal(t, models.DirectionShort, c.Direction)
	assert.Equal(t, "ETH/USDT", c.Symbol)
	assert.Equal(t, 50, c.Leverage)
	require.Len(t, c.Targets, 2)
}

func TestExtractNotASignal(t *testing.T) {
	for _, text := range []string{
		"",
		"hello, anyone up for lunch?",
		"Name: API3/USDT",     // есть символ, нет направления
		"🟢 Long\nno name here", // есть направление, нет символа
	} {
		assert.Nil(t, Extract(models.RawMessage{Text: text}, ""), "text=%q", text)
	}
}

func TestExtractPageFallback(t *testing.T) {
	page := "API3/USDT signal LONG Entry: 1.4619 Stop loss: 1.4200 Target 1: 1.4765 Target 2: 1.4911 Cross (25X)"
	c := Extract(models.RawMessage{Text: "https://cryptet.com/signals/one/api3_usdt/2026/08/30"}, page)
	require.NotNil(t, c)
	assert.Equal(t, models.DirectionLong, c.Direction)
	assert.Equal(t, "API3/USDT", c.Symbol)
	require.True(t, c.HasEntry)
	assert.Equal(t, "1.4619", c.Entry.String())
	require.True(t, c.HasStop)
	assert.Equal(t, "1.42", c.StopLoss.String())
	require.Len(t, c.Targets, 2)
	assert.Equal(t, 25, c.Leverage)
	assert.Equal(t, models.SourceScrapedSite, c.Source)
}

// extract должен быть чистым: два вызова на одном входе дают идентичный результат
func TestExtractIdempotent(t *testing.T) {
	raw := models.RawMessage{Text: sampleBlock}
	first := Extract(raw, "")
	second := Extract(raw, "")
	require.NotNil(t, first)
	assert.Equal(t, first, second)
}

func TestSiteURL(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	// entity-URL авторитетнее текста
	raw := models.RawMessage{
		Text:     "check cryptet.com/signals/one/btc_usdt/2026/01/01",
		Entities: []models.MessageEntity{{URL: "https://cryptet.com/signals/one/eth_usdt/2026/08/31"}},
	}
	assert.Equal(t, "https://cryptet.com/signals/one/eth_usdt/2026/08/31", SiteURL(raw, now))

	// голый URL в тексте дополняется схемой и чистится от пунктуации
	raw = models.RawMessage{Text: "see cryptet.com/signals/one/btc_usdt/2026/08/31."}
	assert.Equal(t, "https://cryptet.com/signals/one/btc_usdt/2026/08/31", SiteURL(raw, now))

	// голый тикер генерирует адрес свежего сигнала
	raw = models.RawMessage{Text: "API3/USDT"}
	assert.Equal(t, "https://cryptet.com/signals/one/api3_usdt/2026/08/31", SiteURL(raw, now))

	assert.Equal(t, "", SiteURL(models.RawMessage{Text: "no links here"}, now))
}
