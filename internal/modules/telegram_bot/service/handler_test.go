package service

import (
	"testing"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToRawMessage(t *testing.T) {
	msg := &tgbot.Message{
		MessageID: 77,
		Chat:      &tgbot.Chat{ID: -1002299206473},
		Text:      "API3/USDT",
		Entities: []tgbot.MessageEntity{
			{Type: "bold", Offset: 0, Length: 4},
			{Type: "text_link", Offset: 0, Length: 9, URL: "https://cryptet.com/signals/one/api3_usdt/2026/08/31"},
		},
	}

	raw := toRawMessage(msg)
	assert.Equal(t, "API3/USDT", raw.Text)
	assert.Equal(t, int64(-1002299206473), raw.ChatID)
	assert.Equal(t, 77, raw.MessageID)

	// entity без URL не переносится
	require.Len(t, raw.Entities, 1)
	assert.Equal(t, "https://cryptet.com/signals/one/api3_usdt/2026/08/31", raw.Entities[0].URL)
}

func TestToRawMessageCaption(t *testing.T) {
	msg := &tgbot.Message{
		MessageID: 78,
		Chat:      &tgbot.Chat{ID: -1002299206473},
		Caption:   "API3/USDT",
		CaptionEntities: []tgbot.MessageEntity{
			{Type: "text_link", Offset: 0, Length: 9, URL: "https://cryptet.com/signals/one/api3_usdt/2026/08/31"},
		},
	}

	raw := toRawMessage(msg)
	assert.Equal(t, "API3/USDT", raw.Text)
	require.Len(t, raw.Entities, 1)
}
