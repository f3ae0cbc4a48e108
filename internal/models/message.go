package models

// MessageEntity — сущность Bot API, нам интересны только ссылки.
type MessageEntity struct {
	Offset int
	Length int
	URL    string
}

// RawMessage — входящее сообщение до какого-либо разбора.
type RawMessage struct {
	Text      string
	ChatID    int64
	MessageID int
	Entities  []MessageEntity
}
