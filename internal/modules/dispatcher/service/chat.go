package service

import (
	"strconv"
	"strings"
)

// CanonicalChatID приводит идентификатор чата к одной форме.
// Bot API отдаёт супергруппы как -100XXXXXXXXXX, в конфиге и в пересланных
// сообщениях встречается голый id. Правило одно для всех: срезаем
// префикс -100, иначе знак, и сравниваем положительные числа.
func CanonicalChatID(id int64) int64 {
	s := strconv.FormatInt(id, 10)
	if rest, ok := strings.CutPrefix(s, "-100"); ok && rest != "" {
		if v, err := strconv.ParseInt(rest, 10, 64); err == nil {
			return v
		}
	}
	if id < 0 {
		return -id
	}
	return id
}
