package signal

import (
	"regexp"
	"strings"

	"signal_relay/internal/models"

	"github.com/shopspring/decimal"
)

// Секции структурированного блока. Парсим построчно через явные состояния,
// а не вложенными условиями — так проще добавить новый формат.
type section int

const (
	secNone section = iota
	secEntry
	secTargets
)

var (
	reSymbolPair  = regexp.MustCompile(`([A-Z0-9]{2,10})\s*/\s*([A-Z0-9]{2,10})`)
	reSymbolBare  = regexp.MustCompile(`\b([A-Z0-9]{2,10})/?(USDT|USDC|USD)\b`)
	reLeverage    = regexp.MustCompile(`\(([0-9]+(?:\.[0-9]+)?)\s*[Xx]\)`)
	reTargetLine  = regexp.MustCompile(`^([0-9]+)\)\s*([0-9][0-9,]*\.?[0-9]*)\s*$`)
	reEntryTok    = regexp.MustCompile(`(?i)entry[:\s]*\$?([0-9][0-9,]*\.?[0-9]*)`)
	reStopTok     = regexp.MustCompile(`(?i)stop[\s-]*loss[:\s]*\$?([0-9][0-9,]*\.?[0-9]*)`)
	reTargetTok   = regexp.MustCompile(`(?i)(?:tp|target)\s*\d*[:\s)]+\$?([0-9][0-9,]*\.?[0-9]*)`)
	reUnlimited   = regexp.MustCompile(`(?i)unlimited`)
	reDirLong     = regexp.MustCompile(`(?i)\b(long|buy)\b`)
	reDirShort    = regexp.MustCompile(`(?i)\b(short|sell)\b`)
	reMarginMode  = regexp.MustCompile(`(?i)margin\s+mode:\s*([A-Za-z]+)`)
	reEntryMarker = regexp.MustCompile(`(?i)entry\s+price`)
)

// Extract turns a raw message (plus optional scraped page text) into zero or
// one candidate signal. Fail closed: no direction marker or no resolvable
// symbol means nil, безопаснее не переслать, чем переслать мусор.
func Extract(raw models.RawMessage, page string) *models.CandidateSignal {
	if c := scanBlock(raw.Text, models.SourceForwardedGroup); c != nil {
		return c
	}
	if page == "" {
		return nil
	}
	if c := scanBlock(page, models.SourceScrapedSite); c != nil {
		return c
	}
	return scanLoose(page)
}

// scanBlock parses the structured multi-line shape:
// direction line, Name:, Margin mode:, Entry price section, Targets section.
func scanBlock(text string, src models.SignalSource) *models.CandidateSignal {
	lines := strings.Split(text, "\n")

	c := &models.CandidateSignal{Source: src}
	sec := secNone

	for _, rawLine := range lines {
		line := strings.TrimSpace(rawLine)

		switch sec {
		case secEntry:
			if line == "" {
				continue
			}
			if px, ok := parsePrice(line); ok {
				c.Entry = px
				c.HasEntry = true
			}
			sec = secNone
			continue

		case secTargets:
			if m := reTargetLine.FindStringSubmatch(line); m != nil {
				if px, ok := parsePrice(m[2]); ok {
					c.Targets = append(c.Targets, models.TargetLine{Raw: line, Price: px})
				}
				continue
			}
			if reUnlimited.MatchString(line) {
				// переносим как есть, отфильтрует нормализатор
				c.Targets = append(c.Targets, models.TargetLine{Raw: line, Unlimited: true})
				continue
			}
			// пустая строка или чужая строка — конец секции
			sec = secNone
		}

		switch {
		case c.Direction == "" && isDirectionLine(line):
			c.Direction = directionOf(line)

		case strings.HasPrefix(line, "Name:"):
			c.Symbol = parseSymbol(strings.TrimSpace(strings.TrimPrefix(line, "Name:")))

		case reMarginMode.MatchString(line):
			m := reMarginMode.FindStringSubmatch(line)
			c.MarginMode = m[1]
			if lm := reLeverage.FindStringSubmatch(line); lm != nil {
				c.Leverage = parseLeverage(lm[1])
			}

		case reEntryMarker.MatchString(line):
			sec = secEntry

		case strings.HasPrefix(line, "Targets"):
			sec = secTargets
		}
	}

	if !c.Direction.Valid() || c.Symbol == "" {
		return nil
	}
	return c
}

// scanLoose — regex-фоллбек для текста страницы без структурных маркеров.
func scanLoose(page string) *models.CandidateSignal {
	c := &models.CandidateSignal{Source: models.SourceScrapedSite}

	switch {
	case reDirLong.MatchString(page):
		c.Direction = models.DirectionLong
	case reDirShort.MatchString(page):
		c.Direction = models.DirectionShort
	default:
		return nil
	}

	c.Symbol = parseSymbol(page)
	if c.Symbol == "" {
		return nil
	}

	if m := reEntryTok.FindStringSubmatch(page); m != nil {
		if px, ok := parsePrice(m[1]); ok {
			c.Entry = px
			c.HasEntry = true
		}
	}
	if m := reStopTok.FindStringSubmatch(page); m != nil {
		if px, ok := parsePrice(m[1]); ok {
			c.StopLoss = px
			c.HasStop = true
		}
	}
	seen := map[string]bool{}
	for _, m := range reTargetTok.FindAllStringSubmatch(page, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		if px, ok := parsePrice(m[1]); ok {
			c.Targets = append(c.Targets, models.TargetLine{Raw: m[0], Price: px})
		}
	}
	if lm := reLeverage.FindStringSubmatch(page); lm != nil {
		c.Leverage = parseLeverage(lm[1])
	}
	return c
}

func isDirectionLine(line string) bool {
	if line == "" {
		return false
	}
	stripped := stripDecor(line)
	return reDirLong.MatchString(stripped) || reDirShort.MatchString(stripped)
}

func directionOf(line string) models.Direction {
	stripped := stripDecor(line)
	if reDirShort.MatchString(stripped) {
		return models.DirectionShort
	}
	return models.DirectionLong
}

// stripDecor убирает эмодзи и прочий декор, оставляя буквы/цифры/пробелы.
func stripDecor(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 128 {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return b.String()
}

func parseSymbol(s string) string {
	up := strings.ToUpper(s)
	if m := reSymbolPair.FindStringSubmatch(up); m != nil {
		return m[1] + "/" + m[2]
	}
	if m := reSymbolBare.FindStringSubmatch(up); m != nil {
		return m[1] + "/" + m[2]
	}
	return ""
}

func parsePrice(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func parseLeverage(s string) int {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return int(d.IntPart())
}
