package service

import (
	"context"
	"html"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"

	"signal_relay/internal/modules/config"
	"signal_relay/pkg/logger"

	"github.com/pkg/errors"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

var (
	reScriptBlock = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</\s*(script|style|noscript)\s*>`)
	reTag         = regexp.MustCompile(`(?s)<[^>]*>`)
	reBlankLines  = regexp.MustCompile(`\n{3,}`)
)

// Scraper скачивает страницу сигнала и отдаёт её текстом без разметки.
// Авторизация на сайте кукисная, куки грузим из файла один раз при старте.
type Scraper struct {
	http    *http.Client
	cookies []*http.Cookie
}

func NewScraper(cfg *config.Config) (*Scraper, error) {
	s := &Scraper{
		http: &http.Client{Timeout: cfg.ScrapeTimeout},
	}
	if cfg.Scraper.CookiesFile != "" {
		cookies, err := LoadCookies(cfg.Scraper.CookiesFile)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// без кук сайт отдаст логин-страницу, но бот продолжит пересылать
			logger.Warn("scraper: cookies file %s not found, fetching unauthenticated", cfg.Scraper.CookiesFile)
		case err != nil:
			return nil, err
		default:
			s.cookies = cookies
			logger.Info("scraper: loaded %d cookies from %s", len(cookies), cfg.Scraper.CookiesFile)
		}
	}
	return s, nil
}

// FetchPage возвращает видимый текст страницы. Таймаут задаёт вызывающий
// через ctx, собственный таймаут клиента — страховка сверху.
func (s *Scraper) FetchPage(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Wrap(err, "build request")
	}
	req.Header.Set("User-Agent", userAgent)
	for _, c := range s.cookies {
		req.AddCookie(c)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "fetch page")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("fetch page: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", errors.Wrap(err, "read page body")
	}
	return StripHTML(string(body)), nil
}

// StripHTML выдирает из разметки видимый текст: скрипты и стили целиком
// долой, теги превращаются в переводы строк, сущности декодируются.
func StripHTML(s string) string {
	s = reScriptBlock.ReplaceAllString(s, "\n")
	s = reTag.ReplaceAllString(s, "\n")
	s = html.UnescapeString(s)

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	s = strings.Join(lines, "\n")
	s = reBlankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
