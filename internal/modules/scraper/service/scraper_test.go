package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"signal_relay/internal/modules/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCookies(t *testing.T) {
	content := "# Netscape HTTP Cookie File\n" +
		"# comment line\n" +
		"\n" +
		".cryptet.com\tTRUE\t/\tTRUE\t1790000000\tsession\tabc123\n" +
		"#HttpOnly_.cryptet.com\tTRUE\t/\tTRUE\t1790000000\tcsrftoken\txyz789\n" +
		"broken line without tabs\n"

	path := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cookies, err := LoadCookies(path)
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	assert.Equal(t, "session", cookies[0].Name)
	assert.Equal(t, "abc123", cookies[0].Value)
	assert.Equal(t, ".cryptet.com", cookies[0].Domain)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, time.Unix(1790000000, 0), cookies[0].Expires)

	// #HttpOnly_ — не комментарий
	assert.Equal(t, "csrftoken", cookies[1].Name)
}

func TestLoadCookiesMissingFile(t *testing.T) {
	_, err := LoadCookies(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestStripHTML(t *testing.T) {
	page := `<html><head><title>API3/USDT</title>
<script>var x = "<b>noise</b>";</script>
<style>.a { color: red; }</style></head>
<body><h1>API3/USDT</h1><p>Entry: 1.4619</p><p>Target&nbsp;1: 1.4765</p></body></html>`

	text := StripHTML(page)
	assert.Contains(t, text, "API3/USDT")
	assert.Contains(t, text, "Entry: 1.4619")
	assert.NotContains(t, text, "<p>")
	assert.NotContains(t, text, "noise")
	assert.NotContains(t, text, "color: red")
	// сущности декодированы
	assert.Contains(t, text, "Target 1: 1.4765")
}

func TestFetchPage(t *testing.T) {
	var gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err == nil {
			gotCookie = c.Value
		}
		_, _ = w.Write([]byte("<html><body>API3/USDT LONG Entry: 1.4619</body></html>"))
	}))
	defer srv.Close()

	cfg := &config.Config{ScrapeTimeout: 2 * time.Second}
	s, err := NewScraper(cfg)
	require.NoError(t, err)
	s.cookies = []*http.Cookie{{Name: "session", Value: "abc123"}}

	text, err := s.FetchPage(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, text, "API3/USDT LONG")
	assert.Equal(t, "abc123", gotCookie)
}

func TestFetchPageBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s, err := NewScraper(&config.Config{ScrapeTimeout: 2 * time.Second})
	require.NoError(t, err)

	_, err = s.FetchPage(context.Background(), srv.URL)
	assert.Error(t, err)
}
