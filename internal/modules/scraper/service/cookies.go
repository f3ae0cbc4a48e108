package service

import (
	"bufio"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// LoadCookies читает cookies.txt в формате Netscape: семь полей через таб,
// domain / flag / path / secure / expiry / name / value. Строки с
// префиксом #HttpOnly_ — валидные куки, остальные # — комментарии.
func LoadCookies(path string) ([]*http.Cookie, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open cookies file")
	}
	defer func() {
		_ = f.Close()
	}()

	var cookies []*http.Cookie
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "#HttpOnly_") {
			continue
		}
		line = strings.TrimPrefix(line, "#HttpOnly_")

		fields := strings.Split(line, "\t")
		if len(fields) < 7 {
			continue
		}

		c := &http.Cookie{
			Domain: fields[0],
			Path:   fields[2],
			Secure: strings.EqualFold(fields[3], "TRUE"),
			Name:   fields[5],
			Value:  fields[6],
		}
		if exp, err := strconv.ParseInt(fields[4], 10, 64); err == nil && exp > 0 {
			c.Expires = time.Unix(exp, 0)
		}
		cookies = append(cookies, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read cookies file")
	}
	return cookies, nil
}
