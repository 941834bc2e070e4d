package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"moneta/internal/core"
)

const maxBodyBytes = 1 << 20 // 1MB

// decodeJSON reads and decodes the request body into dst, rejecting unknown
// fields and oversized bodies with a validation error.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return core.Invalid("malformed request body")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return core.Invalid("request body must contain a single JSON object")
	}
	return nil
}

// parseDate parses a YYYY-MM-DD date, also accepting full RFC 3339 stamps.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// parseYearMonth extracts year and month from query parameters, defaulting
// to the current month. An out-of-range month falls back to the current one.
func parseYearMonth(r *http.Request) (year, month int) {
	now := time.Now()
	year = now.Year()
	month = int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			month = m
		}
	}
	if month < 1 || month > 12 {
		month = int(now.Month())
	}
	return year, month
}

// parsePagination reads page/limit query params with defaults and a cap.
func parsePagination(r *http.Request) (page, limit int) {
	page, limit = 1, 20
	if v := strings.TrimSpace(r.URL.Query().Get("page")); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
