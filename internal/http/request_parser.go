package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Kavalar/by-kalancha/internal/core"
)

const maxBodyBytes = 64 << 10

var errBodyTooLarge = errors.New("request body too large")

// RequestBodyParser reads a trigger body once and answers field lookups from
// JSON (optionally wrapped in a {"data": {...}} envelope) or form encoding.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errBodyTooLarge
	}
	return p
}

// Parse decodes the body. An empty body is valid and yields no fields.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		var root map[string]any
		if err := json.Unmarshal([]byte(trimmed), &root); err != nil {
			p.err = err
			return err
		}
		p.jsonData = root
		if inner, ok := root["data"].(map[string]any); ok {
			p.jsonData = inner
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns the first non-empty value among keys.
func (p *RequestBodyParser) Get(keys ...string) string {
	for _, key := range keys {
		var v string
		if p.jsonData != nil {
			v = stringValue(p.jsonData[key])
		} else if p.formData != nil {
			v = p.formData.Get(key)
		}
		if v = sanitizeInput(v); v != "" {
			return v
		}
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// PeriodRequest extracts the trigger parameters. Query parameters fill in
// anything the body leaves out.
func (p *RequestBodyParser) PeriodRequest(query url.Values) (core.PeriodRequest, error) {
	pick := func(keys ...string) string {
		if v := p.Get(keys...); v != "" {
			return v
		}
		for _, k := range keys {
			if v := sanitizeInput(query.Get(k)); v != "" {
				return v
			}
		}
		return ""
	}

	kind, err := core.ParsePeriodKind(pick("period", "kind"))
	if err != nil {
		return core.PeriodRequest{}, err
	}
	return core.PeriodRequest{
		Kind:      kind,
		StartDate: pick("startDate", "start_date"),
		EndDate:   pick("endDate", "end_date"),
	}, nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput drops control characters and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, s))
}
