package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/kpi"
)

// filterFromQuery reads region/channel (repeatable or comma-separated) and
// from/to (YYYY-MM-DD) query parameters.
func filterFromQuery(q url.Values) (kpi.Filter, error) {
	f := kpi.Filter{
		Regions:  splitValues(q["region"]),
		Channels: splitValues(q["channel"]),
	}

	var err error
	if f.From, err = parseDate("from", q.Get("from")); err != nil {
		return kpi.Filter{}, err
	}
	if f.To, err = parseDate("to", q.Get("to")); err != nil {
		return kpi.Filter{}, err
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return kpi.Filter{}, errors.BadRequest("'to' must not be before 'from'")
	}
	return f, nil
}

func splitValues(raw []string) []string {
	var out []string
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseDate(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, errors.BadRequestWrap(err, fmt.Sprintf("invalid %q date %q, expected YYYY-MM-DD", name, value))
	}
	return t, nil
}

// parseLimit reads a positive integer query parameter, falling back to def.
func parseLimit(q url.Values, name string, def, max int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.BadRequest(fmt.Sprintf("%q must be a positive integer", name))
	}
	if n > max {
		n = max
	}
	return n, nil
}

// dashboardSignals mirrors the page's datastar signals.
type dashboardSignals struct {
	Regions  []string  `json:"regions"`
	Channels []string  `json:"channels"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Seed     seedValue `json:"seed"`
}

// filter converts the signals into a kpi.Filter. Signal lists pass through
// unchanged: an empty selection is a non-nil empty slice and matches nothing.
func (s dashboardSignals) filter() (kpi.Filter, error) {
	q := url.Values{}
	q.Set("from", s.From)
	q.Set("to", s.To)
	f, err := filterFromQuery(q)
	if err != nil {
		return kpi.Filter{}, err
	}
	f.Regions = s.Regions
	f.Channels = s.Channels
	return f, nil
}

// seedValue accepts a JSON number or a numeric string, since bound inputs may
// report either.
type seedValue int64

func (s *seedValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if str == "" {
			return nil
		}
		data = []byte(str)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("seed must be an integer: %w", err)
	}
	*s = seedValue(n)
	return nil
}

func requestFilter(r *http.Request) (kpi.Filter, error) {
	return filterFromQuery(r.URL.Query())
}
