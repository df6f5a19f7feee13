package providers

import (
	"strconv"
	"strings"
	"time"
)

// Permissive field extraction for providers whose payload schema drifts
// across firmware/API versions. Each logical attribute is looked up under
// an ordered list of candidate keys, first match wins, absence is not an
// error.

// epochMagnitudeCutoff separates epoch seconds from epoch milliseconds.
// Anything below ~10 billion read as seconds lands before year 2286;
// anything above it must be milliseconds.
const epochMagnitudeCutoff = 1e10

// stringField returns the first candidate key holding a non-empty string.
// Numeric values are stringified, matching feeds that send ids as numbers.
func stringField(m map[string]interface{}, keys ...string) *string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return &trimmed
			}
		case float64:
			formatted := strconv.FormatFloat(s, 'f', -1, 64)
			return &formatted
		}
	}
	return nil
}

// numberField returns the first candidate key holding a number.
func numberField(m map[string]interface{}, keys ...string) *float64 {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return &n
		case string:
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
				return &parsed
			}
		}
	}
	return nil
}

// objectField returns the first candidate key holding a nested object.
func objectField(m map[string]interface{}, keys ...string) map[string]interface{} {
	for _, k := range keys {
		if v, ok := m[k].(map[string]interface{}); ok {
			return v
		}
	}
	return nil
}

// timeFromEpoch converts a numeric epoch to UTC time, disambiguating
// seconds from milliseconds by magnitude.
func timeFromEpoch(v float64) time.Time {
	ms := int64(v)
	if v < epochMagnitudeCutoff {
		ms = int64(v * 1000)
	}
	return time.UnixMilli(ms).UTC()
}

// timeField extracts a timestamp that may arrive as a numeric epoch
// (seconds or milliseconds) or an RFC 3339 string.
func timeField(m map[string]interface{}, keys ...string) *time.Time {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch ts := v.(type) {
		case float64:
			if ts <= 0 {
				continue
			}
			t := timeFromEpoch(ts)
			return &t
		case string:
			if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
				parsed = parsed.UTC()
				return &parsed
			}
		}
	}
	return nil
}
