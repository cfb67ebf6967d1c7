package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Raw is one record as it arrives from the data service: decoded JSON with
// no shape guarantees whatsoever.
type Raw map[string]any

// lookup reads one alias out of the record, descending one level for
// dotted aliases.
func lookup(r Raw, alias string) (any, bool) {
	if key, sub, nested := strings.Cut(alias, "."); nested {
		inner, found := r[key].(map[string]any)
		if !found {
			return nil, false
		}
		v, ok := inner[sub]
		return v, ok
	}
	v, ok := r[alias]
	return v, ok
}

// Field returns the first non-empty value among the attribute's aliases.
// Empty-after-trim strings count as absent, as do nil values.
func Field(r Raw, attr Attr) (any, bool) {
	for _, alias := range aliases[attr] {
		v, ok := lookup(r, alias)
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr {
			if strings.TrimSpace(s) == "" {
				continue
			}
		}
		return v, true
	}
	return nil, false
}

// String resolves an attribute as a trimmed string. Numbers stringify, so a
// backend that sends student ids as ints still resolves.
func String(r Raw, attr Attr) string {
	v, ok := Field(r, attr)
	if !ok {
		return ""
	}
	return stringify(v)
}

// Strings resolves every alias hit for the attribute, in alias order,
// deduplicated. Some attributes legitimately arrive under several keys at
// once, e.g. a nested course object carrying both a title and a code.
func Strings(r Raw, attr Attr) []string {
	var out []string
	seen := make(map[string]bool)
	for _, alias := range aliases[attr] {
		v, ok := lookup(r, alias)
		if !ok || v == nil {
			continue
		}
		s := stringify(v)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}

// Number resolves an attribute as a finite float64. String digits are
// coerced; NaN, Inf and unparseable values count as absent.
func Number(r Raw, attr Attr) (float64, bool) {
	v, ok := Field(r, attr)
	if !ok {
		return 0, false
	}
	return toFinite(v)
}

func toFinite(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int64:
		f = float64(t)
	case int:
		f = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Int resolves a numeric attribute as an integer id. Fractional values are
// not ids and count as absent.
func Int(r Raw, attr Attr) (int64, bool) {
	f, ok := Number(r, attr)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time resolves a timestamp attribute. Accepts RFC3339-ish strings and unix
// seconds; anything else is absent.
func Time(r Raw, attr Attr) *time.Time {
	v, ok := Field(r, attr)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return &ts
			}
		}
		return nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) || t <= 0 {
			return nil
		}
		ts := time.Unix(int64(t), 0).UTC()
		return &ts
	default:
		return nil
	}
}
