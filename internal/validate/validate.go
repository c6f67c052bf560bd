package validate

import (
	"strconv"
	"strings"
)

// ClampLimitOffset parses and clamps paging.
func ClampLimitOffset(limitRaw, offsetRaw string, def, max int) (int, int) {
	limit := def
	if v, err := strconv.Atoi(strings.TrimSpace(limitRaw)); err == nil && v >= 1 && v <= max {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(strings.TrimSpace(offsetRaw)); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

// ParseOptionalFloat returns nil for an empty or unparsable value.
func ParseOptionalFloat(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

// ParseEnum lowercases s and returns it only when it is one of allowed.
func ParseEnum(s string, allowed ...string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, a := range allowed {
		if s == a {
			return s
		}
	}
	return ""
}
