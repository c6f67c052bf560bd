package validate

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Price bounds for listings. Above MaxReasonablePrice the error is advisory.
const (
	MaxReasonablePrice = 10000.0
	MinPublishedYear   = 1000
)

// FieldError is a single user-correctable problem with one form field.
type FieldError struct {
	Field    string
	Message  string
	Advisory bool
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

func fieldErr(field, msg string) *FieldError { return &FieldError{Field: field, Message: msg} }

// FieldErrors maps a field name to the message shown beneath its input.
// A step may advance only when the mapping is empty.
type FieldErrors map[string]string

// Add records err under its field. Non-field errors are ignored; the first
// message recorded for a field wins.
func (fe FieldErrors) Add(err error) {
	var f *FieldError
	if !errors.As(err, &f) {
		return
	}
	if _, ok := fe[f.Field]; ok {
		return
	}
	fe[f.Field] = f.Message
}

func (fe FieldErrors) Empty() bool { return len(fe) == 0 }

// Fields returns the field names in stable order.
func (fe FieldErrors) Fields() []string {
	out := make([]string, 0, len(fe))
	for k := range fe {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, k := range fe.Fields() {
		parts = append(parts, k+": "+fe[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ISBN strips hyphens and spaces and accepts 10 or 13 characters made of
// digits or a literal 'X'.
func ISBN(raw string) (string, error) {
	s := strings.NewReplacer("-", "", " ", "").Replace(raw)
	if s == "" {
		return "", fieldErr("isbn", "ISBN is required")
	}
	if len(s) != 10 && len(s) != 13 {
		return "", fieldErr("isbn", "ISBN must be 10 or 13 characters")
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != 'X' {
			return "", fieldErr("isbn", "ISBN may only contain digits or X")
		}
	}
	return s, nil
}

// Required trims s and fails when nothing is left.
func Required(field, label, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fieldErr(field, label+" is required")
	}
	return s, nil
}

// MaxLen trims s and enforces an upper rune count; empty is allowed.
func MaxLen(field, label, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > max {
		return "", fieldErr(field, label+" must be at most "+strconv.Itoa(max)+" characters")
	}
	return s, nil
}

// Price parses a decimal amount. Zero or negative fails; values above
// MaxReasonablePrice fail with an advisory error. Both bounds apply to the
// amount as typed, before rounding to cents.
func Price(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fieldErr("price", "Price is required")
	}
	p, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, fieldErr("price", "Price must be a valid number")
	}
	if p <= 0 {
		return 0, fieldErr("price", "Price must be greater than 0")
	}
	advisory := p > MaxReasonablePrice
	p = toCents(p)
	if advisory {
		return p, &FieldError{Field: "price", Message: "Price seems unreasonably high", Advisory: true}
	}
	return p, nil
}

// toCents rounds to two decimals; a positive amount never rounds to zero.
func toCents(p float64) float64 {
	return math.Max(math.Round(p*100)/100, 0.01)
}

// PublishedYear is optional; a zero return means "not provided".
func PublishedYear(raw string, now time.Time) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, fieldErr("publishedYear", "Published year must be a whole number")
	}
	if y < MinPublishedYear || y > now.Year() {
		return 0, fieldErr("publishedYear", "Published year must be between "+
			strconv.Itoa(MinPublishedYear)+" and "+strconv.Itoa(now.Year()))
	}
	return y, nil
}

// PageCount is optional; a zero return means "not provided".
func PageCount(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fieldErr("pageCount", "Page count must be a whole number")
	}
	if n <= 0 {
		return 0, fieldErr("pageCount", "Page count must be greater than 0")
	}
	return n, nil
}

// OneOf matches s case-insensitively against allowed and returns the
// canonical spelling.
func OneOf(field, label, s string, allowed []string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fieldErr(field, "Please select a "+strings.ToLower(label))
	}
	for _, a := range allowed {
		if strings.EqualFold(a, s) {
			return a, nil
		}
	}
	return "", fieldErr(field, "Please select a valid "+strings.ToLower(label))
}

// ZipCode accepts 3..10 characters of letters, digits, spaces or hyphens.
func ZipCode(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fieldErr("zipCode", "ZIP code is required")
	}
	if len(s) < 3 || len(s) > 10 {
		return "", fieldErr("zipCode", "Please enter a valid ZIP code")
	}
	for _, r := range s {
		ok := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == ' ' || r == '-'
		if !ok {
			return "", fieldErr("zipCode", "Please enter a valid ZIP code")
		}
	}
	return strings.ToUpper(s), nil
}

// Coordinates are optional as a pair; either both or neither must be set.
func Coordinates(lat, lng *float64) error {
	if lat == nil && lng == nil {
		return nil
	}
	if lat == nil || lng == nil {
		return fieldErr("coordinates", "Both latitude and longitude are required")
	}
	if *lat < -90 || *lat > 90 || math.IsNaN(*lat) {
		return fieldErr("coordinates", "Latitude must be between -90 and 90")
	}
	if *lng < -180 || *lng > 180 || math.IsNaN(*lng) {
		return fieldErr("coordinates", "Longitude must be between -180 and 180")
	}
	return nil
}

// ImageKeys checks uploaded object keys: at most max, each under prefix.
func ImageKeys(keys []string, prefix string, max int) ([]string, error) {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if !strings.HasPrefix(k, prefix) || strings.Contains(k, "..") {
			return nil, fieldErr("images", "Invalid image reference")
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	if len(out) > max {
		return nil, fieldErr("images", "At most "+strconv.Itoa(max)+" images are allowed")
	}
	return out, nil
}
