package password

import (
	"errors"
	"math/bits"
	"strings"
	"unicode"
)

const MinLen = 8

var ErrTooShort = errors.New("password must be at least 8 characters")

// Warning is returned alongside an accepted but weak password. Registration
// still succeeds; the client decides whether to nag.
type Warning struct {
	Score       int      `json:"score"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions"`
}

// Validate trims pwd and rejects it only when shorter than MinLen. Anything
// scoring below 3 comes back with a Warning.
func Validate(pwd string, userInputs ...string) (string, *Warning, error) {
	trimmed := strings.TrimSpace(pwd)
	if len(trimmed) < MinLen {
		return trimmed, nil, ErrTooShort
	}
	score, msg, sugg := Strength(trimmed, userInputs...)
	if score >= 3 {
		return trimmed, nil, nil
	}
	return trimmed, &Warning{Score: score, Message: msg, Suggestions: sugg}, nil
}

const (
	classLower uint8 = 1 << iota
	classUpper
	classDigit
	classOther
)

func charClasses(s string) int {
	var set uint8
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			set |= classLower
		case unicode.IsUpper(r):
			set |= classUpper
		case unicode.IsDigit(r):
			set |= classDigit
		default:
			set |= classOther
		}
	}
	return bits.OnesCount8(set)
}

// containsHint matches the account's email local part, username and so on.
// Passwords of 16+ characters are long enough not to care.
func containsHint(pwd string, hints []string) bool {
	if len(pwd) >= 16 {
		return false
	}
	lower := strings.ToLower(pwd)
	for _, h := range hints {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" && strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

// Strength grades pwd from 0 to 4.
func Strength(pwd string, hints ...string) (int, string, []string) {
	n := len(pwd)
	classes := charClasses(pwd)
	if classes > 1 && containsHint(pwd, hints) {
		classes--
	}

	switch {
	case n >= 14 && classes >= 3:
		return 4, "", nil
	case n >= 12 && classes >= 3:
		return 3, "", []string{"Consider a passphrase of three or four words."}
	case n >= 10 && classes >= 2:
		return 2, "Short or low variety.", []string{"Add length and mix letters, numbers and symbols."}
	case n >= MinLen:
		return 1, "Too short or predictable.", []string{"Use at least 12 characters of mixed types."}
	}
	return 0, "Very weak password.", []string{"Use 12+ characters with upper and lower case, numbers and symbols."}
}
