// Package apperr writes every API failure as an RFC 7807 problem document.
package apperr

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"
)

// FieldError points a client at one input. Code is a machine-readable
// reason such as "unique", "fk", "check" or "invalid".
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Problem struct {
	Type        string       `json:"type,omitempty"`
	Title       string       `json:"title"`
	Status      int          `json:"status"`
	Detail      string       `json:"detail,omitempty"`
	Instance    string       `json:"instance,omitempty"`
	RequestID   string       `json:"request_id,omitempty"`
	FieldErrors []FieldError `json:"field_errors,omitempty"`
	// Retryable tells the client the same request may succeed later.
	Retryable bool `json:"retryable,omitempty"`
	// Data is an extension member; the wizard puts the re-rendered step here.
	Data any `json:"data,omitempty"`
}

const typeBase = "https://bloombook.app/problems/"

// typeFor turns 422 into ".../unprocessable-entity".
func typeFor(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "about:blank"
	}
	return typeBase + strings.ToLower(strings.NewReplacer(" ", "-", "'", "").Replace(text))
}

// Write fills Status, Title, Type, Instance and RequestID when unset and
// sends p as application/problem+json.
func Write(w http.ResponseWriter, r *http.Request, p Problem) {
	if p.Status == 0 {
		p.Status = http.StatusInternalServerError
	}
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}
	if p.Type == "" {
		p.Type = typeFor(p.Status)
	}
	if r != nil {
		if p.Instance == "" {
			p.Instance = r.URL.Path
		}
		if p.RequestID == "" {
			p.RequestID = r.Header.Get("X-Request-ID")
		}
	}
	h := w.Header()
	h.Set("Content-Type", "application/problem+json")
	h.Del("Content-Length")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func WriteStatus(w http.ResponseWriter, r *http.Request, status int, title, detail string) {
	Write(w, r, Problem{Status: status, Title: title, Detail: detail})
}

// Validation builds a 422 from field -> message, ordered by field name.
func Validation(fields map[string]string) Problem {
	names := make([]string, 0, len(fields))
	for f := range fields {
		names = append(names, f)
	}
	slices.Sort(names)

	p := Problem{
		Status:      http.StatusUnprocessableEntity,
		Title:       "Validation failed",
		FieldErrors: make([]FieldError, 0, len(names)),
	}
	for _, f := range names {
		p.FieldErrors = append(p.FieldErrors, FieldError{Field: f, Code: "invalid", Message: fields[f]})
	}
	return p
}

func WriteValidation(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	Write(w, r, Validation(fields))
}
