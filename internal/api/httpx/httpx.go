// Package httpx writes the success envelope shared by every JSON endpoint.
// Failures are RFC 7807 problems written by apperr.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is {"status":"success","data":...}. Paged lists add
// total/limit/offset next to data.
type Envelope struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Total  *int   `json:"total,omitempty"`
	Limit  *int   `json:"limit,omitempty"`
	Offset *int   `json:"offset,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func OK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Envelope{Status: "success", Data: data})
}

func Created(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Envelope{Status: "success", Data: data})
}

func OKNoData(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, Envelope{Status: "success"})
}

// Page writes one page of a list along with the total row count.
func Page(w http.ResponseWriter, data any, total, limit, offset int) {
	WriteJSON(w, http.StatusOK, Envelope{Status: "success", Data: data, Total: &total, Limit: &limit, Offset: &offset})
}
