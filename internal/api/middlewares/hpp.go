package middlewares

import (
	"net/http"
	"net/url"
)

// ListingQueryParams are the query keys the browse endpoints read.
var ListingQueryParams = []string{
	"q", "kind", "category", "condition",
	"min_price", "max_price", "owner",
	"limit", "offset",
}

// HPP guards against HTTP parameter pollution on query strings: repeated
// keys collapse to their first value and keys outside allowed are dropped.
// Request bodies are JSON and are left alone.
func HPP(allowed ...string) Middleware {
	set := make(map[string]struct{}, len(allowed))
	for _, k := range allowed {
		set[k] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.RawQuery != "" {
				r.URL.RawQuery = cleanQuery(r.URL.Query(), set).Encode()
			}
			next.ServeHTTP(w, r)
		})
	}
}

func cleanQuery(q url.Values, allowed map[string]struct{}) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		if _, ok := allowed[k]; !ok || len(v) == 0 {
			continue
		}
		out.Set(k, v[0])
	}
	return out
}
