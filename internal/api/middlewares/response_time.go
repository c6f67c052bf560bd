package middlewares

import (
	"net/http"
	"time"

	"github.com/aashish4533/bloombook/internal/metrics"
)

// timingWriter stamps X-Response-Time just before the header goes out.
type timingWriter struct {
	http.ResponseWriter
	start  time.Time
	status int
}

func (w *timingWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
		w.Header().Set("X-Response-Time", time.Since(w.start).String())
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *timingWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// ResponseTime sets X-Response-Time and feeds the request latency histogram.
// m may be nil.
func ResponseTime(m *metrics.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tw := &timingWriter{ResponseWriter: w, start: time.Now()}
			next.ServeHTTP(tw, r)
			if tw.status == 0 {
				tw.WriteHeader(http.StatusOK)
			}
			m.ObserveRequest(r.Method, tw.status, time.Since(tw.start))
		})
	}
}
