package middlewares

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/aashish4533/bloombook/internal/api/apperr"
)

// Recovery turns a handler panic into a 500 problem and logs the stack.
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func Recovery(log *zap.Logger) Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}
				log.Error("panic recovered",
					zap.String("request_id", GetRequestID(r)),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Any("panic", v),
					zap.Stack("stack"),
				)
				apperr.Write(w, r, apperr.Problem{Status: http.StatusInternalServerError, Title: "Internal Server Error"})
			}()
			next.ServeHTTP(w, r)
		})
	}
}
