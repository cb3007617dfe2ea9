package middleware

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"lembretes/internal/handlers"
)

// Recovery answers a panicking request with a 500 error body. When the
// handler already started its response only the log entry is written.
// http.ErrAbortHandler is passed through untouched.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := newStatusRecorder(w)
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}

				logger.Error("panic recovered",
					zap.Any("panic", v),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Bool("response_started", rec.started),
					zap.Stack("stack"),
				)
				if !rec.started {
					handlers.WriteError(rec, http.StatusInternalServerError, "INTERNAL_ERROR", "Erro interno do servidor")
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
