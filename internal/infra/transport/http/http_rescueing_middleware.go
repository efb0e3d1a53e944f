package http

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/mkrupp/tasktracker/internal/infra/logging"
)

// RescueingMiddleware creates middleware that turns handler panics into a JSON 500.
// When the handler already started its response, the connection is aborted instead,
// since the status can no longer change. http.ErrAbortHandler passes through untouched.
func RescueingMiddleware(next http.Handler, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := NewResponseRecorder(w)

		defer func() {
			p := recover()
			if p == nil {
				return
			}

			if p == http.ErrAbortHandler { //nolint:errorlint,err113
				panic(p)
			}

			log.With(logging.Group("http", "method", r.Method, "url", r.URL.String(), "route", r.Pattern)).
				ErrorContext(r.Context(), "handler panicked",
					"error", fmt.Errorf("panic: %v", p),
					"stack", string(debug.Stack()),
					"written", rec.Written(),
				)

			if rec.Written() {
				panic(http.ErrAbortHandler)
			}

			WriteError(rec, http.StatusInternalServerError, "internal server error", nil)
		}()

		next.ServeHTTP(rec, r)
	})
}
