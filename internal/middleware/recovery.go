package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/josh-kwaku/user-directory/internal/handler"
	"github.com/josh-kwaku/user-directory/internal/logging"
)

// Recovery turns a handler panic into a 500 envelope. It belongs inside
// Logging so the panic is logged with the request logger.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			if err == http.ErrAbortHandler {
				panic(err)
			}

			logging.FromContext(r.Context()).Error("panic recovered",
				"error", err,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			handler.RespondAppError(w, handler.ErrInternalError, nil)
		}()
		next.ServeHTTP(w, r)
	})
}
