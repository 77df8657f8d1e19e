// Package recoverer provides a panic recovery middleware that answers with a JSON error body.
package recoverer

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

const panicMessage = "internal server error"

type errorResponse struct {
	Error string `json:"error"`
}

// New returns a middleware that recovers from panics, logs them with the request ID and
// responds with 500. http.ErrAbortHandler is re-panicked so the server can abort the response.
func New(logger *slog.Logger) func(http.Handler) http.Handler {
	const op = "middleware.recoverer.New"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				logger.Error(
					"panic recovered",
					slog.Group(op,
						slog.Any("panic", rec),
						slog.String("request_id", middleware.GetReqID(r.Context())),
						slog.String("stack", string(debug.Stack())),
					),
				)

				if r.Header.Get("Connection") == "Upgrade" {
					return
				}

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, errorResponse{Error: panicMessage})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
