package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/paybridge/datatrans-gateway/internal/logging"
)

func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log := logging.FromContext(r.Context())
				log.Error("panic recovered", "error", err, "stack", string(debug.Stack()))
				// Plain text keeps the gateway's retry loop alive on both
				// surfaces; the IPN protocol never sees JSON.
				http.Error(w, "Failure: internal error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
