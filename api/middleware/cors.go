package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS applies the origin policy. Storefronts live on arbitrary custom
// domains, so deployments usually keep the wildcard.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-Id", "X-Requested-With"},
		ExposedHeaders: []string{"X-Request-Id", "Idempotent-Replayed"},
		MaxAge:         300,
	}).Handler
}
