package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS wraps the whole engine so preflight requests are answered before
// routing. Any origin may call the API.
func CORS(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			ActorHeader,
			RequestIDHeader,
		},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	})(next)
}
