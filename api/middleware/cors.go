package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000", // local dev
	"http://localhost:5173", // vite dev server
}

// CORS returns middleware that applies the API's allowed origin policy.
// Extra origins from config are appended to the defaults.
func CORS(extraOrigins string) func(http.Handler) http.Handler {
	origins := append([]string{}, defaultCORSOrigins...)
	for _, origin := range strings.Split(extraOrigins, ",") {
		if o := strings.TrimSpace(origin); o != "" {
			origins = append(origins, o)
		}
	}

	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
