package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// CORS answers preflight requests and stamps the allow headers for origins in
// allowed. A single "*" allows any origin; an empty list disables CORS.
func CORS(allowed []string) func(http.Handler) http.Handler {
	origins := make([]string, 0, len(allowed))
	for _, origin := range allowed {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		// go-chi/cors treats an empty list as allow-all.
		return func(next http.Handler) http.Handler { return next }
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", TraceIDHeader, "X-Request-Id"},
		ExposedHeaders: []string{TraceIDHeader},
		MaxAge:         300,
	})
}
