package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

const defaultFrontendOrigin = "http://localhost:3000"

// CORS creates CORS middleware for the given origins, handling OPTIONS preflight requests
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           86400,
	})
	return c.Handler
}

// CORSFromEnv creates CORS middleware from FRONTEND_URL (comma-separated origins)
func CORSFromEnv(frontendURL string) func(http.Handler) http.Handler {
	return CORS(ParseOrigins(frontendURL))
}

// ParseOrigins splits a comma-separated origin list, dropping blanks and
// duplicates. The local frontend origin is always included.
func ParseOrigins(frontendURL string) []string {
	origins := []string{defaultFrontendOrigin}
	seen := map[string]bool{defaultFrontendOrigin: true}
	for _, origin := range strings.Split(frontendURL, ",") {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		origins = append(origins, trimmed)
	}
	return origins
}
