package middleware

import (
	"mime"
	"net/http"

	"go.uber.org/zap"
)

// ContentType rejects request bodies that are not JSON
func ContentType(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut {
				contentType := r.Header.Get("Content-Type")
				// PUT /notifications/{id} carries no body.
				if contentType == "" && r.ContentLength > 0 {
					respondErrorJSON(w, r, http.StatusBadRequest, "validation", "Content-Type header is required", logger)
					return
				}
				if contentType != "" {
					mediaType, _, err := mime.ParseMediaType(contentType)
					if err != nil || mediaType != "application/json" {
						respondErrorJSON(w, r, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json", logger)
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
