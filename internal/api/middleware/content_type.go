package middleware

import (
	"mime"
	"net/http"

	"github.com/travelmodel/modechoice/internal/api/models"
)

// ContentTypeJSON defaults responses to application/json. Handlers that
// write problem documents override it.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

// RequireJSON rejects request bodies that are declared as anything other
// than JSON. Evaluation payloads are household and trip chain documents, so
// a missing Content-Type is accepted and left to the decoder.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			if contentType := r.Header.Get("Content-Type"); contentType != "" && !isJSON(contentType) {
				problem := models.NewUnsupportedMediaType(GetRequestID(r.Context()),
					"request body must be application/json, got "+contentType)
				problem.Instance = r.URL.Path
				problem.Write(w)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && (mediaType == "application/json" || mediaType == "application/problem+json")
}
