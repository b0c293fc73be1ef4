package http

import "net/http"

// NotFoundHandler returns a JSON 404 response for paths outside the
// catalog, cart, and order surfaces.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "unknown endpoint")
	})
}
