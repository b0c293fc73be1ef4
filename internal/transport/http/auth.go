package http

import "net/http"

// The identity service in front of this API authenticates the caller
// and forwards the resolved user as a header; the core never verifies
// credentials itself.
const userHeader = "X-User-ID"

// requireUser returns the caller's user ID, writing a 401 and
// returning false when the identity layer did not supply one.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, codeUserRequired, "user id required")
		return "", false
	}
	return userID, true
}
