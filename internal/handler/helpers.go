package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"noslimites/api/internal/transport/http/middleware"
)

// currentUserID pulls the authenticated user's ID out of the request
// context. False means the route was mounted without the auth middleware.
func currentUserID(r *http.Request) (int64, bool) {
	return middleware.GetUserIDFromContext(r.Context())
}

// pathParam returns a chi URL parameter.
func pathParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// pathID parses a numeric chi URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
