package http

import (
	"net/http"

	"github.com/vyxlo/platform/pkg/httputil"
)

// GetMe handles GET /api/v1/users/me
func GetMe(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, http.StatusOK, currentUser(r))
}
