package httpapi

import (
	"context"
	"net/http"

	"github.com/dkravchuk/contactbook/internal/common"
	"github.com/dkravchuk/contactbook/internal/server/models"
)

type ctxKey string

const userKey ctxKey = "user"

// UserFromContext returns the user stored by requireAuth.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, "Not authenticated")
}

// requireAuth resolves the Authorization header into a user and stores it in
// the request context. Any failure yields 401 with a WWW-Authenticate hint.
func (s *HTTPServer) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		bearer := r.Header.Get(common.AuthorizationHeaderName)
		if bearer == "" {
			unauthorized(w)
			return
		}

		user, err := s.tokens.Authenticate(r.Context(), bearer)
		if err != nil {
			unauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
