package server

import (
	"net/http"
	"strings"

	"github.com/qkhacks/controller/internal/auth"
	"github.com/rs/zerolog"
)

// requireAuth verifies the bearer token and puts the caller identity on the
// request context. Requests without a valid token get a 401 with the standard
// error envelope.
func requireAuth(issuer *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenStr == "" {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Success: false, Message: "invalid access token"})
				return
			}

			identity, err := issuer.Verify(tokenStr)
			if err != nil {
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("Token verification failed")
				writeJSON(w, http.StatusUnauthorized, errorResponse{Success: false, Message: "invalid access token"})
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

// callerFrom returns the identity placed on the context by requireAuth. It
// only ever runs behind that middleware, so a missing identity is a wiring
// bug, not a client error.
func callerFrom(r *http.Request) auth.Identity {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		panic("no identity on request context")
	}
	return identity
}
