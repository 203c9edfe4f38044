package service

// Small pluggable auth helpers.  Deployments that want to protect the RPC
// endpoint with a static API key, a static bearer token or engine-issued JWTs
// pick a checker; anything heavier (OAuth, mTLS) can wrap the handler itself.

import (
	"net/http"
	"strings"

	"github.com/theapemachine/a2a-engine/pkg/auth"
)

/*
AuthChecker validates an incoming HTTP request and names the caller.
Returning false means the request is unauthorized.
*/
type AuthChecker interface {
	Authorize(r *http.Request) (User, bool)
}

// APIKeyAuth checks for header "X-API-Key: <key>".
type APIKeyAuth struct{ Key string }

func (a APIKeyAuth) Authorize(r *http.Request) (User, bool) {
	if r.Header.Get("X-API-Key") != a.Key {
		return Anonymous, false
	}

	return User{Name: "api-key", Authenticated: true}, true
}

// BearerAuth checks "Authorization: Bearer <token>" against a static token.
type BearerAuth struct{ Token string }

func (b BearerAuth) Authorize(r *http.Request) (User, bool) {
	header := r.Header.Get("Authorization")

	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return Anonymous, false
	}

	if strings.TrimSpace(header[7:]) != b.Token {
		return Anonymous, false
	}

	return User{Name: "bearer", Authenticated: true}, true
}

// JWTAuth validates engine-issued JWTs and names the caller by subject.
type JWTAuth struct{ Service *auth.Service }

func (j JWTAuth) Authorize(r *http.Request) (User, bool) {
	header := r.Header.Get("Authorization")

	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return Anonymous, false
	}

	subject, err := j.Service.ValidateToken(strings.TrimSpace(header[7:]))

	if err != nil {
		return Anonymous, false
	}

	return User{Name: subject, Authenticated: true}, true
}

/*
AuthMiddleware wraps h, returning 401 when the checker denies the request
and attaching the caller's identity to the request context otherwise.  A nil
checker admits everyone as the anonymous user.
*/
func AuthMiddleware(checker AuthChecker, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := Anonymous

		if checker != nil {
			var ok bool

			if user, ok = checker.Authorize(r); !ok {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
		}

		ctx := WithCallContext(r.Context(), &CallContext{User: user})
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}
