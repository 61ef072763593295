package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/route"
)

type ctxKey int

const ctxKeyClient ctxKey = iota

const (
	clientCookieName   = "studio_client"
	clientCookieMaxAge = 365 * 24 * time.Hour
)

// clientMiddleware resolves the browsing context from the studio_client
// cookie, issuing a new one when it is missing or malformed.
func clientMiddleware(clients *Registry, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if cookie, err := r.Cookie(clientCookieName); err == nil {
				if parsed, err := uuid.Parse(cookie.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     clientCookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   int(clientCookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			client, err := clients.Get(r.Context(), id)
			if err != nil {
				clients.logger.Error("opening client", "client", id, "error", err)
				writeError(w, http.StatusInternalServerError, "client unavailable")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyClient, client)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireSet lets a request through only while the gate selects want.
func requireSet(want route.Set) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch route.Gate(clientFrom(r).Session.Snapshot()) {
			case want:
				next.ServeHTTP(w, r)
			case route.SetLoading:
				writeError(w, http.StatusConflict, "session loading")
			case route.SetUnauthenticated:
				writeError(w, http.StatusUnauthorized, "not authenticated")
			default:
				writeError(w, http.StatusConflict, "already signed in")
			}
		})
	}
}

func clientFrom(r *http.Request) *Client {
	return r.Context().Value(ctxKeyClient).(*Client)
}
