// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package web

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Imfractical/uprofile/internal/account"
)

// SessionCookie names the cookie carrying the session token.
const SessionCookie = "session"

type principalKey struct{}

type principal struct {
	acct    *account.Account
	session *account.Session
}

func principalFrom(ctx context.Context) principal {
	p, _ := ctx.Value(principalKey{}).(principal)
	return p
}

// sessionToken reads the bearer token from the Authorization header, falling
// back to the session cookie.
func sessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// requireSession rejects requests without a live session of an active account.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acct, session, err := h.accounts.Authenticated(r.Context(), sessionToken(r))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), principalKey{}, principal{acct: acct, session: session})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, grant *account.SessionGrant) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    grant.Token,
		Path:     "/",
		Expires:  grant.Session.ExpiresAt,
		MaxAge:   int(time.Until(grant.Session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// clientIP returns the request address without its port. RealIP has already
// applied forwarding headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
