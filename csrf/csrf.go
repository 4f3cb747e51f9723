package csrf

import (
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// MessageBadOrigin is the detail returned when the origin check fails.
const MessageBadOrigin = "The request origin is not allowed."

// Protect wraps next and enforces CSRF protection.
//
// Behavior:
//   - Methods not in Settings.Methods pass through untouched.
//   - Protected methods optionally have their Origin/Referer checked (see
//     WithOriginCheck), then must carry a valid token in the cookie or, if
//     there is no cookie, in the header. The verified payload is stored in
//     the request context.
//   - Failures answer 400 with {"detail": <message>}; a failed origin
//     check answers 403.
//
// Params:
// - next: downstream handler executed after the checks pass.
//
// Returns:
// - An http.Handler that performs the CSRF logic before delegating to next.
func (p *Protector) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !p.settings.Protects(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		if p.originCheck {
			if reason := originMismatch(r, p.allowedOrigin); reason != "" {
				p.log.Debug("csrf origin rejected",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("reason", reason))
				p.rec.Verified(r.Method, OutcomeBadOrigin)
				writeJSON(w, http.StatusForbidden, map[string]string{"detail": MessageBadOrigin})
				return
			}
		}

		res := p.CheckRequest(r.Method, RequestSource(r), p.settings.maxAge)
		if res.Err != nil {
			WriteError(w, res.Err)
			return
		}

		next.ServeHTTP(w, r.WithContext(contextWithPayload(r.Context(), res.Payload)))
	})
}

// SetCookie issues a token for sessionID and sets it on w.
//
// Returns:
// - the token value, so it can also be rendered into a page or JSON body.
func (p *Protector) SetCookie(w http.ResponseWriter, sessionID string, o *CookieOptions) (string, error) {
	c, err := p.Issue(sessionID, o)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, c)
	return c.Value, nil
}

// UnsetCookie deletes the token cookie on w.
func (p *Protector) UnsetCookie(w http.ResponseWriter, o *CookieOptions) {
	http.SetCookie(w, p.Revoke(o))
}

// TokenHandler returns an HTTP handler that issues a fresh token cookie.
// This is useful for SPAs that read the token and send it back in the
// header on later requests.
//
// Returns:
// - http.Handler that responds with {"csrf_token": <token>} and no-store caching.
func (p *Protector) TokenHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, err := p.SetCookie(w, "", nil)
		if err != nil {
			p.log.Error("csrf token issue failed", zap.Error(err))
			WriteError(w, err)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		writeJSON(w, http.StatusOK, map[string]string{"csrf_token": tok})
	})
}

// originMismatch names why r fails the origin policy, or returns "" when
// it passes. Origin wins over Referer; only the host:port is compared,
// against allowed or, when empty, r.Host.
func originMismatch(r *http.Request, allowed string) string {
	if allowed == "" {
		allowed = r.Host
	}
	header, v := "origin", r.Header.Get("Origin")
	if v == "" {
		header, v = "referer", r.Header.Get("Referer")
	}
	if v == "" {
		return "no origin or referer"
	}
	u, err := url.Parse(v)
	if err != nil || !strings.EqualFold(u.Host, allowed) {
		return "bad " + header
	}
	return ""
}
