// Package csrf issues and verifies signed, time-limited anti-forgery tokens.
//
// How it works
//   - A token is a payload (a session id, or 160 random bits in hex) plus the
//     signing time, both covered by an HMAC-SHA256 whose key is derived from
//     a server secret and an optional salt. The result is base64url text
//     that can be used verbatim as a cookie value or header value.
//   - Issue mints a token and returns the *http.Cookie that carries it;
//     Revoke returns the cookie that deletes it. The caller applies them.
//   - Verify reads the token from the cookie, falling back to the header,
//     and checks signature and age. Verification is stateless.
//
// # Configuration
//
// Options holds the raw settings; NewSettings validates them once, at
// startup, and the resulting Settings is immutable. Key fields include:
//   - SecretKey (required), MaxAge (default: 3600 seconds)
//   - HeaderName (default: "X-CSRF-Token")
//   - Methods (default: POST, PUT, PATCH, DELETE)
//   - CookieName (default: "FAPICSRFTOKEN"), CookiePath, CookieDomain,
//     CookieSecure, CookieHTTPOnly (default: true), CookieSameSite
//     ("strict", "lax" or "none"; default "none")
//
// Package csrfconfig loads Options from CSRF_* environment variables.
//
// # Errors
//
// Every failure is a *Error carrying StatusCode 400 and the message
// adopters expect in a {"detail": ...} body:
//   - missing token: "The CSRF token is missing"
//   - expired token: "The CSRF token has expired."
//   - bad token: "The CSRF token is invalid."
//
// Use errors.Is with ErrMissingToken, ErrTokenValidation, ErrTokenExpired
// or ErrTokenInvalid to tell them apart.
//
// Typical usage
//
//	settings, err := csrf.NewSettings(csrf.Options{SecretKey: key})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	p, _ := csrf.New(settings, csrf.WithSalt("forms"))
//	r.Get("/csrf-token", p.TokenHandler().ServeHTTP)
//	r.With(p.Protect).Post("/transfer", transfer)
//
// Handlers behind Protect can read the verified payload:
//
//	if sid, ok := csrf.PayloadFromContext(r.Context()); ok {
//	    // sid is the session id the token was bound to
//	}
package csrf
