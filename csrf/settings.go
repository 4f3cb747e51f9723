package csrf

import (
	"net/http"
	"slices"
	"strings"
)

// Defaults applied by NewSettings when an option is left zero.
const (
	DefaultMaxAge     = 3600
	DefaultHeaderName = "X-CSRF-Token"
	DefaultCookieName = "FAPICSRFTOKEN"
	DefaultCookiePath = "/"
)

var defaultMethods = []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

// DefaultMethods returns the request methods that require a token when
// Options.Methods is empty. The slice is a fresh copy.
func DefaultMethods() []string {
	return slices.Clone(defaultMethods)
}

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodHead:   true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

// SameSite is the cookie SameSite attribute accepted by Settings.
type SameSite string

const (
	SameSiteStrict SameSite = "strict"
	SameSiteLax    SameSite = "lax"
	SameSiteNone   SameSite = "none"
)

// ParseSameSite matches s against the three lowercase literals.
// Matching is case-sensitive: "Lax" is rejected.
func ParseSameSite(s string) (SameSite, error) {
	switch v := SameSite(s); v {
	case SameSiteStrict, SameSiteLax, SameSiteNone:
		return v, nil
	}
	return "", configError("Value %q for SAMESITE must be one of the following: 'strict', 'lax', 'none'", s)
}

// HTTP converts s to the net/http representation.
func (s SameSite) HTTP() http.SameSite {
	switch s {
	case SameSiteStrict:
		return http.SameSiteStrictMode
	case SameSiteLax:
		return http.SameSiteLaxMode
	case SameSiteNone:
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}

// Options is the raw, unvalidated configuration. String-typed fields are
// what an environment or config file supplies; zero values pick defaults.
type Options struct {
	SecretKey  string
	MaxAge     int // seconds
	HeaderName string
	Methods    []string

	CookieName   string
	CookiePath   string
	CookieDomain string
	CookieSecure bool
	// nil means true
	CookieHTTPOnly *bool
	// "strict", "lax" or "none"; empty means "none"
	CookieSameSite string
}

// Settings is a validated, immutable policy. The zero value is not usable;
// build one with NewSettings.
type Settings struct {
	secretKey  string
	maxAge     int
	headerName string
	methods    map[string]bool

	cookieName     string
	cookiePath     string
	cookieDomain   string
	cookieSecure   bool
	cookieHTTPOnly bool
	cookieSameSite SameSite
}

// NewSettings validates opts and returns the resulting policy.
//
// Returns:
//   - a *Error of kind KindConfig when the secret is empty, MaxAge is
//     negative, a method is outside {GET, HEAD, POST, PUT, DELETE, PATCH},
//     or CookieSameSite is not one of "strict", "lax", "none".
func NewSettings(opts Options) (Settings, error) {
	if opts.SecretKey == "" {
		return Settings{}, configError("CSRF_SECRET_KEY is required")
	}
	s := Settings{
		secretKey:      opts.SecretKey,
		maxAge:         opts.MaxAge,
		headerName:     strings.TrimSpace(opts.HeaderName),
		cookieName:     strings.TrimSpace(opts.CookieName),
		cookiePath:     opts.CookiePath,
		cookieDomain:   opts.CookieDomain,
		cookieSecure:   opts.CookieSecure,
		cookieHTTPOnly: true,
		cookieSameSite: SameSiteNone,
	}
	switch {
	case s.maxAge < 0:
		return Settings{}, configError("CSRF_MAX_AGE must be positive, got %d", s.maxAge)
	case s.maxAge == 0:
		s.maxAge = DefaultMaxAge
	}
	if s.headerName == "" {
		s.headerName = DefaultHeaderName
	}
	if s.cookieName == "" {
		s.cookieName = DefaultCookieName
	}
	if s.cookiePath == "" {
		s.cookiePath = DefaultCookiePath
	}
	if opts.CookieHTTPOnly != nil {
		s.cookieHTTPOnly = *opts.CookieHTTPOnly
	}
	if opts.CookieSameSite != "" {
		ss, err := ParseSameSite(opts.CookieSameSite)
		if err != nil {
			return Settings{}, err
		}
		s.cookieSameSite = ss
	}

	methods := opts.Methods
	if len(methods) == 0 {
		methods = defaultMethods
	}
	s.methods = make(map[string]bool, len(methods))
	for _, m := range methods {
		method := strings.ToUpper(strings.TrimSpace(m))
		if !allowedMethods[method] {
			return Settings{}, configError("The method %s is not allowed", method)
		}
		s.methods[method] = true
	}
	return s, nil
}

// MustSettings is like NewSettings but panics on error. Meant for tests
// and package-level wiring where a bad literal is a programming error.
func MustSettings(opts Options) Settings {
	s, err := NewSettings(opts)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Settings) MaxAge() int { return s.maxAge }
func (s Settings) HeaderName() string { return s.headerName }
func (s Settings) CookieName() string { return s.cookieName }
func (s Settings) CookiePath() string { return s.cookiePath }
func (s Settings) CookieDomain() string { return s.cookieDomain }
func (s Settings) CookieSecure() bool { return s.cookieSecure }
func (s Settings) CookieHTTPOnly() bool { return s.cookieHTTPOnly }
func (s Settings) CookieSameSite() SameSite { return s.cookieSameSite }

// Protects reports whether requests with the given method must carry a token.
func (s Settings) Protects(method string) bool {
	return s.methods[strings.ToUpper(method)]
}

// Methods returns the protected methods in sorted order.
func (s Settings) Methods() []string {
	out := make([]string, 0, len(s.methods))
	for m := range s.methods {
		out = append(out, m)
	}
	slices.Sort(out)
	return out
}

// String omits the secret.
func (s Settings) String() string {
	var b strings.Builder
	b.WriteString("csrf.Settings{cookie=")
	b.WriteString(s.cookieName)
	b.WriteString(" header=")
	b.WriteString(s.headerName)
	b.WriteString(" methods=")
	b.WriteString(strings.Join(s.Methods(), ","))
	b.WriteString(" samesite=")
	b.WriteString(string(s.cookieSameSite))
	b.WriteString("}")
	return b.String()
}

func (s Settings) valid() bool {
	return s.secretKey != "" && s.methods != nil
}
