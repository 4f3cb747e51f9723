package csrf

import (
	"maps"
	"net/http"
	"slices"
)

// TokenSource is anything a token can be read from. The second result
// reports presence, so an empty cookie is still a (bad) token.
type TokenSource interface {
	CookieValue(name string) (string, bool)
	HeaderValue(name string) (string, bool)
}

type requestSource struct {
	r *http.Request
}

// RequestSource adapts an *http.Request to TokenSource.
func RequestSource(r *http.Request) TokenSource {
	return requestSource{r: r}
}

func (s requestSource) CookieValue(name string) (string, bool) {
	c, err := s.r.Cookie(name)
	if err != nil {
		return "", false
	}
	return c.Value, true
}

func (s requestSource) HeaderValue(name string) (string, bool) {
	v := s.r.Header.Values(name)
	if len(v) == 0 {
		return "", false
	}
	return v[0], true
}

// StaticSource is a TokenSource backed by plain maps. Useful in tests and
// for transports that are not HTTP requests.
type StaticSource struct {
	Cookies map[string]string
	Headers map[string]string
}

func (s StaticSource) CookieValue(name string) (string, bool) {
	v, ok := s.Cookies[name]
	return v, ok
}

// HeaderValue matches name case-insensitively, like HTTP header lookup.
// The canonical spelling wins when several keys match; otherwise the
// first matching key in sorted order does.
func (s StaticSource) HeaderValue(name string) (string, bool) {
	want := http.CanonicalHeaderKey(name)
	if v, ok := s.Headers[want]; ok {
		return v, true
	}
	for _, k := range slices.Sorted(maps.Keys(s.Headers)) {
		if http.CanonicalHeaderKey(k) == want {
			return s.Headers[k], true
		}
	}
	return "", false
}
