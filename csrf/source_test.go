package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticSourceHeaderValue(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		want    string
		found   bool
	}{
		{name: "canonical", headers: map[string]string{"X-Csrf-Token": "a"}, want: "a", found: true},
		{name: "lowercase", headers: map[string]string{"x-csrf-token": "b"}, want: "b", found: true},
		{name: "canonical wins", headers: map[string]string{"x-csrf-token": "low", "X-Csrf-Token": "canon", "X-CSRF-TOKEN": "up"}, want: "canon", found: true},
		{name: "sorted order otherwise", headers: map[string]string{"x-csrf-token": "low", "X-CSRF-TOKEN": "up"}, want: "up", found: true},
		{name: "absent", headers: map[string]string{"X-Other": "c"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for range 20 {
				v, ok := StaticSource{Headers: tc.headers}.HeaderValue(DefaultHeaderName)
				assert.Equal(t, tc.found, ok)
				assert.Equal(t, tc.want, v)
			}
		})
	}
}

func TestRequestSourcePresence(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: ""})
	src := RequestSource(req)

	v, ok := src.CookieValue(DefaultCookieName)
	assert.True(t, ok)
	assert.Empty(t, v)

	_, ok = src.HeaderValue(DefaultHeaderName)
	assert.False(t, ok)
}
