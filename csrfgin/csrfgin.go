// Package csrfgin adapts csrf.Protector to gin.
package csrfgin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JeanGrijp/go-csrf-token/csrf"
)

// PayloadKey is the gin context key holding the verified payload.
const PayloadKey = "csrf_payload"

type source struct {
	c *gin.Context
}

// Source adapts a gin context to csrf.TokenSource.
func Source(c *gin.Context) csrf.TokenSource {
	return source{c: c}
}

func (s source) CookieValue(name string) (string, bool) {
	// gin unescapes the value; the token alphabet never needs escaping.
	v, err := s.c.Cookie(name)
	if err != nil {
		return "", false
	}
	return v, true
}

func (s source) HeaderValue(name string) (string, bool) {
	v := s.c.Request.Header.Values(name)
	if len(v) == 0 {
		return "", false
	}
	return v[0], true
}

// Middleware verifies requests whose method is protected by the
// Protector's settings. Rejections abort with the error status and
// {"detail": <message>}. Outcomes go to the Protector's Recorder and
// logger, as with csrf.Protect.
func Middleware(p *csrf.Protector) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !p.Settings().Protects(c.Request.Method) {
			c.Next()
			return
		}
		if !Verify(c, p) {
			return
		}
		c.Next()
	}
}

// Verify is the inline form: it validates the request with an optional
// time limit and aborts on failure. It reports whether the handler may go on.
func Verify(c *gin.Context, p *csrf.Protector, maxAge ...int) bool {
	limit := p.Settings().MaxAge()
	if len(maxAge) > 0 {
		limit = maxAge[0]
	}
	res := p.CheckRequest(c.Request.Method, Source(c), limit)
	if res.Err != nil {
		Abort(c, res.Err)
		return false
	}
	c.Set(PayloadKey, res.Payload)
	return true
}

// Abort stops the chain with the status and message carried by err.
func Abort(c *gin.Context, err error) {
	var ce *csrf.Error
	if errors.As(err, &ce) {
		c.AbortWithStatusJSON(ce.StatusCode, gin.H{"detail": ce.Message})
		return
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
}

// SetCookie issues a token for sessionID and sets it on the response.
func SetCookie(c *gin.Context, p *csrf.Protector, sessionID string, o *csrf.CookieOptions) (string, error) {
	return p.SetCookie(c.Writer, sessionID, o)
}

// UnsetCookie deletes the token cookie.
func UnsetCookie(c *gin.Context, p *csrf.Protector, o *csrf.CookieOptions) {
	p.UnsetCookie(c.Writer, o)
}

// Payload returns the payload stored by Middleware or Verify.
func Payload(c *gin.Context) (string, bool) {
	v, ok := c.Get(PayloadKey)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
