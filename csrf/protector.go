package csrf

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Outcome is the result of checking a request for a token.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeMissingToken
	OutcomeExpired
	OutcomeInvalid
	// OutcomeBadOrigin is reported by Protect when the origin check fails.
	OutcomeBadOrigin
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeMissingToken:
		return "missing"
	case OutcomeExpired:
		return "expired"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeBadOrigin:
		return "bad_origin"
	default:
		return "unknown"
	}
}

// Result is what Check found. Err is nil only for OutcomeOK.
type Result struct {
	Payload string
	Outcome Outcome
	Err     error
}

// Recorder observes issued tokens and verification outcomes.
// See package csrfprom for a Prometheus implementation.
type Recorder interface {
	TokenIssued()
	Verified(method string, o Outcome)
}

type nopRecorder struct{}

func (nopRecorder) TokenIssued() {}
func (nopRecorder) Verified(string, Outcome) {}

// Option configures a Protector.
type Option func(*Protector)

// WithSalt narrows the signing context of the default codec.
func WithSalt(salt string) Option {
	return func(p *Protector) { p.salt = salt }
}

// WithCodec replaces the HMAC codec. The salt is ignored when set.
func WithCodec(c Codec) Option {
	return func(p *Protector) { p.codec = c }
}

// WithLogger sets the logger used by the HTTP middleware and handlers.
func WithLogger(l *zap.Logger) Option {
	return func(p *Protector) {
		if l != nil {
			p.log = l
		}
	}
}

// WithRecorder sets the outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(p *Protector) {
		if r != nil {
			p.rec = r
		}
	}
}

// WithOriginCheck makes Protect reject protected requests whose Origin
// (or, when absent, Referer) host differs from allowedHost. An empty
// allowedHost means the request's own Host.
func WithOriginCheck(allowedHost string) Option {
	return func(p *Protector) {
		p.originCheck = true
		p.allowedOrigin = allowedHost
	}
}

// Protector issues and verifies tokens under a fixed Settings.
// It holds no mutable state and is safe for concurrent use.
type Protector struct {
	settings Settings
	salt     string
	codec    Codec

	log           *zap.Logger
	rec           Recorder
	originCheck   bool
	allowedOrigin string
}

// New returns a Protector for settings, which must come from NewSettings.
func New(settings Settings, opts ...Option) (*Protector, error) {
	if !settings.valid() {
		return nil, configError("csrf: settings must be built with NewSettings")
	}
	p := &Protector{
		settings: settings,
		log:      zap.NewNop(),
		rec:      nopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.codec == nil {
		s, err := NewSigner(settings.secretKey, p.salt)
		if err != nil {
			return nil, err
		}
		p.codec = s
	}
	return p, nil
}

// Settings returns the policy p was built with.
func (p *Protector) Settings() Settings {
	return p.settings
}

// CookieOptions overrides Settings for a single Issue or Revoke call.
// Nil fields fall back to the Settings value. An explicit MaxAge of zero
// or less makes Issue emit Max-Age=0, so the browser drops the cookie.
type CookieOptions struct {
	MaxAge   *int
	Path     *string
	Domain   *string
	Secure   *bool
	HTTPOnly *bool
	SameSite *SameSite
}

// Issue mints a token for sessionID (random when empty) and returns the
// cookie that carries it. The caller applies it to the response.
func (p *Protector) Issue(sessionID string, o *CookieOptions) (*http.Cookie, error) {
	tok, err := p.codec.Encode(sessionID)
	if err != nil {
		return nil, err
	}
	c := p.cookie(o)
	c.Value = tok
	c.MaxAge = p.settings.maxAge
	if o != nil && o.MaxAge != nil {
		// http.Cookie treats 0 as unset and writes Max-Age=0 for negatives.
		c.MaxAge = *o.MaxAge
		if c.MaxAge <= 0 {
			c.MaxAge = -1
		}
	}
	p.rec.TokenIssued()
	return c, nil
}

// Revoke returns a cookie that deletes the token cookie. Name, path and
// domain resolve the same way as in Issue so the browser overwrites it.
func (p *Protector) Revoke(o *CookieOptions) *http.Cookie {
	c := p.cookie(o)
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0).UTC()
	return c
}

func (p *Protector) cookie(o *CookieOptions) *http.Cookie {
	s := p.settings
	c := &http.Cookie{
		Name:     s.cookieName,
		Path:     s.cookiePath,
		Domain:   s.cookieDomain,
		Secure:   s.cookieSecure,
		HttpOnly: s.cookieHTTPOnly,
		SameSite: s.cookieSameSite.HTTP(),
	}
	if o == nil {
		return c
	}
	if o.Path != nil {
		c.Path = *o.Path
	}
	if o.Domain != nil {
		c.Domain = *o.Domain
	}
	if o.Secure != nil {
		c.Secure = *o.Secure
	}
	if o.HTTPOnly != nil {
		c.HttpOnly = *o.HTTPOnly
	}
	if o.SameSite != nil {
		c.SameSite = o.SameSite.HTTP()
	}
	return c
}

// Check looks up the token (cookie first, then header) and decodes it with
// maxAge seconds as the limit.
func (p *Protector) Check(src TokenSource, maxAge int) Result {
	tok, ok := src.CookieValue(p.settings.cookieName)
	if !ok {
		tok, ok = src.HeaderValue(p.settings.headerName)
	}
	if !ok {
		return Result{Outcome: OutcomeMissingToken, Err: missingTokenError()}
	}
	payload, err := p.codec.Decode(tok, maxAge)
	if err != nil {
		res := Result{Outcome: OutcomeInvalid, Err: validationError(err)}
		if errors.Is(err, ErrTokenExpired) {
			res.Outcome = OutcomeExpired
		}
		return res
	}
	return Result{Payload: payload, Outcome: OutcomeOK}
}

// CheckRequest is Check for a request made with method. The outcome goes
// to the Recorder and rejections are logged at debug level. HTTP adapters
// use it so every transport reports the same metrics.
func (p *Protector) CheckRequest(method string, src TokenSource, maxAge int) Result {
	res := p.Check(src, maxAge)
	p.rec.Verified(method, res.Outcome)
	if res.Err != nil {
		p.log.Debug("csrf token rejected",
			zap.String("method", method),
			zap.Stringer("outcome", res.Outcome))
	}
	return res
}

// Verify checks src against the Settings max age and returns the payload.
// Failures are *Error values: MessageMissing for an absent token, and
// MessageExpired or MessageInvalid for a rejected one.
func (p *Protector) Verify(src TokenSource) (string, error) {
	return p.VerifyWithin(src, p.settings.maxAge)
}

// VerifyWithin is Verify with an explicit age limit in seconds.
func (p *Protector) VerifyWithin(src TokenSource, maxAge int) (string, error) {
	res := p.Check(src, maxAge)
	return res.Payload, res.Err
}
