package csrf

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tokenAlphabet = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	hex40         = regexp.MustCompile(`^[0-9a-f]{40}$`)
)

// fixedClock returns a clock pinned at t and a function to move it.
func fixedClock(t time.Time) (func() time.Time, func(time.Duration)) {
	now := t
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func newTestSigner(t *testing.T, secret, salt string) (*Signer, func(time.Duration)) {
	t.Helper()
	s, err := NewSigner(secret, salt)
	require.NoError(t, err)
	clock, advance := fixedClock(time.Unix(1_700_000_000, 0))
	s.now = clock
	return s, advance
}

func TestSignerRoundTrip(t *testing.T) {
	payloads := []string{
		"session-1",
		"3f0b0d1c-6a8e-4a49-9a1a-2f1d5a1c1f90",
		"dots.and;semicolons, spaces",
		"ünïcödé ✓",
		strings.Repeat("x", 2048),
	}
	for _, salt := range []string{"", "forms", "api"} {
		s, _ := newTestSigner(t, "secret", salt)
		for _, p := range payloads {
			tok, err := s.Encode(p)
			require.NoError(t, err)
			assert.Regexp(t, tokenAlphabet, tok)

			got, err := s.Decode(tok, 60)
			require.NoError(t, err)
			assert.Equal(t, p, got)
		}
	}
}

func TestSignerRandomPayload(t *testing.T) {
	s, _ := newTestSigner(t, "secret", "")

	a, err := s.Encode("")
	require.NoError(t, err)
	b, err := s.Encode("")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	payload, err := s.Decode(a, 0)
	require.NoError(t, err)
	assert.Regexp(t, hex40, payload)
}

func TestSignerTokensDifferOverTime(t *testing.T) {
	s, advance := newTestSigner(t, "secret", "")
	a, err := s.Encode("sid")
	require.NoError(t, err)
	advance(time.Second)
	b, err := s.Encode("sid")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSignerTamperDetection(t *testing.T) {
	for _, secret := range []string{"secret", "another-secret", "k"} {
		s, _ := newTestSigner(t, secret, "salt")
		tok, err := s.Encode("payload-to-protect")
		require.NoError(t, err)

		for i := range len(tok) {
			b := []byte(tok)
			if b[i] == 'A' {
				b[i] = 'B'
			} else {
				b[i] = 'A'
			}
			_, err := s.Decode(string(b), 60)
			require.Errorf(t, err, "flip at %d accepted", i)
			assert.ErrorIs(t, err, ErrTokenInvalid, "flip at %d", i)
			assert.NotErrorIs(t, err, ErrTokenExpired, "flip at %d", i)
		}
	}
}

func TestSignerExpiry(t *testing.T) {
	s, advance := newTestSigner(t, "secret", "")
	tok, err := s.Encode("sid")
	require.NoError(t, err)

	_, err = s.Decode(tok, 0)
	require.NoError(t, err, "age 0 is within maxAge 0")

	advance(10 * time.Second)
	_, err = s.Decode(tok, 10)
	require.NoError(t, err)

	advance(time.Second)
	_, err = s.Decode(tok, 10)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = s.Decode(tok, 11)
	require.NoError(t, err)

	got, err := s.Decode(tok, -1)
	require.NoError(t, err, "negative maxAge disables the age check")
	assert.Equal(t, "sid", got)
}

func TestSignerFutureTokenIsExpired(t *testing.T) {
	s, advance := newTestSigner(t, "secret", "")
	tok, err := s.Encode("sid")
	require.NoError(t, err)

	advance(-5 * time.Second)
	_, err = s.Decode(tok, 3600)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSignerWrongKey(t *testing.T) {
	s1, _ := newTestSigner(t, "secret-1", "salt")
	tok, err := s1.Encode("sid")
	require.NoError(t, err)

	s2, _ := newTestSigner(t, "secret-2", "salt")
	_, err = s2.Decode(tok, 60)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	s3, _ := newTestSigner(t, "secret-1", "other-salt")
	_, err = s3.Decode(tok, 60)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	s4, _ := newTestSigner(t, "secret-1", "")
	_, err = s4.Decode(tok, 60)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSignerMalformed(t *testing.T) {
	s, _ := newTestSigner(t, "secret", "")
	for _, tok := range []string{"", "invalid", "a.b", "a.b.c.d", "...", "!!.!!.!!"} {
		_, err := s.Decode(tok, 60)
		assert.ErrorIs(t, err, ErrTokenInvalid, "token %q", tok)
	}
}

func TestSignerInspect(t *testing.T) {
	s, advance := newTestSigner(t, "secret", "")
	minted := s.now()
	tok, err := s.Encode("sid")
	require.NoError(t, err)

	advance(time.Hour)
	payload, issuedAt, err := s.Inspect(tok)
	require.NoError(t, err)
	assert.Equal(t, "sid", payload)
	assert.True(t, issuedAt.Equal(minted))
}

func TestNewSignerEmptySecret(t *testing.T) {
	_, err := NewSigner("", "salt")
	assert.True(t, errors.Is(err, ErrEmptySecret))

	_, err = EncodeToken("", "", "sid")
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestEncodeDecodeToken(t *testing.T) {
	tok, err := EncodeToken("secret", "salt", "sid")
	require.NoError(t, err)

	got, err := DecodeToken(tok, "secret", "salt", 60)
	require.NoError(t, err)
	assert.Equal(t, "sid", got)

	_, err = DecodeToken(tok, "other", "salt", 60)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
