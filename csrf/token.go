package csrf

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"
)

// Codec mints and verifies tokens. *Signer is the default implementation;
// a Protector accepts any Codec through WithCodec.
type Codec interface {
	// Encode returns a signed token for sessionID, or for a random
	// payload when sessionID is empty.
	Encode(sessionID string) (string, error)
	// Decode verifies token and returns its payload. The error wraps
	// ErrTokenExpired or ErrTokenInvalid.
	Decode(token string, maxAge int) (string, error)
}

const (
	signerInfo = "csrf-token-signer"
	sep        = "."
	// 160 bits, rendered as 40 hex characters.
	randomPayloadBytes = 20
)

// Strict so that unused trailing bits cannot be altered without detection.
var b64 = base64.RawURLEncoding.Strict()

// Signer is an HMAC-SHA256 token codec. Tokens look like
//
//	base64url(payload) "." base64url(timestamp) "." base64url(mac)
//
// where timestamp is the big-endian unix time in seconds with leading
// zero bytes dropped, and mac covers the first two segments. The key is
// derived with HKDF from the secret, using the salt for domain separation.
//
// A Signer is safe for concurrent use.
type Signer struct {
	key []byte
	now func() time.Time
}

var _ Codec = (*Signer)(nil)

// NewSigner derives a signing key from secret and salt. Tokens minted with
// one (secret, salt) pair do not verify under any other pair.
func NewSigner(secret, salt string) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	key := make([]byte, sha256.Size)
	kdf := hkdf.New(sha256.New, []byte(secret), []byte(salt), []byte(signerInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("csrf: derive signing key: %w", err)
	}
	return &Signer{key: key, now: time.Now}, nil
}

// Encode signs sessionID with the current time. An empty sessionID is
// replaced by a fresh random 160-bit hex string.
func (s *Signer) Encode(sessionID string) (string, error) {
	payload := sessionID
	if payload == "" {
		var err error
		if payload, err = newRandomPayload(); err != nil {
			return "", err
		}
	}
	return s.sign(payload, s.now()), nil
}

// Decode verifies the signature first, then the age. A token whose
// signature checks out but is older than maxAge seconds (or dated in the
// future) fails with ErrTokenExpired; everything else fails with
// ErrTokenInvalid. A negative maxAge disables the age check.
func (s *Signer) Decode(token string, maxAge int) (string, error) {
	payload, issuedAt, err := s.Inspect(token)
	if err != nil {
		return "", err
	}
	if maxAge < 0 {
		return payload, nil
	}
	age := s.now().Unix() - issuedAt.Unix()
	if age < 0 {
		return "", fmt.Errorf("%w: signed %d seconds in the future", ErrTokenExpired, -age)
	}
	if age > int64(maxAge) {
		return "", fmt.Errorf("%w: age %d > %d seconds", ErrTokenExpired, age, maxAge)
	}
	return payload, nil
}

// Inspect verifies the signature of token and returns its payload and
// signing time without applying any age limit.
func (s *Signer) Inspect(token string) (string, time.Time, error) {
	parts := strings.Split(token, sep)
	if len(parts) != 3 {
		return "", time.Time{}, fmt.Errorf("%w: expected 3 segments, got %d", ErrTokenInvalid, len(parts))
	}
	mac, err := b64.DecodeString(parts[2])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: signature encoding", ErrTokenInvalid)
	}
	if !hmac.Equal(mac, s.mac(parts[0]+sep+parts[1])) {
		return "", time.Time{}, fmt.Errorf("%w: signature mismatch", ErrTokenInvalid)
	}

	payload, err := b64.DecodeString(parts[0])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: payload encoding", ErrTokenInvalid)
	}
	raw, err := b64.DecodeString(parts[1])
	if err != nil || len(raw) > 8 {
		return "", time.Time{}, fmt.Errorf("%w: timestamp encoding", ErrTokenInvalid)
	}
	var ts [8]byte
	copy(ts[8-len(raw):], raw)
	issuedAt := time.Unix(int64(binary.BigEndian.Uint64(ts[:])), 0)
	return string(payload), issuedAt, nil
}

func (s *Signer) sign(payload string, at time.Time) string {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(at.Unix()))
	value := b64.EncodeToString([]byte(payload)) + sep + b64.EncodeToString(bytes.TrimLeft(ts[:], "\x00"))
	return value + sep + b64.EncodeToString(s.mac(value))
}

func (s *Signer) mac(value string) []byte {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(value))
	return h.Sum(nil)
}

// EncodeToken mints a token for sessionID (random when empty) signed with
// secret and salt.
func EncodeToken(secret, salt, sessionID string) (string, error) {
	s, err := NewSigner(secret, salt)
	if err != nil {
		return "", err
	}
	return s.Encode(sessionID)
}

// DecodeToken verifies token against secret and salt and returns the
// payload if it is at most maxAge seconds old.
func DecodeToken(token, secret, salt string, maxAge int) (string, error) {
	s, err := NewSigner(secret, salt)
	if err != nil {
		return "", err
	}
	return s.Decode(token, maxAge)
}

func newRandomPayload() (string, error) {
	b := make([]byte, randomPayloadBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("csrf: read random payload: %w", err)
	}
	return hex.EncodeToString(b), nil
}
