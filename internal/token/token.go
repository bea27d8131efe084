// Package token issues and verifies the signed attendance tokens embedded in
// drive QR codes. Verification failure is a routing signal (the scan endpoint
// falls back to the legacy identifier path), so Verify reports a bool rather
// than an error.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Payload is the ephemeral content of an attendance token. It is never
// persisted; it exists only inside the signed code string.
type Payload struct {
	UserID    uuid.UUID
	JobID     uuid.UUID
	RoundID   uuid.UUID
	SessionID uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type claims struct {
	UserID    uuid.UUID `json:"uid"`
	JobID     uuid.UUID `json:"jid"`
	RoundID   uuid.UUID `json:"rid"`
	SessionID uuid.UUID `json:"sid"`
	jwt.RegisteredClaims
}

// Codec signs and verifies attendance tokens with a shared HMAC key.
type Codec struct {
	key    []byte
	ttl    time.Duration
	issuer string
}

// New returns a Codec. key must be non-empty; ttl bounds the validity window
// applied by Issue when the payload carries no explicit expiry.
func New(key string, ttl time.Duration, issuer string) (*Codec, error) {
	if key == "" {
		return nil, errors.New("token signing key is required")
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Codec{key: []byte(key), ttl: ttl, issuer: issuer}, nil
}

// Issue produces an opaque signed string embedding the payload. Zero
// IssuedAt/ExpiresAt fields are filled from the codec's TTL; the returned
// payload carries the values actually signed.
func (c *Codec) Issue(p Payload) (string, Payload, error) {
	if p.UserID == uuid.Nil || p.RoundID == uuid.Nil || p.SessionID == uuid.Nil {
		return "", Payload{}, errors.New("user, round and session ids are required")
	}

	now := time.Now()
	if p.IssuedAt.IsZero() {
		p.IssuedAt = now
	}
	if p.ExpiresAt.IsZero() {
		p.ExpiresAt = p.IssuedAt.Add(c.ttl)
	}

	cl := claims{
		UserID:    p.UserID,
		JobID:     p.JobID,
		RoundID:   p.RoundID,
		SessionID: p.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   p.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(p.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(p.ExpiresAt),
		},
	}

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(c.key)
	if err != nil {
		return "", Payload{}, err
	}
	return raw, p, nil
}

// Verify returns the decoded payload when raw is a well-formed, untampered,
// unexpired attendance token. Any failure yields ok=false and never an
// error: the caller routes such scans to the legacy adapter.
func (c *Codec) Verify(raw string) (Payload, bool) {
	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return c.key, nil
	})
	if err != nil || !parsed.Valid {
		return Payload{}, false
	}

	cl, ok := parsed.Claims.(*claims)
	if !ok {
		return Payload{}, false
	}
	if c.issuer != "" && cl.Issuer != c.issuer {
		return Payload{}, false
	}
	if cl.UserID == uuid.Nil || cl.RoundID == uuid.Nil || cl.SessionID == uuid.Nil {
		return Payload{}, false
	}

	p := Payload{
		UserID:    cl.UserID,
		JobID:     cl.JobID,
		RoundID:   cl.RoundID,
		SessionID: cl.SessionID,
	}
	if cl.IssuedAt != nil {
		p.IssuedAt = cl.IssuedAt.Time
	}
	if cl.ExpiresAt != nil {
		p.ExpiresAt = cl.ExpiresAt.Time
	}
	return p, true
}
