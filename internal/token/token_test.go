package token

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := New("test-signing-key", 10*time.Minute, "placementd")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func testPayload() Payload {
	return Payload{
		UserID:    uuid.New(),
		JobID:     uuid.New(),
		RoundID:   uuid.New(),
		SessionID: uuid.New(),
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	c := newTestCodec(t)
	p := testPayload()

	raw, signed, err := c.Issue(p)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if signed.ExpiresAt.IsZero() || !signed.ExpiresAt.After(signed.IssuedAt) {
		t.Fatalf("Issue() returned expiry %v not after issue %v", signed.ExpiresAt, signed.IssuedAt)
	}

	got, ok := c.Verify(raw)
	if !ok {
		t.Fatal("Verify() ok = false, want true")
	}
	if got.UserID != p.UserID || got.JobID != p.JobID || got.RoundID != p.RoundID || got.SessionID != p.SessionID {
		t.Fatalf("Verify() payload = %+v, want ids from %+v", got, p)
	}
	if got.ExpiresAt.IsZero() || !got.ExpiresAt.After(got.IssuedAt) {
		t.Fatalf("Verify() expiry %v not after issue %v", got.ExpiresAt, got.IssuedAt)
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	c := newTestCodec(t)

	raw, _, err := c.Issue(testPayload())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// Flip one byte in each JWT segment; every mutation must verify false,
	// never panic or error.
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		t.Fatalf("token has %d segments, want 3", len(parts))
	}
	for i := range parts {
		mutated := make([]string, 3)
		copy(mutated, parts)
		seg := []byte(mutated[i])
		if seg[0] == 'A' {
			seg[0] = 'B'
		} else {
			seg[0] = 'A'
		}
		mutated[i] = string(seg)

		if _, ok := c.Verify(strings.Join(mutated, ".")); ok {
			t.Fatalf("Verify() accepted token with mutated segment %d", i)
		}
	}
}

func TestVerifyRejectsGarbageAndEmpty(t *testing.T) {
	c := newTestCodec(t)

	for _, raw := range []string{"", "APP-2019-00172", `{"applicationId":"x"}`, "not.a.jwt"} {
		if _, ok := c.Verify(raw); ok {
			t.Fatalf("Verify(%q) ok = true, want false", raw)
		}
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	c := newTestCodec(t)

	p := testPayload()
	p.IssuedAt = time.Now().Add(-2 * time.Hour)
	p.ExpiresAt = time.Now().Add(-time.Hour)

	raw, _, err := c.Issue(p)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, ok := c.Verify(raw); ok {
		t.Fatal("Verify() accepted an expired token")
	}
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	c := newTestCodec(t)
	other, err := New("different-key", 10*time.Minute, "placementd")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	raw, _, err := other.Issue(testPayload())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, ok := c.Verify(raw); ok {
		t.Fatal("Verify() accepted a token signed with a different key")
	}
}
