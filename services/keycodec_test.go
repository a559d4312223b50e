package services

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/Jhector1/learnoir-api/model"
	"github.com/Jhector1/learnoir-api/shared"
)

func newTestCodec(now time.Time) *KeyCodecService {
	return &KeyCodecService{
		TokenTTL: 30 * time.Minute,
		secret:   []byte("test-signing-secret"),
		now:      func() time.Time { return now },
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(now)

	claims := CapabilityClaims{
		InstanceID: "inst-1",
		SessionID:  "sess-1",
		ExpiresAt:  codec.ExpiryFromNow(),
	}
	claims.BindActor(model.Actor{GuestID: "guest-abc"})

	token, err := codec.Sign(claims)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if strings.Count(token, ".") != 1 {
		t.Fatalf("expected payload.signature shape, got %q", token)
	}

	got, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if got.InstanceID != "inst-1" || got.SessionID != "sess-1" || got.GuestID != "guest-abc" {
		t.Fatalf("claims changed across round trip: %+v", got)
	}
	if got.Actor().Ref() != "guest:guest-abc" {
		t.Fatalf("unexpected actor ref %q", got.Actor().Ref())
	}
}

func TestVerifyTamperedPayload(t *testing.T) {
	now := time.Now()
	codec := newTestCodec(now)

	token, err := codec.Sign(CapabilityClaims{InstanceID: "inst-1", SessionID: "sess-1", ExpiresAt: codec.ExpiryFromNow()})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	encoded, signature, _ := strings.Cut(token, ".")
	payload, _ := base64.RawURLEncoding.DecodeString(encoded)
	forged := strings.Replace(string(payload), "inst-1", "inst-2", 1)
	forgedToken := base64.RawURLEncoding.EncodeToString([]byte(forged)) + "." + signature

	_, err = codec.Verify(forgedToken)
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.Kind != shared.KindBadSignature {
		t.Fatalf("expected %s, got %v", shared.KindBadSignature, err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	now := time.Now()
	codec := newTestCodec(now)

	other := newTestCodec(now)
	other.secret = []byte("a-different-secret")

	token, err := codec.Sign(CapabilityClaims{InstanceID: "inst-1", ExpiresAt: codec.ExpiryFromNow()})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	_, err = other.Verify(token)
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.Kind != shared.KindBadSignature {
		t.Fatalf("expected %s, got %v", shared.KindBadSignature, err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	codec := newTestCodec(time.Now())

	cases := []string{
		"",
		"no-separator",
		".signature-only",
		"payload-only.",
	}
	for _, token := range cases {
		_, err := codec.Verify(token)
		appErr, ok := shared.GetAppError(err)
		if !ok || appErr.Kind != shared.KindMalformedToken {
			t.Fatalf("token %q: expected %s, got %v", token, shared.KindMalformedToken, err)
		}
	}

	// A correctly signed but undecodable payload is malformed, not forged.
	garbage := "!not-base64url!"
	token := garbage + "." + codec.digest(garbage)
	_, err := codec.Verify(token)
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.Kind != shared.KindMalformedToken {
		t.Fatalf("expected %s for undecodable payload, got %v", shared.KindMalformedToken, err)
	}
}

func TestVerifyExpiryBoundary(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(now)

	// exp equal to now is still valid.
	token, err := codec.Sign(CapabilityClaims{InstanceID: "inst-1", ExpiresAt: now.Unix()})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if _, err := codec.Verify(token); err != nil {
		t.Fatalf("token expiring exactly now should verify, got %v", err)
	}

	// One second past expiry is rejected.
	token, err = codec.Sign(CapabilityClaims{InstanceID: "inst-1", ExpiresAt: now.Unix() - 1})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	_, err = codec.Verify(token)
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.Kind != shared.KindTokenExpired {
		t.Fatalf("expected %s, got %v", shared.KindTokenExpired, err)
	}
}

func TestVerifyIsStateless(t *testing.T) {
	now := time.Now()
	issuer := newTestCodec(now)

	token, err := issuer.Sign(CapabilityClaims{InstanceID: "inst-1", SessionID: "sess-1", ExpiresAt: issuer.ExpiryFromNow()})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	// A separate codec holding the same secret validates tokens it never issued.
	verifier := newTestCodec(now)
	claims, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("verify on a peer instance failed: %v", err)
	}
	if claims.InstanceID != "inst-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}
