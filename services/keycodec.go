package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alphabatem/common/context"

	"github.com/Jhector1/learnoir-api/model"
	"github.com/Jhector1/learnoir-api/shared"
)

// CapabilityClaims is the signed payload of a practice capability token. Field
// order here is the canonical wire order; the signature covers the encoded
// payload bytes, so the struct layout must not change between issue and verify.
type CapabilityClaims struct {
	InstanceID string `json:"instance_id"`
	SessionID  string `json:"session_id,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	GuestID    string `json:"guest_id,omitempty"`
	ExpiresAt  int64  `json:"exp"`
}

func (c *CapabilityClaims) Actor() model.Actor {
	return model.Actor{UserID: c.UserID, GuestID: c.GuestID}
}

func (c *CapabilityClaims) BindActor(actor model.Actor) {
	c.UserID = actor.UserID
	c.GuestID = actor.GuestID
}

// KeyCodecService signs and verifies practice capability tokens. Verification
// is a pure function of (token, secret, now): no storage, no shared state, so
// any server instance holding the same secret can validate a token issued by
// any other.
type KeyCodecService struct {
	context.DefaultService

	TokenTTL time.Duration

	secret []byte
	now    func() time.Time
}

const KEY_CODEC_SVC = "key_codec_svc"

func (svc KeyCodecService) Id() string {
	return KEY_CODEC_SVC
}

// Configure loads the signing secret. An empty secret is a fatal configuration
// error: the registry aborts startup rather than serving unverifiable tokens.
func (svc *KeyCodecService) Configure(ctx *context.Context) error {
	secret := os.Getenv("PRACTICE_TOKEN_SECRET")
	if secret == "" {
		return fmt.Errorf("PRACTICE_TOKEN_SECRET is not set")
	}
	svc.secret = []byte(secret)

	svc.TokenTTL = 30 * time.Minute
	if ttl := os.Getenv("PRACTICE_TOKEN_TTL"); ttl != "" {
		parsed, err := time.ParseDuration(ttl)
		if err != nil {
			return fmt.Errorf("invalid PRACTICE_TOKEN_TTL: %w", err)
		}
		svc.TokenTTL = parsed
	}

	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *KeyCodecService) Start() error {
	return nil
}

// Sign serializes the claims, signs the encoded payload with HMAC-SHA256 and
// returns payload.signature, both segments base64url without padding.
func (svc *KeyCodecService) Sign(claims CapabilityClaims) (string, error) {
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to serialize claims: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + svc.digest(encoded), nil
}

// Verify checks shape, signature and expiry in that order and returns the
// claims only when every check passes. The digest comparison is constant-time.
func (svc *KeyCodecService) Verify(token string) (*CapabilityClaims, error) {
	encoded, signature, found := strings.Cut(token, ".")
	if !found || encoded == "" || signature == "" {
		return nil, shared.NewMalformedTokenError(nil)
	}

	if !hmac.Equal([]byte(svc.digest(encoded)), []byte(signature)) {
		return nil, shared.NewBadSignatureError()
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, shared.NewMalformedTokenError(err)
	}

	var claims CapabilityClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, shared.NewMalformedTokenError(err)
	}

	if claims.ExpiresAt < svc.now().Unix() {
		return nil, shared.NewTokenExpiredError()
	}

	return &claims, nil
}

func (svc *KeyCodecService) ExpiryFromNow() int64 {
	return svc.now().Add(svc.TokenTTL).Unix()
}

func (svc *KeyCodecService) digest(encoded string) string {
	mac := hmac.New(sha256.New, svc.secret)
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
