package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAuthenticator_RoundTrip(t *testing.T) {
	a, err := NewAuthenticator("s3cret", time.Hour)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	token, err := a.GenerateUserToken("user-42")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	claims, err := a.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if claims.UserID != "user-42" {
		t.Errorf("Expected user-42, got %s", claims.UserID)
	}
	if claims.Subject != "user-42" {
		t.Errorf("Expected subject user-42, got %s", claims.Subject)
	}
}

func TestAuthenticator_Rejects(t *testing.T) {
	a, _ := NewAuthenticator("s3cret", time.Hour)
	other, _ := NewAuthenticator("different", time.Hour)

	forged, _ := other.GenerateUserToken("user-1")
	if _, err := a.ValidateToken(forged); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for foreign signature, got %v", err)
	}

	if _, err := a.ValidateToken("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for garbage, got %v", err)
	}

	a.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _ := a.GenerateUserToken("user-1")
	a.now = time.Now
	if _, err := a.ValidateToken(expired); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for expired token, got %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &JWTClaims{UserID: "user-1"})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := a.ValidateToken(unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for alg none, got %v", err)
	}

	if _, err := a.GenerateUserToken(""); err == nil {
		t.Error("Expected error for empty user id")
	}
}

func TestNewAuthenticator(t *testing.T) {
	if _, err := NewAuthenticator("", time.Hour); err == nil {
		t.Error("Expected error for empty secret")
	}
	a, err := NewAuthenticator("x", 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if a.ttl != defaultTokenTTL {
		t.Errorf("Expected default ttl %v, got %v", defaultTokenTTL, a.ttl)
	}
}
