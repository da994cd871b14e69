package auth

import (
	"testing"
	"time"

	"github.com/spec-kit/backoffice-service/internal/domain"
)

func TestGenerateAndParseToken(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)

	token, expiresAt, err := tm.GenerateToken("user-1", domain.RoleAgent)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if token == "" {
		t.Fatalf("empty token")
	}
	if !expiresAt.After(time.Now()) {
		t.Errorf("expiry %v is not in the future", expiresAt)
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("user id = %s, want user-1", claims.UserID)
	}
	if claims.Role != domain.RoleAgent {
		t.Errorf("role = %s, want AGENT", claims.Role)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)
	other := NewTokenManager("different-secret", 60)

	token, _, err := tm.GenerateToken("user-1", domain.RoleClient)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := other.ParseToken(token); err == nil {
		t.Errorf("token signed with another secret parsed successfully")
	}
}

func TestParseGarbageToken(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)
	if _, err := tm.ParseToken("not.a.token"); err == nil {
		t.Errorf("garbage token parsed successfully")
	}
}
