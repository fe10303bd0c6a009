package auth

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndValidateSpectatorToken(t *testing.T) {
	mgr := NewJWTManager("test-secret-key-123")
	token, err := mgr.GenerateSpectatorToken("viewer-42", "match-1")
	if err != nil {
		t.Fatalf("generate spectator token: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := mgr.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.SpectatorID != "viewer-42" {
		t.Errorf("expected spectator_id=viewer-42, got %s", claims.SpectatorID)
	}
	if claims.Subject != "viewer-42" {
		t.Errorf("expected subject=viewer-42, got %s", claims.Subject)
	}
	if claims.MatchID != "match-1" {
		t.Errorf("expected match_id=match-1, got %s", claims.MatchID)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != DefaultTokenTTL {
		t.Errorf("expected %v lifetime, got %v", DefaultTokenTTL, got)
	}
}

func TestClaimsCanWatch(t *testing.T) {
	tests := []struct {
		scope string
		match string
		want  bool
	}{
		{"", "match-1", true},
		{"match-1", "match-1", true},
		{"match-1", "match-2", false},
	}
	for _, tt := range tests {
		c := &Claims{MatchID: tt.scope}
		if got := c.CanWatch(tt.match); got != tt.want {
			t.Errorf("scope %q watching %q: expected %v, got %v", tt.scope, tt.match, tt.want, got)
		}
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	mgr1 := NewJWTManager("secret-one")
	mgr2 := NewJWTManager("secret-two")

	token, err := mgr1.GenerateSpectatorToken("viewer-1", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, err = mgr2.ValidateToken(token)
	if err == nil {
		t.Error("expected validation to fail with wrong secret")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	mgr := NewJWTManager("test-secret")
	_, err := mgr.ValidateToken("not-a-jwt")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for garbage token, got %v", err)
	}
	_, err = mgr.ValidateToken("")
	if !errors.Is(err, ErrMissingToken) {
		t.Errorf("expected ErrMissingToken for empty token, got %v", err)
	}
}

func TestExpiredToken(t *testing.T) {
	mgr := NewJWTManager("test-secret").WithExpiry(-1 * time.Second)
	token, err := mgr.GenerateSpectatorToken("viewer-1", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, err = mgr.ValidateToken(token)
	if err == nil {
		t.Error("expected error for expired token")
	}
}

func TestDifferentSpectatorsGetDifferentTokens(t *testing.T) {
	mgr := NewJWTManager("test-secret")
	t1, _ := mgr.GenerateSpectatorToken("alice", "m")
	t2, _ := mgr.GenerateSpectatorToken("bob", "m")
	if t1 == t2 {
		t.Error("different spectators should get different tokens")
	}
}
