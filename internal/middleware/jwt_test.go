// jwt_test.go — Unit tests for JWT generation and parsing.
package middleware

import (
	"testing"

	"github.com/Shimizu-Technology/reader-tools-api/internal/models"
)

func TestJWTRoundTrip(t *testing.T) {
	user := &models.User{ID: "user-123", Email: "reader@example.com"}
	secret := "test-secret"

	token, err := GenerateJWT(user, secret)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ParseJWT(token, secret)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("claims.UserID = %q, want %q", claims.UserID, user.ID)
	}
	if claims.Email != user.Email {
		t.Errorf("claims.Email = %q, want %q", claims.Email, user.Email)
	}
}

func TestParseJWTWrongSecret(t *testing.T) {
	user := &models.User{ID: "user-123", Email: "reader@example.com"}

	token, err := GenerateJWT(user, "correct-secret")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	if _, err := ParseJWT(token, "wrong-secret"); err == nil {
		t.Error("ParseJWT accepted a token signed with a different secret")
	}
}

func TestParseJWTGarbage(t *testing.T) {
	if _, err := ParseJWT("not.a.token", "secret"); err == nil {
		t.Error("ParseJWT accepted a malformed token")
	}
}
