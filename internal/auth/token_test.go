package auth

import (
	"testing"

	"github.com/spec-kit/tax-backoffice/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 30)

	token, expiresAt, err := tm.GenerateToken("cust-1", domain.SubjectTypeCustomer)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if expiresAt.IsZero() {
		t.Fatal("expiry not set")
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.SubjectID != "cust-1" {
		t.Errorf("subject id = %q", claims.SubjectID)
	}
	if claims.Subject != domain.SubjectTypeCustomer {
		t.Errorf("subject type = %q", claims.Subject)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issued, _, err := NewTokenManager("secret-a", 30).GenerateToken("emp-1", domain.SubjectTypeEmployee)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := NewTokenManager("secret-b", 30).ParseToken(issued); err == nil {
		t.Fatal("token signed with another secret must not parse")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	if _, err := NewTokenManager("secret", 30).ParseToken("not-a-token"); err == nil {
		t.Fatal("garbage token must not parse")
	}
}
