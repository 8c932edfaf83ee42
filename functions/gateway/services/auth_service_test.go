package services

import (
	"os"
	"strings"
	"testing"
	"time"
)

const testAddress = "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"

func TestIssueAndParseSessionToken(t *testing.T) {
	os.Setenv("SESSION_JWT_SECRET", "test-secret")
	defer os.Unsetenv("SESSION_JWT_SECRET")

	token, expiresAt, err := IssueSessionToken(testAddress)
	if err != nil {
		t.Fatalf("IssueSessionToken failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if time.Until(expiresAt) <= 0 {
		t.Errorf("expected future expiry, got %v", expiresAt)
	}

	address, err := ParseSessionToken(token)
	if err != nil {
		t.Fatalf("ParseSessionToken failed: %v", err)
	}
	if address != testAddress {
		t.Errorf("expected address %q, got %q", testAddress, address)
	}
}

func TestParseSessionTokenRejectsGarbage(t *testing.T) {
	os.Setenv("SESSION_JWT_SECRET", "test-secret")
	defer os.Unsetenv("SESSION_JWT_SECRET")

	if _, err := ParseSessionToken("not.a.token"); err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestParseSessionTokenRejectsWrongSecret(t *testing.T) {
	os.Setenv("SESSION_JWT_SECRET", "secret-one")
	token, _, err := IssueSessionToken(testAddress)
	if err != nil {
		t.Fatalf("IssueSessionToken failed: %v", err)
	}

	os.Setenv("SESSION_JWT_SECRET", "secret-two")
	defer os.Unsetenv("SESSION_JWT_SECRET")

	if _, err := ParseSessionToken(token); err == nil {
		t.Error("expected error for token signed with different secret")
	}
}

func TestIssueSessionTokenRequiresSecret(t *testing.T) {
	os.Unsetenv("SESSION_JWT_SECRET")

	_, _, err := IssueSessionToken(testAddress)
	if err == nil || !strings.Contains(err.Error(), "SESSION_JWT_SECRET") {
		t.Errorf("expected missing secret error, got %v", err)
	}
}
