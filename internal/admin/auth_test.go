package admin

import "testing"

func TestAuth_CheckCredentials(t *testing.T) {
	a := NewAuth("admin", "s3cret", "signing-key")

	if !a.CheckCredentials("admin", "s3cret") {
		t.Errorf("expected matching credentials to pass")
	}
	if a.CheckCredentials("admin", "wrong") {
		t.Errorf("expected wrong password to fail")
	}
	if a.CheckCredentials("nobody", "s3cret") {
		t.Errorf("expected unknown username to fail")
	}
}

func TestAuth_IssueAndVerifyToken(t *testing.T) {
	a := NewAuth("admin", "s3cret", "signing-key")

	token, err := a.IssueToken("admin")
	if err != nil {
		t.Fatalf("unexpected error issuing token: %v", err)
	}

	if err := a.VerifyToken(token); err != nil {
		t.Errorf("expected freshly issued token to verify, got %v", err)
	}
}

func TestAuth_VerifyRejectsTamperedToken(t *testing.T) {
	a := NewAuth("admin", "s3cret", "signing-key")
	other := NewAuth("admin", "s3cret", "different-key")

	token, err := other.IssueToken("admin")
	if err != nil {
		t.Fatalf("unexpected error issuing token: %v", err)
	}

	if err := a.VerifyToken(token); err == nil {
		t.Errorf("expected a token signed with a different secret to fail verification")
	}
}

func TestAuth_VerifyRejectsGarbage(t *testing.T) {
	a := NewAuth("admin", "s3cret", "signing-key")

	if err := a.VerifyToken("not-a-jwt"); err == nil {
		t.Errorf("expected a malformed token to fail verification")
	}
}
