package auth

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultVerifier(t *testing.T) {
	v := DefaultVerifier()
	tests := []struct {
		user, pass string
		want       bool
	}{
		{"admin", "admin123", true},
		{"admin", "wrong", false},
		{"root", "admin123", false},
		{"Admin", "admin123", false},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := Authenticate(v, tt.user, tt.pass); got != tt.want {
			t.Errorf("Authenticate(%q, %q) = %v, want %v", tt.user, tt.pass, got, tt.want)
		}
	}
}

func TestSessionLogin(t *testing.T) {
	s := NewSession()
	if s.Authenticated {
		t.Fatal("new session is already authenticated")
	}
	if s.ID == "" {
		t.Fatal("new session has no ID")
	}

	err := s.Login(DefaultVerifier(), "admin", "nope")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login with bad password err = %v, want ErrInvalidCredentials", err)
	}
	if s.Authenticated {
		t.Fatal("session authenticated after failed login")
	}

	if err := s.Login(DefaultVerifier(), "admin", "admin123"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !s.Authenticated || s.User != "admin" {
		t.Fatalf("session = %+v, want authenticated admin", s)
	}

	s.Logout()
	if s.Authenticated {
		t.Error("session still authenticated after Logout")
	}
	if s.EndedAt.IsZero() {
		t.Error("Logout did not record EndedAt")
	}
}

func TestUserStore(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	v, err := NewVerifier(map[string]string{"maria": hash})
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	if !v.Verify("maria", "s3cret") {
		t.Error("configured user rejected")
	}
	if v.Verify("maria", "S3cret") {
		t.Error("wrong password accepted")
	}
	if v.Verify("admin", "admin123") {
		t.Error("default credentials accepted when users are configured")
	}
	if got := v.(*UserStore).Usernames(); len(got) != 1 || got[0] != "maria" {
		t.Errorf("Usernames() = %v, want [maria]", got)
	}
}

func TestNewVerifierRejectsBadHash(t *testing.T) {
	if _, err := NewVerifier(map[string]string{"maria": "plaintext"}); err == nil {
		t.Fatal("NewVerifier accepted a non-bcrypt hash")
	}
	if _, err := HashPassword(""); err == nil {
		t.Fatal("HashPassword accepted an empty password")
	}
}

func TestNewVerifierDefault(t *testing.T) {
	v, err := NewVerifier(nil)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	if !v.Verify(DefaultUsername, DefaultPassword) {
		t.Error("default verifier rejected admin/admin123")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	ti, err := NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}

	s := NewSession()
	if _, err := ti.Issue(s); err == nil {
		t.Fatal("Issue accepted an unauthenticated session")
	}
	if err := s.Login(DefaultVerifier(), "admin", "admin123"); err != nil {
		t.Fatal(err)
	}

	tok, err := ti.Issue(s)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	got, err := ti.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.User != "admin" || got.ID != s.ID || !got.Authenticated {
		t.Errorf("Parse = %+v, want admin session %s", got, s.ID)
	}

	other, _ := NewTokenIssuer("other-secret", time.Hour)
	if _, err := other.Parse(tok); err == nil {
		t.Error("token verified with the wrong secret")
	}
	if _, err := ti.Parse("not.a.token"); err == nil {
		t.Error("garbage token accepted")
	}
}

func TestTokenExpired(t *testing.T) {
	ti, err := NewTokenIssuer("test-secret", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	ti.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	tok, err := ti.Issue(Restore("", "admin"))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := ti.Parse(tok); err == nil {
		t.Error("expired token accepted")
	}
}

func TestNewTokenIssuerRequiresSecret(t *testing.T) {
	if _, err := NewTokenIssuer("", time.Hour); err == nil {
		t.Error("NewTokenIssuer accepted an empty secret")
	}
}
