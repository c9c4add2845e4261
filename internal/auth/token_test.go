package auth

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, err := issuer.Issue("driver-1", RoleDriver)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	session, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if session.ActorID != "driver-1" {
		t.Errorf("actor = %s, want driver-1", session.ActorID)
	}
	if session.Role != RoleDriver {
		t.Errorf("role = %s, want driver", session.Role)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("secret-a", time.Hour).Issue("cust-1", RoleCustomer)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	_, err = NewTokenIssuer("secret-b", time.Hour).Verify(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	issuer := NewTokenIssuer("secret", -time.Minute)

	token, err := issuer.Issue("cust-1", RoleCustomer)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := issuer.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerify_Garbage(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	if _, err := issuer.Verify("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "hunter2hunter2" {
		t.Fatal("password not hashed")
	}
	if !CheckPassword(hash, "hunter2hunter2") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
}
