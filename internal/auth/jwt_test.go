package auth

import (
	"testing"
	"time"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	j := JWT{Secret: []byte("test-secret"), TokenTTL: time.Hour}

	token, expiresAt, err := j.Sign(Claims{ActorID: "emp-07", Role: "accountant", UnitName: "finance"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expiresAt in the past: %v", expiresAt)
	}

	claims, err := j.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.ActorID != "emp-07" || claims.Role != "accountant" {
		t.Fatalf("claims = %+v", claims)
	}
	if claims.Issuer != "cic-erp" {
		t.Fatalf("issuer = %q", claims.Issuer)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	j := JWT{Secret: []byte("test-secret"), TokenTTL: time.Hour}
	token, _, err := j.Sign(Claims{ActorID: "emp-07", Role: "sales"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	other := JWT{Secret: []byte("different")}
	if _, err := other.Verify(token); err == nil {
		t.Fatal("expected verification failure")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	j := JWT{Secret: []byte("test-secret"), TokenTTL: -time.Minute}
	token, _, err := j.Sign(Claims{ActorID: "emp-07", Role: "sales"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := j.Verify(token); err == nil {
		t.Fatal("expected expiry failure")
	}
}
