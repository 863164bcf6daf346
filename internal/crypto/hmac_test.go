package crypto

import (
	"strings"
	"testing"
)

func TestSignKnownVector(t *testing.T) {
	// RFC 4231 test case 2
	got := Sign([]byte("what do ya want for nothing?"), "Jefe")
	want := "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestVerify(t *testing.T) {
	body := []byte(`{"message_id":"m1","from":"+15550000001","to":"+15550000002","ts":"2025-01-01T00:00:00Z","text":"hi"}`)
	secret := "test-secret-key"
	sig := Sign(body, secret)

	if !Verify(body, sig, secret) {
		t.Fatal("expected valid signature to verify")
	}

	last := sig[len(sig)-1]
	flipped := byte('0')
	if last == '0' {
		flipped = '1'
	}
	if Verify(body, sig[:len(sig)-1]+string(flipped), secret) {
		t.Fatal("signature differing in the last byte must not verify")
	}

	if Verify(body, "deadbeef", secret) {
		t.Fatal("short signature must not verify")
	}

	if Verify(body, strings.ToUpper(sig), secret) && strings.ToUpper(sig) != sig {
		t.Fatal("uppercase hex must not verify")
	}

	if Verify(body, sig, "other-secret") {
		t.Fatal("signature must not verify under a different secret")
	}

	if Verify(append([]byte(" "), body...), sig, secret) {
		t.Fatal("signature must not verify for re-encoded body")
	}
}

func TestVerifyEmptySecret(t *testing.T) {
	body := []byte("{}")
	if Verify(body, Sign(body, ""), "") {
		t.Fatal("empty secret must never verify")
	}
}

func TestNewRequestID(t *testing.T) {
	a, b := NewRequestID(), NewRequestID()
	if a == b {
		t.Fatal("request IDs should be unique")
	}
	if len(a) != 36 {
		t.Fatalf("expected UUID string, got %q", a)
	}
}

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, _ := GenerateSecret()
	if len(a) != 2*SecretBytes || a == b {
		t.Fatalf("expected distinct %d-char secrets, got %q %q", 2*SecretBytes, a, b)
	}
	if !Verify([]byte("x"), Sign([]byte("x"), a), a) {
		t.Fatal("generated secret should sign and verify")
	}
}

func benchmarkVerify(b *testing.B, mutateLast bool) {
	body := []byte(`{"message_id":"m1","from":"+15550000001","to":"+15550000002","ts":"2025-01-01T00:00:00Z"}`)
	secret := "bench-secret"
	sig := Sign(body, secret)
	if mutateLast {
		last := sig[len(sig)-1]
		if last == 'a' {
			sig = sig[:len(sig)-1] + "b"
		} else {
			sig = sig[:len(sig)-1] + "a"
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Verify(body, sig, secret)
	}
}

func BenchmarkVerifyMatch(b *testing.B)        { benchmarkVerify(b, false) }
func BenchmarkVerifyLastByteDiff(b *testing.B) { benchmarkVerify(b, true) }
