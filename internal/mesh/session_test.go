package mesh

import "testing"

func pairedSessions() (*Session, *Session) {
	seed := []byte("a shared kem-derived secret of some length")
	client := &Session{}
	server := NewServerSession(seed)
	c2s, s2c := deriveDirectionalKeys(seed)
	client.sendKey, client.recvKey = c2s, s2c
	return client, server
}

func TestSessionSealOpenRoundTrip(t *testing.T) {
	client, server := pairedSessions()

	sealed, err := client.Seal([]byte("ping"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	opened, err := server.Open(sealed)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if string(opened) != "ping" {
		t.Fatalf("expected %q, got %q", "ping", opened)
	}
}

func TestSessionOpenRejectsTamperedCiphertext(t *testing.T) {
	client, server := pairedSessions()
	sealed, err := client.Seal([]byte("ping"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	sealed[len(sealed)-1] ^= 0xff
	if _, err := server.Open(sealed); err == nil {
		t.Fatalf("expected a tampered ciphertext to fail AEAD verification")
	}
}

func TestSessionOpenRejectsTruncatedBlob(t *testing.T) {
	_, server := pairedSessions()
	if _, err := server.Open([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected a blob shorter than the nonce size to be rejected")
	}
}

func TestDeriveDirectionalKeysAreDistinctAndDeterministic(t *testing.T) {
	seed := []byte("seed material")
	c2sA, s2cA := deriveDirectionalKeys(seed)
	c2sB, s2cB := deriveDirectionalKeys(seed)
	if c2sA != c2sB || s2cA != s2cB {
		t.Fatalf("expected key derivation to be deterministic given the same seed")
	}
	if c2sA == s2cA {
		t.Fatalf("expected the two directions to derive distinct keys")
	}
}
