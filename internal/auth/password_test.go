package auth

import (
	"strings"
	"testing"
)

func TestHash_RoundTrip(t *testing.T) {
	hasher := NewArgon2Hasher()

	digest, err := hasher.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	if !strings.HasPrefix(digest, "$argon2id$") {
		t.Errorf("digest = %q, want argon2id encoding", digest)
	}
	if strings.Contains(digest, "correct horse battery staple") {
		t.Error("digest contains the plaintext")
	}

	if !hasher.Verify("correct horse battery staple", digest) {
		t.Error("Verify(plaintext, Hash(plaintext)) = false, want true")
	}
}

func TestHash_SaltedPerCall(t *testing.T) {
	hasher := NewArgon2Hasher()

	first, err := hasher.Hash("same password")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	second, err := hasher.Hash("same password")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	if first == second {
		t.Error("two hashes of the same plaintext are identical, want different salts")
	}
	if !hasher.Verify("same password", first) || !hasher.Verify("same password", second) {
		t.Error("both salted digests should verify against the plaintext")
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	hasher := NewArgon2Hasher()

	digest, err := hasher.Hash("right password")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	if hasher.Verify("wrong password", digest) {
		t.Error("Verify with a different plaintext = true, want false")
	}
}

func TestVerify_MalformedDigest(t *testing.T) {
	hasher := NewArgon2Hasher()

	cases := []struct {
		name   string
		digest string
	}{
		{"empty", ""},
		{"not a digest", "hunter2"},
		{"truncated", "$argon2id$v=19$m=65536,t=3,p=4"},
		{"bad salt encoding", "$argon2id$v=19$m=65536,t=3,p=4$!!!$AAAA"},
		{"bad hash encoding", "$argon2id$v=19$m=65536,t=3,p=4$AAAA$!!!"},
		{"bad params", "$argon2id$v=19$nonsense$AAAA$AAAA"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if hasher.Verify("anything", tc.digest) {
				t.Errorf("Verify with malformed digest %q = true, want false", tc.digest)
			}
		})
	}
}
