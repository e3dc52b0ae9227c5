package utils

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

func TestNormalizePublicKey(t *testing.T) {
	raw := strings.Repeat("Ab", 32)
	want := strings.ToLower(raw)
	if got := NormalizePublicKey(raw); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
	if got := NormalizePublicKey("ED0120" + raw); got != want {
		t.Fatalf("multihash prefix should be stripped, got %s", got)
	}
}

func TestEd25519RoundTrip(t *testing.T) {
	pub, priv, err := Ed25519Keypair()
	if err != nil {
		t.Fatal(err)
	}
	msg := []byte("hello ledger")
	sig := Ed25519Sign(priv, msg)

	if err := VerifySignature(SchemeEd25519, pub, sig, msg); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	// 带多哈希前缀的公钥同样要能验
	if err := VerifySignature(SchemeEd25519, "ed0120"+pub, sig, msg); err != nil {
		t.Fatalf("prefixed pubkey rejected: %v", err)
	}
	// scheme 留空按 ed25519 处理
	if err := VerifySignature("", pub, sig, msg); err != nil {
		t.Fatalf("empty scheme should default to ed25519: %v", err)
	}
	if err := VerifySignature(SchemeEd25519, pub, sig, []byte("tampered")); err == nil {
		t.Fatal("tampered message must not verify")
	}
}

func TestSecp256k1RoundTrip(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatal(err)
	}
	pubHex := hex.EncodeToString(priv.PubKey().SerializeCompressed())
	msg := []byte("hello ledger")
	sig := Secp256k1Sign(priv, msg)

	if err := VerifySignature(SchemeSecp256k1, pubHex, sig, msg); err != nil {
		t.Fatalf("valid secp256k1 signature rejected: %v", err)
	}
	if err := VerifySignature(SchemeSecp256k1, pubHex, sig, []byte("x")); err == nil {
		t.Fatal("tampered message must not verify")
	}
}

func TestUnknownScheme(t *testing.T) {
	if err := VerifySignature("rsa", "00", "00", nil); err != ErrUnknownScheme {
		t.Fatalf("got %v, want ErrUnknownScheme", err)
	}
}

func TestShortHashStable(t *testing.T) {
	a := ShortHash([]byte("payload"))
	b := ShortHash([]byte("payload"))
	if len(a) != 8 || string(a) != string(b) {
		t.Fatal("short hash must be 8 bytes and deterministic")
	}
}
