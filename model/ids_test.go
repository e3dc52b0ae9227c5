package model

import "testing"

func TestAccountIDRoundTrip(t *testing.T) {
	id := AccountID{Signatory: "ed0120abc", Domain: "wonderland"}
	s := id.String()
	if s != "ed0120abc@wonderland" {
		t.Fatalf("render: %s", s)
	}
	parsed, err := ParseAccountID(s)
	if err != nil || parsed != id {
		t.Fatalf("parse: %+v %v", parsed, err)
	}
}

func TestParseAccountIDInvalid(t *testing.T) {
	for _, s := range []string{"", "nodomain", "@dom", "sig@"} {
		if _, err := ParseAccountID(s); err == nil {
			t.Fatalf("%q should not parse", s)
		}
	}
}

func TestAssetIDAbbreviatedForm(t *testing.T) {
	id := AssetID{
		Definition: AssetDefinitionID{Name: "rose", Domain: "wonderland"},
		Account:    AccountID{Signatory: "alice", Domain: "wonderland"},
	}
	s := id.String()
	if s != "rose##alice@wonderland" {
		t.Fatalf("same-domain asset id should abbreviate, got %s", s)
	}
	parsed, err := ParseAssetID(s)
	if err != nil || parsed != id {
		t.Fatalf("parse abbreviated: %+v %v", parsed, err)
	}
}

func TestAssetIDFullForm(t *testing.T) {
	id := AssetID{
		Definition: AssetDefinitionID{Name: "rose", Domain: "garden"},
		Account:    AccountID{Signatory: "alice", Domain: "wonderland"},
	}
	s := id.String()
	if s != "rose#garden#alice@wonderland" {
		t.Fatalf("cross-domain asset id: %s", s)
	}
	parsed, err := ParseAssetID(s)
	if err != nil || parsed != id {
		t.Fatalf("parse full: %+v %v", parsed, err)
	}
}

func TestTransactionHashDeterministic(t *testing.T) {
	tx := &Transaction{Payload: TransactionPayload{
		Creator:   "alice@wonderland",
		CreatedMs: 42,
		Instructions: []Instruction{
			{RegisterDomain: &RegisterDomain{Name: "looking_glass"}},
		},
	}}
	h1 := tx.Hash()
	h2 := tx.Hash()
	if h1 == "" || h1 != h2 {
		t.Fatalf("hash not deterministic: %s vs %s", h1, h2)
	}
	// 签名不影响交易哈希
	tx.Signatures = append(tx.Signatures, Signature{Scheme: "ed25519", PublicKey: "aa", Payload: "bb"})
	if tx.Hash() != h1 {
		t.Fatal("signatures must not change payload hash")
	}
}

func TestBlockSeal(t *testing.T) {
	b := &Block{Height: 1, PrevHash: "", CreatedMs: 7}
	b.Seal()
	if len(b.Hash) != 64 {
		t.Fatalf("sealed hash length: %d", len(b.Hash))
	}
	prev := b.Hash
	b.Height = 2
	b.Seal()
	if b.Hash == prev {
		t.Fatal("hash should change with header")
	}
}

func TestInstructionKind(t *testing.T) {
	cases := []struct {
		ins  Instruction
		want string
	}{
		{Instruction{RegisterDomain: &RegisterDomain{Name: "d"}}, KindRegisterDomain},
		{Instruction{Mint: &Mint{AssetID: "a", Quantity: "1"}}, KindMint},
		{Instruction{Grant: &Grant{Permission: "p", To: "t"}}, KindGrant},
		{Instruction{}, ""},
	}
	for _, c := range cases {
		if got := c.ins.Kind(); got != c.want {
			t.Fatalf("kind %q, want %q", got, c.want)
		}
	}
}
