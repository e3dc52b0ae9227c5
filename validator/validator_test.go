package validator_test

import (
	"crypto/ed25519"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ledger/executor"
	"ledger/model"
	"ledger/utils"
	"ledger/validator"
	"ledger/wsv"
)

const nowMs = int64(1_700_000_000_000)

func newTestView() wsv.StateView {
	return wsv.New(
		func(key string) ([]byte, error) { return nil, nil },
		func(prefix string) (map[string][]byte, error) { return map[string][]byte{}, nil },
	)
}

// newSignedWorld 建好一个域 + 一个带真实 ed25519 公钥的账户，
// 返回可以直接签名的私钥和账户 ID。
func newSignedWorld(t *testing.T) (wsv.StateView, *validator.Validator, string, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := utils.Ed25519Keypair()
	require.NoError(t, err)
	creator := pub + "@wonderland"

	exec := executor.New()
	sv := newTestView()
	genesis := &model.Transaction{Payload: model.TransactionPayload{
		Creator:   "genesis@genesis",
		CreatedMs: 1,
		Instructions: []model.Instruction{
			{RegisterDomain: &model.RegisterDomain{Name: "wonderland"}},
			{RegisterAccount: &model.RegisterAccount{ID: creator}},
		},
	}}
	rcpt := exec.ApplyTransaction(sv, genesis, true, 1)
	require.True(t, rcpt.Committed, "genesis setup failed: %v", rcpt.Err)

	return sv, validator.New(exec, validator.DefaultLimits()), creator, priv
}

func signTx(tx *model.Transaction, pub string, priv ed25519.PrivateKey) {
	tx.Signatures = append(tx.Signatures, model.Signature{
		Scheme:    utils.SchemeEd25519,
		PublicKey: pub,
		Payload:   utils.Ed25519Sign(priv, tx.HashBytes()),
	})
}

func domainTx(creator, name string) *model.Transaction {
	return &model.Transaction{Payload: model.TransactionPayload{
		Creator:   creator,
		CreatedMs: nowMs,
		Instructions: []model.Instruction{
			{RegisterDomain: &model.RegisterDomain{Name: name}},
		},
	}}
}

func TestStructureRejections(t *testing.T) {
	v := validator.New(executor.New(), validator.DefaultLimits())
	creator := strings.Repeat("aa", 32) + "@wonderland"

	cases := []struct {
		name string
		tx   *model.Transaction
		kind executor.ErrorKind
	}{
		{"nil tx", nil, executor.KindStructural},
		{"no instructions", &model.Transaction{Payload: model.TransactionPayload{
			Creator: creator, CreatedMs: nowMs,
		}}, executor.KindStructural},
		{"empty instruction payload", &model.Transaction{Payload: model.TransactionPayload{
			Creator: creator, CreatedMs: nowMs,
			Instructions: []model.Instruction{{}},
		}}, executor.KindStructural},
		{"malformed creator", domainTx("not-an-account-id", "x"), executor.KindStructural},
		{"missing creation time", &model.Transaction{Payload: model.TransactionPayload{
			Creator: creator,
			Instructions: []model.Instruction{
				{RegisterDomain: &model.RegisterDomain{Name: "x"}},
			},
		}}, executor.KindStructural},
	}
	for _, c := range cases {
		err := v.ValidateStructure(c.tx, nowMs)
		require.Error(t, err, c.name)
		require.Equal(t, c.kind, executor.KindOf(err), c.name)
	}
}

func TestStructureClockDrift(t *testing.T) {
	v := validator.New(executor.New(), validator.DefaultLimits())
	creator := strings.Repeat("aa", 32) + "@wonderland"

	// 漂移在容忍以内放过
	tx := domainTx(creator, "x")
	tx.Payload.CreatedMs = nowMs + (4 * time.Minute).Milliseconds()
	require.NoError(t, v.ValidateStructure(tx, nowMs))

	tx.Payload.CreatedMs = nowMs + (6 * time.Minute).Milliseconds()
	err := v.ValidateStructure(tx, nowMs)
	require.Equal(t, executor.KindStructural, executor.KindOf(err))
}

func TestStructureTTL(t *testing.T) {
	v := validator.New(executor.New(), validator.DefaultLimits())
	creator := strings.Repeat("aa", 32) + "@wonderland"

	tx := domainTx(creator, "x")
	tx.Payload.TTLMs = (25 * time.Hour).Milliseconds()
	err := v.ValidateStructure(tx, nowMs)
	require.Equal(t, executor.KindStructural, executor.KindOf(err))

	// 已过期的交易是 Expired 类别，不是普通结构错误
	tx = domainTx(creator, "x")
	tx.Payload.CreatedMs = nowMs - (10 * time.Minute).Milliseconds()
	tx.Payload.TTLMs = (5 * time.Minute).Milliseconds()
	err = v.ValidateStructure(tx, nowMs)
	require.Equal(t, executor.KindExpired, executor.KindOf(err))
}

func TestStructureInstructionCap(t *testing.T) {
	limits := validator.DefaultLimits()
	limits.MaxInstructions = 2
	v := validator.New(executor.New(), limits)
	creator := strings.Repeat("aa", 32) + "@wonderland"

	tx := domainTx(creator, "x")
	tx.Payload.Instructions = append(tx.Payload.Instructions,
		model.Instruction{RegisterDomain: &model.RegisterDomain{Name: "y"}},
		model.Instruction{RegisterDomain: &model.RegisterDomain{Name: "z"}},
	)
	err := v.ValidateStructure(tx, nowMs)
	require.Equal(t, executor.KindStructural, executor.KindOf(err))
}

func TestSignatureHappyPath(t *testing.T) {
	sv, v, creator, priv := newSignedWorld(t)
	pub := strings.Split(creator, "@")[0]

	tx := domainTx(creator, "looking_glass")
	signTx(tx, pub, priv)

	vd, err := v.Validate(sv, tx, nowMs, false, 2)
	require.NoError(t, err)
	require.True(t, vd.Receipt.Committed)
	require.NotEmpty(t, vd.Diff, "committed tx should carry its write set")
}

func TestSignatureMissing(t *testing.T) {
	sv, v, creator, _ := newSignedWorld(t)

	tx := domainTx(creator, "looking_glass")
	err := v.ValidateSignatures(sv, tx)
	require.Equal(t, executor.KindSignature, executor.KindOf(err))
}

func TestSignatureForged(t *testing.T) {
	sv, v, creator, _ := newSignedWorld(t)
	pub := strings.Split(creator, "@")[0]

	// 别人的私钥签的
	_, otherPriv, err := utils.Ed25519Keypair()
	require.NoError(t, err)

	tx := domainTx(creator, "looking_glass")
	signTx(tx, pub, otherPriv)

	err = v.ValidateSignatures(sv, tx)
	require.Equal(t, executor.KindSignature, executor.KindOf(err))
}

func TestSignatureUnknownSignatory(t *testing.T) {
	sv, v, creator, _ := newSignedWorld(t)

	// 密码学上有效，但签名人不在创建者账户里
	otherPub, otherPriv, err := utils.Ed25519Keypair()
	require.NoError(t, err)

	tx := domainTx(creator, "looking_glass")
	signTx(tx, otherPub, otherPriv)

	err = v.ValidateSignatures(sv, tx)
	require.Equal(t, executor.KindSignature, executor.KindOf(err))
}

func TestSignatureDuplicatesDontMeetQuorum(t *testing.T) {
	sv, v, creator, priv := newSignedWorld(t)
	pub := strings.Split(creator, "@")[0]

	// 法定数提到 2
	view := executor.Wrap(sv)
	acc, err := view.Account(creator)
	require.NoError(t, err)
	acc.Quorum = 2
	require.NoError(t, view.PutAccount(acc))

	// 同一公钥签两次，去重后只算一票
	tx := domainTx(creator, "looking_glass")
	signTx(tx, pub, priv)
	signTx(tx, "ed0120"+pub, priv)

	err = v.ValidateSignatures(sv, tx)
	require.Equal(t, executor.KindSignature, executor.KindOf(err))
	require.Contains(t, err.Error(), "quorum")
}

func TestSignatureCoversPayload(t *testing.T) {
	sv, v, creator, priv := newSignedWorld(t)
	pub := strings.Split(creator, "@")[0]

	tx := domainTx(creator, "looking_glass")
	signTx(tx, pub, priv)

	// 签名后改 payload，哈希变了签名就失效
	tx.Payload.Instructions[0].RegisterDomain.Name = "garden"
	err := v.ValidateSignatures(sv, tx)
	require.Equal(t, executor.KindSignature, executor.KindOf(err))
}

func TestGenesisSkipsSignatures(t *testing.T) {
	exec := executor.New()
	sv := newTestView()
	v := validator.New(exec, validator.DefaultLimits())

	tx := &model.Transaction{Payload: model.TransactionPayload{
		Creator:   "genesis@genesis",
		CreatedMs: 1,
		Instructions: []model.Instruction{
			{RegisterDomain: &model.RegisterDomain{Name: "wonderland"}},
		},
	}}
	vd, err := v.Validate(sv, tx, nowMs, true, 1)
	require.NoError(t, err)
	require.True(t, vd.Receipt.Committed)
}

func TestValidateSurfacesExecutionError(t *testing.T) {
	sv, v, creator, priv := newSignedWorld(t)
	pub := strings.Split(creator, "@")[0]

	tx := domainTx(creator, "wonderland") // 已存在
	signTx(tx, pub, priv)

	_, err := v.Validate(sv, tx, nowMs, false, 2)
	require.Equal(t, executor.KindRepetition, executor.KindOf(err))
}
