package executor_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"ledger/executor"
	"ledger/model"
	"ledger/wsv"
)

var (
	aliceKey = strings.Repeat("aa", 32)
	alicePub = "ed0120" + aliceKey
	bobPub   = "ed0120" + strings.Repeat("bb", 32)
	ghostPub = "ed0120" + strings.Repeat("dd", 32)

	aliceID = alicePub + "@wonderland"
	bobID   = bobPub + "@wonderland"
	ghostID = ghostPub + "@wonderland"

	aliceRose    = "rose##" + aliceID
	bobRose      = "rose##" + bobID
	aliceProfile = "profile##" + aliceID
)

func newTestView() wsv.StateView {
	return wsv.New(
		func(key string) ([]byte, error) { return nil, nil },
		func(prefix string) (map[string][]byte, error) { return map[string][]byte{}, nil },
	)
}

func tx(creator string, ins ...model.Instruction) *model.Transaction {
	return &model.Transaction{Payload: model.TransactionPayload{
		Creator:      creator,
		Instructions: ins,
		CreatedMs:    1,
	}}
}

func mustApply(t *testing.T, exec *executor.Executor, sv wsv.StateView, transaction *model.Transaction) {
	t.Helper()
	rcpt := exec.ApplyTransaction(sv, transaction, false, 1)
	require.True(t, rcpt.Committed, "apply failed: %v", rcpt.Err)
}

// bootstrap 建好 wonderland 域 + alice 账户 + rose 定义
func bootstrap(t *testing.T, exec *executor.Executor, sv wsv.StateView) {
	t.Helper()
	genesis := tx("genesis@genesis",
		model.Instruction{RegisterDomain: &model.RegisterDomain{Name: "wonderland"}},
		model.Instruction{RegisterAccount: &model.RegisterAccount{ID: aliceID}},
		model.Instruction{RegisterAssetDefinition: &model.RegisterAssetDefinition{
			ID: "rose#wonderland", ValueType: "Numeric"}},
	)
	rcpt := exec.ApplyTransaction(sv, genesis, true, 1)
	require.True(t, rcpt.Committed, "bootstrap failed: %v", rcpt.Err)
}

func TestRegisterDomain(t *testing.T) {
	exec := executor.New()
	sv := newTestView()
	mustApply(t, exec, sv, tx(aliceID,
		model.Instruction{RegisterDomain: &model.RegisterDomain{Name: "looking_glass"}}))

	view := executor.Wrap(sv)
	d, err := view.Domain("looking_glass")
	require.NoError(t, err)
	require.Equal(t, "looking_glass", d.Name)
}

func TestRegisterDomainNameValidation(t *testing.T) {
	exec := executor.New()
	cases := []struct {
		name    string
		kind    executor.ErrorKind
		message string
	}{
		{"", executor.KindEmpty, "Empty name is not allowed"},
		{strings.Repeat("a", 129), executor.KindTooLong, ""},
		{"bad@name", executor.KindReservedCharacter, "Reserved character found in name: '@', '#' and '$' are reserved for id delimiters"},
		{"bad#name", executor.KindReservedCharacter, ""},
		{"bad name", executor.KindWhitespace, "White space is not allowed in names"},
	}
	for _, c := range cases {
		sv := newTestView()
		rcpt := exec.ApplyTransaction(sv, tx(aliceID,
			model.Instruction{RegisterDomain: &model.RegisterDomain{Name: c.name}}), false, 1)
		require.False(t, rcpt.Committed, "name %q should fail", c.name)
		require.Equal(t, c.kind, executor.KindOf(rcpt.Err), "name %q", c.name)
		if c.message != "" {
			require.Equal(t, c.message, rcpt.Err.Error())
		}
		// 零副作用
		require.Empty(t, sv.Diff(), "rejected tx must leave no writes")
	}
}

func TestRegisterDomainRepetition(t *testing.T) {
	exec := executor.New()
	sv := newTestView()
	ins := model.Instruction{RegisterDomain: &model.RegisterDomain{Name: "wonderland"}}
	mustApply(t, exec, sv, tx(aliceID, ins))

	rcpt := exec.ApplyTransaction(sv, tx(aliceID, ins), false, 2)
	require.False(t, rcpt.Committed)
	require.Equal(t, executor.KindRepetition, executor.KindOf(rcpt.Err))
	require.Equal(t, "Repetition: domain 'wonderland' is already registered", rcpt.Err.Error())
}

func TestRegisterAccountRequiresDomain(t *testing.T) {
	exec := executor.New()
	sv := newTestView()
	rcpt := exec.ApplyTransaction(sv, tx(aliceID,
		model.Instruction{RegisterAccount: &model.RegisterAccount{ID: bobPub + "@nowhere"}}), false, 1)
	require.False(t, rcpt.Committed)
	require.Equal(t, executor.KindFailedToFindDomain, executor.KindOf(rcpt.Err))
	require.Equal(t, "Failed to find domain: 'nowhere'", rcpt.Err.Error())
}

func TestRegisterAccountDefaultQuorum(t *testing.T) {
	exec := executor.New()
	sv := newTestView()
	bootstrap(t, exec, sv)

	view := executor.Wrap(sv)
	acc, err := view.Account(aliceID)
	require.NoError(t, err)
	require.Equal(t, uint32(1), acc.Quorum)
	require.Equal(t, []string{aliceKey}, acc.Signatories)
}

func TestMintThenQuery(t *testing.T) {
	exec := executor.New()
	sv := newTestView()
	bootstrap(t, exec, sv)

	mustApply(t, exec, sv, tx(aliceID,
		model.Instruction{Mint: &model.Mint{AssetID: aliceRose, Quantity: "5"}}))

	view := executor.Wrap(sv)
	asset, err := view.Asset(aliceRose)
	require.NoError(t, err)
	require.Equal(t, "5", asset.Value)
}

func TestBurnLeavesRemainder(t *testing.T) {
	exec := executor.New()
	sv := newTestView()
	bootstrap(t, exec, sv)

	mustApply(t, exec, sv, tx(aliceID,
		model.Instruction{Mint: &model.Mint{AssetID: aliceRose, Quantity: "5"}}))
	mustApply(t, exec, sv, tx(aliceID,
		model.Instruction{Burn: &model.Burn{AssetID: aliceRose, Quantity: "4"}}))

	view := executor.Wrap(sv)
	asset, err := view.Asset(aliceRose)
	require.NoError(t, err)
	require.Equal(t, "1", asset.Value)
}

func TestBurnInsufficientFundsIsNoOp(t *testing.T) {
	exec := executor.New()
	sv := newTestView()
	bootstrap(t, exec, sv)
	mustApply(t, exec, sv, tx(aliceID,
		model.Instruction{Mint: &model.Mint{AssetID: aliceRose, Quantity: "3"}}))

	before, err := wsv.StateHash(sv.Scan)
	require.NoError(t, err)

	rcpt := exec.ApplyTransaction(sv, tx(aliceID,
		model.Instruction{Burn: &model.Burn{AssetID: aliceRose, Quantity: "10"}}), false, 2)
	require.False(t, rcpt.Committed)
	require.Equal(t, executor.KindInsufficientFunds, executor.KindOf(rcpt.Err))
	require.Equal(t, "Insufficient funds: have 3, need 10", rcpt.Err.Error())

	after, err := wsv.StateHash(sv.Scan)
	require.NoError(t, err)
	require.Equal(t, before, after, "failed burn must not change state")
}

func TestTransferConservation(t *testing.T) {
	exec := executor.New()
	sv := newTestView()
	bootstrap(t, exec, sv)
	mustApply(t, exec, sv, tx("genesis@genesis",
		model.Instruction{RegisterAccount: &model.RegisterAccount{ID: bobID}}))
	mustApply(t, exec, sv, tx(aliceID,
		model.Instruction{Mint: &model.Mint{AssetID: aliceRose, Quantity: "10"}}))

	mustApply(t, exec, sv, tx(aliceID,
		model.Instruction{Transfer: &model.Transfer{
			AssetID:  aliceRose,
			To:       bobID,
			Quantity: "4",
		}}))

	view := executor.Wrap(sv)
	src, err := view.Asset(aliceRose)
	require.NoError(t, err)
	dst, err := view.Asset(bobRose)
	require.NoError(t, err)
	require.Equal(t, "6", src.Value)
	require.Equal(t, "4", dst.Value)
}

func TestTransferToMissingAccount(t *testing.T) {
	exec := executor.New()
	sv := newTestView()
	bootstrap(t, exec, sv)
	mustApply(t, exec, sv, tx(aliceID,
		model.Instruction{Mint: &model.Mint{AssetID: aliceRose, Quantity: "10"}}))

	rcpt := exec.ApplyTransaction(sv, tx(aliceID,
		model.Instruction{Transfer: &model.Transfer{
			AssetID:  aliceRose,
			To:       ghostID,
			Quantity: "1",
		}}), false, 2)
	require.False(t, rcpt.Committed)
	require.Equal(t, executor.KindFailedToFindAccount, executor.KindOf(rcpt.Err))
}

func TestTransferRequiresPermissionForOthersAsset(t *testing.T) {
	exec := executor.New()
	sv := newTestView()
	bootstrap(t, exec, sv)
	mustApply(t, exec, sv, tx("genesis@genesis",
		model.Instruction{RegisterAccount: &model.RegisterAccount{ID: bobID}}))
	mustApply(t, exec, sv, tx(aliceID,
		model.Instruction{Mint: &model.Mint{AssetID: aliceRose, Quantity: "10"}}))

	// bob 动 alice 的资产，没有令牌
	rcpt := exec.ApplyTransaction(sv, tx(bobID,
		model.Instruction{Transfer: &model.Transfer{
			AssetID:  aliceRose,
			To:       bobID,
			Quantity: "1",
		}}), false, 2)
	require.False(t, rcpt.Committed)
	require.Equal(t, executor.KindNotPermitted, executor.KindOf(rcpt.Err))
}

func TestMultiInstructionAtomicity(t *testing.T) {
	exec := executor.New()
	sv := newTestView()
	bootstrap(t, exec, sv)

	before, err := wsv.StateHash(sv.Scan)
	require.NoError(t, err)

	// 第二条指令失败，第一条的写也要回滚
	rcpt := exec.ApplyTransaction(sv, tx(aliceID,
		model.Instruction{RegisterDomain: &model.RegisterDomain{Name: "garden"}},
		model.Instruction{RegisterDomain: &model.RegisterDomain{Name: "wonderland"}},
	), false, 2)
	require.False(t, rcpt.Committed)
	require.Equal(t, 1, rcpt.FailedAt)
	require.Equal(t, executor.KindRepetition, executor.KindOf(rcpt.Err))

	view := executor.Wrap(sv)
	ok, err := view.HasDomain("garden")
	require.NoError(t, err)
	require.False(t, ok, "first instruction's write must be rolled back")

	after, err := wsv.StateHash(sv.Scan)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestInvalidValueType(t *testing.T) {
	exec := executor.New()
	sv := newTestView()
	mustApply(t, exec, sv, tx(aliceID,
		model.Instruction{RegisterDomain: &model.RegisterDomain{Name: "wonderland"}}))

	rcpt := exec.ApplyTransaction(sv, tx(aliceID,
		model.Instruction{RegisterAssetDefinition: &model.RegisterAssetDefinition{
			ID: "rose#wonderland", ValueType: "Bignum"}}), false, 1)
	require.False(t, rcpt.Committed)
	require.Equal(t, executor.KindInvalidValueType, executor.KindOf(rcpt.Err))
	require.Equal(t, "Matching variant not found: unknown asset value type 'Bignum'", rcpt.Err.Error())
}

func TestMetadataOnAccount(t *testing.T) {
	exec := executor.New()
	sv := newTestView()
	bootstrap(t, exec, sv)

	mustApply(t, exec, sv, tx(aliceID,
		model.Instruction{SetKeyValue: &model.SetKeyValue{
			AccountID: aliceID, Key: "age", Value: "32"}}))

	view := executor.Wrap(sv)
	acc, err := view.Account(aliceID)
	require.NoError(t, err)
	require.Equal(t, "32", acc.Metadata["age"])

	mustApply(t, exec, sv, tx(aliceID,
		model.Instruction{RemoveKeyValue: &model.RemoveKeyValue{
			AccountID: aliceID, Key: "age"}}))
	acc, err = view.Account(aliceID)
	require.NoError(t, err)
	_, ok := acc.Metadata["age"]
	require.False(t, ok)
}

func TestMetadataOnStoreAsset(t *testing.T) {
	exec := executor.New()
	sv := newTestView()
	bootstrap(t, exec, sv)
	mustApply(t, exec, sv, tx("genesis@genesis",
		model.Instruction{RegisterAssetDefinition: &model.RegisterAssetDefinition{
			ID: "profile#wonderland", ValueType: "Store"}}))

	mustApply(t, exec, sv, tx(aliceID,
		model.Instruction{SetKeyValue: &model.SetKeyValue{
			AssetID: aliceProfile, Key: "bio", Value: "curiouser"}}))

	view := executor.Wrap(sv)
	asset, err := view.Asset(aliceProfile)
	require.NoError(t, err)
	require.Equal(t, "curiouser", asset.Store["bio"])
}

func TestMetadataValueTypeMismatch(t *testing.T) {
	exec := executor.New()
	sv := newTestView()
	bootstrap(t, exec, sv)

	// rose 是 Numeric，不能当 Store 用
	rcpt := exec.ApplyTransaction(sv, tx(aliceID,
		model.Instruction{SetKeyValue: &model.SetKeyValue{
			AssetID: aliceRose, Key: "k", Value: "v"}}), false, 2)
	require.False(t, rcpt.Committed)
	require.Equal(t, executor.KindInvalidValueType, executor.KindOf(rcpt.Err))
}

func TestGrantUnknownPermission(t *testing.T) {
	exec := executor.New()
	sv := newTestView()
	bootstrap(t, exec, sv)

	rcpt := exec.ApplyTransaction(sv, tx(aliceID,
		model.Instruction{Grant: &model.Grant{Permission: "can_fly", To: aliceID}}), false, 2)
	require.False(t, rcpt.Committed)
	require.Equal(t, executor.KindUnknownPermission, executor.KindOf(rcpt.Err))
}

func TestGenesisOnlyPermissionOutsideGenesis(t *testing.T) {
	exec := executor.New()
	sv := newTestView()
	bootstrap(t, exec, sv)

	rcpt := exec.ApplyTransaction(sv, tx(aliceID,
		model.Instruction{Grant: &model.Grant{
			Permission: "can_manage_permissions", To: aliceID}}), false, 2)
	require.False(t, rcpt.Committed)
	require.Equal(t, executor.KindNotPermitted, executor.KindOf(rcpt.Err))
	require.Equal(t,
		"Operation is not permitted: This operation is only allowed inside the genesis block",
		rcpt.Err.Error())
}

func TestGrantRevokeFlow(t *testing.T) {
	exec := executor.New()
	sv := newTestView()
	bootstrap(t, exec, sv)
	mustApply(t, exec, sv, tx("genesis@genesis",
		model.Instruction{RegisterAccount: &model.RegisterAccount{ID: bobID}}))

	// 创世里给 alice 管理权
	genesisGrant := tx("genesis@genesis",
		model.Instruction{Grant: &model.Grant{
			Permission: "can_manage_permissions", To: aliceID}})
	rcpt := exec.ApplyTransaction(sv, genesisGrant, true, 1)
	require.True(t, rcpt.Committed, "%v", rcpt.Err)

	// alice 凭管理权授 bob 转账权
	mustApply(t, exec, sv, tx(aliceID,
		model.Instruction{Grant: &model.Grant{
			Permission: "can_transfer_assets", To: bobID}}))

	view := executor.Wrap(sv)
	bob, err := view.Account(bobID)
	require.NoError(t, err)
	require.True(t, bob.HasPermission("can_transfer_assets"))

	// 重复授予
	rcpt = exec.ApplyTransaction(sv, tx(aliceID,
		model.Instruction{Grant: &model.Grant{
			Permission: "can_transfer_assets", To: bobID}}), false, 2)
	require.False(t, rcpt.Committed)
	require.Equal(t, executor.KindRepetition, executor.KindOf(rcpt.Err))

	// 收回
	mustApply(t, exec, sv, tx(aliceID,
		model.Instruction{Revoke: &model.Revoke{
			Permission: "can_transfer_assets", To: bobID}}))
	bob, err = view.Account(bobID)
	require.NoError(t, err)
	require.False(t, bob.HasPermission("can_transfer_assets"))

	// 收回未持有的
	rcpt = exec.ApplyTransaction(sv, tx(aliceID,
		model.Instruction{Revoke: &model.Revoke{
			Permission: "can_transfer_assets", To: bobID}}), false, 2)
	require.False(t, rcpt.Committed)
	require.Equal(t, executor.KindNotPermitted, executor.KindOf(rcpt.Err))
}

func TestUnregisterDomainWithAccounts(t *testing.T) {
	exec := executor.New()
	sv := newTestView()
	bootstrap(t, exec, sv)

	rcpt := exec.ApplyTransaction(sv, tx(aliceID,
		model.Instruction{UnregisterDomain: &model.UnregisterDomain{Name: "wonderland"}}), false, 2)
	require.False(t, rcpt.Committed)
	require.Equal(t, executor.KindNotPermitted, executor.KindOf(rcpt.Err))
}

func TestUnregisterAccountRemovesAssets(t *testing.T) {
	exec := executor.New()
	sv := newTestView()
	bootstrap(t, exec, sv)
	mustApply(t, exec, sv, tx(aliceID,
		model.Instruction{Mint: &model.Mint{AssetID: aliceRose, Quantity: "5"}}))

	mustApply(t, exec, sv, tx(aliceID,
		model.Instruction{UnregisterAccount: &model.UnregisterAccount{ID: aliceID}}))

	view := executor.Wrap(sv)
	_, err := view.Account(aliceID)
	require.Equal(t, executor.KindFailedToFindAccount, executor.KindOf(err))
	_, err = view.Asset(aliceRose)
	require.Equal(t, executor.KindFailedToFindAsset, executor.KindOf(err))
}

func TestMintOverflow(t *testing.T) {
	exec := executor.New()
	sv := newTestView()
	bootstrap(t, exec, sv)

	max := "79228162514264337593543950335" // 2^96 - 1
	mustApply(t, exec, sv, tx(aliceID,
		model.Instruction{Mint: &model.Mint{AssetID: aliceRose, Quantity: max}}))

	rcpt := exec.ApplyTransaction(sv, tx(aliceID,
		model.Instruction{Mint: &model.Mint{AssetID: aliceRose, Quantity: "1"}}), false, 2)
	require.False(t, rcpt.Committed)
	require.Equal(t, executor.KindOverflow, executor.KindOf(rcpt.Err))
}

func TestRegisterRoleValidation(t *testing.T) {
	exec := executor.New()
	sv := newTestView()
	bootstrap(t, exec, sv)

	// 空权限列表
	rcpt := exec.ApplyTransaction(sv, tx("genesis@genesis",
		model.Instruction{RegisterRole: &model.RegisterRole{
			Name: "empty", Permissions: nil}}), true, 1)
	require.False(t, rcpt.Committed)
	require.Equal(t, executor.KindStructural, executor.KindOf(rcpt.Err))

	// 表外令牌
	rcpt = exec.ApplyTransaction(sv, tx("genesis@genesis",
		model.Instruction{RegisterRole: &model.RegisterRole{
			Name: "bogus", Permissions: []string{"can_fly"}}}), true, 1)
	require.False(t, rcpt.Committed)
	require.Equal(t, executor.KindUnknownPermission, executor.KindOf(rcpt.Err))

	// 创世块外注册角色需要 can_manage_roles
	rcpt = exec.ApplyTransaction(sv, tx(aliceID,
		model.Instruction{RegisterRole: &model.RegisterRole{
			Name: "spender", Permissions: []string{"can_transfer_assets"}}}), false, 2)
	require.False(t, rcpt.Committed)
	require.Equal(t, executor.KindNotPermitted, executor.KindOf(rcpt.Err))

	// 捆引导令牌的角色只能在创世块定义
	rcpt = exec.ApplyTransaction(sv, tx(aliceID,
		model.Instruction{RegisterRole: &model.RegisterRole{
			Name: "root", Permissions: []string{"can_manage_permissions"}}}), false, 2)
	require.False(t, rcpt.Committed)
	require.Equal(t, executor.KindNotPermitted, executor.KindOf(rcpt.Err))

	// 重复注册
	mustGenesis := func(ins model.Instruction) {
		r := exec.ApplyTransaction(sv, tx("genesis@genesis", ins), true, 1)
		require.True(t, r.Committed, "%v", r.Err)
	}
	mustGenesis(model.Instruction{RegisterRole: &model.RegisterRole{
		Name: "spender", Permissions: []string{"can_transfer_assets"}}})
	rcpt = exec.ApplyTransaction(sv, tx("genesis@genesis",
		model.Instruction{RegisterRole: &model.RegisterRole{
			Name: "spender", Permissions: []string{"can_transfer_assets"}}}), true, 1)
	require.False(t, rcpt.Committed)
	require.Equal(t, executor.KindRepetition, executor.KindOf(rcpt.Err))
}

func TestRoleGrantRevokeFlow(t *testing.T) {
	exec := executor.New()
	sv := newTestView()
	bootstrap(t, exec, sv)
	mustApply(t, exec, sv, tx("genesis@genesis",
		model.Instruction{RegisterAccount: &model.RegisterAccount{ID: bobID}}))

	// 创世里定义角色并给 alice 角色管理权
	genesisSetup := tx("genesis@genesis",
		model.Instruction{RegisterRole: &model.RegisterRole{
			Name: "spender", Permissions: []string{"can_transfer_assets"}}},
		model.Instruction{Grant: &model.Grant{
			Permission: "can_manage_roles", To: aliceID}},
	)
	rcpt := exec.ApplyTransaction(sv, genesisSetup, true, 1)
	require.True(t, rcpt.Committed, "%v", rcpt.Err)

	// Permission 和 Role 必须二选一
	rcpt = exec.ApplyTransaction(sv, tx(aliceID,
		model.Instruction{Grant: &model.Grant{
			Permission: "can_transfer_assets", Role: "spender", To: bobID}}), false, 2)
	require.False(t, rcpt.Committed)
	require.Equal(t, executor.KindStructural, executor.KindOf(rcpt.Err))

	// 不存在的角色
	rcpt = exec.ApplyTransaction(sv, tx(aliceID,
		model.Instruction{Grant: &model.Grant{Role: "ghostrole", To: bobID}}), false, 2)
	require.False(t, rcpt.Committed)
	require.Equal(t, executor.KindFailedToFindRole, executor.KindOf(rcpt.Err))

	// alice 凭 can_manage_roles 把角色挂给 bob
	mustApply(t, exec, sv, tx(aliceID,
		model.Instruction{Grant: &model.Grant{Role: "spender", To: bobID}}))

	view := executor.Wrap(sv)
	bob, err := view.Account(bobID)
	require.NoError(t, err)
	require.True(t, bob.HasRole("spender"))

	// 角色展开后 bob 可以动 alice 的资产
	mustApply(t, exec, sv, tx(aliceID,
		model.Instruction{Mint: &model.Mint{AssetID: aliceRose, Quantity: "10"}}))
	mustApply(t, exec, sv, tx(bobID,
		model.Instruction{Transfer: &model.Transfer{
			AssetID: aliceRose, To: bobID, Quantity: "3"}}))

	// 重复挂角色
	rcpt = exec.ApplyTransaction(sv, tx(aliceID,
		model.Instruction{Grant: &model.Grant{Role: "spender", To: bobID}}), false, 2)
	require.False(t, rcpt.Committed)
	require.Equal(t, executor.KindRepetition, executor.KindOf(rcpt.Err))

	// 收回角色后转账权随之消失
	mustApply(t, exec, sv, tx(aliceID,
		model.Instruction{Revoke: &model.Revoke{Role: "spender", To: bobID}}))
	bob, err = view.Account(bobID)
	require.NoError(t, err)
	require.False(t, bob.HasRole("spender"))

	rcpt = exec.ApplyTransaction(sv, tx(bobID,
		model.Instruction{Transfer: &model.Transfer{
			AssetID: aliceRose, To: bobID, Quantity: "1"}}), false, 3)
	require.False(t, rcpt.Committed)
	require.Equal(t, executor.KindNotPermitted, executor.KindOf(rcpt.Err))
}
