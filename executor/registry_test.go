package executor_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"ledger/executor"
	"ledger/model"
)

// countingHandler 顶替内置的域注册 handler，记录调用次数
type countingHandler struct {
	calls *int
}

func (countingHandler) Kind() string { return model.KindRegisterDomain }

func (h countingHandler) Apply(ctx *executor.Context, ins *model.Instruction) error {
	*h.calls++
	return nil
}

func TestCustomRegistryOverridesHandler(t *testing.T) {
	r := executor.NewHandlerRegistry()
	executor.RegisterDefaultHandlers(r)
	calls := 0
	r.Register(countingHandler{calls: &calls})

	exec := executor.NewWithRegistry(r)
	sv := newTestView()
	rcpt := exec.ApplyTransaction(sv, tx("genesis@genesis",
		model.Instruction{RegisterDomain: &model.RegisterDomain{Name: "wonderland"}}), true, 1)
	require.True(t, rcpt.Committed, "%v", rcpt.Err)
	require.Equal(t, 1, calls)
}

func TestDefaultRegistryCoversAllKinds(t *testing.T) {
	r := executor.NewHandlerRegistry()
	executor.RegisterDefaultHandlers(r)

	kinds := r.Kinds()
	sort.Strings(kinds)
	require.Equal(t, []string{
		model.KindBurn,
		model.KindGrant,
		model.KindMint,
		model.KindRegisterAccount,
		model.KindRegisterAssetDefinition,
		model.KindRegisterDomain,
		model.KindRegisterRole,
		model.KindRemoveKeyValue,
		model.KindRevoke,
		model.KindSetKeyValue,
		model.KindTransfer,
		model.KindUnregisterAccount,
		model.KindUnregisterAssetDefinition,
		model.KindUnregisterDomain,
	}, kinds)

	h, ok := r.Lookup(model.KindMint)
	require.True(t, ok)
	require.Equal(t, model.KindMint, h.Kind())

	_, ok = r.Lookup("no_such_kind")
	require.False(t, ok)
}
