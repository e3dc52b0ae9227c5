// executor/engine.go
// 交易级执行引擎。一笔交易内的指令顺序执行、先错先停；
// 任一指令失败则通过 Snapshot/Revert 把本笔的全部写作废，
// 视图回到交易开始时的样子。
package executor

import (
	"ledger/logs"
	"ledger/model"
	"ledger/wsv"
)

// Receipt 单笔交易的执行结果
type Receipt struct {
	TxHash     string
	Committed  bool
	FailedAt   int // 失败指令下标，成功为 -1
	Err        error
	WriteCount int
}

// Executor 把交易应用到状态视图
type Executor struct {
	registry *HandlerRegistry
}

// New 创建执行引擎并装上全部内置指令 handler
func New() *Executor {
	r := NewHandlerRegistry()
	RegisterDefaultHandlers(r)
	return &Executor{registry: r}
}

// NewWithRegistry 用外部注册表创建（测试替换 handler 用）
func NewWithRegistry(r *HandlerRegistry) *Executor {
	return &Executor{registry: r}
}

// ApplyTransaction 在给定视图上执行一笔交易的全部指令。
// 失败回滚到交易前快照，Receipt.Err 带稳定类别与文案。
func (e *Executor) ApplyTransaction(sv wsv.StateView, tx *model.Transaction, genesis bool, height uint64) *Receipt {
	rcpt := &Receipt{TxHash: tx.Hash(), FailedAt: -1}
	creator, err := model.ParseAccountID(tx.Payload.Creator)
	if err != nil {
		rcpt.FailedAt = 0
		rcpt.Err = errInvalidCharacter("creator account id must be '<signatory>@<domain>'")
		return rcpt
	}
	ctx := &Context{
		View:      Wrap(sv),
		Authority: creator,
		Genesis:   genesis,
		Height:    height,
	}

	snap := sv.Snapshot()
	before := len(sv.Diff())
	for i := range tx.Payload.Instructions {
		ins := &tx.Payload.Instructions[i]
		if err := e.registry.Dispatch(ctx, ins); err != nil {
			if rerr := sv.Revert(snap); rerr != nil {
				// 不该发生：快照号来自本函数开头
				logs.Error("revert after failed instruction: %v", rerr)
			}
			rcpt.FailedAt = i
			rcpt.Err = err
			logs.Debug("tx %x instruction %d (%s) failed: %v", tx.ShortHash(), i, ins.Kind(), err)
			return rcpt
		}
	}
	rcpt.Committed = true
	rcpt.WriteCount = len(sv.Diff()) - before
	return rcpt
}

// Registry 暴露注册表（扩展指令集用）
func (e *Executor) Registry() *HandlerRegistry {
	return e.registry
}
