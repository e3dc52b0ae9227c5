// validator/validator.go
// 交易校验分三段：结构 → 签名/法定数 → 预执行。
// 三段按序短路，任何一段失败都产出带稳定类别与文案的拒绝原因；
// 预执行在叠加视图里跑，权威状态一个字节都不会动。
package validator

import (
	"time"

	"ledger/executor"
	"ledger/logs"
	"ledger/model"
	"ledger/utils"
	"ledger/wsv"
)

// Limits 校验用的时间与规模边界
type Limits struct {
	MaxClockDrift   time.Duration
	MaxTxTTL        time.Duration
	MaxInstructions int
}

// DefaultLimits 与配置默认值保持一致
func DefaultLimits() Limits {
	return Limits{
		MaxClockDrift:   5 * time.Minute,
		MaxTxTTL:        24 * time.Hour,
		MaxInstructions: 4096,
	}
}

// Validator 三段式交易校验器
type Validator struct {
	exec   *executor.Executor
	limits Limits
}

func New(exec *executor.Executor, limits Limits) *Validator {
	return &Validator{exec: exec, limits: limits}
}

// ValidateStructure 结构段：不碰状态就能判死刑的检查
func (v *Validator) ValidateStructure(tx *model.Transaction, nowMs int64) error {
	if tx == nil {
		return executor.NewError(executor.KindStructural, "Transaction is empty")
	}
	if len(tx.Payload.Instructions) == 0 {
		return executor.NewError(executor.KindStructural, "Transaction contains no instructions")
	}
	if v.limits.MaxInstructions > 0 && len(tx.Payload.Instructions) > v.limits.MaxInstructions {
		return executor.NewError(executor.KindStructural,
			"Transaction contains %d instructions, limit is %d",
			len(tx.Payload.Instructions), v.limits.MaxInstructions)
	}
	for i := range tx.Payload.Instructions {
		if tx.Payload.Instructions[i].Kind() == "" {
			return executor.NewError(executor.KindStructural, "Instruction %d has empty payload", i)
		}
	}
	if _, err := model.ParseAccountID(tx.Payload.Creator); err != nil {
		return executor.NewError(executor.KindStructural, "Creator account id is malformed: '%s'", tx.Payload.Creator)
	}
	if tx.Payload.CreatedMs <= 0 {
		return executor.NewError(executor.KindStructural, "Transaction creation time is missing")
	}
	// 来自未来的交易：超过允许时钟漂移即拒
	if drift := tx.Payload.CreatedMs - nowMs; drift > v.limits.MaxClockDrift.Milliseconds() {
		return executor.NewError(executor.KindStructural,
			"Transaction creation time is too far in the future")
	}
	if v.limits.MaxTxTTL > 0 && tx.Payload.TTLMs > v.limits.MaxTxTTL.Milliseconds() {
		return executor.NewError(executor.KindStructural,
			"Transaction TTL %dms exceeds maximum %dms", tx.Payload.TTLMs, v.limits.MaxTxTTL.Milliseconds())
	}
	if exp := tx.ExpiresAtMs(); exp > 0 && nowMs >= exp {
		return executor.NewError(executor.KindExpired, "Transaction TTL has expired")
	}
	return nil
}

// ValidateSignatures 签名段：每个签名都要密码学有效，
// 且有效签名人数达到创建者账户的法定数。
// 创世路径（账户还不存在）由调用方用 genesis=true 跳过本段。
func (v *Validator) ValidateSignatures(sv wsv.StateView, tx *model.Transaction) error {
	if len(tx.Signatures) == 0 {
		return executor.NewError(executor.KindSignature, "Transaction has no signatures")
	}
	view := executor.Wrap(sv)
	acc, err := view.Account(tx.Payload.Creator)
	if err != nil {
		return err
	}
	msg := tx.HashBytes()
	seen := make(map[string]bool, len(tx.Signatures))
	valid := 0
	for i := range tx.Signatures {
		sig := &tx.Signatures[i]
		pub := utils.NormalizePublicKey(sig.PublicKey)
		if seen[pub] {
			continue
		}
		if err := utils.VerifySignature(sig.Scheme, sig.PublicKey, sig.Payload, msg); err != nil {
			return executor.NewError(executor.KindSignature, "Signature %d is invalid: %v", i, err)
		}
		if !acc.HasSignatory(pub) {
			return executor.NewError(executor.KindSignature,
				"Signature %d is not from a registered signatory of '%s'", i, tx.Payload.Creator)
		}
		seen[pub] = true
		valid++
	}
	if uint32(valid) < acc.Quorum {
		return executor.NewError(executor.KindSignature,
			"Signature quorum not reached: have %d, need %d", valid, acc.Quorum)
	}
	return nil
}

// Validated 通过全部三段后的产物：执行回执 + 本笔写集
type Validated struct {
	Tx      *model.Transaction
	Receipt *executor.Receipt
	Diff    []wsv.WriteOp
}

// Validate 完整三段校验。sv 必须是本笔专属的叠层视图，
// 通过后其 Diff 即本笔交易的状态变更。
func (v *Validator) Validate(sv wsv.StateView, tx *model.Transaction, nowMs int64, genesis bool, height uint64) (*Validated, error) {
	if err := v.ValidateStructure(tx, nowMs); err != nil {
		return nil, err
	}
	if !genesis {
		if err := v.ValidateSignatures(sv, tx); err != nil {
			return nil, err
		}
	}
	rcpt := v.exec.ApplyTransaction(sv, tx, genesis, height)
	if !rcpt.Committed {
		logs.Verbose("tx %x rejected at instruction %d: %v", tx.ShortHash(), rcpt.FailedAt, rcpt.Err)
		return nil, rcpt.Err
	}
	return &Validated{Tx: tx, Receipt: rcpt, Diff: sv.Diff()}, nil
}
