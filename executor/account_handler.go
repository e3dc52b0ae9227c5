// executor/account_handler.go
package executor

import (
	"strings"

	"ledger/keys"
	"ledger/model"
	"ledger/utils"
)

// registerAccountHandler 注册账户。
// id 里的 signatory 就是首个签名公钥；域必须已存在；
// 同一公钥在同一域内只能注册一次。
type registerAccountHandler struct{}

func (registerAccountHandler) Kind() string { return model.KindRegisterAccount }

func (registerAccountHandler) Apply(ctx *Context, ins *model.Instruction) error {
	p := ins.RegisterAccount
	id, err := model.ParseAccountID(p.ID)
	if err != nil {
		return errInvalidCharacter("account id must be '<signatory>@<domain>'")
	}
	if err := ValidatePublicKey(id.Signatory); err != nil {
		return err
	}
	if err := ValidateName(id.Domain); err != nil {
		return err
	}
	if _, err := ctx.View.Domain(id.Domain); err != nil {
		return err
	}
	exists, err := ctx.View.HasAccount(id.String())
	if err != nil {
		return err
	}
	if exists {
		return errRepetition("account", id.String())
	}
	taken, err := ctx.View.SignatoryInDomain(id.Domain, id.Signatory)
	if err != nil {
		return err
	}
	if taken {
		return errRepetition("account", id.String())
	}
	quorum := p.Quorum
	if quorum == 0 {
		quorum = 1
	}
	// 签名人集合存规范形（小写、去多哈希前缀），验签时直接比对
	return ctx.View.PutAccount(&model.Account{
		ID:          id,
		Signatories: []string{utils.NormalizePublicKey(id.Signatory)},
		Quorum:      quorum,
		Metadata:    p.Metadata,
	})
}

// unregisterAccountHandler 注销账户并清掉其全部资产实例
type unregisterAccountHandler struct{}

func (unregisterAccountHandler) Kind() string { return model.KindUnregisterAccount }

func (unregisterAccountHandler) Apply(ctx *Context, ins *model.Instruction) error {
	p := ins.UnregisterAccount
	id, err := model.ParseAccountID(p.ID)
	if err != nil {
		return errInvalidCharacter("account id must be '<signatory>@<domain>'")
	}
	if _, err := ctx.View.Account(id.String()); err != nil {
		return err
	}
	if err := ctx.requirePermission(id, PermUnregisterAccount,
		"cannot unregister another account without can_unregister_account"); err != nil {
		return err
	}
	// 该账户名下的资产实例一并删除
	assets, err := ctx.View.SV.Scan(keys.KeyAssetPrefix())
	if err != nil {
		return err
	}
	for k := range assets {
		aid, perr := model.ParseAssetID(strings.TrimPrefix(k, keys.KeyAssetPrefix()))
		if perr != nil {
			continue
		}
		if aid.Account == id {
			ctx.View.DelAsset(aid.String())
		}
	}
	ctx.View.DelAccount(id)
	return nil
}
