// executor/domain_handler.go
package executor

import (
	"strings"

	"ledger/keys"
	"ledger/model"
)

// registerDomainHandler 注册新域
type registerDomainHandler struct{}

func (registerDomainHandler) Kind() string { return model.KindRegisterDomain }

func (registerDomainHandler) Apply(ctx *Context, ins *model.Instruction) error {
	p := ins.RegisterDomain
	if err := ValidateName(p.Name); err != nil {
		return err
	}
	exists, err := ctx.View.HasDomain(p.Name)
	if err != nil {
		return err
	}
	if exists {
		return errRepetition("domain", p.Name)
	}
	return ctx.View.PutDomain(&model.Domain{
		Name:     p.Name,
		Metadata: p.Metadata,
	})
}

// unregisterDomainHandler 注销域。域下还有账户或资产定义时拒绝，
// 避免产生悬空实体。
type unregisterDomainHandler struct{}

func (unregisterDomainHandler) Kind() string { return model.KindUnregisterDomain }

func (unregisterDomainHandler) Apply(ctx *Context, ins *model.Instruction) error {
	p := ins.UnregisterDomain
	if _, err := ctx.View.Domain(p.Name); err != nil {
		return err
	}
	if !ctx.Genesis && ctx.Authority.Domain != p.Name {
		if err := ctx.requireToken(PermUnregisterDomain,
			"cannot unregister another domain without can_unregister_domain"); err != nil {
			return err
		}
	}
	accounts, err := ctx.View.SV.Scan(keys.KeyAccountIndexByDomainPrefix(p.Name))
	if err != nil {
		return err
	}
	if len(accounts) > 0 {
		return errNotPermitted("domain still has registered accounts")
	}
	defs, err := ctx.View.SV.Scan(keys.KeyAssetDefinitionPrefix())
	if err != nil {
		return err
	}
	for k := range defs {
		id, perr := model.ParseAssetDefinitionID(strings.TrimPrefix(k, keys.KeyAssetDefinitionPrefix()))
		if perr != nil {
			continue
		}
		if id.Domain == p.Name {
			return errNotPermitted("domain still has registered asset definitions")
		}
	}
	ctx.View.DelDomain(p.Name)
	return nil
}
