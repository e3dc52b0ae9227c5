// executor/assetdef_handler.go
package executor

import (
	"strings"

	"ledger/keys"
	"ledger/model"
)

// registerAssetDefinitionHandler 注册资产定义
type registerAssetDefinitionHandler struct{}

func (registerAssetDefinitionHandler) Kind() string { return model.KindRegisterAssetDefinition }

func (registerAssetDefinitionHandler) Apply(ctx *Context, ins *model.Instruction) error {
	p := ins.RegisterAssetDefinition
	id, err := model.ParseAssetDefinitionID(p.ID)
	if err != nil {
		return errInvalidCharacter("asset definition id must be '<name>#<domain>'")
	}
	if err := ValidateName(id.Name); err != nil {
		return err
	}
	if !model.KnownValueType(model.ValueType(p.ValueType)) {
		return errInvalidValueType(p.ValueType)
	}
	if _, err := ctx.View.Domain(id.Domain); err != nil {
		return err
	}
	exists, err := ctx.View.HasDefinition(id.String())
	if err != nil {
		return err
	}
	if exists {
		return errRepetition("asset definition", id.String())
	}
	return ctx.View.PutDefinition(&model.AssetDefinition{
		ID:           id,
		ValueType:    model.ValueType(p.ValueType),
		RegisteredBy: ctx.Authority.String(),
	})
}

// unregisterAssetDefinitionHandler 注销资产定义并清掉全部实例。
// 只有注册者本人（或创世块）可以注销。
type unregisterAssetDefinitionHandler struct{}

func (unregisterAssetDefinitionHandler) Kind() string { return model.KindUnregisterAssetDefinition }

func (unregisterAssetDefinitionHandler) Apply(ctx *Context, ins *model.Instruction) error {
	p := ins.UnregisterAssetDefinition
	id, err := model.ParseAssetDefinitionID(p.ID)
	if err != nil {
		return errInvalidCharacter("asset definition id must be '<name>#<domain>'")
	}
	def, err := ctx.View.Definition(id.String())
	if err != nil {
		return err
	}
	if !ctx.Genesis && def.RegisteredBy != "" && def.RegisteredBy != ctx.Authority.String() {
		return errNotPermitted("only the registrant can unregister an asset definition")
	}
	assets, err := ctx.View.SV.Scan(keys.KeyAssetPrefix())
	if err != nil {
		return err
	}
	for k := range assets {
		aid, perr := model.ParseAssetID(strings.TrimPrefix(k, keys.KeyAssetPrefix()))
		if perr != nil {
			continue
		}
		if aid.Definition == id {
			ctx.View.DelAsset(aid.String())
		}
	}
	ctx.View.DelDefinition(id.String())
	return nil
}
