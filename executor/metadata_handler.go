// executor/metadata_handler.go
// 键值元数据指令。目标二选一：账户 metadata，
// 或 Store 类型资产的 store（实例不存在时自动建档）。
package executor

import (
	"ledger/model"
)

// metadataTarget 解析 SetKeyValue/RemoveKeyValue 的目标
func metadataTarget(ctx *Context, accountID, assetID string) (acc *model.Account, asset *model.Asset, err error) {
	switch {
	case accountID != "" && assetID != "":
		return nil, nil, NewError(KindStructural, "key-value target must name an account or an asset, not both")
	case accountID != "":
		id, perr := model.ParseAccountID(accountID)
		if perr != nil {
			return nil, nil, errInvalidCharacter("account id must be '<signatory>@<domain>'")
		}
		acc, err = ctx.View.Account(id.String())
		if err != nil {
			return nil, nil, err
		}
		if perr := ctx.requirePermission(id, PermSetKeyValue,
			"cannot modify another account's metadata without can_set_key_value"); perr != nil {
			return nil, nil, perr
		}
		return acc, nil, nil
	case assetID != "":
		id, perr := model.ParseAssetID(assetID)
		if perr != nil {
			return nil, nil, errInvalidCharacter("asset id must be '<name>#<domain>#<account>'")
		}
		def, derr := ctx.View.Definition(id.Definition.String())
		if derr != nil {
			return nil, nil, derr
		}
		if def.ValueType != model.ValueTypeStore {
			return nil, nil, errInvalidValueType(string(def.ValueType))
		}
		if _, aerr := ctx.View.Account(id.Account.String()); aerr != nil {
			return nil, nil, aerr
		}
		if perr := ctx.requirePermission(id.Account, PermSetKeyValue,
			"cannot modify another account's asset store without can_set_key_value"); perr != nil {
			return nil, nil, perr
		}
		asset, ok, aerr := ctx.View.AssetOrNil(id.String())
		if aerr != nil {
			return nil, nil, aerr
		}
		if !ok {
			asset = &model.Asset{ID: id, Store: map[string]string{}}
		}
		if asset.Store == nil {
			asset.Store = map[string]string{}
		}
		return nil, asset, nil
	default:
		return nil, nil, NewError(KindStructural, "key-value target is missing")
	}
}

// setKeyValueHandler 写一个键值对
type setKeyValueHandler struct{}

func (setKeyValueHandler) Kind() string { return model.KindSetKeyValue }

func (setKeyValueHandler) Apply(ctx *Context, ins *model.Instruction) error {
	p := ins.SetKeyValue
	if err := ValidateName(p.Key); err != nil {
		return err
	}
	acc, asset, err := metadataTarget(ctx, p.AccountID, p.AssetID)
	if err != nil {
		return err
	}
	if acc != nil {
		if acc.Metadata == nil {
			acc.Metadata = map[string]string{}
		}
		acc.Metadata[p.Key] = p.Value
		return ctx.View.PutAccount(acc)
	}
	asset.Store[p.Key] = p.Value
	return ctx.View.PutAsset(asset)
}

// removeKeyValueHandler 删一个键；键不存在是可见错误而非静默成功
type removeKeyValueHandler struct{}

func (removeKeyValueHandler) Kind() string { return model.KindRemoveKeyValue }

func (removeKeyValueHandler) Apply(ctx *Context, ins *model.Instruction) error {
	p := ins.RemoveKeyValue
	acc, asset, err := metadataTarget(ctx, p.AccountID, p.AssetID)
	if err != nil {
		return err
	}
	if acc != nil {
		if _, ok := acc.Metadata[p.Key]; !ok {
			return NewError(KindStructural, "Key '%s' not found in account metadata", p.Key)
		}
		delete(acc.Metadata, p.Key)
		return ctx.View.PutAccount(acc)
	}
	if _, ok := asset.Store[p.Key]; !ok {
		return NewError(KindStructural, "Key '%s' not found in asset store", p.Key)
	}
	delete(asset.Store, p.Key)
	return ctx.View.PutAsset(asset)
}
