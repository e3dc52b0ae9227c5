// executor/asset_handlers.go
// Numeric 资产的三个变更指令。共同套路：
// 先解析数量，再查资产定义确认类型是 Numeric，
// 然后在 decimal 上做带边界的加减，最后写回。
package executor

import (
	"github.com/shopspring/decimal"

	"ledger/model"
)

// resolveNumericTarget 解析资产 id，确认定义存在且为 Numeric
func resolveNumericTarget(ctx *Context, rawID string) (model.AssetID, error) {
	id, err := model.ParseAssetID(rawID)
	if err != nil {
		return model.AssetID{}, errInvalidCharacter("asset id must be '<name>#<domain>#<account>'")
	}
	def, err := ctx.View.Definition(id.Definition.String())
	if err != nil {
		return model.AssetID{}, err
	}
	if def.ValueType != model.ValueTypeNumeric {
		return model.AssetID{}, errInvalidValueType(string(def.ValueType))
	}
	if _, err := ctx.View.Account(id.Account.String()); err != nil {
		return model.AssetID{}, err
	}
	return id, nil
}

// creditAsset 给目标资产加值；实例不存在时从零建档
func creditAsset(ctx *Context, id model.AssetID, qty decimal.Decimal) error {
	asset, ok, err := ctx.View.AssetOrNil(id.String())
	if err != nil {
		return err
	}
	if !ok {
		asset = &model.Asset{ID: id, Value: "0"}
	}
	bal, err := parseBalance(asset.Value)
	if err != nil {
		return err
	}
	next, err := SafeAdd(bal, qty)
	if err != nil {
		return err
	}
	asset.Value = next.String()
	return ctx.View.PutAsset(asset)
}

// debitAsset 从目标资产扣值；余额扣到 0 保留实例（留档可查）
func debitAsset(ctx *Context, id model.AssetID, qty decimal.Decimal) error {
	asset, err := ctx.View.Asset(id.String())
	if err != nil {
		return err
	}
	bal, err := parseBalance(asset.Value)
	if err != nil {
		return err
	}
	next, err := SafeSub(bal, qty)
	if err != nil {
		return err
	}
	asset.Value = next.String()
	return ctx.View.PutAsset(asset)
}

// mintHandler 铸造。给自己的资产铸造随时可以；
// 给别人的资产铸造需要 can_mint_assets。
type mintHandler struct{}

func (mintHandler) Kind() string { return model.KindMint }

func (mintHandler) Apply(ctx *Context, ins *model.Instruction) error {
	p := ins.Mint
	qty, err := ParseQuantity(p.Quantity)
	if err != nil {
		return err
	}
	id, err := resolveNumericTarget(ctx, p.AssetID)
	if err != nil {
		return err
	}
	if err := ctx.requirePermission(id.Account, PermMintAssets,
		"cannot mint to another account without can_mint_assets"); err != nil {
		return err
	}
	return creditAsset(ctx, id, qty)
}

// burnHandler 销毁
type burnHandler struct{}

func (burnHandler) Kind() string { return model.KindBurn }

func (burnHandler) Apply(ctx *Context, ins *model.Instruction) error {
	p := ins.Burn
	qty, err := ParseQuantity(p.Quantity)
	if err != nil {
		return err
	}
	id, err := resolveNumericTarget(ctx, p.AssetID)
	if err != nil {
		return err
	}
	if err := ctx.requirePermission(id.Account, PermBurnAssets,
		"cannot burn another account's asset without can_burn_assets"); err != nil {
		return err
	}
	return debitAsset(ctx, id, qty)
}

// transferHandler 转账：同一资产定义下从源账户转到目的账户。
// 先扣后加，两步都在同一个视图里，失败由上层整体回滚。
type transferHandler struct{}

func (transferHandler) Kind() string { return model.KindTransfer }

func (transferHandler) Apply(ctx *Context, ins *model.Instruction) error {
	p := ins.Transfer
	qty, err := ParseQuantity(p.Quantity)
	if err != nil {
		return err
	}
	srcID, err := resolveNumericTarget(ctx, p.AssetID)
	if err != nil {
		return err
	}
	destAcc, err := model.ParseAccountID(p.To)
	if err != nil {
		return errInvalidCharacter("destination account id must be '<signatory>@<domain>'")
	}
	if _, err := ctx.View.Account(destAcc.String()); err != nil {
		return err
	}
	if err := ctx.requirePermission(srcID.Account, PermTransferAssets,
		"cannot transfer another account's asset without can_transfer_assets"); err != nil {
		return err
	}
	destID := model.AssetID{Definition: srcID.Definition, Account: destAcc}
	if srcID == destID {
		// 自转自是空操作，余额校验还是要做
		asset, aerr := ctx.View.Asset(srcID.String())
		if aerr != nil {
			return aerr
		}
		bal, berr := parseBalance(asset.Value)
		if berr != nil {
			return berr
		}
		if _, serr := SafeSub(bal, qty); serr != nil {
			return serr
		}
		return nil
	}
	if err := debitAsset(ctx, srcID, qty); err != nil {
		return err
	}
	return creditAsset(ctx, destID, qty)
}
