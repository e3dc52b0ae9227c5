// executor/view.go
// 在 wsv.StateView 之上的类型化访问层。
// 查不到时返回区分实体的 NotFound 错误（域/账户/资产定义/资产各一类）。
package executor

import (
	"ledger/keys"
	"ledger/model"
	"ledger/utils"
	"ledger/wsv"
)

// View 类型化状态视图
type View struct {
	SV wsv.StateView
}

// Wrap 包装一个 StateView
func Wrap(sv wsv.StateView) *View {
	return &View{SV: sv}
}

// ===================== Domain =====================

func (v *View) Domain(name string) (*model.Domain, error) {
	data, ok, err := v.SV.Get(keys.KeyDomain(name))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errNoDomain(name)
	}
	d := &model.Domain{}
	if err := model.Unmarshal(data, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (v *View) HasDomain(name string) (bool, error) {
	_, ok, err := v.SV.Get(keys.KeyDomain(name))
	return ok, err
}

func (v *View) PutDomain(d *model.Domain) error {
	data, err := model.Marshal(d)
	if err != nil {
		return err
	}
	v.SV.SetWithCategory(keys.KeyDomain(d.Name), data, "domain")
	return nil
}

func (v *View) DelDomain(name string) {
	v.SV.Del(keys.KeyDomain(name))
}

// ===================== Account =====================

func (v *View) Account(id string) (*model.Account, error) {
	data, ok, err := v.SV.Get(keys.KeyAccount(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errNoAccount(id)
	}
	acc := &model.Account{}
	if err := model.Unmarshal(data, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

func (v *View) HasAccount(id string) (bool, error) {
	_, ok, err := v.SV.Get(keys.KeyAccount(id))
	return ok, err
}

// SignatoryInDomain 某公钥是否已在该域注册过账户。
// 索引按规范形公钥建，大小写或带不带多哈希前缀都算同一个。
func (v *View) SignatoryInDomain(domain, signatory string) (bool, error) {
	_, ok, err := v.SV.Get(keys.KeyAccountIndexByDomain(domain, utils.NormalizePublicKey(signatory)))
	return ok, err
}

func (v *View) PutAccount(acc *model.Account) error {
	data, err := model.Marshal(acc)
	if err != nil {
		return err
	}
	id := acc.ID.String()
	v.SV.SetWithCategory(keys.KeyAccount(id), data, "account")
	v.SV.SetWithCategory(keys.KeyAccountIndexByDomain(acc.ID.Domain, utils.NormalizePublicKey(acc.ID.Signatory)), []byte(id), "account")
	return nil
}

func (v *View) DelAccount(id model.AccountID) {
	v.SV.Del(keys.KeyAccount(id.String()))
	v.SV.Del(keys.KeyAccountIndexByDomain(id.Domain, utils.NormalizePublicKey(id.Signatory)))
}

// ===================== AssetDefinition =====================

func (v *View) Definition(id string) (*model.AssetDefinition, error) {
	data, ok, err := v.SV.Get(keys.KeyAssetDefinition(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errNoDefinition(id)
	}
	def := &model.AssetDefinition{}
	if err := model.Unmarshal(data, def); err != nil {
		return nil, err
	}
	return def, nil
}

func (v *View) HasDefinition(id string) (bool, error) {
	_, ok, err := v.SV.Get(keys.KeyAssetDefinition(id))
	return ok, err
}

func (v *View) PutDefinition(def *model.AssetDefinition) error {
	data, err := model.Marshal(def)
	if err != nil {
		return err
	}
	v.SV.SetWithCategory(keys.KeyAssetDefinition(def.ID.String()), data, "assetdef")
	return nil
}

func (v *View) DelDefinition(id string) {
	v.SV.Del(keys.KeyAssetDefinition(id))
}

// ===================== Asset =====================

// Asset 必须存在，否则 FailedToFindAsset
func (v *View) Asset(id string) (*model.Asset, error) {
	asset, ok, err := v.AssetOrNil(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errNoAsset(id)
	}
	return asset, nil
}

// AssetOrNil 允许不存在（Mint/Transfer 的自动建档路径）
func (v *View) AssetOrNil(id string) (*model.Asset, bool, error) {
	data, ok, err := v.SV.Get(keys.KeyAsset(id))
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	asset := &model.Asset{}
	if err := model.Unmarshal(data, asset); err != nil {
		return nil, false, err
	}
	return asset, true, nil
}

func (v *View) PutAsset(asset *model.Asset) error {
	data, err := model.Marshal(asset)
	if err != nil {
		return err
	}
	v.SV.SetWithCategory(keys.KeyAsset(asset.ID.String()), data, "asset")
	return nil
}

func (v *View) DelAsset(id string) {
	v.SV.Del(keys.KeyAsset(id))
}

// ===================== Role =====================

func (v *View) Role(name string) (*model.Role, bool, error) {
	data, ok, err := v.SV.Get(keys.KeyRole(name))
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	role := &model.Role{}
	if err := model.Unmarshal(data, role); err != nil {
		return nil, false, err
	}
	return role, true, nil
}

func (v *View) PutRole(role *model.Role) error {
	data, err := model.Marshal(role)
	if err != nil {
		return err
	}
	v.SV.SetWithCategory(keys.KeyRole(role.Name), data, "role")
	return nil
}
