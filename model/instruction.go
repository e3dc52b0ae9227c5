// model/instruction.go
// Instruction 是 oneof 风格的联合体：恰好一个成员非 nil。
// Kind/内容提取的写法参照交易外壳的做法集中在本文件底部。
package model

// 指令种类常量，HandlerRegistry 按它路由
const (
	KindRegisterDomain            = "register_domain"
	KindUnregisterDomain          = "unregister_domain"
	KindRegisterAccount           = "register_account"
	KindUnregisterAccount         = "unregister_account"
	KindRegisterAssetDefinition   = "register_asset_definition"
	KindUnregisterAssetDefinition = "unregister_asset_definition"
	KindMint                      = "mint"
	KindBurn                      = "burn"
	KindTransfer                  = "transfer"
	KindSetKeyValue               = "set_key_value"
	KindRemoveKeyValue            = "remove_key_value"
	KindGrant                     = "grant"
	KindRevoke                    = "revoke"
	KindRegisterRole              = "register_role"
)

type RegisterDomain struct {
	Name     string            `cbor:"1,keyasint" json:"name"`
	Metadata map[string]string `cbor:"2,keyasint,omitempty" json:"metadata,omitempty"`
}

type UnregisterDomain struct {
	Name string `cbor:"1,keyasint" json:"name"`
}

type RegisterAccount struct {
	// "<signatory>@<domain>"
	ID       string            `cbor:"1,keyasint" json:"id"`
	Quorum   uint32            `cbor:"2,keyasint,omitempty" json:"quorum,omitempty"`
	Metadata map[string]string `cbor:"3,keyasint,omitempty" json:"metadata,omitempty"`
}

type UnregisterAccount struct {
	ID string `cbor:"1,keyasint" json:"id"`
}

type RegisterAssetDefinition struct {
	// "<name>#<domain>"
	ID        string `cbor:"1,keyasint" json:"id"`
	ValueType string `cbor:"2,keyasint" json:"value_type"`
}

type UnregisterAssetDefinition struct {
	ID string `cbor:"1,keyasint" json:"id"`
}

type Mint struct {
	AssetID  string `cbor:"1,keyasint" json:"asset_id"`
	Quantity string `cbor:"2,keyasint" json:"quantity"`
}

type Burn struct {
	AssetID  string `cbor:"1,keyasint" json:"asset_id"`
	Quantity string `cbor:"2,keyasint" json:"quantity"`
}

type Transfer struct {
	// 源资产（含持有账户），目的账户；目的资产不存在会自动创建
	AssetID  string `cbor:"1,keyasint" json:"asset_id"`
	To       string `cbor:"2,keyasint" json:"to"`
	Quantity string `cbor:"3,keyasint" json:"quantity"`
}

type SetKeyValue struct {
	// AccountID 与 AssetID 二选一
	AccountID string `cbor:"1,keyasint,omitempty" json:"account_id,omitempty"`
	AssetID   string `cbor:"2,keyasint,omitempty" json:"asset_id,omitempty"`
	Key       string `cbor:"3,keyasint" json:"key"`
	Value     string `cbor:"4,keyasint" json:"value"`
}

type RemoveKeyValue struct {
	AccountID string `cbor:"1,keyasint,omitempty" json:"account_id,omitempty"`
	AssetID   string `cbor:"2,keyasint,omitempty" json:"asset_id,omitempty"`
	Key       string `cbor:"3,keyasint" json:"key"`
}

type Grant struct {
	// Permission 与 Role 二选一
	Permission string `cbor:"1,keyasint,omitempty" json:"permission,omitempty"`
	To         string `cbor:"2,keyasint" json:"to"`
	Role       string `cbor:"3,keyasint,omitempty" json:"role,omitempty"`
}

type Revoke struct {
	Permission string `cbor:"1,keyasint,omitempty" json:"permission,omitempty"`
	To         string `cbor:"2,keyasint" json:"to"`
	Role       string `cbor:"3,keyasint,omitempty" json:"role,omitempty"`
}

type RegisterRole struct {
	Name        string   `cbor:"1,keyasint" json:"name"`
	Permissions []string `cbor:"2,keyasint" json:"permissions"`
}

// Instruction 单条账本指令
type Instruction struct {
	RegisterDomain            *RegisterDomain            `cbor:"1,keyasint,omitempty" json:"register_domain,omitempty"`
	UnregisterDomain          *UnregisterDomain          `cbor:"2,keyasint,omitempty" json:"unregister_domain,omitempty"`
	RegisterAccount           *RegisterAccount           `cbor:"3,keyasint,omitempty" json:"register_account,omitempty"`
	UnregisterAccount         *UnregisterAccount         `cbor:"4,keyasint,omitempty" json:"unregister_account,omitempty"`
	RegisterAssetDefinition   *RegisterAssetDefinition   `cbor:"5,keyasint,omitempty" json:"register_asset_definition,omitempty"`
	UnregisterAssetDefinition *UnregisterAssetDefinition `cbor:"6,keyasint,omitempty" json:"unregister_asset_definition,omitempty"`
	Mint                      *Mint                      `cbor:"7,keyasint,omitempty" json:"mint,omitempty"`
	Burn                      *Burn                      `cbor:"8,keyasint,omitempty" json:"burn,omitempty"`
	Transfer                  *Transfer                  `cbor:"9,keyasint,omitempty" json:"transfer,omitempty"`
	SetKeyValue               *SetKeyValue               `cbor:"10,keyasint,omitempty" json:"set_key_value,omitempty"`
	RemoveKeyValue            *RemoveKeyValue            `cbor:"11,keyasint,omitempty" json:"remove_key_value,omitempty"`
	Grant                     *Grant                     `cbor:"12,keyasint,omitempty" json:"grant,omitempty"`
	Revoke                    *Revoke                    `cbor:"13,keyasint,omitempty" json:"revoke,omitempty"`
	RegisterRole              *RegisterRole              `cbor:"14,keyasint,omitempty" json:"register_role,omitempty"`
}

// Kind 返回指令种类；联合体为空返回 ""
func (in *Instruction) Kind() string {
	switch {
	case in == nil:
		return ""
	case in.RegisterDomain != nil:
		return KindRegisterDomain
	case in.UnregisterDomain != nil:
		return KindUnregisterDomain
	case in.RegisterAccount != nil:
		return KindRegisterAccount
	case in.UnregisterAccount != nil:
		return KindUnregisterAccount
	case in.RegisterAssetDefinition != nil:
		return KindRegisterAssetDefinition
	case in.UnregisterAssetDefinition != nil:
		return KindUnregisterAssetDefinition
	case in.Mint != nil:
		return KindMint
	case in.Burn != nil:
		return KindBurn
	case in.Transfer != nil:
		return KindTransfer
	case in.SetKeyValue != nil:
		return KindSetKeyValue
	case in.RemoveKeyValue != nil:
		return KindRemoveKeyValue
	case in.Grant != nil:
		return KindGrant
	case in.Revoke != nil:
		return KindRevoke
	case in.RegisterRole != nil:
		return KindRegisterRole
	default:
		return ""
	}
}
