// model/entities.go
package model

// ValueType 资产定义的取值类型
type ValueType string

const (
	ValueTypeNumeric ValueType = "Numeric"
	ValueTypeStore   ValueType = "Store"
)

// KnownValueType 取值类型是否受支持
func KnownValueType(v ValueType) bool {
	return v == ValueTypeNumeric || v == ValueTypeStore
}

// Domain 域：账户与资产定义的命名空间
type Domain struct {
	Name     string            `cbor:"1,keyasint" json:"name"`
	Metadata map[string]string `cbor:"2,keyasint,omitempty" json:"metadata,omitempty"`
}

// Account 账户
type Account struct {
	ID          AccountID         `cbor:"1,keyasint" json:"id"`
	Signatories []string          `cbor:"2,keyasint" json:"signatories"`
	Quorum      uint32            `cbor:"3,keyasint" json:"quorum"`
	Metadata    map[string]string `cbor:"4,keyasint,omitempty" json:"metadata,omitempty"`
	Permissions []string          `cbor:"5,keyasint,omitempty" json:"permissions,omitempty"`
	Roles       []string          `cbor:"6,keyasint,omitempty" json:"roles,omitempty"`
}

// HasSignatory 公钥是否在账户签名人集合里
func (a *Account) HasSignatory(pub string) bool {
	for _, s := range a.Signatories {
		if s == pub {
			return true
		}
	}
	return false
}

// HasPermission 账户是否直接持有某权限令牌（不展开角色）
func (a *Account) HasPermission(token string) bool {
	for _, p := range a.Permissions {
		if p == token {
			return true
		}
	}
	return false
}

// HasRole 账户是否挂有某角色
func (a *Account) HasRole(name string) bool {
	for _, r := range a.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// AssetDefinition 资产定义
type AssetDefinition struct {
	ID        AssetDefinitionID `cbor:"1,keyasint" json:"id"`
	ValueType ValueType         `cbor:"2,keyasint" json:"value_type"`
	Metadata  map[string]string `cbor:"3,keyasint,omitempty" json:"metadata,omitempty"`
	// 注册者，铸币权限检查用
	RegisteredBy string `cbor:"4,keyasint,omitempty" json:"registered_by,omitempty"`
}

// Asset 某账户持有的资产实例。
// Numeric 资产用 Value（十进制字符串），Store 资产用 Store。
type Asset struct {
	ID    AssetID           `cbor:"1,keyasint" json:"id"`
	Value string            `cbor:"2,keyasint,omitempty" json:"value,omitempty"`
	Store map[string]string `cbor:"3,keyasint,omitempty" json:"store,omitempty"`
}

// Role 可整体授予的权限令牌集合
type Role struct {
	Name        string   `cbor:"1,keyasint" json:"name"`
	Permissions []string `cbor:"2,keyasint" json:"permissions"`
}
