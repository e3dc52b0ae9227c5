// model/ids.go
// 复合 ID 的结构化表示与字符串渲染。
// 渲染规则是对外的线格式契约：
//   账户     <signatory>@<domain>
//   资产定义 <name>#<domain>
//   资产     <name>#<defDomain>#<signatory>@<accDomain>
//            定义域与账户域相同时缩写为 <name>##<signatory>@<domain>
package model

import (
	"fmt"
	"strings"
)

// AccountID 账户复合主键
type AccountID struct {
	Signatory string `cbor:"1,keyasint" json:"signatory"`
	Domain    string `cbor:"2,keyasint" json:"domain"`
}

func (id AccountID) String() string {
	return id.Signatory + "@" + id.Domain
}

func (id AccountID) IsZero() bool {
	return id.Signatory == "" && id.Domain == ""
}

// ParseAccountID 解析 "<signatory>@<domain>"
func ParseAccountID(s string) (AccountID, error) {
	idx := strings.LastIndex(s, "@")
	if idx <= 0 || idx == len(s)-1 {
		return AccountID{}, fmt.Errorf("invalid account id: %q", s)
	}
	return AccountID{Signatory: s[:idx], Domain: s[idx+1:]}, nil
}

// AssetDefinitionID 资产定义复合主键
type AssetDefinitionID struct {
	Name   string `cbor:"1,keyasint" json:"name"`
	Domain string `cbor:"2,keyasint" json:"domain"`
}

func (id AssetDefinitionID) String() string {
	return id.Name + "#" + id.Domain
}

// ParseAssetDefinitionID 解析 "<name>#<domain>"
func ParseAssetDefinitionID(s string) (AssetDefinitionID, error) {
	parts := strings.Split(s, "#")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return AssetDefinitionID{}, fmt.Errorf("invalid asset definition id: %q", s)
	}
	return AssetDefinitionID{Name: parts[0], Domain: parts[1]}, nil
}

// AssetID 资产复合主键：某账户持有的某种资产
type AssetID struct {
	Definition AssetDefinitionID `cbor:"1,keyasint" json:"definition"`
	Account    AccountID         `cbor:"2,keyasint" json:"account"`
}

func (id AssetID) String() string {
	if id.Definition.Domain == id.Account.Domain {
		return id.Definition.Name + "##" + id.Account.String()
	}
	return id.Definition.Name + "#" + id.Definition.Domain + "#" + id.Account.String()
}

// ParseAssetID 解析完整形式与缩写形式
func ParseAssetID(s string) (AssetID, error) {
	parts := strings.SplitN(s, "#", 3)
	if len(parts) != 3 || parts[0] == "" {
		return AssetID{}, fmt.Errorf("invalid asset id: %q", s)
	}
	acc, err := ParseAccountID(parts[2])
	if err != nil {
		return AssetID{}, fmt.Errorf("invalid asset id: %q", s)
	}
	defDomain := parts[1]
	if defDomain == "" {
		// 缩写形式 name##sig@domain：定义域取账户域
		defDomain = acc.Domain
	}
	return AssetID{
		Definition: AssetDefinitionID{Name: parts[0], Domain: defDomain},
		Account:    acc,
	}, nil
}
