// executor/name.go
package executor

import (
	"encoding/hex"
	"strings"
	"unicode"
)

// MaxNameLen 名称最大长度
const MaxNameLen = 128

// reservedChars 复合 ID 分隔符，名称里禁用
const reservedChars = "@#$"

// ValidateName 域名/资产定义名/角色名的共用校验。
// 失败返回带稳定类别与文案的 *Error。
func ValidateName(name string) error {
	if name == "" {
		return errEmpty()
	}
	if len(name) > MaxNameLen {
		return errTooLong(name)
	}
	if strings.ContainsAny(name, reservedChars) {
		return errReservedCharacter()
	}
	for _, r := range name {
		if unicode.IsSpace(r) {
			return errWhitespace()
		}
	}
	return nil
}

// ed25519 多哈希前缀（hex），兼容带前缀与裸 32 字节两种写法
const ed25519HexPrefix = "ed0120"

// ValidatePublicKey 签名人公钥的语法校验：hex、长度正确。
// 不做密码学校验，签名验证在 validator 里。
func ValidatePublicKey(pub string) error {
	s := strings.ToLower(pub)
	s = strings.TrimPrefix(s, ed25519HexPrefix)
	raw, err := hex.DecodeString(s)
	if err != nil {
		return errInvalidCharacter("public key is not valid hex")
	}
	// ed25519 32 字节；secp256k1 压缩公钥 33 字节
	if len(raw) != 32 && len(raw) != 33 {
		return errInvalidCharacter("public key has wrong length")
	}
	return nil
}
