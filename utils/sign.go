// utils/sign.go
// 多签名方案支持。方案名走交易签名里的 Scheme 字段，
// 默认 ed25519，同时支持 secp256k1 压缩公钥。
package utils

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

const (
	SchemeEd25519   = "ed25519"
	SchemeSecp256k1 = "secp256k1"
)

// ed25519 公钥 hex 的多哈希前缀，兼容带前缀写法
const ed25519HexPrefix = "ed0120"

var (
	ErrUnknownScheme = errors.New("unknown signature scheme")
	ErrBadPublicKey  = errors.New("malformed public key")
	ErrBadSignature  = errors.New("malformed signature")
)

// NormalizePublicKey 去掉前缀、统一小写，入库与比对前先过这里
func NormalizePublicKey(pub string) string {
	s := strings.ToLower(pub)
	return strings.TrimPrefix(s, ed25519HexPrefix)
}

// VerifySignature 校验 scheme 方案下 pubHex 对 msg 的签名 sigHex。
// 返回 nil 表示验证通过。
func VerifySignature(scheme, pubHex, sigHex string, msg []byte) error {
	pub, err := hex.DecodeString(NormalizePublicKey(pubHex))
	if err != nil {
		return ErrBadPublicKey
	}
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return ErrBadSignature
	}
	switch scheme {
	case SchemeEd25519, "":
		if len(pub) != ed25519.PublicKeySize {
			return ErrBadPublicKey
		}
		if len(sig) != ed25519.SignatureSize {
			return ErrBadSignature
		}
		if !ed25519.Verify(ed25519.PublicKey(pub), msg, sig) {
			return errors.New("ed25519 signature mismatch")
		}
		return nil
	case SchemeSecp256k1:
		pk, perr := secp256k1.ParsePubKey(pub)
		if perr != nil {
			return ErrBadPublicKey
		}
		s, serr := secpecdsa.ParseDERSignature(sig)
		if serr != nil {
			return ErrBadSignature
		}
		if !s.Verify(Blake2b256(msg), pk) {
			return errors.New("secp256k1 signature mismatch")
		}
		return nil
	default:
		return ErrUnknownScheme
	}
}

// ===================== 测试与工具侧的签名辅助 =====================

// Ed25519Keypair 生成一对 ed25519 密钥，返回 hex 公钥与私钥
func Ed25519Keypair() (pubHex string, priv ed25519.PrivateKey, err error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return "", nil, err
	}
	return hex.EncodeToString(pub), priv, nil
}

// Ed25519Sign 用私钥签 msg，返回 hex 签名
func Ed25519Sign(priv ed25519.PrivateKey, msg []byte) string {
	return hex.EncodeToString(ed25519.Sign(priv, msg))
}

// Secp256k1Sign 用私钥签 msg 的 blake2b 摘要，返回 DER hex 签名
func Secp256k1Sign(priv *secp256k1.PrivateKey, msg []byte) string {
	sig := secpecdsa.Sign(priv, Blake2b256(msg))
	return hex.EncodeToString(sig.Serialize())
}
