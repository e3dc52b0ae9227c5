package utils

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/spaolacci/murmur3"
	"golang.org/x/crypto/blake2b"
)

// Blake2b256 内容哈希，交易/区块/状态哈希统一用它
func Blake2b256(data []byte) []byte {
	sum := blake2b.Sum256(data)
	return sum[:]
}

// Blake2b256Hex 哈希的 hex 形式
func Blake2b256Hex(data []byte) string {
	return hex.EncodeToString(Blake2b256(data))
}

// ShortHash 8 字节 murmur3，缓存键与日志标识用，非密码学
func ShortHash(data []byte) []byte {
	h := murmur3.New64()
	_, _ = h.Write(data)
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, h.Sum64())
	return b
}

// ShortHashStr ShortHash 的 string 形式，直接做 map key
func ShortHashStr(data []byte) string {
	return string(ShortHash(data))
}
