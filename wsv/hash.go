// wsv/hash.go
package wsv

import (
	"encoding/hex"
	"sort"

	"golang.org/x/crypto/blake2b"

	"ledger/keys"
)

// StateHash 对全部实体命名空间求一个确定性的状态哈希。
// 键升序后 key/value 依次喂给 BLAKE2b-256。
// 测试用它验证"被拒交易零副作用"，线上可做轻量一致性抽查。
func StateHash(scan ScanFn) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	for _, prefix := range keys.StatePrefixes() {
		kvs, err := scan(prefix)
		if err != nil {
			return "", err
		}
		ks := make([]string, 0, len(kvs))
		for k := range kvs {
			ks = append(ks, k)
		}
		sort.Strings(ks)
		for _, k := range ks {
			_, _ = h.Write([]byte(k))
			_, _ = h.Write([]byte{0})
			_, _ = h.Write(kvs[k])
			_, _ = h.Write([]byte{0})
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
