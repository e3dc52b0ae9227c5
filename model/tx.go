// model/tx.go
package model

import (
	"encoding/hex"

	"github.com/spaolacci/murmur3"
	"golang.org/x/crypto/blake2b"
)

// TransactionPayload 签名覆盖的部分
type TransactionPayload struct {
	Creator      string            `cbor:"1,keyasint" json:"creator"`
	Instructions []Instruction     `cbor:"2,keyasint" json:"instructions"`
	CreatedMs    int64             `cbor:"3,keyasint" json:"created_ms"`
	TTLMs        int64             `cbor:"4,keyasint" json:"ttl_ms"`
	Nonce        uint32            `cbor:"5,keyasint" json:"nonce"`
	Metadata     map[string]string `cbor:"6,keyasint,omitempty" json:"metadata,omitempty"`
}

// Signature 一个签名人对 payload 哈希的签名
type Signature struct {
	Scheme    string `cbor:"1,keyasint" json:"scheme"`
	PublicKey string `cbor:"2,keyasint" json:"public_key"`
	Payload   string `cbor:"3,keyasint" json:"payload"` // 签名本体，hex
}

// Transaction 一个账户提交的有序指令批
type Transaction struct {
	Payload    TransactionPayload `cbor:"1,keyasint" json:"payload"`
	Signatures []Signature        `cbor:"2,keyasint" json:"signatures"`
}

// HashBytes payload 的 BLAKE2b-256 哈希
func (t *Transaction) HashBytes() []byte {
	data, err := Marshal(&t.Payload)
	if err != nil {
		// canonical 编码自有结构体不会失败；空哈希当哨兵
		return nil
	}
	sum := blake2b.Sum256(data)
	return sum[:]
}

// Hash payload 哈希的 hex 形式，对外作为交易 ID
func (t *Transaction) Hash() string {
	return hex.EncodeToString(t.HashBytes())
}

// ShortHash 8 字节 murmur3 短哈希，仅用作缓存键
func (t *Transaction) ShortHash() []byte {
	h := murmur3.New64()
	_, _ = h.Write(t.HashBytes())
	sum64 := h.Sum64()
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(sum64 >> (8 * i))
	}
	return b
}

// ExpiresAtMs TTL 截止时间；TTLMs<=0 表示不限
func (t *Transaction) ExpiresAtMs() int64 {
	if t.Payload.TTLMs <= 0 {
		return 0
	}
	return t.Payload.CreatedMs + t.Payload.TTLMs
}
