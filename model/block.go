// model/block.go
package model

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// RejectionReason 拒绝原因：kind 是稳定的错误类别名，message 是对外稳定文案
type RejectionReason struct {
	Kind    string `cbor:"1,keyasint" json:"kind"`
	Message string `cbor:"2,keyasint" json:"message"`
}

// RejectedTransaction 进了区块但被拒绝的交易，连同原因留档
type RejectedTransaction struct {
	Transaction *Transaction    `cbor:"1,keyasint" json:"transaction"`
	Reason      RejectionReason `cbor:"2,keyasint" json:"reason"`
}

// Block 一次高度推进
type Block struct {
	Height       uint64                `cbor:"1,keyasint" json:"height"`
	PrevHash     string                `cbor:"2,keyasint" json:"prev_hash"`
	Hash         string                `cbor:"3,keyasint" json:"hash"`
	CreatedMs    int64                 `cbor:"4,keyasint" json:"created_ms"`
	Transactions []*Transaction        `cbor:"5,keyasint" json:"transactions"`
	Rejected     []RejectedTransaction `cbor:"6,keyasint,omitempty" json:"rejected,omitempty"`
}

// blockHeader 参与哈希的部分；Hash 字段本身不入哈希
type blockHeader struct {
	Height    uint64   `cbor:"1,keyasint"`
	PrevHash  string   `cbor:"2,keyasint"`
	CreatedMs int64    `cbor:"3,keyasint"`
	TxHashes  []string `cbor:"4,keyasint"`
	Rejected  []string `cbor:"5,keyasint"`
}

// ComputeHash 区块哈希：头 + 交易哈希序列的 BLAKE2b-256
func (b *Block) ComputeHash() string {
	hdr := blockHeader{
		Height:    b.Height,
		PrevHash:  b.PrevHash,
		CreatedMs: b.CreatedMs,
	}
	for _, tx := range b.Transactions {
		hdr.TxHashes = append(hdr.TxHashes, tx.Hash())
	}
	for _, rj := range b.Rejected {
		hdr.Rejected = append(hdr.Rejected, rj.Transaction.Hash())
	}
	data, err := Marshal(&hdr)
	if err != nil {
		return ""
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Seal 填充 Hash 字段
func (b *Block) Seal() {
	b.Hash = b.ComputeHash()
}
