// model/event.go
package model

// TxStatus 交易状态
type TxStatus string

const (
	StatusReceived   TxStatus = "RECEIVED"
	StatusValidating TxStatus = "VALIDATING"
	StatusQueued     TxStatus = "QUEUED"
	StatusCommitted  TxStatus = "COMMITTED"
	StatusRejected   TxStatus = "REJECTED"
	// 超时出队，没进过任何区块；与 REJECTED 留档语义不同
	StatusExpired TxStatus = "EXPIRED"
)

// Terminal 是否终态
func (s TxStatus) Terminal() bool {
	return s == StatusCommitted || s == StatusRejected || s == StatusExpired
}

// TxEvent 单笔交易的状态迁移事件。
// 投递语义 at-least-once，消费方按 (TxHash, Status) 去重。
type TxEvent struct {
	TxHash string   `cbor:"1,keyasint" json:"tx_hash"`
	Status TxStatus `cbor:"2,keyasint" json:"status"`
	Kind   string   `cbor:"3,keyasint,omitempty" json:"kind,omitempty"`
	Reason string   `cbor:"4,keyasint,omitempty" json:"reason,omitempty"`
	Height uint64   `cbor:"5,keyasint,omitempty" json:"height,omitempty"`
	Seq    uint64   `cbor:"6,keyasint,omitempty" json:"seq,omitempty"`
}

// BlockEvent 区块提交事件
type BlockEvent struct {
	Height    uint64 `cbor:"1,keyasint" json:"height"`
	Hash      string `cbor:"2,keyasint" json:"hash"`
	Committed int    `cbor:"3,keyasint" json:"committed"`
	Rejected  int    `cbor:"4,keyasint" json:"rejected"`
	Seq       uint64 `cbor:"5,keyasint,omitempty" json:"seq,omitempty"`
}
