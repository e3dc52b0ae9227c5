// chain/orderer.go
// 出块顺序由 Orderer 决定。共识在本模块之外，
// 这里只约定"下一批交易从哪来"；单机部署直接用交易池顺序。
package chain

import (
	"ledger/model"
)

// Orderer 提供下一个区块的候选交易序列
type Orderer interface {
	NextBatch(limit int) []*model.Transaction
}

// StaticOrderer 固定序列出块，测试与创世路径用
type StaticOrderer struct {
	Txs []*model.Transaction
}

func (o *StaticOrderer) NextBatch(limit int) []*model.Transaction {
	if limit <= 0 || limit >= len(o.Txs) {
		batch := o.Txs
		o.Txs = nil
		return batch
	}
	batch := o.Txs[:limit]
	o.Txs = o.Txs[limit:]
	return batch
}
