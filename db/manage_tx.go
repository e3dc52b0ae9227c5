// db/manage_tx.go
package db

import (
	"strconv"

	"ledger/keys"
	"ledger/model"
)

// SaveTransaction 已入块交易入队写，连带高度索引
func (manager *Manager) SaveTransaction(tx *model.Transaction, height uint64) error {
	data, err := model.Marshal(tx)
	if err != nil {
		return err
	}
	hash := tx.Hash()
	manager.EnqueueSet(keys.KeyTx(hash), string(data))
	manager.EnqueueSet(keys.KeyTxHeight(hash), strconv.FormatUint(height, 10))
	return nil
}

// GetTransaction 按哈希读交易
func (manager *Manager) GetTransaction(hash string) (*model.Transaction, error) {
	val, err := manager.Read(keys.KeyTx(hash))
	if err != nil {
		return nil, err
	}
	tx := &model.Transaction{}
	if err := model.Unmarshal([]byte(val), tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// GetTransactionHeight 交易入块高度
func (manager *Manager) GetTransactionHeight(hash string) (uint64, bool) {
	val, err := manager.Read(keys.KeyTxHeight(hash))
	if err != nil {
		return 0, false
	}
	h, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return h, true
}

// SaveTransactionRejection 被拒交易的拒绝原因入队写。
// 高度索引对入块和被拒一视同仁，终态只能靠这条记录分辨。
func (manager *Manager) SaveTransactionRejection(txHash string, reason model.RejectionReason) error {
	data, err := model.Marshal(&reason)
	if err != nil {
		return err
	}
	manager.EnqueueSet(keys.KeyTxRejection(txHash), string(data))
	return nil
}

// GetTransactionRejection 读取拒绝原因；没有记录说明交易不是被拒入块的
func (manager *Manager) GetTransactionRejection(txHash string) (*model.RejectionReason, bool) {
	val, err := manager.Read(keys.KeyTxRejection(txHash))
	if err != nil {
		return nil, false
	}
	reason := &model.RejectionReason{}
	if err := model.Unmarshal([]byte(val), reason); err != nil {
		return nil, false
	}
	return reason, true
}

// MarkTxApplied 写入已应用标记，值为区块哈希
func (manager *Manager) MarkTxApplied(txHash, blockHash string) {
	manager.EnqueueSet(keys.KeyAppliedTx(txHash), blockHash)
}

// IsTxApplied 交易是否已应用
func (manager *Manager) IsTxApplied(txHash string) bool {
	return manager.Exists(keys.KeyAppliedTx(txHash))
}

// SavePendingTx 等待入块的交易持久化（重启恢复）
func (manager *Manager) SavePendingTx(tx *model.Transaction) error {
	data, err := model.Marshal(tx)
	if err != nil {
		return err
	}
	manager.EnqueueSet(keys.KeyPendingTx(tx.Hash()), string(data))
	return nil
}

// DeletePendingTx 交易入块或出局后清掉 pending 记录
func (manager *Manager) DeletePendingTx(txHash string) {
	manager.EnqueueDel(keys.KeyPendingTx(txHash))
}

// LoadPendingTxs 启动时恢复 pending 交易
func (manager *Manager) LoadPendingTxs() ([]*model.Transaction, error) {
	kvs, err := manager.Scan(keys.KeyPendingTxPrefix())
	if err != nil {
		return nil, err
	}
	var out []*model.Transaction
	for _, v := range kvs {
		tx := &model.Transaction{}
		if err := model.Unmarshal(v, tx); err != nil {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}
