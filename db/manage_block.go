// db/manage_block.go
package db

import (
	"strconv"

	"ledger/keys"
	"ledger/logs"
	"ledger/model"
)

// SaveBlock 将区块写入队列，同时更新内存缓存切片。
// 高度推进的持久化语义由调用方的 ForceFlush 收口。
func (manager *Manager) SaveBlock(block *model.Block) error {
	logs.Debug("Saving new block_%d", block.Height)
	data, err := model.Marshal(block)
	if err != nil {
		return err
	}
	manager.EnqueueSet(keys.KeyBlockData(block.Height), string(data))

	// 额外保存一个哈希到高度的映射，方便通过哈希查询
	manager.EnqueueSet(keys.KeyBlockIDToHeight(block.Hash), strconv.FormatUint(block.Height, 10))

	// 更新最新区块高度
	manager.EnqueueSet(keys.KeyLatestBlockHeight(), strconv.FormatUint(block.Height, 10))

	// 更新内存缓存切片，超过上限移除最早的一个
	cacheSize := manager.cfg.Database.BlockCacheSize
	manager.cachedBlocksMu.Lock()
	if len(manager.cachedBlocks) >= cacheSize && cacheSize > 0 {
		manager.cachedBlocks = manager.cachedBlocks[1:]
	}
	manager.cachedBlocks = append(manager.cachedBlocks, block)
	manager.cachedBlocksMu.Unlock()

	return nil
}

// DropCachedBlock 从内存缓存剔除某高度（落库失败回退用）
func (manager *Manager) DropCachedBlock(height uint64) {
	manager.cachedBlocksMu.Lock()
	defer manager.cachedBlocksMu.Unlock()
	for i, b := range manager.cachedBlocks {
		if b.Height == height {
			manager.cachedBlocks = append(manager.cachedBlocks[:i], manager.cachedBlocks[i+1:]...)
			return
		}
	}
}

// GetBlock 根据高度获取对应区块，先看内存缓存，再看 DB
func (manager *Manager) GetBlock(height uint64) (*model.Block, error) {
	manager.cachedBlocksMu.RLock()
	for _, b := range manager.cachedBlocks {
		if b.Height == height {
			manager.cachedBlocksMu.RUnlock()
			return b, nil
		}
	}
	manager.cachedBlocksMu.RUnlock()

	val, err := manager.Read(keys.KeyBlockData(height))
	if err != nil {
		return nil, err
	}
	block := &model.Block{}
	if err := model.Unmarshal([]byte(val), block); err != nil {
		return nil, err
	}
	return block, nil
}

// GetBlockByHash 按区块哈希查询
func (manager *Manager) GetBlockByHash(hash string) (*model.Block, error) {
	val, err := manager.Read(keys.KeyBlockIDToHeight(hash))
	if err != nil {
		return nil, err
	}
	height, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return nil, err
	}
	return manager.GetBlock(height)
}

// GetLatestBlockHeight 最新已提交高度；空库返回 (0, false)
func (manager *Manager) GetLatestBlockHeight() (uint64, bool) {
	val, err := manager.Read(keys.KeyLatestBlockHeight())
	if err != nil {
		return 0, false
	}
	height, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return height, true
}

// HasCommitMarker 某高度是否已完成提交（幂等恢复用）
func (manager *Manager) HasCommitMarker(height uint64) bool {
	return manager.Exists(keys.KeyCommitMarker(height))
}
