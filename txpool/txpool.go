// txpool/txpool.go
// 交易池：收单、排队、状态跟踪、超时清退。
// 入池走单线程消息循环，结构校验在循环里做完；
// 签名与预执行留给出块时的区块级校验。
package txpool

import (
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"ledger/config"
	"ledger/db"
	"ledger/events"
	"ledger/logs"
	"ledger/model"
	"ledger/utils"
)

// TxPool 交易池
type TxPool struct {
	dbManager *db.Manager
	notifier  *events.Notifier

	mu           sync.RWMutex
	pending      map[string]*model.Transaction // txHash -> tx，等待入块
	pendingOrder []string                      // 入池顺序，出块按它取
	statusCache  *lru.Cache                    // txHash -> model.TxEvent 最新状态
	shortTxCache *lru.Cache                    // murmur 短哈希 -> txHash

	Queue     *txPoolQueue
	validator StructuralValidator

	stopChan chan struct{}
	wg       sync.WaitGroup
	cfg      *config.Config
}

// StructuralValidator 入池前的轻校验，重校验在出块路径
type StructuralValidator interface {
	ValidateStructure(tx *model.Transaction, nowMs int64) error
}

// NewTxPool 创建交易池
func NewTxPool(dbManager *db.Manager, validator StructuralValidator, notifier *events.Notifier, cfg *config.Config) (*TxPool, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	statusCache, err := lru.New(cfg.TxPool.StatusCacheSize)
	if err != nil {
		return nil, err
	}
	shortTxCache, _ := lru.New(cfg.TxPool.PendingTxCacheSize)

	tp := &TxPool{
		dbManager:    dbManager,
		notifier:     notifier,
		pending:      make(map[string]*model.Transaction),
		statusCache:  statusCache,
		shortTxCache: shortTxCache,
		validator:    validator,
		stopChan:     make(chan struct{}),
		cfg:          cfg,
	}
	tp.Queue = newTxPoolQueue(tp, cfg.TxPool.MessageQueueSize)

	tp.loadFromDB()
	return tp, nil
}

// Start 启动消息循环与超时清退
func (tp *TxPool) Start() error {
	tp.wg.Add(2)
	go tp.Queue.runLoop()
	go tp.runExpirySweep()
	logs.Info("[TxPool] Started, %d pending restored", tp.PendingCount())
	return nil
}

// Stop 停止交易池
func (tp *TxPool) Stop() error {
	close(tp.stopChan)
	tp.wg.Wait()
	logs.Info("[TxPool] Stopped")
	return nil
}

// loadFromDB 重启恢复 pending 交易
func (tp *TxPool) loadFromDB() {
	txs, err := tp.dbManager.LoadPendingTxs()
	if err != nil {
		logs.Warn("[TxPool] load pending txs: %v", err)
		return
	}
	// 恢复顺序按创建时间近似原入池顺序
	sort.Slice(txs, func(i, j int) bool {
		return txs[i].Payload.CreatedMs < txs[j].Payload.CreatedMs
	})
	tp.mu.Lock()
	defer tp.mu.Unlock()
	for _, tx := range txs {
		hash := tx.Hash()
		if _, ok := tp.pending[hash]; ok {
			continue
		}
		tp.pending[hash] = tx
		tp.pendingOrder = append(tp.pendingOrder, hash)
		tp.shortTxCache.Add(utils.ShortHashStr(tx.HashBytes()), hash)
	}
}

// Submit 外部入口：交易排进消息循环。池满直接拒。
func (tp *TxPool) Submit(tx *model.Transaction) error {
	if tp.PendingCount() >= tp.cfg.TxPool.MaxPendingTxs {
		return ErrPoolFull
	}
	return tp.Queue.enqueueAdd(tx)
}

// storeTx 消息循环内部：真正入池
func (tp *TxPool) storeTx(tx *model.Transaction) {
	hash := tx.Hash()
	tp.mu.Lock()
	if _, exists := tp.pending[hash]; exists {
		tp.mu.Unlock()
		return
	}
	tp.pending[hash] = tx
	tp.pendingOrder = append(tp.pendingOrder, hash)
	tp.shortTxCache.Add(utils.ShortHashStr(tx.HashBytes()), hash)
	tp.mu.Unlock()

	if err := tp.dbManager.SavePendingTx(tx); err != nil {
		logs.Warn("[TxPool] persist pending tx %s: %v", hash, err)
	}
	tp.setStatus(hash, model.StatusQueued, nil, 0)
}

// RemoveTx 出池（入块或清退后）
func (tp *TxPool) RemoveTx(txHash string) {
	tp.mu.Lock()
	if _, ok := tp.pending[txHash]; !ok {
		tp.mu.Unlock()
		return
	}
	delete(tp.pending, txHash)
	for i, h := range tp.pendingOrder {
		if h == txHash {
			tp.pendingOrder = append(tp.pendingOrder[:i], tp.pendingOrder[i+1:]...)
			break
		}
	}
	tp.mu.Unlock()
	tp.dbManager.DeletePendingTx(txHash)
}

// HasTransaction 池里是否有这笔
func (tp *TxPool) HasTransaction(txHash string) bool {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	_, ok := tp.pending[txHash]
	return ok
}

// GetTransaction 按哈希取 pending 交易
func (tp *TxPool) GetTransaction(txHash string) (*model.Transaction, bool) {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	tx, ok := tp.pending[txHash]
	return tx, ok
}

// GetByShortHash 短哈希换全哈希再取交易
func (tp *TxPool) GetByShortHash(short []byte) (*model.Transaction, bool) {
	if full, ok := tp.shortTxCache.Get(string(short)); ok {
		return tp.GetTransaction(full.(string))
	}
	return nil, false
}

// NextBatch 按入池顺序取最多 limit 笔，出块用。
// 取出的交易仍留在池里，入块成功后由 chain 调 RemoveTx。
func (tp *TxPool) NextBatch(limit int) []*model.Transaction {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	if limit <= 0 || limit > len(tp.pendingOrder) {
		limit = len(tp.pendingOrder)
	}
	out := make([]*model.Transaction, 0, limit)
	for _, h := range tp.pendingOrder {
		if len(out) >= limit {
			break
		}
		if tx, ok := tp.pending[h]; ok {
			out = append(out, tx)
		}
	}
	return out
}

// PendingCount 池内交易数
func (tp *TxPool) PendingCount() int {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return len(tp.pending)
}

// Status 交易最近一次状态；查不到返回 false
func (tp *TxPool) Status(txHash string) (model.TxEvent, bool) {
	if v, ok := tp.statusCache.Get(txHash); ok {
		return v.(model.TxEvent), true
	}
	// 缓存没有再查链上留档。入块和被拒都有高度索引，
	// 先看拒绝留档再下 COMMITTED 的结论。
	if h, ok := tp.dbManager.GetTransactionHeight(txHash); ok {
		if reason, rejected := tp.dbManager.GetTransactionRejection(txHash); rejected {
			return model.TxEvent{
				TxHash: txHash,
				Status: model.StatusRejected,
				Kind:   reason.Kind,
				Reason: reason.Message,
				Height: h,
			}, true
		}
		return model.TxEvent{TxHash: txHash, Status: model.StatusCommitted, Height: h}, true
	}
	return model.TxEvent{}, false
}

// setStatus 记录状态并广播事件
func (tp *TxPool) setStatus(txHash string, status model.TxStatus, reason *model.RejectionReason, height uint64) {
	ev := model.TxEvent{TxHash: txHash, Status: status, Height: height}
	if reason != nil {
		ev.Kind = reason.Kind
		ev.Reason = reason.Message
	}
	tp.statusCache.Add(txHash, ev)
	if tp.notifier != nil {
		tp.notifier.TxStatus(txHash, status, reason, height)
	}
}

// MarkValidating 出块重校验开始时的过渡状态，交易仍在池里
func (tp *TxPool) MarkValidating(txHash string) {
	tp.setStatus(txHash, model.StatusValidating, nil, 0)
}

// MarkCommitted chain 入块成功后的回调
func (tp *TxPool) MarkCommitted(txHash string, height uint64) {
	tp.RemoveTx(txHash)
	tp.setStatus(txHash, model.StatusCommitted, nil, height)
}

// MarkRejected chain 校验拒绝后的回调，拒绝原因随区块留档
func (tp *TxPool) MarkRejected(txHash string, reason model.RejectionReason, height uint64) {
	tp.RemoveTx(txHash)
	tp.setStatus(txHash, model.StatusRejected, &reason, height)
}

// MarkExpired 出块时发现已过期的交易：出池，不进区块
func (tp *TxPool) MarkExpired(txHash string) {
	tp.RemoveTx(txHash)
	tp.setStatus(txHash, model.StatusExpired, nil, 0)
}

// runExpirySweep 周期清退 TTL 过期且从未入块的交易。
// 过期是 EXPIRED 不是 REJECTED：它没进过任何区块，不留档。
func (tp *TxPool) runExpirySweep() {
	defer tp.wg.Done()
	ticker := time.NewTicker(tp.cfg.TxPool.ExpirySweep)
	defer ticker.Stop()
	for {
		select {
		case <-tp.stopChan:
			return
		case <-ticker.C:
			tp.sweepExpired(time.Now().UnixMilli())
		}
	}
}

func (tp *TxPool) sweepExpired(nowMs int64) {
	tp.mu.RLock()
	var expired []string
	for h, tx := range tp.pending {
		if exp := tx.ExpiresAtMs(); exp > 0 && nowMs >= exp {
			expired = append(expired, h)
		}
	}
	tp.mu.RUnlock()
	for _, h := range expired {
		tp.RemoveTx(h)
		tp.setStatus(h, model.StatusExpired, nil, 0)
		logs.Debug("[TxPool] tx %s expired, dropped without block trace", h)
	}
}
