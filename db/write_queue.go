package db

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v2"

	"ledger/logs"
)

// WriteTask 一次写队列任务
type WriteTask struct {
	Key   []byte
	Value []byte
	Op    WriteOp // Set 或 Delete
}

type WriteOp int

const (
	OpSet WriteOp = iota
	OpDelete
)

// InitWriteQueue 启动批量写 goroutine。
// 所有对权威状态的写都必须经过这里，提交点由 ForceFlush 决定。
func (manager *Manager) InitWriteQueue(maxBatchSize int, flushInterval time.Duration) {
	manager.maxBatchSize = maxBatchSize
	manager.flushInterval = flushInterval
	manager.writeQueueChan = make(chan WriteTask, manager.cfg.Database.WriteQueueSize)
	manager.forceFlushChan = make(chan flushRequest, 1)
	manager.stopChan = make(chan struct{})

	manager.wg.Add(1)
	go manager.runWriteQueue()
}

// EnqueueSet 投入一个写任务（可能阻塞在有界队列上）
func (manager *Manager) EnqueueSet(key, value string) {
	atomic.AddUint64(&manager.writeQueueEnqueueTotal, 1)
	manager.writeQueueChan <- WriteTask{Key: []byte(key), Value: []byte(value), Op: OpSet}
}

// EnqueueDel 投入一个删除任务
func (manager *Manager) EnqueueDel(key string) {
	atomic.AddUint64(&manager.writeQueueEnqueueTotal, 1)
	manager.writeQueueChan <- WriteTask{Key: []byte(key), Op: OpDelete}
}

// QueueDepth 当前写队列长度/容量
func (manager *Manager) QueueDepth() (int, int) {
	if manager.writeQueueChan == nil {
		return 0, 0
	}
	return len(manager.writeQueueChan), cap(manager.writeQueueChan)
}

// FlushErrCount 落库失败次数
func (manager *Manager) FlushErrCount() uint64 {
	return atomic.LoadUint64(&manager.writeQueueFlushErrTotal)
}

// runWriteQueue 写队列的核心 goroutine 逻辑
func (manager *Manager) runWriteQueue() {
	defer manager.wg.Done()
	batch := make([]WriteTask, 0, manager.maxBatchSize)
	ticker := time.NewTicker(manager.flushInterval)
	defer ticker.Stop()

	flushCurrentBatch := func() error {
		if len(batch) == 0 {
			return nil
		}
		start := time.Now()
		err := manager.flushBatch(batch)
		if err != nil {
			atomic.AddUint64(&manager.writeQueueFlushErrTotal, 1)
		}
		if d := time.Since(start); d >= 2*time.Second {
			logs.Warn("[DBQueue] slow flush batch=%d took=%s q=%d/%d",
				len(batch), d, len(manager.writeQueueChan), cap(manager.writeQueueChan))
		}
		batch = batch[:0]
		return err
	}

	for {
		select {
		case <-manager.stopChan:
			batch = manager.drainWriteQueue(batch)
			err := flushCurrentBatch()
			manager.resolvePendingForceFlush(err)
			return
		case task := <-manager.writeQueueChan:
			batch = append(batch, task)
			if len(batch) >= manager.maxBatchSize {
				if err := flushCurrentBatch(); err != nil {
					logs.Error("[runWriteQueue] flush by size failed: %v", err)
				}
			}
		case <-ticker.C:
			batch = manager.drainWriteQueue(batch)
			if err := flushCurrentBatch(); err != nil {
				logs.Error("[runWriteQueue] flush by ticker failed: %v", err)
			}
		case req := <-manager.forceFlushChan:
			batch = manager.drainWriteQueue(batch)
			err := flushCurrentBatch()
			req.done <- err
			close(req.done)
		}
	}
}

// flushBatch 把一批任务写进 badger。
// 单个事务既限条数（MaxCountPerTxn）也限字节量（WriteBatchSoftLimit），
// 任一超限就分段提交，避免撑爆 badger 的事务上限。
func (manager *Manager) flushBatch(batch []WriteTask) error {
	maxPerTxn := manager.cfg.Database.MaxCountPerTxn
	if maxPerTxn <= 0 {
		maxPerTxn = len(batch)
	}
	softLimit := manager.cfg.Database.WriteBatchSoftLimit
	overhead := int64(manager.cfg.Database.PerEntryOverhead)

	for start := 0; start < len(batch); {
		end := start
		var chunkBytes int64
		for end < len(batch) && end-start < maxPerTxn {
			chunkBytes += int64(len(batch[end].Key)+len(batch[end].Value)) + overhead
			end++
			if softLimit > 0 && chunkBytes >= softLimit {
				break
			}
		}
		chunk := batch[start:end]
		err := manager.Db.Update(func(txn *badger.Txn) error {
			for _, task := range chunk {
				switch task.Op {
				case OpSet:
					if err := txn.Set(task.Key, task.Value); err != nil {
						return err
					}
				case OpDelete:
					if err := txn.Delete(task.Key); err != nil && err != badger.ErrKeyNotFound {
						return err
					}
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		start = end
	}
	return nil
}

// ForceFlush 同步触发一次落库，返回落库错误。
// 区块提交以它的返回值为准：出错则整块中止。
func (manager *Manager) ForceFlush() error {
	if manager.forceFlushChan == nil {
		return nil
	}
	req := flushRequest{done: make(chan error, 1)}
	select {
	case manager.forceFlushChan <- req:
	case <-manager.stopChan:
		return fmt.Errorf("write queue already stopped")
	}
	select {
	case err := <-req.done:
		return err
	case <-manager.stopChan:
		select {
		case err := <-req.done:
			return err
		default:
		}
		return fmt.Errorf("write queue stopped before flush completed")
	}
}

func (manager *Manager) drainWriteQueue(batch []WriteTask) []WriteTask {
	for {
		select {
		case task := <-manager.writeQueueChan:
			batch = append(batch, task)
		default:
			return batch
		}
	}
}

func (manager *Manager) resolvePendingForceFlush(err error) {
	for {
		select {
		case req := <-manager.forceFlushChan:
			req.done <- err
			close(req.done)
		default:
			return
		}
	}
}
