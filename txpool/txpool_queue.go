// txpool/txpool_queue.go
package txpool

import (
	"errors"
	"time"

	"ledger/executor"
	"ledger/logs"
	"ledger/model"
)

var (
	ErrPoolFull  = errors.New("tx pool is full")
	ErrQueueFull = errors.New("tx pool message queue is full")
)

// 内部消息类型
type txMsgType int

const (
	msgAddTx txMsgType = iota
	msgRemoveTx
)

// txPoolMessage 消息循环里处理的任务
type txPoolMessage struct {
	Type   txMsgType
	Tx     *model.Transaction
	TxHash string
}

type txPoolQueue struct {
	pool    *TxPool
	MsgChan chan *txPoolMessage
}

func newTxPoolQueue(pool *TxPool, queueSize int) *txPoolQueue {
	if queueSize <= 0 {
		queueSize = 10000
	}
	return &txPoolQueue{
		pool:    pool,
		MsgChan: make(chan *txPoolMessage, queueSize),
	}
}

// enqueueAdd 非阻塞投递，队列满返回错误给提交方
func (tq *txPoolQueue) enqueueAdd(tx *model.Transaction) error {
	select {
	case tq.MsgChan <- &txPoolMessage{Type: msgAddTx, Tx: tx}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (tq *txPoolQueue) runLoop() {
	defer tq.pool.wg.Done()

	for {
		select {
		case <-tq.pool.stopChan:
			return
		case msg := <-tq.MsgChan:
			if msg == nil {
				continue
			}
			switch msg.Type {
			case msgAddTx:
				tq.handleAddTx(msg.Tx)
			case msgRemoveTx:
				tq.pool.RemoveTx(msg.TxHash)
				logs.Debug("[TxPoolQueue] removed tx=%s", msg.TxHash)
			default:
				logs.Debug("[TxPoolQueue] unknown msg type: %d", msg.Type)
			}
		}
	}
}

// handleAddTx 收单路径：RECEIVED → 结构校验 → 入池(QUEUED)。
// 结构不过关的交易从未排进任何区块，状态直接打成 REJECTED。
func (tq *txPoolQueue) handleAddTx(tx *model.Transaction) {
	if tx == nil {
		return
	}
	hash := tx.Hash()
	if tq.pool.HasTransaction(hash) {
		return
	}
	if tq.pool.dbManager.IsTxApplied(hash) {
		logs.Debug("[TxPoolQueue] tx=%s already applied, skip", hash)
		return
	}

	tq.pool.setStatus(hash, model.StatusReceived, nil, 0)

	if tq.pool.validator != nil {
		if err := tq.pool.validator.ValidateStructure(tx, time.Now().UnixMilli()); err != nil {
			reason := executor.ReasonOf(err)
			tq.pool.setStatus(hash, model.StatusRejected, &reason, 0)
			logs.Debug("[TxPoolQueue] tx=%s structurally invalid: %v", hash, err)
			return
		}
	}
	tq.pool.storeTx(tx)
}
