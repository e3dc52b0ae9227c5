// chain/assembler.go
// 区块装配与提交。单写者：同一时刻只有一次高度推进在进行。
// 候选交易在块级叠加视图上逐笔重校验（逐笔再叠一层，
// 失败只废弃那一层），通过的进 Transactions，
// 被拒的连原因进 Rejected，一起落块。
// 落库分两段：先刷意向（写集留档 + 区块 + 高度），再刷状态与提交标记，
// 保证权威状态不会停在两块之间的半写样子。
package chain

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"ledger/config"
	"ledger/db"
	"ledger/events"
	"ledger/executor"
	"ledger/keys"
	"ledger/logs"
	"ledger/model"
	"ledger/txpool"
	"ledger/validator"
	"ledger/wsv"
)

// ErrNoTransactions 没有候选交易，本轮不出块
var ErrNoTransactions = errors.New("no transactions to assemble")

// Assembler 区块装配器
type Assembler struct {
	dbManager *db.Manager
	validator *validator.Validator
	pool      *txpool.TxPool
	notifier  *events.Notifier
	cfg       *config.Config

	commitMu sync.Mutex // 单写者锁
}

func NewAssembler(dbManager *db.Manager, v *validator.Validator, pool *txpool.TxPool, notifier *events.Notifier, cfg *config.Config) *Assembler {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Assembler{
		dbManager: dbManager,
		validator: v,
		pool:      pool,
		notifier:  notifier,
		cfg:       cfg,
	}
}

// baseView 挂在权威状态库上的读穿视图
func (a *Assembler) baseView() wsv.StateView {
	return wsv.New(
		func(key string) ([]byte, error) {
			val, err := a.dbManager.Read(key)
			if err != nil {
				if db.IsNotFound(err) {
					return nil, nil
				}
				return nil, err
			}
			return []byte(val), nil
		},
		a.dbManager.Scan,
	)
}

// Height 当前已提交高度，空链为 0
func (a *Assembler) Height() uint64 {
	h, ok := a.dbManager.GetLatestBlockHeight()
	if !ok {
		return 0
	}
	return h
}

// AssembleNext 从 orderer 取一批交易，装配并提交下一个区块
func (a *Assembler) AssembleNext(orderer Orderer) (*model.Block, error) {
	a.commitMu.Lock()
	defer a.commitMu.Unlock()

	batch := orderer.NextBatch(a.cfg.TxPool.MaxTxsPerBlock)
	if len(batch) == 0 {
		return nil, ErrNoTransactions
	}
	return a.commitLocked(batch, false)
}

// CommitGenesis 提交创世块：跳过签名段，指令全权放行。
// 创世交易任何一笔失败都是致命错误，链不能以半套引导状态启动。
func (a *Assembler) CommitGenesis(txs []*model.Transaction) (*model.Block, error) {
	a.commitMu.Lock()
	defer a.commitMu.Unlock()

	if h := a.Height(); h > 0 {
		return nil, fmt.Errorf("genesis already committed at height %d", h)
	}
	return a.commitLocked(txs, true)
}

func (a *Assembler) commitLocked(batch []*model.Transaction, genesis bool) (*model.Block, error) {
	height := a.Height() + 1
	prevHash := ""
	if height > 1 {
		prev, err := a.dbManager.GetBlock(height - 1)
		if err != nil {
			return nil, fmt.Errorf("load previous block %d: %w", height-1, err)
		}
		prevHash = prev.Hash
	}

	nowMs := time.Now().UnixMilli()
	blockView := a.baseView()
	block := &model.Block{
		Height:    height,
		PrevHash:  prevHash,
		CreatedMs: nowMs,
	}

	for _, tx := range batch {
		if a.pool != nil && !genesis {
			a.pool.MarkValidating(tx.Hash())
		}
		txView := wsv.Layer(blockView)
		validated, err := a.validator.Validate(txView, tx, nowMs, genesis, height)
		if err != nil {
			if genesis {
				return nil, fmt.Errorf("genesis tx %s: %w", tx.Hash(), err)
			}
			if executor.KindOf(err) == executor.KindExpired {
				// 过期不进块：没有留档，只有状态事件
				if a.pool != nil {
					a.pool.MarkExpired(tx.Hash())
				}
				continue
			}
			block.Rejected = append(block.Rejected, model.RejectedTransaction{
				Transaction: tx,
				Reason:      executor.ReasonOf(err),
			})
			continue
		}
		// 本笔写集并进块级视图，后续交易在新状态上校验
		applyDiff(blockView, validated.Diff)
		block.Transactions = append(block.Transactions, tx)
	}

	if len(block.Transactions) == 0 && len(block.Rejected) == 0 {
		return nil, ErrNoTransactions
	}
	block.Seal()

	if err := a.persistBlock(block, blockView.Diff()); err != nil {
		return nil, err
	}

	// 落库成功后才回调池与事件
	for _, tx := range block.Transactions {
		if a.pool != nil {
			a.pool.MarkCommitted(tx.Hash(), height)
		}
	}
	for _, rj := range block.Rejected {
		if a.pool != nil {
			a.pool.MarkRejected(rj.Transaction.Hash(), rj.Reason, height)
		}
	}
	if a.notifier != nil {
		a.notifier.BlockCommitted(block)
	}
	logs.Info("[Chain] committed block_%d hash=%s txs=%d rejected=%d",
		height, block.Hash[:16], len(block.Transactions), len(block.Rejected))
	return block, nil
}

// persistBlock 两段式落库。
// 第一段只刷意向：写集留档、区块数据、高度推进，权威状态一字未动；
// 第二段灌状态写集和交易留档，提交标记压尾再刷一次。
// 第二段中途崩溃时高度已指向本块且没有提交标记，Recover 按留档补全。
// 任何时刻权威状态要么是上一块的完整状态，
// 要么能被重放修复成本块的完整状态。
func (a *Assembler) persistBlock(block *model.Block, diff []wsv.WriteOp) error {
	if a.dbManager.HasCommitMarker(block.Height) {
		// 幂等：同高度重复提交直接当成功
		logs.Warn("[Chain] block_%d already committed, skip", block.Height)
		return nil
	}

	// 第一段：意向。写集留档排在高度推进之前入队，
	// 写队列按入队顺序分段提交，高度落盘时留档必然已落盘。
	diffData, err := model.Marshal(diff)
	if err != nil {
		return err
	}
	a.dbManager.EnqueueSet(keys.KeyBlockDiff(block.Height), string(diffData))
	if err := a.dbManager.SaveBlock(block); err != nil {
		return err
	}
	if err := a.dbManager.ForceFlush(); err != nil {
		logs.Error("[Chain] intent flush for block_%d failed, dropping block: %v", block.Height, err)
		a.revertIntent(block)
		return fmt.Errorf("persist block %d intent: %w", block.Height, err)
	}

	// 第二段：状态写集 + 交易留档 + 提交标记
	if err := a.enqueueBlockTail(block, diff); err != nil {
		return err
	}
	if err := a.dbManager.ForceFlush(); err != nil {
		// 高度已指向本块，不能就这么放着：当场按留档重放补全，
		// 补全成功本块即算提交；补不全只能留给下次启动的 Recover。
		logs.Error("[Chain] flush for block_%d failed, replaying write set: %v", block.Height, err)
		if rerr := a.recoverHeight(block.Height); rerr != nil {
			return fmt.Errorf("persist block %d: %w", block.Height, err)
		}
	}
	return nil
}

// enqueueBlockTail 状态写集、交易留档与提交标记入队，标记压尾。
// 全部操作幂等，崩溃恢复会整段重放。
func (a *Assembler) enqueueBlockTail(block *model.Block, diff []wsv.WriteOp) error {
	for _, op := range diff {
		if op.Del {
			a.dbManager.EnqueueDel(op.Key)
		} else {
			a.dbManager.EnqueueSet(op.Key, string(op.Value))
		}
	}
	for _, tx := range block.Transactions {
		if err := a.dbManager.SaveTransaction(tx, block.Height); err != nil {
			return err
		}
		a.dbManager.MarkTxApplied(tx.Hash(), block.Hash)
		a.dbManager.DeletePendingTx(tx.Hash())
	}
	for _, rj := range block.Rejected {
		if err := a.dbManager.SaveTransaction(rj.Transaction, block.Height); err != nil {
			return err
		}
		if err := a.dbManager.SaveTransactionRejection(rj.Transaction.Hash(), rj.Reason); err != nil {
			return err
		}
		a.dbManager.MarkTxApplied(rj.Transaction.Hash(), block.Hash)
		a.dbManager.DeletePendingTx(rj.Transaction.Hash())
	}
	a.dbManager.EnqueueSet(keys.KeyCommitMarker(block.Height), block.Hash)
	return nil
}

// revertIntent 意向刷盘失败后的善后：高度退回上一块，意向键清掉。
// 这里再失败只能留日志等人工处理。
func (a *Assembler) revertIntent(block *model.Block) {
	a.dbManager.DropCachedBlock(block.Height)
	a.dbManager.EnqueueDel(keys.KeyBlockDiff(block.Height))
	a.dbManager.EnqueueDel(keys.KeyBlockData(block.Height))
	a.dbManager.EnqueueDel(keys.KeyBlockIDToHeight(block.Hash))
	if block.Height > 1 {
		a.dbManager.EnqueueSet(keys.KeyLatestBlockHeight(), strconv.FormatUint(block.Height-1, 10))
	} else {
		a.dbManager.EnqueueDel(keys.KeyLatestBlockHeight())
	}
	if err := a.dbManager.ForceFlush(); err != nil {
		logs.Error("[Chain] revert intent for block_%d failed, manual repair required: %v", block.Height, err)
	}
}

// Recover 启动时的半写修复：最新高度缺提交标记说明第二段没写完，
// 按意向留档把状态写集和交易留档补全。写集重放是幂等的。
func (a *Assembler) Recover() error {
	height, ok := a.dbManager.GetLatestBlockHeight()
	if !ok || height == 0 {
		return nil
	}
	if a.dbManager.HasCommitMarker(height) {
		return nil
	}
	logs.Warn("[Chain] block_%d has no commit marker, replaying write set", height)
	return a.recoverHeight(height)
}

// recoverHeight 按留档整段重放某高度的第二段写
func (a *Assembler) recoverHeight(height uint64) error {
	val, err := a.dbManager.Read(keys.KeyBlockDiff(height))
	if err != nil {
		return fmt.Errorf("block_%d write set missing, manual repair required: %w", height, err)
	}
	var diff []wsv.WriteOp
	if err := model.Unmarshal([]byte(val), &diff); err != nil {
		return fmt.Errorf("block_%d write set corrupt: %w", height, err)
	}
	block, err := a.dbManager.GetBlock(height)
	if err != nil {
		return fmt.Errorf("block_%d data missing: %w", height, err)
	}
	if err := a.enqueueBlockTail(block, diff); err != nil {
		return err
	}
	return a.dbManager.ForceFlush()
}

// applyDiff 把一笔交易的写集并进块级视图
func applyDiff(sv wsv.StateView, diff []wsv.WriteOp) {
	for _, op := range diff {
		if op.Del {
			sv.Del(op.Key)
		} else {
			sv.SetWithCategory(op.Key, op.Value, op.Category)
		}
	}
}

// StateHash 当前权威状态的确定性哈希
func (a *Assembler) StateHash() (string, error) {
	return wsv.StateHash(a.dbManager.Scan)
}
