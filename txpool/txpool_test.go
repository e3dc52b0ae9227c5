package txpool_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ledger/config"
	"ledger/db"
	"ledger/events"
	"ledger/executor"
	"ledger/model"
	"ledger/txpool"
)

// stubValidator 入池结构校验的桩：全放行或全拒
type stubValidator struct {
	err error
}

func (s stubValidator) ValidateStructure(tx *model.Transaction, nowMs int64) error {
	return s.err
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.TxPool.ExpirySweep = 10 * time.Millisecond
	cfg.Database.FlushInterval = 10 * time.Millisecond
	return cfg
}

func newPoolEnv(t *testing.T, cfg *config.Config, v txpool.StructuralValidator) (*txpool.TxPool, *db.Manager, *events.Bus) {
	t.Helper()
	manager, err := db.NewManagerWithConfig(t.TempDir(), cfg)
	require.NoError(t, err)
	manager.InitWriteQueue(cfg.Database.MaxBatchSize, cfg.Database.FlushInterval)
	t.Cleanup(manager.Close)

	bus := events.NewBus(cfg.Events.SubscriberQueueSize)
	notifier := events.NewNotifier(bus, nil)

	pool, err := txpool.NewTxPool(manager, v, notifier, cfg)
	require.NoError(t, err)
	require.NoError(t, pool.Start())
	t.Cleanup(func() { _ = pool.Stop() })
	return pool, manager, bus
}

func sampleTx(nonce uint32) *model.Transaction {
	return &model.Transaction{Payload: model.TransactionPayload{
		Creator:   strings.Repeat("aa", 32) + "@wonderland",
		CreatedMs: time.Now().UnixMilli(),
		Nonce:     nonce,
		Instructions: []model.Instruction{
			{RegisterDomain: &model.RegisterDomain{Name: "wonderland"}},
		},
	}}
}

// waitFor 轮询直到条件成立；入池走异步消息循环，测试只能等
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestSubmitQueuesTransaction(t *testing.T) {
	pool, _, _ := newPoolEnv(t, testConfig(), stubValidator{})

	tx := sampleTx(1)
	require.NoError(t, pool.Submit(tx))

	waitFor(t, func() bool { return pool.HasTransaction(tx.Hash()) })
	ev, ok := pool.Status(tx.Hash())
	require.True(t, ok)
	require.Equal(t, model.StatusQueued, ev.Status)

	got, ok := pool.GetTransaction(tx.Hash())
	require.True(t, ok)
	require.Equal(t, tx.Hash(), got.Hash())
	got, ok = pool.GetByShortHash(tx.ShortHash())
	require.True(t, ok)
	require.Equal(t, tx.Hash(), got.Hash())
}

func TestStructuralRejectDoesNotPool(t *testing.T) {
	bad := executor.NewError(executor.KindStructural, "Transaction contains no instructions")
	pool, _, _ := newPoolEnv(t, testConfig(), stubValidator{err: bad})

	tx := sampleTx(1)
	require.NoError(t, pool.Submit(tx))

	waitFor(t, func() bool {
		ev, ok := pool.Status(tx.Hash())
		return ok && ev.Status == model.StatusRejected
	})
	require.False(t, pool.HasTransaction(tx.Hash()))
	ev, _ := pool.Status(tx.Hash())
	require.Equal(t, string(executor.KindStructural), ev.Kind)
}

func TestDuplicateSubmitIsNoOp(t *testing.T) {
	pool, _, _ := newPoolEnv(t, testConfig(), stubValidator{})

	tx := sampleTx(1)
	require.NoError(t, pool.Submit(tx))
	require.NoError(t, pool.Submit(tx))

	waitFor(t, func() bool { return pool.HasTransaction(tx.Hash()) })
	// 第二次提交不会让池里多出一笔
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, pool.PendingCount())
}

func TestNextBatchKeepsArrivalOrder(t *testing.T) {
	pool, _, _ := newPoolEnv(t, testConfig(), stubValidator{})

	txs := []*model.Transaction{sampleTx(1), sampleTx(2), sampleTx(3)}
	for _, tx := range txs {
		require.NoError(t, pool.Submit(tx))
	}
	waitFor(t, func() bool { return pool.PendingCount() == 3 })

	batch := pool.NextBatch(2)
	require.Len(t, batch, 2)
	require.Equal(t, txs[0].Hash(), batch[0].Hash())
	require.Equal(t, txs[1].Hash(), batch[1].Hash())
	// 取批不等于出池
	require.Equal(t, 3, pool.PendingCount())
}

func TestPoolFull(t *testing.T) {
	cfg := testConfig()
	cfg.TxPool.MaxPendingTxs = 1
	pool, _, _ := newPoolEnv(t, cfg, stubValidator{})

	require.NoError(t, pool.Submit(sampleTx(1)))
	waitFor(t, func() bool { return pool.PendingCount() == 1 })

	err := pool.Submit(sampleTx(2))
	require.ErrorIs(t, err, txpool.ErrPoolFull)
}

func TestExpirySweepDropsWithoutBlockTrace(t *testing.T) {
	pool, _, _ := newPoolEnv(t, testConfig(), stubValidator{})

	tx := sampleTx(1)
	tx.Payload.CreatedMs = time.Now().UnixMilli() - 1000
	tx.Payload.TTLMs = 1 // 立即过期
	require.NoError(t, pool.Submit(tx))

	waitFor(t, func() bool {
		ev, ok := pool.Status(tx.Hash())
		return ok && ev.Status == model.StatusExpired
	})
	require.False(t, pool.HasTransaction(tx.Hash()))
}

func TestMarkCommittedPublishesFinalStatus(t *testing.T) {
	pool, _, bus := newPoolEnv(t, testConfig(), stubValidator{})
	sub := bus.Subscribe(events.Filter{})
	defer sub.Cancel()

	tx := sampleTx(1)
	require.NoError(t, pool.Submit(tx))
	waitFor(t, func() bool { return pool.HasTransaction(tx.Hash()) })

	pool.MarkCommitted(tx.Hash(), 7)
	require.False(t, pool.HasTransaction(tx.Hash()))
	ev, ok := pool.Status(tx.Hash())
	require.True(t, ok)
	require.Equal(t, model.StatusCommitted, ev.Status)
	require.Equal(t, uint64(7), ev.Height)

	// 状态流经事件总线
	waitFor(t, func() bool {
		select {
		case env := <-sub.C():
			return env.Tx != nil && env.Tx.Status == model.StatusCommitted
		default:
			return false
		}
	})
}

func TestAppliedTxIsNotRepooled(t *testing.T) {
	cfg := testConfig()
	pool, manager, _ := newPoolEnv(t, cfg, stubValidator{})

	tx := sampleTx(1)
	manager.MarkTxApplied(tx.Hash(), "blockhash")
	require.NoError(t, manager.ForceFlush())

	require.NoError(t, pool.Submit(tx))
	time.Sleep(50 * time.Millisecond)
	require.False(t, pool.HasTransaction(tx.Hash()))
}

func TestPendingSurvivesRestart(t *testing.T) {
	cfg := testConfig()
	manager, err := db.NewManagerWithConfig(t.TempDir(), cfg)
	require.NoError(t, err)
	manager.InitWriteQueue(cfg.Database.MaxBatchSize, cfg.Database.FlushInterval)
	t.Cleanup(manager.Close)
	notifier := events.NewNotifier(events.NewBus(16), nil)

	pool, err := txpool.NewTxPool(manager, stubValidator{}, notifier, cfg)
	require.NoError(t, err)
	require.NoError(t, pool.Start())

	tx := sampleTx(1)
	require.NoError(t, pool.Submit(tx))
	waitFor(t, func() bool { return pool.HasTransaction(tx.Hash()) })
	require.NoError(t, manager.ForceFlush())
	require.NoError(t, pool.Stop())

	// 同一个库上重建：pending 要能恢复
	pool2, err := txpool.NewTxPool(manager, stubValidator{}, notifier, cfg)
	require.NoError(t, err)
	require.True(t, pool2.HasTransaction(tx.Hash()))
	require.Equal(t, 1, pool2.PendingCount())
}
