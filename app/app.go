// app/app.go
// 节点装配。各组件按依赖顺序拉起：
// db → 事件 → 执行/校验 → 交易池 → 链（恢复、创世、出块）→ API。
package app

import (
	"fmt"
	"path/filepath"

	"ledger/chain"
	"ledger/config"
	"ledger/db"
	"ledger/events"
	"ledger/executor"
	"ledger/handlers"
	"ledger/logs"
	"ledger/txpool"
	"ledger/validator"
)

// Node 一个完整的账本节点实例
type Node struct {
	Config         *config.Config
	DBManager      *db.Manager
	Notifier       *events.Notifier
	Executor       *executor.Executor
	Validator      *validator.Validator
	TxPool         *txpool.TxPool
	Assembler      *chain.Assembler
	Producer       *chain.Producer
	HandlerManager *handlers.HandlerManager

	server *apiServer
}

// NewNode 按配置装配一个节点，不启动任何 goroutine
func NewNode(cfg *config.Config) (*Node, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logs.SetLevel(cfg.Node.LogLevel)

	dbManager, err := db.NewManagerWithConfig(filepath.Join(cfg.Node.DataDir, "state"), cfg)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	dbManager.InitWriteQueue(cfg.Database.MaxBatchSize, cfg.Database.FlushInterval)

	var journal *events.Journal
	if cfg.Events.JournalEnabled {
		journal, err = events.OpenJournal(cfg.Events.JournalDir, cfg.Database.SequenceBandwidth)
		if err != nil {
			dbManager.Close()
			return nil, fmt.Errorf("open event journal: %w", err)
		}
	}
	notifier := events.NewNotifier(events.NewBus(cfg.Events.SubscriberQueueSize), journal)

	exec := executor.New()
	v := validator.New(exec, validator.Limits{
		MaxClockDrift:   cfg.TxPool.MaxClockDrift,
		MaxTxTTL:        cfg.TxPool.MaxTxTTL,
		MaxInstructions: 4096,
	})

	pool, err := txpool.NewTxPool(dbManager, v, notifier, cfg)
	if err != nil {
		notifier.Close()
		dbManager.Close()
		return nil, fmt.Errorf("create tx pool: %w", err)
	}

	assembler := chain.NewAssembler(dbManager, v, pool, notifier, cfg)
	producer := chain.NewProducer(assembler, pool, cfg)
	hm := handlers.NewHandlerManager(dbManager, assembler, pool, notifier, cfg.Server.Port)

	node := &Node{
		Config:         cfg,
		DBManager:      dbManager,
		Notifier:       notifier,
		Executor:       exec,
		Validator:      v,
		TxPool:         pool,
		Assembler:      assembler,
		Producer:       producer,
		HandlerManager: hm,
	}
	node.server = newAPIServer(node)
	return node, nil
}

// Start 依序启动；创世块在这里提交（空链且配置了创世文件时）
func (n *Node) Start() error {
	if err := n.Assembler.Recover(); err != nil {
		return fmt.Errorf("recover: %w", err)
	}

	if n.Assembler.Height() == 0 && n.Config.Node.GenesisPath != "" {
		txs, err := chain.LoadGenesis(n.Config.Node.GenesisPath)
		if err != nil {
			return fmt.Errorf("load genesis: %w", err)
		}
		block, err := n.Assembler.CommitGenesis(txs)
		if err != nil {
			return fmt.Errorf("commit genesis: %w", err)
		}
		logs.Info("[App] genesis committed, hash=%s", block.Hash)
	}

	if err := n.TxPool.Start(); err != nil {
		return fmt.Errorf("start tx pool: %w", err)
	}
	n.Producer.Start()
	if err := n.server.Start(); err != nil {
		n.Producer.Stop()
		n.TxPool.Stop()
		return fmt.Errorf("start api server: %w", err)
	}
	logs.Info("[App] node started at height %d, port %s", n.Assembler.Height(), n.Config.Server.Port)
	return nil
}

// Stop 逆序停机，最后关库
func (n *Node) Stop() {
	n.server.Stop()
	n.Producer.Stop()
	if err := n.TxPool.Stop(); err != nil {
		logs.Warn("[App] stop tx pool: %v", err)
	}
	n.Notifier.Close()
	n.DBManager.Close()
	logs.Info("[App] node stopped")
}
