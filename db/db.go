package db

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/dgraph-io/badger/v2/options"

	"ledger/config"
	"ledger/logs"
	"ledger/model"
)

// Manager 封装 BadgerDB 的管理器
type Manager struct {
	Db *badger.DB
	mu sync.RWMutex

	// 队列通道，批量写的 goroutine 用它来取写请求
	writeQueueChan chan WriteTask
	// 强制刷盘通道
	forceFlushChan chan flushRequest
	// 用于通知写队列 goroutine 停止
	stopChan chan struct{}

	// 控制"写多少/多长时间"就落库
	maxBatchSize  int
	flushInterval time.Duration

	// 写队列运行统计
	writeQueueEnqueueTotal  uint64
	writeQueueFlushErrTotal uint64

	wg sync.WaitGroup

	// 缓存的区块切片，最多存 BlockCacheSize 个
	cachedBlocks   []*model.Block
	cachedBlocksMu sync.RWMutex

	cfg *config.Config
}

type flushRequest struct {
	done chan error
}

// NewManager 创建一个新的 DBManager 实例
func NewManager(path string) (*Manager, error) {
	return NewManagerWithConfig(path, nil)
}

// NewManagerWithConfig 创建 DBManager，可选注入整份 Config
func NewManagerWithConfig(path string, cfg *config.Config) (*Manager, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	opts := badger.DefaultOptions(path).WithLogger(nil)
	opts.ValueLogFileSize = cfg.Database.ValueLogFileSize
	// 使用 FileIO 模式减少 mmap 内存占用
	opts.TableLoadingMode = options.FileIO
	opts.ValueLogLoadingMode = options.FileIO

	// badger v2 不自动创建父目录，需要手动创建
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db dir: %w", err)
	}
	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	manager := &Manager{
		Db:  bdb,
		cfg: cfg,
	}
	return manager, nil
}

// Read 读取一个 key，key 不存在返回 badger.ErrKeyNotFound
func (manager *Manager) Read(key string) (string, error) {
	var val []byte
	err := manager.Db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return "", err
	}
	return string(val), nil
}

// Exists key 是否存在
func (manager *Manager) Exists(key string) bool {
	err := manager.Db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	return err == nil
}

// Scan 返回所有以 prefix 开头的键值对
func (manager *Manager) Scan(prefix string) (map[string][]byte, error) {
	result := make(map[string][]byte)
	err := manager.Db.View(func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.Prefix = []byte(prefix)
		it := txn.NewIterator(itOpts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			k := string(item.KeyCopy(nil))
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result[k] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteKey 直接删除一个 key（绕过写队列，只给索引维护用）
func (manager *Manager) DeleteKey(key string) error {
	return manager.Db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

// IsNotFound 是否为"键不存在"
func IsNotFound(err error) bool {
	return err == badger.ErrKeyNotFound
}

// Close 关闭写队列与数据库
func (manager *Manager) Close() {
	if manager.stopChan != nil {
		close(manager.stopChan)
		manager.wg.Wait()
		manager.stopChan = nil
	}
	if err := manager.Db.Close(); err != nil {
		logs.Error("[DB] close error: %v", err)
	}
}
