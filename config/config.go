// config/config.go
package config

import (
	"fmt"
	"time"
)

// Config 主配置结构
type Config struct {
	Node     NodeConfig
	Server   ServerConfig
	Database DatabaseConfig
	TxPool   TxPoolConfig
	Chain    ChainConfig
	Events   EventsConfig
}

// NodeConfig 节点基础配置
type NodeConfig struct {
	DataDir  string // "data"
	LogLevel int    // logs.LevelInfo

	// 创世配置文件路径，为空则提交一个空创世块
	GenesisPath string
}

// ServerConfig HTTP/3服务器配置
type ServerConfig struct {
	Port string // "6000"

	// TLS配置
	TLSMinVersion string // "1.3"
	TLSMaxVersion string // "1.3"

	// QUIC配置
	QUICKeepAlivePeriod time.Duration // 10 * time.Second
	QUICMaxIdleTimeout  time.Duration // 5 * time.Minute
	QUICAllow0RTT       bool          // true

	// HTTP配置
	HTTPTimeout        time.Duration // 30 * time.Second
	MaxRequestBodySize int64         // 10 << 20 (10MB)

	// 证书配置
	CertValidityDays int // 365
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// BadgerDB配置
	ValueLogFileSize int64         // 64 << 20 (64MB)
	MaxBatchSize     int           // 100
	FlushInterval    time.Duration // 200 * time.Millisecond

	// 写队列配置
	WriteQueueSize      int   // 100000
	WriteBatchSoftLimit int64 // 8 * 1024 * 1024 (8MB)
	MaxCountPerTxn      int   // 500
	PerEntryOverhead    int   // 32

	// 缓存配置
	BlockCacheSize    int    // 10
	SequenceBandwidth uint64 // 1000
}

// TxPoolConfig 交易池配置
type TxPoolConfig struct {
	// 缓存大小
	PendingTxCacheSize int // 100000
	StatusCacheSize    int // 100000

	// 队列配置
	MessageQueueSize int // 10000
	MaxPendingTxs    int // 10000

	// 交易处理
	MaxTxsPerBlock int // 2500
	ShortHashSize  int // 8

	// 时间配置
	DefaultTxTTL  time.Duration // 24 * time.Hour
	MaxTxTTL      time.Duration // 24 * time.Hour
	ExpirySweep   time.Duration // 1 * time.Second
	MaxClockDrift time.Duration // 5 * time.Minute
}

// ChainConfig 出块与提交配置
type ChainConfig struct {
	BlockInterval time.Duration // 1 * time.Second
}

// EventsConfig 事件通知配置
type EventsConfig struct {
	SubscriberQueueSize int    // 256
	JournalDir          string // "data/events"
	JournalEnabled      bool   // true
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Node: NodeConfig{
			DataDir:  "data",
			LogLevel: 3,
		},
		Server: ServerConfig{
			Port:                "6000",
			TLSMinVersion:       "1.3",
			TLSMaxVersion:       "1.3",
			QUICKeepAlivePeriod: 10 * time.Second,
			QUICMaxIdleTimeout:  5 * time.Minute,
			QUICAllow0RTT:       true,
			HTTPTimeout:         30 * time.Second,
			MaxRequestBodySize:  10 << 20,
			CertValidityDays:    365,
		},
		Database: DatabaseConfig{
			ValueLogFileSize:    64 << 20,
			MaxBatchSize:        100,
			FlushInterval:       200 * time.Millisecond,
			WriteQueueSize:      100000,
			WriteBatchSoftLimit: 8 * 1024 * 1024,
			MaxCountPerTxn:      500,
			PerEntryOverhead:    32,
			BlockCacheSize:      10,
			SequenceBandwidth:   1000,
		},
		TxPool: TxPoolConfig{
			PendingTxCacheSize: 100000,
			StatusCacheSize:    100000,
			MessageQueueSize:   10000,
			MaxPendingTxs:      10000,
			MaxTxsPerBlock:     2500,
			ShortHashSize:      8,
			DefaultTxTTL:       24 * time.Hour,
			MaxTxTTL:           24 * time.Hour,
			ExpirySweep:        1 * time.Second,
			MaxClockDrift:      5 * time.Minute,
		},
		Chain: ChainConfig{
			BlockInterval: 1 * time.Second,
		},
		Events: EventsConfig{
			SubscriberQueueSize: 256,
			JournalDir:          "data/events",
			JournalEnabled:      true,
		},
	}
}

// Validate 验证配置合法性
func (c *Config) Validate() error {
	if c.TxPool.MaxTxsPerBlock <= 0 {
		return fmt.Errorf("MaxTxsPerBlock must be positive")
	}
	if c.TxPool.MaxPendingTxs <= 0 {
		return fmt.Errorf("MaxPendingTxs must be positive")
	}
	if c.Database.WriteQueueSize <= 0 {
		return fmt.Errorf("WriteQueueSize must be positive")
	}
	if c.Events.SubscriberQueueSize <= 0 {
		return fmt.Errorf("SubscriberQueueSize must be positive")
	}
	if c.TxPool.DefaultTxTTL > c.TxPool.MaxTxTTL {
		return fmt.Errorf("DefaultTxTTL must not exceed MaxTxTTL")
	}
	return nil
}
