package stats

import (
	"sync"
	"sync/atomic"
)

// Stats 节点运行计数：API 调用次数 + 交易流水线推进量
type Stats struct {
	statsLock     sync.RWMutex
	apiCallCounts map[string]uint64

	txReceived  atomic.Uint64
	txCommitted atomic.Uint64
	txRejected  atomic.Uint64
	txExpired   atomic.Uint64
	blocks      atomic.Uint64
}

func NewStats() *Stats {
	return &Stats{
		apiCallCounts: make(map[string]uint64),
	}
}

// RecordAPICall 记录一次 API 调用
func (h *Stats) RecordAPICall(apiName string) {
	h.statsLock.Lock()
	defer h.statsLock.Unlock()

	if h.apiCallCounts == nil {
		h.apiCallCounts = make(map[string]uint64)
	}
	h.apiCallCounts[apiName]++
}

// GetAPICallStats 取 API 调用统计快照
func (h *Stats) GetAPICallStats() map[string]uint64 {
	h.statsLock.RLock()
	defer h.statsLock.RUnlock()

	stats := make(map[string]uint64, len(h.apiCallCounts))
	for api, count := range h.apiCallCounts {
		stats[api] = count
	}
	return stats
}

// 流水线计数
func (h *Stats) TxReceived()       { h.txReceived.Add(1) }
func (h *Stats) TxCommitted(n int) { h.txCommitted.Add(uint64(n)) }
func (h *Stats) TxRejected(n int)  { h.txRejected.Add(uint64(n)) }
func (h *Stats) TxExpired()        { h.txExpired.Add(1) }
func (h *Stats) BlockCommitted()   { h.blocks.Add(1) }

// PipelineSnapshot 流水线计数快照
type PipelineSnapshot struct {
	Received  uint64 `json:"received"`
	Committed uint64 `json:"committed"`
	Rejected  uint64 `json:"rejected"`
	Expired   uint64 `json:"expired"`
	Blocks    uint64 `json:"blocks"`
}

func (h *Stats) Pipeline() PipelineSnapshot {
	return PipelineSnapshot{
		Received:  h.txReceived.Load(),
		Committed: h.txCommitted.Load(),
		Rejected:  h.txRejected.Load(),
		Expired:   h.txExpired.Load(),
		Blocks:    h.blocks.Load(),
	}
}

// ChannelStat 单个 channel 的占用情况，巡检接口导出用
type ChannelStat struct {
	Name   string  `json:"name"`
	Module string  `json:"module"`
	Len    int     `json:"len"`
	Cap    int     `json:"cap"`
	Usage  float64 `json:"usage"`
}

// NewChannelStat 创建并计算使用率
func NewChannelStat(name, module string, length, capacity int) ChannelStat {
	usage := 0.0
	if capacity > 0 {
		usage = float64(length) / float64(capacity)
	}
	return ChannelStat{
		Name:   name,
		Module: module,
		Len:    length,
		Cap:    capacity,
		Usage:  usage,
	}
}
