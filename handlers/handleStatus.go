package handlers

import (
	"net/http"

	"ledger/stats"
)

// StatusResponse 节点状态汇总
type StatusResponse struct {
	Height       uint64                          `json:"height"`
	PendingTxs   int                             `json:"pending_txs"`
	StateHash    string                          `json:"state_hash,omitempty"`
	Pipeline     stats.PipelineSnapshot          `json:"pipeline"`
	APICalls     map[string]uint64               `json:"api_calls"`
	Latency      map[string]stats.LatencySummary `json:"latency"`
	Channels     []stats.ChannelStat             `json:"channels"`
	DroppedEvent uint64                          `json:"dropped_events"`
}

// HandleStatus 节点状态查询
func (hm *HandlerManager) HandleStatus(w http.ResponseWriter, r *http.Request) {
	hm.Stats.RecordAPICall("HandleStatus")

	resp := StatusResponse{
		Height:     hm.assembler.Height(),
		PendingTxs: hm.txPool.PendingCount(),
		Pipeline:   hm.Stats.Pipeline(),
		APICalls:   hm.Stats.GetAPICallStats(),
		Latency:    hm.Latency.Snapshot(false),
	}
	if r.URL.Query().Get("statehash") == "true" {
		if h, err := hm.assembler.StateHash(); err == nil {
			resp.StateHash = h
		}
	}
	qLen, qCap := hm.dbManager.QueueDepth()
	resp.Channels = append(resp.Channels, stats.NewChannelStat("writeQueue", "db", qLen, qCap))
	resp.DroppedEvent = hm.notifier.Bus().Dropped()

	writeJSON(w, http.StatusOK, resp)
}

// HandleHealth 存活探针
func (hm *HandlerManager) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
