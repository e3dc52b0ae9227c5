package handlers

import (
	"encoding/json"
	"net/http"

	"ledger/chain"
	"ledger/db"
	"ledger/events"
	"ledger/logs"
	"ledger/model"
	"ledger/stats"
	"ledger/txpool"
)

// HandlerManager 管理所有HTTP处理器及其依赖
type HandlerManager struct {
	dbManager *db.Manager
	assembler *chain.Assembler
	txPool    *txpool.TxPool
	notifier  *events.Notifier
	port      string

	// 统计相关字段
	Stats   *stats.Stats
	Latency *stats.LatencyRecorder
}

// NewHandlerManager 创建新的处理器管理器
func NewHandlerManager(
	dbMgr *db.Manager,
	assembler *chain.Assembler,
	txPool *txpool.TxPool,
	notifier *events.Notifier,
	port string,
) *HandlerManager {
	return &HandlerManager{
		dbManager: dbMgr,
		assembler: assembler,
		txPool:    txPool,
		notifier:  notifier,
		port:      port,
		Stats:     stats.NewStats(),
		Latency:   stats.NewLatencyRecorder(4096),
	}
}

// TrackPipeline 挂到事件总线上累积流水线计数，stop 关闭后退出
func (hm *HandlerManager) TrackPipeline(stop <-chan struct{}) {
	sub := hm.notifier.Bus().Subscribe(events.Filter{})
	go func() {
		defer sub.Cancel()
		for {
			select {
			case <-stop:
				return
			case env, open := <-sub.C():
				if !open {
					return
				}
				switch {
				case env.Block != nil:
					hm.Stats.BlockCommitted()
					hm.Stats.TxCommitted(env.Block.Committed)
					hm.Stats.TxRejected(env.Block.Rejected)
				case env.Tx != nil && env.Tx.Status == model.StatusExpired:
					hm.Stats.TxExpired()
				}
			}
		}
	}()
}

// RegisterRoutes 注册所有路由
func (hm *HandlerManager) RegisterRoutes(mux *http.ServeMux) {
	// 交易提交与查询
	mux.HandleFunc("/tx", hm.HandleTx)
	mux.HandleFunc("/txstatus", hm.HandleTxStatus)
	// 状态查询
	mux.HandleFunc("/getblock", hm.HandleGetBlock)
	mux.HandleFunc("/getdomain", hm.HandleGetDomain)
	mux.HandleFunc("/listdomains", hm.HandleListDomains)
	mux.HandleFunc("/getaccount", hm.HandleGetAccount)
	mux.HandleFunc("/getasset", hm.HandleGetAsset)
	mux.HandleFunc("/getassets", hm.HandleGetAssets)
	mux.HandleFunc("/getassetdefinition", hm.HandleGetAssetDefinition)
	mux.HandleFunc("/getrole", hm.HandleGetRole)
	// 事件订阅与回放
	mux.HandleFunc("/events", hm.HandleEvents)
	mux.HandleFunc("/events/replay", hm.HandleEventsReplay)
	// 节点状态
	mux.HandleFunc("/status", hm.HandleStatus)
	mux.HandleFunc("/health", hm.HandleHealth)
}

// writeJSON 统一的 JSON 响应出口
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logs.Debug("[Handlers] write response: %v", err)
	}
}

// writeError 统一错误响应
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
