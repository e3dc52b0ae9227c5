// handlers/handleEvents.go
// 事件流接口。/events 长连接推送（JSON 行），
// /events/replay 从留档日志里按交易哈希或全局序号补历史。
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ledger/events"
)

// HandleEvents 订阅实时事件流
func (hm *HandlerManager) HandleEvents(w http.ResponseWriter, r *http.Request) {
	hm.Stats.RecordAPICall("HandleEvents")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	filter := events.Filter{
		TxHash: r.URL.Query().Get("tx"),
		Blocks: r.URL.Query().Get("blocks") == "true",
	}
	sub := hm.notifier.Bus().Subscribe(filter)
	defer sub.Cancel()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	enc := json.NewEncoder(w)
	for {
		select {
		case <-r.Context().Done():
			return
		case env, open := <-sub.C():
			if !open {
				return
			}
			if err := enc.Encode(env); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// HandleEventsReplay 回放历史事件
func (hm *HandlerManager) HandleEventsReplay(w http.ResponseWriter, r *http.Request) {
	hm.Stats.RecordAPICall("HandleEventsReplay")

	journal := hm.notifier.Journal()
	if journal == nil {
		writeError(w, http.StatusNotImplemented, "event journal disabled")
		return
	}

	if tx := r.URL.Query().Get("tx"); tx != "" {
		evs, err := journal.ReplayTx(tx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "replay failed")
			return
		}
		writeJSON(w, http.StatusOK, evs)
		return
	}

	from, _ := strconv.ParseUint(r.URL.Query().Get("from"), 10, 64)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 10000 {
		limit = 1000
	}
	evs, err := journal.ReplayFrom(from, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "replay failed")
		return
	}
	writeJSON(w, http.StatusOK, evs)
}
