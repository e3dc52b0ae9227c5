package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"ledger/model"
	"ledger/txpool"
)

// HandleTx 处理交易提交
func (hm *HandlerManager) HandleTx(w http.ResponseWriter, r *http.Request) {
	hm.Stats.RecordAPICall("HandleTx")
	start := time.Now()
	defer func() { hm.Latency.Record("HandleTx", time.Since(start)) }()

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	tx := &model.Transaction{}
	if err := json.Unmarshal(bodyBytes, tx); err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction json")
		return
	}

	hm.Stats.TxReceived()
	if err := hm.txPool.Submit(tx); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, txpool.ErrPoolFull) || errors.Is(err, txpool.ErrQueueFull) {
			status = http.StatusTooManyRequests
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"tx_hash": tx.Hash(),
	})
}

// HandleTxStatus 查询单笔交易的当前状态
func (hm *HandlerManager) HandleTxStatus(w http.ResponseWriter, r *http.Request) {
	hm.Stats.RecordAPICall("HandleTxStatus")
	hash := r.URL.Query().Get("hash")
	if hash == "" {
		writeError(w, http.StatusBadRequest, "missing 'hash' parameter")
		return
	}
	ev, ok := hm.txPool.Status(hash)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown transaction")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}
