package handlers

import (
	"net/http"
	"strconv"
)

// HandleGetBlock 按高度或哈希获取区块
func (hm *HandlerManager) HandleGetBlock(w http.ResponseWriter, r *http.Request) {
	hm.Stats.RecordAPICall("HandleGetBlock")

	if hash := r.URL.Query().Get("hash"); hash != "" {
		block, err := hm.dbManager.GetBlockByHash(hash)
		if err != nil {
			writeError(w, http.StatusNotFound, "block not found: "+hash)
			return
		}
		writeJSON(w, http.StatusOK, block)
		return
	}

	heightStr := r.URL.Query().Get("height")
	if heightStr == "" {
		writeError(w, http.StatusBadRequest, "missing 'height' or 'hash' parameter")
		return
	}
	height, err := strconv.ParseUint(heightStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid height")
		return
	}
	block, err := hm.dbManager.GetBlock(height)
	if err != nil {
		writeError(w, http.StatusNotFound, "block not found at height "+heightStr)
		return
	}
	writeJSON(w, http.StatusOK, block)
}
