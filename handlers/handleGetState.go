// handlers/handleGetState.go
// 实体查询接口。读权威状态库，不经过 WSV 叠加视图：
// 查询语义就是"最近一次提交后的样子"。
package handlers

import (
	"net/http"
)

// HandleGetDomain 查询域
func (hm *HandlerManager) HandleGetDomain(w http.ResponseWriter, r *http.Request) {
	hm.Stats.RecordAPICall("HandleGetDomain")
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing 'name' parameter")
		return
	}
	d, err := hm.dbManager.GetDomain(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "domain not found: "+name)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// HandleGetAccount 查询账户
func (hm *HandlerManager) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	hm.Stats.RecordAPICall("HandleGetAccount")
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing 'id' parameter")
		return
	}
	acc, err := hm.dbManager.GetAccount(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "account not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

// HandleGetAsset 查询单个资产实例
func (hm *HandlerManager) HandleGetAsset(w http.ResponseWriter, r *http.Request) {
	hm.Stats.RecordAPICall("HandleGetAsset")
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing 'id' parameter")
		return
	}
	asset, err := hm.dbManager.GetAsset(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "asset not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

// HandleGetAssetDefinition 查询资产定义
func (hm *HandlerManager) HandleGetAssetDefinition(w http.ResponseWriter, r *http.Request) {
	hm.Stats.RecordAPICall("HandleGetAssetDefinition")
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing 'id' parameter")
		return
	}
	def, err := hm.dbManager.GetAssetDefinition(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "asset definition not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// HandleGetRole 查询角色
func (hm *HandlerManager) HandleGetRole(w http.ResponseWriter, r *http.Request) {
	hm.Stats.RecordAPICall("HandleGetRole")
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing 'name' parameter")
		return
	}
	role, err := hm.dbManager.GetRole(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "role not found: "+name)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

// HandleListDomains 列出全部域
func (hm *HandlerManager) HandleListDomains(w http.ResponseWriter, r *http.Request) {
	hm.Stats.RecordAPICall("HandleListDomains")
	domains, err := hm.dbManager.ListDomains()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list domains failed")
		return
	}
	writeJSON(w, http.StatusOK, domains)
}

// HandleGetAssets 列出资产，可按定义过滤
func (hm *HandlerManager) HandleGetAssets(w http.ResponseWriter, r *http.Request) {
	hm.Stats.RecordAPICall("HandleGetAssets")
	assets, err := hm.dbManager.ListAssets(r.URL.Query().Get("definition"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list assets failed")
		return
	}
	writeJSON(w, http.StatusOK, assets)
}
