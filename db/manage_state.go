// db/manage_state.go
// 账本实体的读取，直达 badger，查询接口用。
// 实体没有直写入口：所有权威状态变更都以区块写集的形式
// 经 chain 的两段式提交灌进写队列。
package db

import (
	"ledger/keys"
	"ledger/model"
)

// GetDomain 读取域
func (manager *Manager) GetDomain(name string) (*model.Domain, error) {
	val, err := manager.Read(keys.KeyDomain(name))
	if err != nil {
		return nil, err
	}
	d := &model.Domain{}
	if err := model.Unmarshal([]byte(val), d); err != nil {
		return nil, err
	}
	return d, nil
}

// GetAccount 读取账户
func (manager *Manager) GetAccount(id string) (*model.Account, error) {
	val, err := manager.Read(keys.KeyAccount(id))
	if err != nil {
		return nil, err
	}
	acc := &model.Account{}
	if err := model.Unmarshal([]byte(val), acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// GetAssetDefinition 读取资产定义
func (manager *Manager) GetAssetDefinition(id string) (*model.AssetDefinition, error) {
	val, err := manager.Read(keys.KeyAssetDefinition(id))
	if err != nil {
		return nil, err
	}
	def := &model.AssetDefinition{}
	if err := model.Unmarshal([]byte(val), def); err != nil {
		return nil, err
	}
	return def, nil
}

// GetAsset 读取资产实例
func (manager *Manager) GetAsset(id string) (*model.Asset, error) {
	val, err := manager.Read(keys.KeyAsset(id))
	if err != nil {
		return nil, err
	}
	asset := &model.Asset{}
	if err := model.Unmarshal([]byte(val), asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// ListAssets 全量资产扫描，可按资产 id 精确过滤
func (manager *Manager) ListAssets(filterID string) ([]*model.Asset, error) {
	kvs, err := manager.Scan(keys.KeyAssetPrefix())
	if err != nil {
		return nil, err
	}
	var out []*model.Asset
	for _, v := range kvs {
		asset := &model.Asset{}
		if err := model.Unmarshal(v, asset); err != nil {
			continue
		}
		if filterID != "" && asset.ID.String() != filterID {
			continue
		}
		out = append(out, asset)
	}
	return out, nil
}

// ListDomains 全量域扫描
func (manager *Manager) ListDomains() ([]*model.Domain, error) {
	kvs, err := manager.Scan(keys.KeyDomainPrefix())
	if err != nil {
		return nil, err
	}
	var out []*model.Domain
	for _, v := range kvs {
		d := &model.Domain{}
		if err := model.Unmarshal(v, d); err != nil {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// GetRole 读取角色
func (manager *Manager) GetRole(name string) (*model.Role, error) {
	val, err := manager.Read(keys.KeyRole(name))
	if err != nil {
		return nil, err
	}
	role := &model.Role{}
	if err := model.Unmarshal([]byte(val), role); err != nil {
		return nil, err
	}
	return role, nil
}
