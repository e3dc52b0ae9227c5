// keys/keys.go
// 统一的 Key 定义包，供 wsv/db/chain 模块共同使用
package keys

import (
	"fmt"
)

// ===================== 版本控制 =====================
// 全局 Key 版本前缀（"v1" → 产出 "v1_<key>"）。
const KeyVersion = "v1"

// withVer 把版本号拼到最前面（下划线风格：v1_<...>）
func withVer(s string) string {
	if KeyVersion == "" {
		return s
	}
	return KeyVersion + "_" + s
}

// ===================== 实体相关 =====================

// KeyDomain 域
// 例：v1_domain_wonderland
func KeyDomain(name string) string {
	return withVer("domain_" + name)
}

// KeyDomainPrefix 域全量扫描前缀
func KeyDomainPrefix() string {
	return withVer("domain_")
}

// KeyAccount 账户
// 例：v1_account_ed0120...@wonderland
func KeyAccount(id string) string {
	return withVer("account_" + id)
}

// KeyAccountPrefix 账户全量扫描前缀
func KeyAccountPrefix() string {
	return withVer("account_")
}

// KeyAccountsInDomainPrefix 某域下账户扫描前缀。
// 账户 id 形如 <sig>@<domain>，域在尾部，扫描用反排索引键。
func KeyAccountIndexByDomain(domain, signatory string) string {
	return withVer(fmt.Sprintf("domacct_%s_%s", domain, signatory))
}

func KeyAccountIndexByDomainPrefix(domain string) string {
	return withVer(fmt.Sprintf("domacct_%s_", domain))
}

// KeyAssetDefinition 资产定义
// 例：v1_assetdef_coin#wonderland
func KeyAssetDefinition(id string) string {
	return withVer("assetdef_" + id)
}

func KeyAssetDefinitionPrefix() string {
	return withVer("assetdef_")
}

// KeyAsset 资产实例
// 例：v1_asset_coin##ed0120...@wonderland
func KeyAsset(id string) string {
	return withVer("asset_" + id)
}

func KeyAssetPrefix() string {
	return withVer("asset_")
}

// KeyRole 角色
func KeyRole(name string) string {
	return withVer("role_" + name)
}

func KeyRolePrefix() string {
	return withVer("role_")
}

// StatePrefixes 参与状态哈希的全部实体命名空间
func StatePrefixes() []string {
	return []string{
		KeyDomainPrefix(),
		KeyAccountPrefix(),
		KeyAssetDefinitionPrefix(),
		KeyAssetPrefix(),
		KeyRolePrefix(),
	}
}

// ===================== 区块相关 =====================

// KeyBlockData 区块数据，按高度存
// 例：v1_block_42
func KeyBlockData(height uint64) string {
	return withVer(fmt.Sprintf("block_%d", height))
}

// KeyBlockIDToHeight 区块哈希到高度的映射
// 例：v1_blockid_<hash>
func KeyBlockIDToHeight(hash string) string {
	return withVer("blockid_" + hash)
}

// KeyLatestBlockHeight 最新高度
func KeyLatestBlockHeight() string {
	return withVer("latest_block_height")
}

// KeyCommitMarker 某高度的提交完成标记，恢复边界
// 例：v1_commit_h_42
func KeyCommitMarker(height uint64) string {
	return withVer(fmt.Sprintf("commit_h_%d", height))
}

// KeyBlockDiff 某高度区块的全量写集留档，崩溃恢复时重放
func KeyBlockDiff(height uint64) string {
	return withVer(fmt.Sprintf("blockdiff_%d", height))
}

// ===================== 交易相关 =====================

// KeyTx 已入块交易
func KeyTx(txHash string) string {
	return withVer("tx_" + txHash)
}

// KeyAppliedTx 交易已应用标记（幂等提交用），值为区块哈希
func KeyAppliedTx(txHash string) string {
	return withVer("applied_tx_" + txHash)
}

// KeyTxHeight 交易哈希到入块高度
func KeyTxHeight(txHash string) string {
	return withVer("txheight_" + txHash)
}

// KeyTxRejection 被拒交易的拒绝原因留档。
// 终态查询靠它区分 COMMITTED/REJECTED：两类交易都有高度索引。
func KeyTxRejection(txHash string) string {
	return withVer("txreject_" + txHash)
}

// KeyPendingTx 等待入块的交易（重启恢复用）
func KeyPendingTx(txHash string) string {
	return withVer("pending_tx_" + txHash)
}

func KeyPendingTxPrefix() string {
	return withVer("pending_tx_")
}
