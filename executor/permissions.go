// executor/permissions.go
// 权限令牌表与判定。自己动自己的东西不需要令牌；
// 跨账户操作需要对应令牌；引导类令牌只能在创世块授予。
package executor

import (
	"ledger/model"
)

// 权限令牌名。令牌名是对外契约，Grant/Revoke 的 payload 直接用它。
const (
	PermMintAssets       = "can_mint_assets"
	PermBurnAssets       = "can_burn_assets"
	PermTransferAssets   = "can_transfer_assets"
	PermSetKeyValue      = "can_set_key_value"
	PermUnregisterDomain = "can_unregister_domain"
	PermUnregisterAccount = "can_unregister_account"

	PermManagePermissions = "can_manage_permissions"
	PermManageRoles       = "can_manage_roles"
)

// knownPermissions 全量令牌表；表外令牌 Grant 即 UnknownPermission
var knownPermissions = map[string]bool{
	PermMintAssets:        true,
	PermBurnAssets:        true,
	PermTransferAssets:    true,
	PermSetKeyValue:       true,
	PermUnregisterDomain:  true,
	PermUnregisterAccount: true,
	PermManagePermissions: true,
	PermManageRoles:       true,
}

// genesisOnlyPermissions 只能在创世块授予的引导令牌
var genesisOnlyPermissions = map[string]bool{
	PermManagePermissions: true,
	PermManageRoles:       true,
}

// KnownPermission 令牌是否在表内
func KnownPermission(token string) bool {
	return knownPermissions[token]
}

// hasPermission 直接持有或经角色持有
func (ctx *Context) hasPermission(acc *model.Account, token string) (bool, error) {
	if acc.HasPermission(token) {
		return true, nil
	}
	for _, rn := range acc.Roles {
		role, ok, err := ctx.View.Role(rn)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}
		for _, p := range role.Permissions {
			if p == token {
				return true, nil
			}
		}
	}
	return false, nil
}

// requirePermission 创世块内放行一切；否则本人放行，
// 非本人要求持有令牌
func (ctx *Context) requirePermission(owner model.AccountID, token, detail string) error {
	if ctx.Genesis || owner == ctx.Authority {
		return nil
	}
	return ctx.requireToken(token, detail)
}

// requireToken 不看归属，直接要求发起方持有令牌（创世块放行）
func (ctx *Context) requireToken(token, detail string) error {
	if ctx.Genesis {
		return nil
	}
	authority, err := ctx.View.Account(ctx.Authority.String())
	if err != nil {
		return err
	}
	ok, err := ctx.hasPermission(authority, token)
	if err != nil {
		return err
	}
	if !ok {
		return errNotPermitted(detail)
	}
	return nil
}
