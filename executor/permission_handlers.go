// executor/permission_handlers.go
// Grant/Revoke。目标既可以是单个权限令牌也可以是角色。
// 授予能力受非扩权约束：创世块外，发起方只能授出自己也持有的令牌，
// 引导类令牌（及捆着它们的角色）一律只在创世块授。
package executor

import (
	"ledger/model"
)

// grantHandler 授予权限令牌
type grantHandler struct{}

func (grantHandler) Kind() string { return model.KindGrant }

func (grantHandler) Apply(ctx *Context, ins *model.Instruction) error {
	p := ins.Grant
	if (p.Permission == "") == (p.Role == "") {
		return NewError(KindStructural, "Grant must name exactly one of a permission or a role")
	}
	if p.Permission != "" && !KnownPermission(p.Permission) {
		return errUnknownPermission(p.Permission)
	}
	destRaw, err := model.ParseAccountID(p.To)
	if err != nil {
		return errInvalidCharacter("grant target must be '<signatory>@<domain>'")
	}
	dest, err := ctx.View.Account(destRaw.String())
	if err != nil {
		return err
	}
	if p.Role != "" {
		role, ok, rerr := ctx.View.Role(p.Role)
		if rerr != nil {
			return rerr
		}
		if !ok {
			return errNoRole(p.Role)
		}
		if !ctx.Genesis {
			// 角色里捆着引导令牌的话，挂角色同样只许在创世块
			for _, token := range role.Permissions {
				if genesisOnlyPermissions[token] {
					return errGenesisOnly()
				}
			}
			if terr := ctx.requireToken(PermManageRoles,
				"cannot grant a role without can_manage_roles"); terr != nil {
				return terr
			}
		}
		if dest.HasRole(p.Role) {
			return errRepetition("role", p.Role)
		}
		dest.Roles = append(dest.Roles, p.Role)
		return ctx.View.PutAccount(dest)
	}
	if !ctx.Genesis {
		if genesisOnlyPermissions[p.Permission] {
			return errGenesisOnly()
		}
		// 非扩权：授出的令牌自己必须持有，或持有权限管理令牌
		authority, aerr := ctx.View.Account(ctx.Authority.String())
		if aerr != nil {
			return aerr
		}
		manage, merr := ctx.hasPermission(authority, PermManagePermissions)
		if merr != nil {
			return merr
		}
		if !manage {
			held, herr := ctx.hasPermission(authority, p.Permission)
			if herr != nil {
				return herr
			}
			if !held {
				return errNotPermitted("cannot grant a permission the grantor does not hold")
			}
		}
	}
	if dest.HasPermission(p.Permission) {
		return errRepetition("permission", p.Permission)
	}
	dest.Permissions = append(dest.Permissions, p.Permission)
	return ctx.View.PutAccount(dest)
}

// revokeHandler 收回权限令牌
type revokeHandler struct{}

func (revokeHandler) Kind() string { return model.KindRevoke }

func (revokeHandler) Apply(ctx *Context, ins *model.Instruction) error {
	p := ins.Revoke
	if (p.Permission == "") == (p.Role == "") {
		return NewError(KindStructural, "Revoke must name exactly one of a permission or a role")
	}
	if p.Permission != "" && !KnownPermission(p.Permission) {
		return errUnknownPermission(p.Permission)
	}
	destRaw, err := model.ParseAccountID(p.To)
	if err != nil {
		return errInvalidCharacter("revoke target must be '<signatory>@<domain>'")
	}
	dest, err := ctx.View.Account(destRaw.String())
	if err != nil {
		return err
	}
	if p.Role != "" {
		if !ctx.Genesis && destRaw != ctx.Authority {
			if terr := ctx.requireToken(PermManageRoles,
				"cannot revoke another account's role without can_manage_roles"); terr != nil {
				return terr
			}
		}
		if !dest.HasRole(p.Role) {
			return errNotPermitted("account does not hold role '" + p.Role + "'")
		}
		kept := dest.Roles[:0]
		for _, r := range dest.Roles {
			if r != p.Role {
				kept = append(kept, r)
			}
		}
		dest.Roles = kept
		return ctx.View.PutAccount(dest)
	}
	if !ctx.Genesis && destRaw != ctx.Authority {
		if err := ctx.requireToken(PermManagePermissions,
			"cannot revoke another account's permission without can_manage_permissions"); err != nil {
			return err
		}
	}
	if !dest.HasPermission(p.Permission) {
		return errNotPermitted("account does not hold permission '" + p.Permission + "'")
	}
	kept := dest.Permissions[:0]
	for _, t := range dest.Permissions {
		if t != p.Permission {
			kept = append(kept, t)
		}
	}
	dest.Permissions = kept
	return ctx.View.PutAccount(dest)
}
