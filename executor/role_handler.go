// executor/role_handler.go
// RegisterRole。角色是权限令牌的命名捆包，账户经 Grant 挂上角色后
// 相当于持有其中全部令牌（展开在 hasPermission 里做）。
package executor

import (
	"ledger/model"
)

type registerRoleHandler struct{}

func (registerRoleHandler) Kind() string { return model.KindRegisterRole }

func (registerRoleHandler) Apply(ctx *Context, ins *model.Instruction) error {
	p := ins.RegisterRole
	if err := ValidateName(p.Name); err != nil {
		return err
	}
	if len(p.Permissions) == 0 {
		return NewError(KindStructural, "Role must carry at least one permission")
	}
	for _, token := range p.Permissions {
		if !KnownPermission(token) {
			return errUnknownPermission(token)
		}
		// 含引导令牌的角色只能在创世块定义
		if !ctx.Genesis && genesisOnlyPermissions[token] {
			return errGenesisOnly()
		}
	}
	if err := ctx.requireToken(PermManageRoles,
		"cannot register a role without can_manage_roles"); err != nil {
		return err
	}
	if _, ok, err := ctx.View.Role(p.Name); err != nil {
		return err
	} else if ok {
		return errRepetition("role", p.Name)
	}
	return ctx.View.PutRole(&model.Role{Name: p.Name, Permissions: p.Permissions})
}
