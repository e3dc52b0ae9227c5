// executor/default_handlers.go
package executor

// RegisterDefaultHandlers 注册全部内置指令 handler
func RegisterDefaultHandlers(r *HandlerRegistry) {
	r.Register(registerDomainHandler{})
	r.Register(unregisterDomainHandler{})
	r.Register(registerAccountHandler{})
	r.Register(unregisterAccountHandler{})
	r.Register(registerAssetDefinitionHandler{})
	r.Register(unregisterAssetDefinitionHandler{})
	r.Register(mintHandler{})
	r.Register(burnHandler{})
	r.Register(transferHandler{})
	r.Register(setKeyValueHandler{})
	r.Register(removeKeyValueHandler{})
	r.Register(grantHandler{})
	r.Register(revokeHandler{})
	r.Register(registerRoleHandler{})
}
