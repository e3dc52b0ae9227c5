// executor/registry.go
// 指令执行采用 handler 注册表：每种指令一个 Handler，
// 按 Instruction.Kind() 路由。新增指令只需注册新 handler。
package executor

import (
	"ledger/model"
)

// Context 单笔交易的执行上下文
type Context struct {
	View      *View
	Authority model.AccountID // 交易发起账户
	Genesis   bool            // 是否处于创世块执行
	Height    uint64          // 正在执行的区块高度
}

// Handler 单类指令的执行器
type Handler interface {
	Kind() string
	Apply(ctx *Context, ins *model.Instruction) error
}

// HandlerRegistry kind -> Handler 路由表
type HandlerRegistry struct {
	handlers map[string]Handler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string]Handler)}
}

// Register 注册 handler；重复注册后注册的覆盖先注册的
func (r *HandlerRegistry) Register(h Handler) {
	r.handlers[h.Kind()] = h
}

// Lookup 按指令种类找 handler
func (r *HandlerRegistry) Lookup(kind string) (Handler, bool) {
	h, ok := r.handlers[kind]
	return h, ok
}

// Dispatch 路由并执行一条指令
func (r *HandlerRegistry) Dispatch(ctx *Context, ins *model.Instruction) error {
	kind := ins.Kind()
	if kind == "" {
		return NewError(KindStructural, "Instruction payload is empty")
	}
	h, ok := r.handlers[kind]
	if !ok {
		return NewError(KindStructural, "No handler registered for instruction '%s'", kind)
	}
	return h.Apply(ctx, ins)
}

// Kinds 已注册的指令种类（排序交给调用方）
func (r *HandlerRegistry) Kinds() []string {
	out := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	return out
}
