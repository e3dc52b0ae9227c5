// events/notifier.go
package events

import (
	"ledger/logs"
	"ledger/model"
)

// Notifier 总线 + 可选留档的统一出口。
// 状态机只跟它打交道，留档失败只记日志不反压提交路径。
type Notifier struct {
	bus     *Bus
	journal *Journal
}

func NewNotifier(bus *Bus, journal *Journal) *Notifier {
	return &Notifier{bus: bus, journal: journal}
}

// Bus 暴露总线给 API 层做订阅
func (n *Notifier) Bus() *Bus {
	return n.bus
}

// Journal 可能为 nil（留档关闭时）
func (n *Notifier) Journal() *Journal {
	return n.journal
}

// TxStatus 发出一条交易状态迁移
func (n *Notifier) TxStatus(txHash string, status model.TxStatus, reason *model.RejectionReason, height uint64) {
	ev := model.TxEvent{TxHash: txHash, Status: status, Height: height}
	if reason != nil {
		ev.Kind = reason.Kind
		ev.Reason = reason.Message
	}
	if n.journal != nil {
		if _, err := n.journal.Append(&ev); err != nil {
			logs.Warn("journal append for tx %s: %v", txHash, err)
		}
	}
	n.bus.PublishTx(ev)
}

// BlockCommitted 发出一条区块提交事件
func (n *Notifier) BlockCommitted(b *model.Block) {
	n.bus.PublishBlock(model.BlockEvent{
		Height:    b.Height,
		Hash:      b.Hash,
		Committed: len(b.Transactions),
		Rejected:  len(b.Rejected),
	})
}

// Close 先关总线再关留档
func (n *Notifier) Close() {
	n.bus.Close()
	if n.journal != nil {
		n.journal.Close()
	}
}
