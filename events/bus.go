// events/bus.go
// 进程内事件总线。发布绝不阻塞状态机：
// 订阅者队列满时丢最旧的一条，慢消费者只会丢自己的事件。
package events

import (
	"sync"
	"sync/atomic"

	"ledger/logs"
	"ledger/model"
)

// Filter 订阅过滤器；零值收全部
type Filter struct {
	TxHash string // 只要这笔交易的事件
	Blocks bool   // 只要区块事件
}

func (f Filter) match(ev *Envelope) bool {
	if f.TxHash != "" {
		return ev.Tx != nil && ev.Tx.TxHash == f.TxHash
	}
	if f.Blocks {
		return ev.Block != nil
	}
	return true
}

// Envelope 总线上的一条事件：交易状态或区块提交，二选一非 nil
type Envelope struct {
	Tx    *model.TxEvent
	Block *model.BlockEvent
}

// Subscription 一个订阅者
type Subscription struct {
	id     uint64
	filter Filter
	ch     chan *Envelope
	bus    *Bus
	once   sync.Once
}

// C 事件流通道，总线关闭或退订后关闭
func (s *Subscription) C() <-chan *Envelope {
	return s.ch
}

// Cancel 退订
func (s *Subscription) Cancel() {
	s.bus.cancel(s)
}

// Bus 事件总线
type Bus struct {
	mu        sync.RWMutex
	subs      map[uint64]*Subscription
	nextID    uint64
	queueSize int
	seq       atomic.Uint64 // 事件单调序号
	dropped   atomic.Uint64
	closed    bool
}

// NewBus queueSize 是每个订阅者的队列容量
func NewBus(queueSize int) *Bus {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Bus{
		subs:      make(map[uint64]*Subscription),
		queueSize: queueSize,
	}
}

// Subscribe 注册一个订阅者
func (b *Bus) Subscribe(filter Filter) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := &Subscription{
		id:     b.nextID,
		filter: filter,
		ch:     make(chan *Envelope, b.queueSize),
		bus:    b,
	}
	if b.closed {
		close(sub.ch)
		return sub
	}
	b.subs[sub.id] = sub
	return sub
}

func (b *Bus) cancel(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s.id]; ok {
		delete(b.subs, s.id)
		s.once.Do(func() { close(s.ch) })
	}
}

// PublishTx 发布交易状态事件。留档开启时序号已由 Journal 发好，
// 原样透传，实时订阅和回放看到的是同一个 Seq；
// 只有未编号的事件才补发总线序号。
func (b *Bus) PublishTx(ev model.TxEvent) {
	if ev.Seq == 0 {
		ev.Seq = b.seq.Add(1)
	}
	b.publish(&Envelope{Tx: &ev})
}

// PublishBlock 发布区块提交事件，补发总线序号
func (b *Bus) PublishBlock(ev model.BlockEvent) {
	if ev.Seq == 0 {
		ev.Seq = b.seq.Add(1)
	}
	b.publish(&Envelope{Block: &ev})
}

func (b *Bus) publish(env *Envelope) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		if !sub.filter.match(env) {
			continue
		}
		select {
		case sub.ch <- env:
		default:
			// 队列满：丢最旧的一条再放新的
			select {
			case <-sub.ch:
				b.dropped.Add(1)
			default:
			}
			select {
			case sub.ch <- env:
			default:
				b.dropped.Add(1)
			}
		}
	}
}

// Dropped 因慢消费者被丢弃的事件总数
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close 关闭总线并挂断全部订阅者
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		sub.once.Do(func() { close(sub.ch) })
	}
	if n := b.dropped.Load(); n > 0 {
		logs.Warn("event bus closed, %d events were dropped on slow subscribers", n)
	}
}
