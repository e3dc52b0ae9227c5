// wsv/stateview.go
// 世界状态视图（WSV）的 staged copy 实现：overlay + 变更日志。
// 预执行期间所有写只进 overlay，权威状态完全不动；
// Snapshot/Revert 支撑单条指令失败时的整笔回滚，
// Diff 导出写集给区块提交落库。
package wsv

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

var ErrInvalidSnapshot = errors.New("invalid snapshot index")

// ReadThroughFn overlay 未命中时如何读底层权威状态；
// 键不存在返回 (nil, nil)
type ReadThroughFn func(key string) ([]byte, error)

// ScanFn 底层权威状态的前缀扫描
type ScanFn func(prefix string) (map[string][]byte, error)

// WriteOp "要怎么改状态"的清单
type WriteOp struct {
	Key      string // 完整的 key（包括命名空间前缀）
	Value    []byte // 序列化后的值
	Del      bool   // true 表示删除操作
	Category string // 数据分类：domain, account, asset, block, meta 等
}

// StateView 状态视图接口
type StateView interface {
	// 读/写/删某个 key；写入只写进这个视图，不落底层 DB
	Get(key string) ([]byte, bool, error)
	Set(key string, val []byte)
	SetWithCategory(key string, val []byte, category string)
	Del(key string)
	// 快照点与回滚，实现失败回滚与预执行幂等
	Snapshot() int
	Revert(snap int) error
	// 导出预执行期间累积的写集，给真正落库用
	Diff() []WriteOp
	// 前缀扫描（合并 overlay 与底层）
	Scan(prefix string) (map[string][]byte, error)
}

// ovVal overlay 中的值
type ovVal struct {
	val      []byte
	exist    bool // false 表示已删除
	category string
}

// change 变更记录，用于回滚
type change struct {
	key     string
	prev    ovVal
	hasPrev bool
}

// overlayStateView StateView 的内存实现
type overlayStateView struct {
	mu        sync.RWMutex
	read      ReadThroughFn
	scan      ScanFn
	overlay   map[string]ovVal
	changelog []change
}

// New 创建新的 StateView
func New(read ReadThroughFn, scan ScanFn) StateView {
	return &overlayStateView{
		read:      read,
		scan:      scan,
		overlay:   make(map[string]ovVal, 1024),
		changelog: make([]change, 0, 1024),
	}
}

// Layer 在已有视图之上再叠一层：外层的写不影响内层。
// 区块提交时用块级视图做底，逐笔交易各开一层。
func Layer(base StateView) StateView {
	return New(
		func(key string) ([]byte, error) {
			val, ok, err := base.Get(key)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, nil
			}
			return val, nil
		},
		base.Scan,
	)
}

func (s *overlayStateView) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.overlay[key]; ok {
		if !v.exist { // 已被标记删除
			return nil, false, nil
		}
		// 返回副本，避免外部修改
		result := make([]byte, len(v.val))
		copy(result, v.val)
		return result, true, nil
	}

	// 读穿到底层存储
	val, err := s.read(key)
	if err != nil {
		return nil, false, err
	}
	if val == nil {
		return nil, false, nil
	}
	return val, true, nil
}

func (s *overlayStateView) Set(key string, val []byte) {
	s.SetWithCategory(key, val, "")
}

func (s *overlayStateView) SetWithCategory(key string, val []byte, category string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, has := s.overlay[key]
	s.changelog = append(s.changelog, change{key: key, prev: prev, hasPrev: has})
	valCopy := make([]byte, len(val))
	copy(valCopy, val)
	s.overlay[key] = ovVal{val: valCopy, exist: true, category: category}
}

func (s *overlayStateView) Del(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, has := s.overlay[key]
	s.changelog = append(s.changelog, change{key: key, prev: prev, hasPrev: has})
	s.overlay[key] = ovVal{val: nil, exist: false}
}

func (s *overlayStateView) Snapshot() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.changelog)
}

func (s *overlayStateView) Revert(snap int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap < 0 || snap > len(s.changelog) {
		return ErrInvalidSnapshot
	}

	// 倒序回滚到 snap 之前的状态
	for i := len(s.changelog) - 1; i >= snap; i-- {
		c := s.changelog[i]
		if c.hasPrev {
			s.overlay[c.key] = c.prev
		} else {
			delete(s.overlay, c.key)
		}
	}
	s.changelog = s.changelog[:snap]
	return nil
}

func (s *overlayStateView) Diff() []WriteOp {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]WriteOp, 0, len(s.overlay))
	for k, v := range s.overlay {
		if v.exist {
			valCopy := make([]byte, len(v.val))
			copy(valCopy, v.val)
			out = append(out, WriteOp{Key: k, Value: valCopy, Category: v.category})
		} else {
			out = append(out, WriteOp{Key: k, Del: true, Category: v.category})
		}
	}
	// 写集按 key 排序，保证各节点落库顺序一致
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (s *overlayStateView) Scan(prefix string) (map[string][]byte, error) {
	var base map[string][]byte
	var err error
	if s.scan != nil {
		base, err = s.scan(prefix)
		if err != nil {
			return nil, err
		}
	}
	merged := make(map[string][]byte, len(base))
	for k, v := range base {
		merged[k] = v
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.overlay {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if v.exist {
			valCopy := make([]byte, len(v.val))
			copy(valCopy, v.val)
			merged[k] = valCopy
		} else {
			delete(merged, k)
		}
	}
	return merged, nil
}
