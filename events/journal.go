// events/journal.go
// 可回放事件日志。独立于权威状态库，单独开一个 badger 实例，
// 全局序号用 badger Sequence 发。订阅断线后按交易哈希回放历史。
package events

import (
	"encoding/binary"
	"fmt"
	"os"

	badger "github.com/dgraph-io/badger/v4"

	"ledger/logs"
	"ledger/model"
)

// 键布局：
//   ev_<seq8>          -> 事件本体（按全局顺序回放）
//   evtx_<hash>_<seq8> -> 空值（按交易哈希二级索引）
const (
	journalKeyPrefix = "ev_"
	journalTxPrefix  = "evtx_"
)

// Journal 事件留档
type Journal struct {
	db  *badger.DB
	seq *badger.Sequence
}

// OpenJournal 打开（必要时创建）事件日志库
func OpenJournal(dir string, bandwidth uint64) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if bandwidth == 0 {
		bandwidth = 1000
	}
	seq, err := db.GetSequence([]byte("journal_seq"), bandwidth)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("journal sequence: %w", err)
	}
	return &Journal{db: db, seq: seq}, nil
}

func seqKey(seq uint64) []byte {
	key := make([]byte, len(journalKeyPrefix)+8)
	copy(key, journalKeyPrefix)
	binary.BigEndian.PutUint64(key[len(journalKeyPrefix):], seq)
	return key
}

func txIndexKey(txHash string, seq uint64) []byte {
	key := make([]byte, len(journalTxPrefix)+len(txHash)+1+8)
	n := copy(key, journalTxPrefix)
	n += copy(key[n:], txHash)
	key[n] = '_'
	binary.BigEndian.PutUint64(key[n+1:], seq)
	return key
}

// Append 留档一条交易事件，返回日志序号。
// 序号写回事件本体，总线透传它，实时和回放共用同一套编号。
func (j *Journal) Append(ev *model.TxEvent) (uint64, error) {
	n, err := j.seq.Next()
	if err != nil {
		return 0, err
	}
	seq := n + 1 // badger Sequence 从 0 起发，0 留作"未编号"
	ev.Seq = seq
	data, err := model.Marshal(ev)
	if err != nil {
		return 0, err
	}
	err = j.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(seqKey(seq), data); err != nil {
			return err
		}
		return txn.Set(txIndexKey(ev.TxHash, seq), nil)
	})
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// ReplayTx 按交易哈希回放其全部历史事件，按序号升序
func (j *Journal) ReplayTx(txHash string) ([]*model.TxEvent, error) {
	prefix := []byte(journalTxPrefix + txHash + "_")
	var out []*model.TxEvent
	err := j.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			seq := binary.BigEndian.Uint64(key[len(key)-8:])
			item, err := txn.Get(seqKey(seq))
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				ev := &model.TxEvent{}
				if uerr := model.Unmarshal(val, ev); uerr != nil {
					return uerr
				}
				out = append(out, ev)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReplayFrom 按全局序号回放 [from, from+limit) 的事件
func (j *Journal) ReplayFrom(from uint64, limit int) ([]*model.TxEvent, error) {
	var out []*model.TxEvent
	err := j.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(journalKeyPrefix)})
		defer it.Close()
		for it.Seek(seqKey(from)); it.Valid(); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			err := it.Item().Value(func(val []byte) error {
				ev := &model.TxEvent{}
				if uerr := model.Unmarshal(val, ev); uerr != nil {
					return uerr
				}
				out = append(out, ev)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close 释放序号余量并关库
func (j *Journal) Close() {
	if err := j.seq.Release(); err != nil {
		logs.Warn("release journal sequence: %v", err)
	}
	if err := j.db.Close(); err != nil {
		logs.Warn("close journal: %v", err)
	}
}
