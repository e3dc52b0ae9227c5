package events

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ledger/model"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := OpenJournal(t.TempDir(), 10)
	require.NoError(t, err)
	t.Cleanup(j.Close)
	return j
}

func TestJournalAppendAndReplayTx(t *testing.T) {
	j := openTestJournal(t)

	_, err := j.Append(&model.TxEvent{TxHash: "aaa", Status: model.StatusQueued})
	require.NoError(t, err)
	_, err = j.Append(&model.TxEvent{TxHash: "bbb", Status: model.StatusQueued})
	require.NoError(t, err)
	_, err = j.Append(&model.TxEvent{TxHash: "aaa", Status: model.StatusCommitted, Height: 5})
	require.NoError(t, err)

	evs, err := j.ReplayTx("aaa")
	require.NoError(t, err)
	require.Len(t, evs, 2)
	require.Equal(t, model.StatusQueued, evs[0].Status)
	require.Equal(t, model.StatusCommitted, evs[1].Status)
	require.Equal(t, uint64(5), evs[1].Height)
	require.Less(t, evs[0].Seq, evs[1].Seq, "replay must come back in journal order")

	evs, err = j.ReplayTx("missing")
	require.NoError(t, err)
	require.Empty(t, evs)
}

func TestJournalReplayFrom(t *testing.T) {
	j := openTestJournal(t)

	var seqs []uint64
	for i := 0; i < 5; i++ {
		seq, err := j.Append(&model.TxEvent{TxHash: "t", Status: model.StatusQueued})
		require.NoError(t, err)
		seqs = append(seqs, seq)
	}

	evs, err := j.ReplayFrom(seqs[2], 2)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	require.Equal(t, seqs[2], evs[0].Seq)
	require.Equal(t, seqs[3], evs[1].Seq)

	// limit 0 放开到末尾
	evs, err = j.ReplayFrom(seqs[2], 0)
	require.NoError(t, err)
	require.Len(t, evs, 3)
}

func TestNotifierJournalsStatuses(t *testing.T) {
	j := openTestJournal(t)
	bus := NewBus(8)
	defer bus.Close()
	n := NewNotifier(bus, j)

	sub := bus.Subscribe(Filter{TxHash: "h"})
	defer sub.Cancel()

	n.TxStatus("h", model.StatusQueued, nil, 0)
	reason := model.RejectionReason{Kind: "Repetition", Message: "already registered"}
	n.TxStatus("h", model.StatusRejected, &reason, 9)

	// 总线收到两条
	env := <-sub.C()
	require.Equal(t, model.StatusQueued, env.Tx.Status)
	liveSeq0 := env.Tx.Seq
	env = <-sub.C()
	require.Equal(t, model.StatusRejected, env.Tx.Status)
	require.Equal(t, "Repetition", env.Tx.Kind)
	liveSeq1 := env.Tx.Seq

	// 留档可回放，且同一事件实时与回放编号一致
	evs, err := j.ReplayTx("h")
	require.NoError(t, err)
	require.Len(t, evs, 2)
	require.Equal(t, "already registered", evs[1].Reason)
	require.Equal(t, liveSeq0, evs[0].Seq)
	require.Equal(t, liveSeq1, evs[1].Seq)
	require.NotZero(t, liveSeq0)
}
