package recycling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func record(seq uint64, actor Identity, classID, unitID string, points uint64) Record {
	return Record{
		ID:        newRecordID(),
		Seq:       seq,
		Actor:     actor,
		ClassID:   classID,
		UnitID:    unitID,
		Method:    MethodDestruction,
		Points:    points,
		Timestamp: time.Now(),
	}
}

func TestLedger_Append(t *testing.T) {
	l := NewLedger()
	require.Equal(t, uint64(1), l.NextSeq(), "sequence starts at 1")

	l.Append(record(1, "alice", "pet-bottle", "b-1", 10))
	l.Append(record(2, "bob", "glass", "g-1", 5))

	require.Equal(t, 2, l.Size())
	require.Equal(t, uint64(3), l.NextSeq())
	require.Equal(t, uint64(15), l.TotalPoints())
}

func TestLedger_Indexes(t *testing.T) {
	l := NewLedger()
	l.Append(record(1, "alice", "pet-bottle", "b-1", 10))
	l.Append(record(2, "bob", "pet-bottle", "b-2", 10))
	l.Append(record(3, "alice", "glass", "g-1", 5))

	alice := l.HistoryForActor("alice")
	require.Len(t, alice, 2)
	require.Equal(t, "b-1", alice[0].UnitID)
	require.Equal(t, "g-1", alice[1].UnitID)

	bottles := l.HistoryForClass("pet-bottle")
	require.Len(t, bottles, 2)
	require.Equal(t, uint64(1), bottles[0].Seq)
	require.Equal(t, uint64(2), bottles[1].Seq)

	require.Empty(t, l.HistoryForActor("carol"))
	require.Empty(t, l.HistoryForClass("aluminum"))
}

func TestLedger_AggregateEqualsFold(t *testing.T) {
	l := NewLedger()
	var want uint64
	for i := uint64(1); i <= 20; i++ {
		points := i * 3
		l.Append(record(i, "alice", "pet-bottle", "b", points))
		want += points
	}

	// The cached aggregate must equal a fold over the records.
	var fold uint64
	for _, rec := range l.Records() {
		fold += rec.Points
	}
	require.Equal(t, want, fold)
	require.Equal(t, want, l.TotalPoints())
}

func TestLedger_Tail(t *testing.T) {
	l := NewLedger()
	for i := uint64(1); i <= 5; i++ {
		l.Append(record(i, "alice", "pet-bottle", "b", 1))
	}

	tail := l.Tail(2)
	require.Len(t, tail, 2)
	require.Equal(t, uint64(4), tail[0].Seq)
	require.Equal(t, uint64(5), tail[1].Seq)

	require.Len(t, l.Tail(10), 5, "tail larger than ledger returns everything")
	require.Nil(t, l.Tail(0))
	require.Nil(t, l.Tail(-1))
}

func TestLedger_RecordsReturnsCopy(t *testing.T) {
	l := NewLedger()
	l.Append(record(1, "alice", "pet-bottle", "b-1", 10))

	records := l.Records()
	records[0].Points = 9999

	require.Equal(t, uint64(10), l.Records()[0].Points)
	require.Equal(t, uint64(10), l.TotalPoints())
}
