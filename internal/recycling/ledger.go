package recycling

import (
	"sync"
)

// Ledger is the append-only sequence of completed exchange records plus
// derived running totals. Records are never mutated in place.
//
// The cached aggregates and the per-actor/per-class indexes are derived
// state: they must always equal a fold over the records. They exist only
// for O(1) and O(k) reads against a history that grows without bound.
type Ledger struct {
	mu      sync.RWMutex
	records []Record

	// Incremental indexes: identity/class -> record positions.
	byActor map[Identity][]int
	byClass map[string][]int

	totalPoints uint64
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		records: make([]Record, 0),
		byActor: make(map[Identity][]int),
		byClass: make(map[string][]int),
	}
}

// NextSeq returns the sequence number the next appended record will
// carry.
func (l *Ledger) NextSeq() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return uint64(len(l.records)) + 1
}

// Append adds a completed exchange to the ledger, updating both indexes
// and the points aggregate. The record, the indexes, and the aggregate
// change together; there is no partial append. The record must carry the
// sequence number from NextSeq.
func (l *Ledger) Append(record Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos := len(l.records)
	l.records = append(l.records, record)
	l.byActor[record.Actor] = append(l.byActor[record.Actor], pos)
	l.byClass[record.ClassID] = append(l.byClass[record.ClassID], pos)
	l.totalPoints += record.Points
}

// Size returns the number of records.
func (l *Ledger) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// TotalPoints returns the cached sum of points over all records.
func (l *Ledger) TotalPoints() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalPoints
}

// HistoryForActor returns copies of an actor's records in append order.
// Backed by the per-actor index; never scans the full ledger.
func (l *Ledger) HistoryForActor(actor Identity) []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.collect(l.byActor[actor])
}

// HistoryForClass returns copies of a class's records in append order.
func (l *Ledger) HistoryForClass(classID string) []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.collect(l.byClass[classID])
}

// Records returns a copy of the full ledger in append order.
func (l *Ledger) Records() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]Record, len(l.records))
	copy(result, l.records)
	return result
}

// Tail returns copies of the most recent n records in append order.
func (l *Ledger) Tail(n int) []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || len(l.records) == 0 {
		return nil
	}
	if n > len(l.records) {
		n = len(l.records)
	}
	result := make([]Record, n)
	copy(result, l.records[len(l.records)-n:])
	return result
}

func (l *Ledger) collect(positions []int) []Record {
	result := make([]Record, 0, len(positions))
	for _, pos := range positions {
		result = append(result, l.records[pos])
	}
	return result
}
