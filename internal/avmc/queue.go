package avmc

import (
	"github.com/asteria-lang/asteria/internal/context"
	"github.com/asteria-lang/asteria/internal/exception"
)

// Queue is a flat, append-only sequence of Records, frozen by
// Finalize (§3.7). Grounded on Chunk's Write/WriteConstant pattern,
// generalized to Record append.
type Queue struct {
	records   []Record
	finalized bool
}

// NewQueue returns an empty, growable Queue.
func NewQueue() *Queue { return &Queue{} }

// Append adds a record to the end of the queue, returning its index.
// Panics if the queue has already been finalized (§3.7: "records may
// not be moved... after finalize", which this port reads as "no
// further structural change after finalize").
func (q *Queue) Append(r Record) int {
	if q.finalized {
		panic("avmc: Append on a finalized Queue")
	}
	q.records = append(q.records, r)
	return len(q.records) - 1
}

// Len returns the number of records currently in the queue.
func (q *Queue) Len() int { return len(q.records) }

// At returns the record at index i (valid both before and after
// Finalize).
func (q *Queue) At(i int) *Record { return &q.records[i] }

// Finalize freezes the queue: it copies the records into a slice whose
// capacity equals its length and marks the queue finalized, so a later
// Append (which would be a bug after Finalize) panics instead of
// silently reallocating and moving records.
func (q *Queue) Finalize() {
	if q.finalized {
		return
	}
	frozen := make([]Record, len(q.records))
	copy(frozen, q.records)
	q.records = frozen
	q.finalized = true
}

// Run walks the queue's records in order against ctx, calling each
// Executor in turn (§4.5). A StatusNext advances to the next record;
// any other status -- or an error -- stops the walk immediately and
// is returned to the caller (the enclosing construct's own executor,
// or the top-level Engine) to interpret.
func (q *Queue) Run(ctx *context.ExecutiveContext) (Status, *exception.Error) {
	for i := range q.records {
		rec := &q.records[i]
		status, err := rec.Executor(ctx, rec)
		if err != nil {
			return status, err.PushFrame(exception.Frame{Kind: exception.FrameCall, Loc: rec.Loc})
		}
		if status != StatusNext {
			return status, nil
		}
	}
	return StatusNext, nil
}
