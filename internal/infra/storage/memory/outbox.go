package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	appoutbox "hotelier/internal/app/outbox"
	infraoutbox "hotelier/internal/infra/outbox"
)

// Outbox keeps records in memory and serves them to the publisher worker.
// Records added inside a unit of work disappear again if it rolls back.
type Outbox struct {
	mu      sync.Mutex
	records map[string]*infraoutbox.Record
	OnFlush func()
}

func NewOutbox() *Outbox {
	return &Outbox{records: make(map[string]*infraoutbox.Record)}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	o.records[record.ID] = &infraoutbox.Record{
		ID:          record.ID,
		Name:        record.Name,
		Payload:     append([]byte(nil), record.Payload...),
		OccurredAt:  record.OccurredAt,
		Aggregate:   record.Aggregate,
		Headers:     record.Headers,
		State:       infraoutbox.StateNew,
		NextAttempt: time.Now().UTC(),
	}
	o.mu.Unlock()
	id := record.ID
	trackFromContext(ctx, func() {
		o.mu.Lock()
		delete(o.records, id)
		o.mu.Unlock()
	})
	return nil
}

func (o *Outbox) Flush(context.Context) error {
	if o.OnFlush != nil {
		o.OnFlush()
	}
	return nil
}

func (o *Outbox) Claim(_ context.Context, workerID string) (*infraoutbox.Record, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now().UTC()
	var due []*infraoutbox.Record
	for _, rec := range o.records {
		if (rec.State == infraoutbox.StateNew || rec.State == infraoutbox.StateFailed) && !rec.NextAttempt.After(now) {
			due = append(due, rec)
		}
	}
	if len(due) == 0 {
		return nil, nil
	}
	sort.Slice(due, func(i, j int) bool { return due[i].OccurredAt.Before(due[j].OccurredAt) })
	rec := due[0]
	rec.State = infraoutbox.StateClaimed
	rec.ClaimedBy = workerID
	rec.ClaimedAt = now
	out := *rec
	return &out, nil
}

func (o *Outbox) MarkSent(_ context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if rec, ok := o.records[id]; ok {
		rec.State = infraoutbox.StateSent
		rec.SentAt = time.Now().UTC()
	}
	return nil
}

func (o *Outbox) MarkFailed(_ context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if rec, ok := o.records[id]; ok {
		rec.State = infraoutbox.StateFailed
		rec.NextAttempt = next
		rec.LastError = errMsg
		rec.Attempts++
	}
	return nil
}

// Records returns a snapshot of every record, oldest first.
func (o *Outbox) Records() []infraoutbox.Record {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]infraoutbox.Record, 0, len(o.records))
	for _, rec := range o.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out
}

var (
	_ appoutbox.Outbox  = (*Outbox)(nil)
	_ infraoutbox.Store = (*Outbox)(nil)
)
