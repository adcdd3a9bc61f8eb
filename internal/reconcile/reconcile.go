package reconcile

import (
	"context"
	"time"

	"service-meetings/internal/domain"
	"service-meetings/internal/lifecycle"
)

// Engine merges import batches into a live collection. The zero value is
// not usable; construct with New.
type Engine struct {
	lifecycle *lifecycle.Engine
	seq       Sequencer
	clock     func() time.Time
}

func New(lc *lifecycle.Engine, seq Sequencer) *Engine {
	return &Engine{
		lifecycle: lc,
		seq:       seq,
		clock:     time.Now,
	}
}

// WithClock overrides the time source. Tests only.
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	e.clock = clock
	return e
}

// Reconcile merges batch into existing under policy and returns the new
// collection plus added/updated counts for user feedback. The input
// collection is not mutated.
//
// Rows whose identity cell is missing or corrupt get fresh identities,
// allocated sequentially and seeded from the maximum across the existing
// collection and the batch so multiple unassigned rows cannot collide.
// Duplicate identities within one batch are not deduplicated: rows commit
// in order and the last row wins, though identity uniqueness of the
// resulting collection always holds.
func (e *Engine) Reconcile(
	ctx context.Context,
	kind domain.Kind,
	existing domain.Collection,
	batch domain.ImportBatch,
	overrides domain.OverrideTable,
	policy domain.MergePolicy,
) (domain.Collection, int, int) {
	now := e.clock()
	out := existing.Clone()
	existingIDs := existing.Identities()

	// Step 1: identity resolution. Allocate before partitioning.
	ids := make([]int64, len(batch))
	seed := existing.MaxIdentity()
	for i := range batch {
		if id := CoerceIdentity(batch[i].Identity); id > seed {
			seed = id
		}
	}
	for i := range batch {
		id := CoerceIdentity(batch[i].Identity)
		if id == 0 {
			id = e.allocate(ctx, &seed)
		}
		ids[i] = id
	}

	added, updated := 0, 0
	for i, row := range batch {
		id := ids[i]
		_, known := existingIDs[id]

		// Step 2: partitioning per the active policy. Partition membership
		// is decided against the collection as it stood before this call.
		switch policy.Mode {
		case domain.AddOnly:
			if known {
				continue
			}
		case domain.UpdateOnly:
			if !known {
				continue
			}
		}

		if known {
			e.mergeUpdate(&out[out.IndexByID(id)], row, overrides, policy, now)
			updated++
			continue
		}

		if idx := out.IndexByID(id); idx >= 0 {
			// Second occurrence of a freshly added identity: last row wins.
			e.mergeAdd(&out[idx], row, now)
			continue
		}
		rec := domain.Record{ID: id, Kind: kind}
		e.mergeAdd(&rec, row, now)
		out = append(out, rec)
		added++
	}

	return out, added, updated
}

// mergeUpdate applies a batch row onto an existing record. Every present
// field overwrites the stored one except the lifecycle state, which keeps
// the stored (or overridden) value unless the policy allows overwriting
// or the batch cell is blank, in which case it is re-derived. An
// overwriting re-derive also drops the manual provenance: the status is
// machine-chosen from that point on. An applied override re-asserts it,
// whatever the batch's manual-status cell said.
func (e *Engine) mergeUpdate(rec *domain.Record, row domain.BatchRow, overrides domain.OverrideTable, policy domain.MergePolicy, now time.Time) {
	for f, v := range row.Fields {
		rec.Apply(f, v)
	}

	batchStatus, hasStatus := row.Fields[domain.FieldStatus]
	switch {
	case policy.OverwriteStatus:
		rec.Status = e.lifecycle.DeriveRecord(*rec, now)
		rec.ManualStatus = false
	case overrideFor(overrides, rec.ID) != "":
		rec.Status = overrideFor(overrides, rec.ID)
		rec.ManualStatus = true
	case !hasStatus || domain.IsBlank(batchStatus):
		rec.Status = e.lifecycle.DeriveRecord(*rec, now)
	}
	if domain.IsBlank(string(rec.Status)) {
		rec.Status = e.lifecycle.DeriveRecord(*rec, now)
	}
}

// mergeAdd fills a new record from a batch row. New records have no prior
// authoritative state, so the status is always derived fresh regardless
// of whatever the batch carried.
func (e *Engine) mergeAdd(rec *domain.Record, row domain.BatchRow, now time.Time) {
	for f, v := range row.Fields {
		rec.Apply(f, v)
	}
	rec.Status = e.lifecycle.DeriveRecord(*rec, now)
	rec.ManualStatus = false
}

func (e *Engine) allocate(ctx context.Context, seed *int64) int64 {
	next := *seed + 1
	if e.seq != nil {
		if v, err := e.seq.NextIdentity(ctx); err == nil && v > *seed {
			next = v
		}
	}
	*seed = next
	return next
}

func overrideFor(overrides domain.OverrideTable, id int64) domain.Status {
	if overrides == nil {
		return ""
	}
	return overrides[id]
}
