package service

import (
	"context"
	"fmt"

	"service-meetings/internal/domain"
)

// Outcome reports how a persistence pass went against each backend.
// Per-record failures are warnings; only the loss of both backends is
// fatal to the caller.
type Outcome struct {
	RelationalOK bool
	FlatOK       bool
	Warnings     []string
}

// Persist applies the current collection of a kind to both backends.
func (s *MeetingService) Persist(ctx context.Context, kind domain.Kind) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(ctx, kind)
}

func (s *MeetingService) persistLocked(ctx context.Context, kind domain.Kind) error {
	outcome, err := s.persist(ctx, kind)
	for _, w := range outcome.Warnings {
		s.logger.Printf("persist %s: %s", kind, w)
	}
	return err
}

// persist is the dual-store sync. The relational pass recomputes a full
// diff every time: delete what the collection no longer has, then upsert
// the rest. A crash between the two backends is recoverable by simply
// running the sync again. The flat snapshot is always written;
// its failure is fatal only when the relational path was unavailable too.
func (s *MeetingService) persist(ctx context.Context, kind domain.Kind) (Outcome, error) {
	col := s.state.Collection(kind)
	var outcome Outcome

	relationalAvailable := false
	if s.records != nil {
		ok, warnings := s.syncRelational(ctx, kind, col)
		outcome.Warnings = append(outcome.Warnings, warnings...)
		relationalAvailable = !s.degraded
		outcome.RelationalOK = ok
	}

	var flatErr error
	if snap, hasSnap := s.snapshots[kind]; hasSnap {
		if flatErr = snap.Write(col); flatErr == nil {
			outcome.FlatOK = true
		} else {
			outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("snapshot write failed: %v", flatErr))
		}
	}

	if !outcome.FlatOK && !relationalAvailable {
		if flatErr != nil {
			return outcome, fmt.Errorf("%w: no backend accepted the %s collection: %v", ErrPersist, kind, flatErr)
		}
		return outcome, fmt.Errorf("%w: no backend accepted the %s collection", ErrPersist, kind)
	}
	return outcome, nil
}

// syncRelational converges the relational store on the collection.
// Returns overall success (reachable and every upsert applied) plus the
// collected per-record warnings. A total outage flips the service into
// degraded mode instead of failing the action.
func (s *MeetingService) syncRelational(ctx context.Context, kind domain.Kind, col domain.Collection) (bool, []string) {
	existing, err := s.records.AllIdentities(ctx, kind)
	if err != nil {
		s.degraded = true
		return false, []string{fmt.Sprintf("relational backend unavailable, continuing on flat store: %v", err)}
	}
	s.degraded = false

	var warnings []string
	current := col.Identities()

	// Remove records the collection no longer holds. Dependent audit
	// rows go first to satisfy the foreign key.
	for id := range existing {
		if _, keep := current[id]; keep {
			continue
		}
		if s.audit != nil {
			if err := s.audit.DeleteByRecord(ctx, kind, id); err != nil {
				warnings = append(warnings, fmt.Sprintf("delete audit rows of record %d: %v", id, err))
				continue
			}
		}
		if err := s.records.Delete(ctx, kind, id); err != nil {
			warnings = append(warnings, fmt.Sprintf("delete record %d: %v", id, err))
		}
	}

	upsertsOK := true
	for _, rec := range col {
		if rec.ID <= 0 {
			warnings = append(warnings, fmt.Sprintf("skipping record with missing identity (%q)", rec.Title))
			continue
		}
		if err := s.records.Upsert(ctx, rec); err != nil {
			upsertsOK = false
			warnings = append(warnings, fmt.Sprintf("upsert record %d: %v", rec.ID, err))
		}
	}

	return upsertsOK, warnings
}
