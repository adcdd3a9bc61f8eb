package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"service-meetings/internal/domain"
	"service-meetings/internal/filter"
	"service-meetings/internal/flat"
	"service-meetings/internal/lifecycle"
	"service-meetings/internal/reconcile"
	"service-meetings/internal/repository"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrPersist      = errors.New("persistence failed")
)

// ValidationError carries the per-row problems found before an import is
// applied. Imports with validation problems never mutate anything.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("import validation failed: %s", strings.Join(e.Problems, "; "))
}

// Options wires a MeetingService. TxManager, Records and Audit may all be
// nil when no relational backend is configured; the service then runs in
// flat-file-only mode.
type Options struct {
	TxManager repository.TxManager
	Records   repository.RecordRepository
	Audit     repository.AuditLogRepository
	Snapshots map[domain.Kind]*flat.Store
	ExportDir string
	Lifecycle *lifecycle.Engine
	Required  []domain.Field
	Search    []domain.Field
	Logger    *log.Logger
}

// MeetingService owns the record collections and implements every user
// action over them: create, edit, delete, import, export, list, status
// refresh and dual-store persistence. One action runs to completion
// before the next is admitted.
type MeetingService struct {
	mu sync.Mutex

	txManager repository.TxManager
	records   repository.RecordRepository
	audit     repository.AuditLogRepository
	snapshots map[domain.Kind]*flat.Store
	exportDir string

	lifecycle *lifecycle.Engine
	state     *State
	required  []domain.Field
	search    []domain.Field

	clock  func() time.Time
	logger *log.Logger

	// degraded is set while the relational backend is unreachable. It is
	// a mode, not an error: the flat path keeps the system usable and
	// the next successful sync converges the backends again.
	degraded bool
}

func NewMeetingService(opts Options) *MeetingService {
	lc := opts.Lifecycle
	if lc == nil {
		lc = lifecycle.NewEngine()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	required := opts.Required
	if len(required) == 0 {
		required = []domain.Field{domain.FieldOrganization}
	}
	return &MeetingService{
		txManager: opts.TxManager,
		records:   opts.Records,
		audit:     opts.Audit,
		snapshots: opts.Snapshots,
		exportDir: opts.ExportDir,
		lifecycle: lc,
		state:     NewState(),
		required:  required,
		search:    opts.Search,
		clock:     time.Now,
		logger:    logger,
	}
}

// WithClock overrides the time source. Tests only.
func (s *MeetingService) WithClock(clock func() time.Time) *MeetingService {
	s.clock = clock
	return s
}

// Degraded reports whether the service is currently running without the
// relational backend.
func (s *MeetingService) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Load restores the collections, preferring the relational backend and
// falling back to the flat snapshots when it is unreachable. Override
// tables are rebuilt from the persisted manual-status flags, then blank
// statuses (and only blank ones) are derived.
func (s *MeetingService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	for _, kind := range domain.Kinds() {
		col, err := s.loadCollection(ctx, kind)
		if err != nil {
			return err
		}
		s.state.SetCollection(kind, col)
		s.state.RebuildOverrides(kind)

		col = s.state.Collection(kind)
		for i := range col {
			if domain.IsBlank(string(col[i].Status)) {
				col[i].Status = s.lifecycle.DeriveRecord(col[i], now)
			}
		}
	}
	return nil
}

func (s *MeetingService) loadCollection(ctx context.Context, kind domain.Kind) (domain.Collection, error) {
	if s.records != nil {
		col, err := s.records.ListByKind(ctx, kind)
		if err == nil {
			s.degraded = false
			return col, nil
		}
		s.degraded = true
		s.logger.Printf("relational backend unavailable, loading %s records from snapshot: %v", kind, err)
	}
	snap, ok := s.snapshots[kind]
	if !ok {
		return domain.Collection{}, nil
	}
	return snap.Read(kind)
}

// List returns the records of a kind matching the query.
func (s *MeetingService) List(kind domain.Kind, q filter.Query) (domain.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, kind)
	}
	if len(q.SearchFields) == 0 {
		q.SearchFields = s.search
	}
	return filter.Apply(s.state.Collection(kind), q), nil
}

func (s *MeetingService) Get(kind domain.Kind, id int64) (domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.state.Collection(kind)
	idx := col.IndexByID(id)
	if idx < 0 {
		return domain.Record{}, ErrNotFound
	}
	return col[idx], nil
}

// Create validates and stores a new record. A status left blank or at the
// Upcoming default is derived; any other status is taken as a manual
// choice and recorded as an override.
func (s *MeetingService) Create(ctx context.Context, kind domain.Kind, rec domain.Record) (domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !kind.Valid() {
		return domain.Record{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, kind)
	}
	if err := s.validateRequired(rec); err != nil {
		return domain.Record{}, err
	}

	rec.Kind = kind
	rec.ID = s.allocateIdentity(ctx, kind)

	now := s.clock()
	if !rec.Status.Valid() || rec.Status == domain.StatusUpcoming {
		rec.Status = s.lifecycle.DeriveRecord(rec, now)
		rec.ManualStatus = false
	} else {
		rec.ManualStatus = true
		s.state.SetOverride(kind, rec.ID, rec.Status)
	}

	s.state.SetCollection(kind, append(s.state.Collection(kind), rec))

	if err := s.persistLocked(ctx, kind); err != nil {
		return domain.Record{}, err
	}
	s.auditLocked(ctx, kind, rec.ID, domain.AuditActionCreated, rec.Title)
	return rec, nil
}

// Update replaces the stored fields of a record. An explicit status
// change through the edit form registers an override so later refresh
// passes leave it alone.
func (s *MeetingService) Update(ctx context.Context, kind domain.Kind, id int64, incoming domain.Record) (domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.state.Collection(kind)
	idx := col.IndexByID(id)
	if idx < 0 {
		return domain.Record{}, ErrNotFound
	}
	if err := s.validateRequired(incoming); err != nil {
		return domain.Record{}, err
	}

	existing := col[idx]
	incoming.ID = id
	incoming.Kind = kind

	switch {
	case incoming.Status.Valid() && incoming.Status != existing.Status:
		incoming.ManualStatus = true
		s.state.SetOverride(kind, id, incoming.Status)
	case !incoming.Status.Valid():
		incoming.Status = s.lifecycle.DeriveRecord(incoming, s.clock())
		incoming.ManualStatus = existing.ManualStatus
	default:
		incoming.ManualStatus = existing.ManualStatus
	}

	col[idx] = incoming

	if err := s.persistLocked(ctx, kind); err != nil {
		return domain.Record{}, err
	}
	s.auditLocked(ctx, kind, id, domain.AuditActionUpdated, incoming.Title)
	return incoming, nil
}

// Delete removes a record interactively. Against the relational backend
// the dependent audit rows go first, then the record, in one transaction:
// the foreign key permits no other order.
func (s *MeetingService) Delete(ctx context.Context, kind domain.Kind, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.state.Collection(kind)
	idx := col.IndexByID(id)
	if idx < 0 {
		return ErrNotFound
	}

	s.state.SetCollection(kind, append(col[:idx:idx], col[idx+1:]...))
	s.state.ClearOverride(kind, id)

	if s.txManager != nil && !s.degraded {
		err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
			if err := repos.Audit.DeleteByRecord(ctx, kind, id); err != nil {
				return err
			}
			return repos.Records.Delete(ctx, kind, id)
		})
		if err != nil {
			s.degraded = true
			s.logger.Printf("relational delete of %s %d failed, continuing on flat store: %v", kind, id, err)
		}
	}

	snap, ok := s.snapshots[kind]
	if !ok {
		return nil
	}
	if err := snap.Write(s.state.Collection(kind)); err != nil {
		if s.records == nil || s.degraded {
			return fmt.Errorf("%w: %v", ErrPersist, err)
		}
		s.logger.Printf("snapshot write after delete failed: %v", err)
	}
	return nil
}

// Import parses an uploaded tabular file, validates it, reconciles it
// into the collection under the given policy and persists the result.
// Structural and validation failures surface before any mutation.
func (s *MeetingService) Import(ctx context.Context, kind domain.Kind, r io.Reader, policy domain.MergePolicy) (added, updated int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !kind.Valid() {
		return 0, 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, kind)
	}

	batch, err := flat.ParseBatch(r, s.required)
	if err != nil {
		return 0, 0, err
	}
	if problems := flat.ValidateBatch(batch, s.required); len(problems) > 0 {
		return 0, 0, &ValidationError{Problems: problems}
	}

	var seq reconcile.Sequencer
	if s.records != nil && !s.degraded {
		seq = s.records
	}
	engine := reconcile.New(s.lifecycle, seq).WithClock(s.clock)

	col, added, updated := engine.Reconcile(ctx, kind, s.state.Collection(kind), batch, s.state.Overrides(kind), policy)
	s.state.SetCollection(kind, col)

	// The batch may have set or cleared manual-status flags; the override
	// table must agree with them, or a restart would change behavior.
	s.state.RebuildOverrides(kind)

	batchID := uuid.New()
	s.logger.Printf("import %s applied to %s records: %d added, %d updated", batchID, kind, added, updated)

	if err := s.persistLocked(ctx, kind); err != nil {
		return added, updated, err
	}
	return added, updated, nil
}

// Export writes a timestamped snapshot of one kind and returns its path.
func (s *MeetingService) Export(kind domain.Kind) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !kind.Valid() {
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, kind)
	}
	return flat.Export(s.exportDir, kind, s.state.Collection(kind), s.clock())
}

// RefreshStatuses recomputes the lifecycle state of every record that is
// blank or not manually overridden, persisting any kind that changed.
func (s *MeetingService) RefreshStatuses(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	total := 0
	for _, kind := range domain.Kinds() {
		changed := s.lifecycle.Refresh(s.state.Collection(kind), s.state.Overrides(kind), now)
		if changed == 0 {
			continue
		}
		total += changed
		if err := s.persistLocked(ctx, kind); err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *MeetingService) validateRequired(rec domain.Record) error {
	for _, f := range s.required {
		if f == domain.FieldID {
			continue
		}
		if domain.IsBlank(rec.Value(f)) {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, f.Header())
		}
	}
	return nil
}

// allocateIdentity delegates to the backend sequence when it is
// reachable and falls back to in-memory max+1 otherwise. A sequence value
// lagging behind imported identities is bumped past the collection
// maximum so the uniqueness invariant holds either way.
func (s *MeetingService) allocateIdentity(ctx context.Context, kind domain.Kind) int64 {
	col := s.state.Collection(kind)
	next := reconcile.NextIdentity(col)
	if s.records != nil && !s.degraded {
		if v, err := s.records.NextIdentity(ctx); err == nil && v > next {
			return v
		}
	}
	return next
}

func (s *MeetingService) auditLocked(ctx context.Context, kind domain.Kind, id int64, action, detail string) {
	if s.audit == nil || s.degraded {
		return
	}
	entry := domain.AuditEntry{Kind: kind, RecordID: id, Action: action, Detail: detail}
	if err := s.audit.Insert(ctx, entry); err != nil {
		s.logger.Printf("audit insert for %s %d failed: %v", kind, id, err)
	}
}
