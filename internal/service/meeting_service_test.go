package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"service-meetings/internal/domain"
	"service-meetings/internal/filter"
	"service-meetings/internal/flat"
	"service-meetings/internal/repository"
)

var testNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

type fakeRecordRepo struct {
	records map[domain.Kind]map[int64]domain.Record
	seq     int64

	listErr   error
	idsErr    error
	upsertErr map[int64]error

	ops *[]string
}

func newFakeRecordRepo() *fakeRecordRepo {
	r := &fakeRecordRepo{records: map[domain.Kind]map[int64]domain.Record{}}
	for _, kind := range domain.Kinds() {
		r.records[kind] = map[int64]domain.Record{}
	}
	return r
}

func (f *fakeRecordRepo) log(format string, args ...any) {
	if f.ops != nil {
		*f.ops = append(*f.ops, fmt.Sprintf(format, args...))
	}
}

func (f *fakeRecordRepo) ListByKind(ctx context.Context, kind domain.Kind) (domain.Collection, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	ids := make([]int64, 0, len(f.records[kind]))
	for id := range f.records[kind] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make(domain.Collection, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.records[kind][id])
	}
	return out, nil
}

func (f *fakeRecordRepo) Upsert(ctx context.Context, rec domain.Record) error {
	if err := f.upsertErr[rec.ID]; err != nil {
		return err
	}
	f.records[rec.Kind][rec.ID] = rec
	f.log("upsert record %d", rec.ID)
	return nil
}

func (f *fakeRecordRepo) Delete(ctx context.Context, kind domain.Kind, id int64) error {
	delete(f.records[kind], id)
	f.log("delete record %d", id)
	return nil
}

func (f *fakeRecordRepo) AllIdentities(ctx context.Context, kind domain.Kind) (map[int64]struct{}, error) {
	if f.idsErr != nil {
		return nil, f.idsErr
	}
	out := make(map[int64]struct{}, len(f.records[kind]))
	for id := range f.records[kind] {
		out[id] = struct{}{}
	}
	return out, nil
}

func (f *fakeRecordRepo) NextIdentity(ctx context.Context) (int64, error) {
	f.seq++
	return f.seq, nil
}

type fakeAuditRepo struct {
	entries []domain.AuditEntry
	ops     *[]string
}

func (f *fakeAuditRepo) Insert(ctx context.Context, entry domain.AuditEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditRepo) DeleteByRecord(ctx context.Context, kind domain.Kind, recordID int64) error {
	if f.ops != nil {
		*f.ops = append(*f.ops, fmt.Sprintf("delete audit %d", recordID))
	}
	return nil
}

type fakeTxManager struct {
	records *fakeRecordRepo
	audit   *fakeAuditRepo
	err     error
}

func (f *fakeTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepositories) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(ctx, repository.TxRepositories{Records: f.records, Audit: f.audit})
}

type testEnv struct {
	svc     *MeetingService
	records *fakeRecordRepo
	audit   *fakeAuditRepo
	dataDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	records := newFakeRecordRepo()
	audit := &fakeAuditRepo{}
	dataDir := t.TempDir()

	svc := NewMeetingService(Options{
		TxManager: &fakeTxManager{records: records, audit: audit},
		Records:   records,
		Audit:     audit,
		Snapshots: map[domain.Kind]*flat.Store{
			domain.KindMeeting: flat.NewStore(filepath.Join(dataDir, "meetings.csv")),
			domain.KindPodcast: flat.NewStore(filepath.Join(dataDir, "podcasts.csv")),
		},
		ExportDir: filepath.Join(dataDir, "exports"),
		Logger:    log.New(testWriter{t}, "", 0),
	}).WithClock(func() time.Time { return testNow })

	return &testEnv{svc: svc, records: records, audit: audit, dataDir: dataDir}
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func snapshotRecords(t *testing.T, env *testEnv, kind domain.Kind) domain.Collection {
	t.Helper()
	name := "meetings.csv"
	if kind == domain.KindPodcast {
		name = "podcasts.csv"
	}
	col, err := flat.NewStore(filepath.Join(env.dataDir, name)).Read(kind)
	require.NoError(t, err)
	return col
}

func TestCreateDerivesStatusAndPersistsBoth(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	day := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	rec, err := env.svc.Create(ctx, domain.KindMeeting, domain.Record{
		Title:        "Kickoff",
		Organization: "Acme",
		MeetingDate:  &day,
		StartTime:    "11:30",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), rec.ID)
	assert.Equal(t, domain.StatusOngoing, rec.Status)
	assert.False(t, rec.ManualStatus)

	stored, ok := env.records.records[domain.KindMeeting][1]
	require.True(t, ok, "record must reach the relational backend")
	assert.Equal(t, "Kickoff", stored.Title)

	snap := snapshotRecords(t, env, domain.KindMeeting)
	require.Len(t, snap, 1)
	assert.Equal(t, "Kickoff", snap[0].Title)

	require.Len(t, env.audit.entries, 1)
	assert.Equal(t, domain.AuditActionCreated, env.audit.entries[0].Action)
}

func TestCreateExplicitStatusBecomesOverride(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	yesterday := time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC)
	rec, err := env.svc.Create(ctx, domain.KindMeeting, domain.Record{
		Title:        "Retro",
		Organization: "Acme",
		MeetingDate:  &yesterday,
		StartTime:    "10:00",
		Status:       domain.StatusCompleted,
	})
	require.NoError(t, err)
	assert.True(t, rec.ManualStatus)

	changed, err := env.svc.RefreshStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, changed)

	got, err := env.svc.Get(domain.KindMeeting, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status, "refresh must not touch a manual status")
}

func TestCreateRequiresConfiguredFields(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(context.Background(), domain.KindMeeting, domain.Record{Title: "no org"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.svc.Create(context.Background(), domain.Kind("webinar"), domain.Record{Organization: "Acme"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateStatusChangeRegistersOverride(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	yesterday := time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC)
	rec, err := env.svc.Create(ctx, domain.KindMeeting, domain.Record{
		Organization: "Acme",
		MeetingDate:  &yesterday,
		StartTime:    "10:00",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusEnded, rec.Status)

	rec.Status = domain.StatusCompleted
	updated, err := env.svc.Update(ctx, domain.KindMeeting, rec.ID, rec)
	require.NoError(t, err)
	assert.True(t, updated.ManualStatus)

	changed, err := env.svc.RefreshStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, changed)

	got, err := env.svc.Get(domain.KindMeeting, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
}

func TestUpdateBlankStatusIsDerived(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rec, err := env.svc.Create(ctx, domain.KindMeeting, domain.Record{Organization: "Acme"})
	require.NoError(t, err)

	rec.Status = ""
	updated, err := env.svc.Update(ctx, domain.KindMeeting, rec.ID, rec)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUpcoming, updated.Status)
	assert.False(t, updated.ManualStatus)
}

func TestUpdateNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Update(context.Background(), domain.KindMeeting, 42, domain.Record{Organization: "Acme"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRemovesDependentsFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var ops []string
	env.records.ops = &ops
	env.audit.ops = &ops

	rec, err := env.svc.Create(ctx, domain.KindMeeting, domain.Record{Organization: "Acme"})
	require.NoError(t, err)

	ops = ops[:0]
	require.NoError(t, env.svc.Delete(ctx, domain.KindMeeting, rec.ID))

	require.GreaterOrEqual(t, len(ops), 2)
	assert.Equal(t, fmt.Sprintf("delete audit %d", rec.ID), ops[0])
	assert.Equal(t, fmt.Sprintf("delete record %d", rec.ID), ops[1])

	_, err = env.svc.Get(domain.KindMeeting, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, snapshotRecords(t, env, domain.KindMeeting))
}

func TestDeleteNotFound(t *testing.T) {
	env := newTestEnv(t)
	assert.ErrorIs(t, env.svc.Delete(context.Background(), domain.KindMeeting, 42), ErrNotFound)
}

func TestImportEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	csv := "Meeting ID,Meeting Title,Organization,Meeting Date,Start Time,Status\n" +
		",Kickoff,Acme,2024-06-20,14:00,\n" +
		",Review,Globex,,,\n"

	added, updated, err := env.svc.Import(ctx, domain.KindMeeting, strings.NewReader(csv), domain.MergePolicy{Mode: domain.UpdateAndAdd})
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 0, updated)

	col, err := env.svc.List(domain.KindMeeting, filter.Query{})
	require.NoError(t, err)
	require.Len(t, col, 2)
	assert.Equal(t, domain.StatusUpcoming, col[0].Status)

	assert.Len(t, env.records.records[domain.KindMeeting], 2)
	assert.Len(t, snapshotRecords(t, env, domain.KindMeeting), 2)
}

func TestImportValidationFailureMutatesNothing(t *testing.T) {
	records := newFakeRecordRepo()
	dataDir := t.TempDir()
	svc := NewMeetingService(Options{
		Records: records,
		Snapshots: map[domain.Kind]*flat.Store{
			domain.KindMeeting: flat.NewStore(filepath.Join(dataDir, "meetings.csv")),
		},
		Required: []domain.Field{domain.FieldTitle, domain.FieldOrganization},
		Logger:   log.New(testWriter{t}, "", 0),
	}).WithClock(func() time.Time { return testNow })

	csv := "Meeting ID,Meeting Title,Organization\n,Kickoff,\n"
	_, _, err := svc.Import(context.Background(), domain.KindMeeting, strings.NewReader(csv), domain.MergePolicy{Mode: domain.UpdateAndAdd})

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Problems[0], "Organization")

	col, err := svc.List(domain.KindMeeting, filter.Query{})
	require.NoError(t, err)
	assert.Empty(t, col)
	assert.Empty(t, records.records[domain.KindMeeting])
}

func TestImportMissingColumn(t *testing.T) {
	env := newTestEnv(t)

	csv := "Meeting ID,Meeting Title\n1,Kickoff\n"
	_, _, err := env.svc.Import(context.Background(), domain.KindMeeting, strings.NewReader(csv), domain.MergePolicy{Mode: domain.UpdateAndAdd})

	var missing *flat.MissingColumnsError
	assert.ErrorAs(t, err, &missing)
}

func TestBackendOutageDegradesAndRecovers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.records.idsErr = errors.New("connection refused")

	rec, err := env.svc.Create(ctx, domain.KindMeeting, domain.Record{Organization: "Acme", Title: "offline"})
	require.NoError(t, err, "backend outage must not fail the action")
	assert.True(t, env.svc.Degraded())
	assert.Empty(t, env.records.records[domain.KindMeeting])
	assert.Len(t, snapshotRecords(t, env, domain.KindMeeting), 1)

	env.records.idsErr = nil

	_, err = env.svc.Create(ctx, domain.KindMeeting, domain.Record{Organization: "Acme", Title: "online"})
	require.NoError(t, err)
	assert.False(t, env.svc.Degraded())

	assert.Len(t, env.records.records[domain.KindMeeting], 2, "recovery sync must carry the offline record over")
	_, ok := env.records.records[domain.KindMeeting][rec.ID]
	assert.True(t, ok)
}

func TestSyncRemovesStaleBackendRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var ops []string
	env.records.ops = &ops
	env.audit.ops = &ops
	env.records.records[domain.KindMeeting][99] = domain.Record{ID: 99, Kind: domain.KindMeeting, Title: "stale"}

	_, err := env.svc.Create(ctx, domain.KindMeeting, domain.Record{Organization: "Acme"})
	require.NoError(t, err)

	_, stale := env.records.records[domain.KindMeeting][99]
	assert.False(t, stale)
	assert.Contains(t, ops, "delete audit 99")
	assert.Contains(t, ops, "delete record 99")
}

func TestSyncCollectsPerRecordFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rec, err := env.svc.Create(ctx, domain.KindMeeting, domain.Record{Organization: "Acme"})
	require.NoError(t, err)

	env.records.upsertErr = map[int64]error{rec.ID: errors.New("constraint violation")}

	outcome, err := env.svc.Persist(ctx, domain.KindMeeting)
	require.NoError(t, err, "a per-record failure is a warning, not a failure")
	assert.False(t, outcome.RelationalOK)
	assert.True(t, outcome.FlatOK)
	require.Len(t, outcome.Warnings, 1)
	assert.Contains(t, outcome.Warnings[0], "constraint violation")
	assert.False(t, env.svc.Degraded())
}

func TestLoadPrefersBackend(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.records.records[domain.KindMeeting][4] = domain.Record{ID: 4, Kind: domain.KindMeeting, Title: "from db", Organization: "Acme"}
	require.NoError(t, env.svc.Load(ctx))

	got, err := env.svc.Get(domain.KindMeeting, 4)
	require.NoError(t, err)
	assert.Equal(t, "from db", got.Title)
	assert.Equal(t, domain.StatusUpcoming, got.Status, "blank stored status is derived at load")
	assert.False(t, env.svc.Degraded())
}

func TestLoadFallsBackToSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	store := flat.NewStore(filepath.Join(env.dataDir, "meetings.csv"))
	require.NoError(t, store.Write(domain.Collection{
		{ID: 1, Kind: domain.KindMeeting, Title: "from snapshot", Organization: "Acme", Status: domain.StatusCompleted, ManualStatus: true},
	}))

	env.records.listErr = errors.New("connection refused")
	require.NoError(t, env.svc.Load(ctx))
	assert.True(t, env.svc.Degraded())

	got, err := env.svc.Get(domain.KindMeeting, 1)
	require.NoError(t, err)
	assert.Equal(t, "from snapshot", got.Title)

	changed, err := env.svc.RefreshStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, changed, "override table must be rebuilt from the manual-status flag")
}

func TestFlatOnlyMode(t *testing.T) {
	dataDir := t.TempDir()
	svc := NewMeetingService(Options{
		Snapshots: map[domain.Kind]*flat.Store{
			domain.KindMeeting: flat.NewStore(filepath.Join(dataDir, "meetings.csv")),
			domain.KindPodcast: flat.NewStore(filepath.Join(dataDir, "podcasts.csv")),
		},
		ExportDir: filepath.Join(dataDir, "exports"),
		Logger:    log.New(testWriter{t}, "", 0),
	}).WithClock(func() time.Time { return testNow })

	ctx := context.Background()
	require.NoError(t, svc.Load(ctx))

	rec, err := svc.Create(ctx, domain.KindPodcast, domain.Record{Organization: "Acme", Title: "episode 1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID)

	require.NoError(t, svc.Delete(ctx, domain.KindPodcast, rec.ID))
	col, err := svc.List(domain.KindPodcast, filter.Query{})
	require.NoError(t, err)
	assert.Empty(t, col)
}

func TestKindsAreIsolated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, domain.KindMeeting, domain.Record{Organization: "Acme", Title: "meeting"})
	require.NoError(t, err)
	podcast, err := env.svc.Create(ctx, domain.KindPodcast, domain.Record{Organization: "Acme", Title: "podcast"})
	require.NoError(t, err)

	meetings, err := env.svc.List(domain.KindMeeting, filter.Query{})
	require.NoError(t, err)
	podcasts, err := env.svc.List(domain.KindPodcast, filter.Query{})
	require.NoError(t, err)

	require.Len(t, meetings, 1)
	require.Len(t, podcasts, 1)
	assert.Equal(t, "meeting", meetings[0].Title)
	assert.Equal(t, "podcast", podcasts[0].Title)
	assert.Equal(t, podcast.ID, podcasts[0].ID)
}

func TestExportWritesTimestampedFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, domain.KindMeeting, domain.Record{Organization: "Acme", Title: "Kickoff"})
	require.NoError(t, err)

	path, err := env.svc.Export(domain.KindMeeting)
	require.NoError(t, err)
	assert.Equal(t, "meeting_export_20240615_120000.csv", filepath.Base(path))

	col, err := flat.NewStore(path).Read(domain.KindMeeting)
	require.NoError(t, err)
	require.Len(t, col, 1)
	assert.Equal(t, "Kickoff", col[0].Title)
}

// restart builds a fresh service over the same backends, as a process
// restart would.
func (env *testEnv) restart(t *testing.T) *MeetingService {
	t.Helper()
	return NewMeetingService(Options{
		TxManager: &fakeTxManager{records: env.records, audit: env.audit},
		Records:   env.records,
		Audit:     env.audit,
		Snapshots: map[domain.Kind]*flat.Store{
			domain.KindMeeting: flat.NewStore(filepath.Join(env.dataDir, "meetings.csv")),
			domain.KindPodcast: flat.NewStore(filepath.Join(env.dataDir, "podcasts.csv")),
		},
		ExportDir: filepath.Join(env.dataDir, "exports"),
		Logger:    log.New(testWriter{t}, "", 0),
	}).WithClock(func() time.Time { return testNow })
}

func TestOverwriteImportDropsOverrideForGood(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	yesterday := time.Date(2024, time.June, 14, 0, 0, 0, 0, time.UTC)
	rec, err := env.svc.Create(ctx, domain.KindMeeting, domain.Record{
		Title:        "Retro",
		Organization: "Acme",
		MeetingDate:  &yesterday,
		StartTime:    "10:00",
		Status:       domain.StatusCompleted,
	})
	require.NoError(t, err)
	require.True(t, rec.ManualStatus)

	csv := fmt.Sprintf("Meeting ID,Meeting Title,Organization\n%d,Retro,Acme\n", rec.ID)
	_, updated, err := env.svc.Import(ctx, domain.KindMeeting, strings.NewReader(csv), domain.MergePolicy{
		Mode:            domain.UpdateAndAdd,
		OverwriteStatus: true,
	})
	require.NoError(t, err)
	require.Equal(t, 1, updated)

	got, err := env.svc.Get(domain.KindMeeting, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnded, got.Status)
	assert.False(t, got.ManualStatus, "overwrite must end the manual provenance")

	changed, err := env.svc.RefreshStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, changed)

	restarted := env.restart(t)
	require.NoError(t, restarted.Load(ctx))

	got, err = restarted.Get(domain.KindMeeting, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnded, got.Status)
	assert.False(t, got.ManualStatus, "the dropped provenance must not resurrect across a restart")

	changed, err = restarted.RefreshStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
}

func TestImportedManualFlagActsAsOverride(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tomorrow := time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC)
	rec, err := env.svc.Create(ctx, domain.KindMeeting, domain.Record{
		Organization: "Acme",
		MeetingDate:  &tomorrow,
		StartTime:    "14:00",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusUpcoming, rec.Status)

	// The batch moves the meeting into the past and flags the status as
	// a manual choice; refresh must honor it immediately, not only after
	// the next restart.
	csv := fmt.Sprintf(
		"Meeting ID,Organization,Meeting Date,Start Time,Status,Manual Status\n%d,Acme,2024-06-14,10:00,Upcoming,Yes\n",
		rec.ID,
	)
	_, updated, err := env.svc.Import(ctx, domain.KindMeeting, strings.NewReader(csv), domain.MergePolicy{Mode: domain.UpdateAndAdd})
	require.NoError(t, err)
	require.Equal(t, 1, updated)

	changed, err := env.svc.RefreshStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, changed, "the imported manual flag must act as an override in-session")

	got, err := env.svc.Get(domain.KindMeeting, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUpcoming, got.Status)
	assert.True(t, got.ManualStatus)

	restarted := env.restart(t)
	require.NoError(t, restarted.Load(ctx))
	changed, err = restarted.RefreshStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, changed, "restart must not change how the flag is honored")
}

func TestRefreshStatusesPersistsChanges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	day := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	rec, err := env.svc.Create(ctx, domain.KindMeeting, domain.Record{
		Organization: "Acme",
		MeetingDate:  &day,
		StartTime:    "11:30",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusOngoing, rec.Status)

	env.svc.WithClock(func() time.Time { return testNow.Add(2 * time.Hour) })

	changed, err := env.svc.RefreshStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	assert.Equal(t, domain.StatusEnded, env.records.records[domain.KindMeeting][rec.ID].Status)
	snap := snapshotRecords(t, env, domain.KindMeeting)
	require.Len(t, snap, 1)
	assert.Equal(t, domain.StatusEnded, snap[0].Status)
}
