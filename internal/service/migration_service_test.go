package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alexanderramin/arbor/internal/domain"
	"github.com/alexanderramin/arbor/internal/hierarchy"
	"github.com/alexanderramin/arbor/internal/repository"
	"github.com/alexanderramin/arbor/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationScan_EpicRemoved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedEpicScenario(t, env)
	before := env.snapshot(t, acme)

	res, err := env.migrations.Start(ctx, MigrationRequest{CompanyID: acme, TargetPreset: "less", Mode: domain.ModeDryRun})
	require.NoError(t, err)

	assert.Equal(t, domain.JobCompleted, res.Job.Status)
	assert.Equal(t, "scrum", res.Job.FromPreset)
	assert.Equal(t, "less", res.Job.ToPreset)
	assert.Equal(t, 1, res.Job.Summary.MovedItems)
	assert.Equal(t, 1, res.Job.Summary.FlaggedForReview)

	require.Len(t, res.Report.Moves, 1)
	mv := res.Report.Moves[0]
	assert.Equal(t, "F", mv.ItemID)
	assert.Equal(t, "P", *mv.To.ParentID)
	assert.Equal(t, domain.ConfidenceHigh, mv.Confidence)
	require.Len(t, res.Report.ReviewQueue, 1)
	assert.Equal(t, "E", res.Report.ReviewQueue[0].ItemID)
	assert.Equal(t, domain.ReasonDisabledType, res.Report.ReviewQueue[0].Reason)
	assert.Empty(t, res.Report.Issues)

	assert.Equal(t, before, env.snapshot(t, acme), "a scan changes nothing")
	current, err := env.frameworks.Current(ctx, acme)
	require.NoError(t, err)
	assert.Equal(t, "scrum", current.ID)

	stored, err := env.migrations.Report(ctx, res.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Report, stored)
	entries, err := env.migrations.MoveLog(ctx, res.Job.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMigrationScan_Deterministic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedEpicScenario(t, env)

	req := MigrationRequest{CompanyID: acme, TargetPreset: "less", Mode: domain.ModeDryRun}
	first, err := env.migrations.Start(ctx, req)
	require.NoError(t, err)
	second, err := env.migrations.Start(ctx, req)
	require.NoError(t, err)

	assert.NotEqual(t, first.Job.ID, second.Job.ID)
	assert.Equal(t, first.Report.Moves, second.Report.Moves)
	assert.Equal(t, first.Report.Creations, second.Report.Creations)
	assert.Equal(t, first.Report.ReviewQueue, second.Report.ReviewQueue)

	jobs, err := env.migrations.List(ctx, acme)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestMigrationScan_ReportFailureFailsJob(t *testing.T) {
	database := testutil.NewTestDB(t)
	fail := testutil.NewFailingDB(nil, "INSERT INTO migration_reports", errors.New("disk full"))
	env := newTestEnvOn(t, database, &testutil.FailingUoW{DB: database, Fail: fail})
	ctx := context.Background()
	seedEpicScenario(t, env)

	res, err := env.migrations.Start(ctx, MigrationRequest{CompanyID: acme, TargetPreset: "less", Mode: domain.ModeDryRun})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, 1, fail.Hits())

	jobs, err := env.migrations.List(ctx, acme)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, domain.JobFailed, jobs[0].Status)
	assert.Contains(t, jobs[0].Error, "disk full")

	_, err = env.migrations.Report(ctx, jobs[0].ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMigrationStart_UnknownPresetCreatesNoJob(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedEpicScenario(t, env)

	_, err := env.migrations.Start(ctx, MigrationRequest{CompanyID: acme, TargetPreset: "waterfall", Mode: domain.ModeApply})
	require.ErrorIs(t, err, domain.ErrPresetUnknown)

	jobs, err := env.migrations.List(ctx, acme)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestMigrationApply_ThenRollbackRestoresTree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedEpicScenario(t, env)
	before := env.snapshot(t, acme)

	res, err := env.migrations.Start(ctx, MigrationRequest{
		CompanyID: acme, TargetPreset: "less", Mode: domain.ModeApply, MovedBy: "dana",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, res.Job.Status)
	assert.Equal(t, 1, res.Job.Summary.MovedItems)
	assert.Equal(t, domain.MigrationProgress{Processed: 1, Total: 1}, res.Job.Progress)

	f := env.get(t, "F")
	assert.Equal(t, "P", *f.ParentID)
	assert.ElementsMatch(t, []string{"E", "F"}, env.get(t, "P").ChildrenIDs)
	assert.Empty(t, env.get(t, "E").ChildrenIDs)

	current, err := env.frameworks.Current(ctx, acme)
	require.NoError(t, err)
	assert.Equal(t, "less", current.ID)
	cfg, err := env.configs.Get(ctx, acme, "P")
	require.NoError(t, err)
	assert.NotContains(t, cfg.EnabledTypes, domain.TypeEpic)

	entries, err := env.migrations.MoveLog(ctx, res.Job.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "F", entries[0].ItemID)
	assert.Equal(t, "E", *entries[0].Prev.ParentID)
	assert.Equal(t, "P", *entries[0].Next.ParentID)
	assert.Equal(t, "dana", entries[0].MovedBy)

	check, err := env.workItems.CheckTree(ctx, acme)
	require.NoError(t, err)
	assert.Empty(t, auditTree(mustList(t, env, acme)), "tree stays consistent after apply")
	assert.Equal(t, 5, check.Items)

	rb, err := env.migrations.Rollback(ctx, res.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, rb.Reverted)
	assert.Empty(t, rb.Failures)
	assert.Equal(t, domain.JobRolledBack, rb.Job.Status)
	assert.Equal(t, before, env.snapshot(t, acme))

	current, err = env.frameworks.Current(ctx, acme)
	require.NoError(t, err)
	assert.Equal(t, "scrum", current.ID)

	job, err := env.migrations.Get(ctx, res.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobRolledBack, job.Status)
}

func TestMigrationApply_PlaceholderCreatedAndRolledBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := testutil.NewTestItem(acme, domain.TypeCompany, "Acme", testutil.WithID("C"))
	p := testutil.NewTestItem(acme, domain.TypeProduct, "Platform", testutil.WithID("P"))
	f1 := testutil.NewTestItem(acme, domain.TypeFeature, "Search", testutil.WithID("F1"))
	f2 := testutil.NewTestItem(acme, domain.TypeFeature, "Billing", testutil.WithID("F2"))
	testutil.Link(c, p)
	testutil.Link(p, f1, f2)
	env.seed(t, c, p, f1, f2)
	before := env.snapshot(t, acme)

	res, err := env.migrations.Start(ctx, MigrationRequest{CompanyID: acme, TargetPreset: "initiative", Mode: domain.ModeApply})
	require.NoError(t, err)
	require.Len(t, res.Report.Creations, 1)
	placeholderID := hierarchy.PlaceholderID(acme, "P", domain.TypeEpic)
	assert.Equal(t, placeholderID, res.Report.Creations[0].ID)
	assert.Equal(t, 1, res.Job.Summary.CreatedContainers)
	assert.Equal(t, 2, res.Job.Summary.MovedItems)

	placeholder := env.get(t, placeholderID)
	assert.Equal(t, domain.TypeEpic, placeholder.Type)
	assert.ElementsMatch(t, []string{"F1", "F2"}, placeholder.ChildrenIDs)
	assert.Equal(t, []string{placeholderID}, env.get(t, "P").ChildrenIDs)

	entries, err := env.migrations.MoveLog(ctx, res.Job.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, entries[0].IsCreation())
	assert.False(t, entries[1].IsCreation())

	rb, err := env.migrations.Rollback(ctx, res.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, rb.Reverted)
	assert.Equal(t, 1, rb.Removed)
	assert.Equal(t, before, env.snapshot(t, acme))

	_, err = env.items.GetByID(ctx, placeholderID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMigrationApply_PartialFailureFailsJob(t *testing.T) {
	database := testutil.NewTestDB(t)
	fail := testutil.NewFailingDB(nil, "UPDATE work_items", errors.New("locked"))
	fail.Remaining.Store(1)
	env := newTestEnvOn(t, database, &testutil.FailingUoW{DB: database, Fail: fail})
	ctx := context.Background()

	c := testutil.NewTestItem(acme, domain.TypeCompany, "Acme", testutil.WithID("C"))
	p := testutil.NewTestItem(acme, domain.TypeProduct, "Platform", testutil.WithID("P"))
	e1 := testutil.NewTestItem(acme, domain.TypeEpic, "Epic 1", testutil.WithID("E1"))
	e2 := testutil.NewTestItem(acme, domain.TypeEpic, "Epic 2", testutil.WithID("E2"))
	f1 := testutil.NewTestItem(acme, domain.TypeFeature, "Search", testutil.WithID("F1"))
	f2 := testutil.NewTestItem(acme, domain.TypeFeature, "Billing", testutil.WithID("F2"))
	testutil.Link(c, p)
	testutil.Link(p, e1, e2)
	testutil.Link(e1, f1)
	testutil.Link(e2, f2)
	env.seed(t, c, p, e1, e2, f1, f2)

	res, err := env.migrations.Start(ctx, MigrationRequest{CompanyID: acme, TargetPreset: "less", Mode: domain.ModeApply})
	require.ErrorIs(t, err, ErrMigrationIncomplete)
	require.NotNil(t, res)

	assert.Equal(t, domain.JobFailed, res.Job.Status)
	assert.Equal(t, 1, res.Job.Summary.MovedItems)
	assert.Equal(t, 2, res.Job.Progress.Processed)
	require.Len(t, res.Report.Failures, 1)
	assert.Equal(t, "F1", res.Report.Failures[0].ItemID)
	assert.Contains(t, res.Report.Failures[0].Error, "locked")

	assert.Equal(t, "E1", *env.get(t, "F1").ParentID, "failed move leaves the item in place")
	assert.Equal(t, []string{"F1"}, env.get(t, "E1").ChildrenIDs)
	assert.Equal(t, "P", *env.get(t, "F2").ParentID)
	assert.Empty(t, auditTree(mustList(t, env, acme)))

	stored, err := env.migrations.Report(ctx, res.Job.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Failures, 1)

	current, err := env.frameworks.Current(ctx, acme)
	require.NoError(t, err)
	assert.Equal(t, "scrum", current.ID, "a failed run does not switch frameworks")

	_, err = env.migrations.Rollback(ctx, res.Job.ID)
	assert.ErrorIs(t, err, domain.ErrRollbackNotAllowed)
}

func TestMigrationRollback_NotAllowed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedEpicScenario(t, env)

	scan, err := env.migrations.Start(ctx, MigrationRequest{CompanyID: acme, TargetPreset: "less", Mode: domain.ModeDryRun})
	require.NoError(t, err)
	_, err = env.migrations.Rollback(ctx, scan.Job.ID)
	assert.ErrorIs(t, err, domain.ErrRollbackNotAllowed)

	applied, err := env.migrations.Start(ctx, MigrationRequest{CompanyID: acme, TargetPreset: "less", Mode: domain.ModeApply})
	require.NoError(t, err)
	_, err = env.migrations.Rollback(ctx, applied.Job.ID)
	require.NoError(t, err)
	_, err = env.migrations.Rollback(ctx, applied.Job.ID)
	assert.ErrorIs(t, err, domain.ErrRollbackNotAllowed, "a job rolls back once")
}

func TestMigrationRollback_ItemEditedSinceApply(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedEpicScenario(t, env)

	res, err := env.migrations.Start(ctx, MigrationRequest{CompanyID: acme, TargetPreset: "less", Mode: domain.ModeApply})
	require.NoError(t, err)

	f := env.get(t, "F")
	f.Order = domain.IntPtr(7)
	require.NoError(t, env.items.Update(ctx, f))

	rb, err := env.migrations.Rollback(ctx, res.Job.ID)
	require.ErrorIs(t, err, ErrMigrationIncomplete)
	require.Len(t, rb.Failures, 1)
	assert.Equal(t, "F", rb.Failures[0].ItemID)

	job, err := env.migrations.Get(ctx, res.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, job.Status)
	assert.Equal(t, "P", *env.get(t, "F").ParentID)
}

func TestMigrationRollback_RetryAfterFixingTree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := testutil.NewTestItem(acme, domain.TypeCompany, "Acme", testutil.WithID("C"))
	p := testutil.NewTestItem(acme, domain.TypeProduct, "Platform", testutil.WithID("P"))
	e1 := testutil.NewTestItem(acme, domain.TypeEpic, "Epic 1", testutil.WithID("E1"))
	e2 := testutil.NewTestItem(acme, domain.TypeEpic, "Epic 2", testutil.WithID("E2"))
	f1 := testutil.NewTestItem(acme, domain.TypeFeature, "Search", testutil.WithID("F1"))
	f2 := testutil.NewTestItem(acme, domain.TypeFeature, "Billing", testutil.WithID("F2"))
	testutil.Link(c, p)
	testutil.Link(p, e1, e2)
	testutil.Link(e1, f1)
	testutil.Link(e2, f2)
	env.seed(t, c, p, e1, e2, f1, f2)
	before := env.snapshot(t, acme)

	res, err := env.migrations.Start(ctx, MigrationRequest{CompanyID: acme, TargetPreset: "less", Mode: domain.ModeApply})
	require.NoError(t, err)
	require.Equal(t, 2, res.Job.Summary.MovedItems)

	edited := env.get(t, "F2")
	edited.Order = domain.IntPtr(7)
	require.NoError(t, env.items.Update(ctx, edited))

	rb, err := env.migrations.Rollback(ctx, res.Job.ID)
	require.ErrorIs(t, err, ErrMigrationIncomplete)
	require.Len(t, rb.Failures, 1)
	assert.Equal(t, "F2", rb.Failures[0].ItemID)
	assert.Equal(t, 1, rb.Reverted)
	assert.Equal(t, "E1", *env.get(t, "F1").ParentID)

	edited = env.get(t, "F2")
	edited.Order = nil
	require.NoError(t, env.items.Update(ctx, edited))

	rb, err = env.migrations.Rollback(ctx, res.Job.ID)
	require.NoError(t, err)
	assert.Empty(t, rb.Failures)
	assert.Equal(t, 2, rb.Reverted, "the entry undone by the first run is skipped")

	job, err := env.migrations.Get(ctx, res.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobRolledBack, job.Status)
	assert.Equal(t, before, env.snapshot(t, acme))
	current, err := env.frameworks.Current(ctx, acme)
	require.NoError(t, err)
	assert.Equal(t, "scrum", current.ID)
}

func TestMigrationRevert_RemovedPlaceholderIsDone(t *testing.T) {
	env := newTestEnv(t)
	svc := env.migrations.(*migrationService)

	err := svc.revert(context.Background(), domain.MoveLogEntry{
		JobID:  "job",
		ItemID: "gone",
		Next:   domain.Placement{ParentID: domain.StrPtr("P"), Type: domain.TypeEpic},
	})
	assert.NoError(t, err)
}

func TestMigrationApply_SecondRunMovesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedEpicScenario(t, env)

	req := MigrationRequest{CompanyID: acme, TargetPreset: "less", Mode: domain.ModeApply}
	_, err := env.migrations.Start(ctx, req)
	require.NoError(t, err)
	again, err := env.migrations.Start(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, "less", again.Job.FromPreset)
	assert.Equal(t, domain.JobCompleted, again.Job.Status)
	assert.Zero(t, again.Job.Summary.MovedItems)
	assert.Equal(t, 1, again.Job.Summary.FlaggedForReview, "the epic still needs a human")
	entries, err := env.migrations.MoveLog(ctx, again.Job.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func mustList(t *testing.T, env *testEnv, companyID string) []*domain.WorkItem {
	t.Helper()
	items, err := env.items.ListByCompany(context.Background(), companyID)
	require.NoError(t, err)
	return items
}
