package service

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"slices"
	"testing"

	"github.com/alexanderramin/arbor/internal/db"
	"github.com/alexanderramin/arbor/internal/domain"
	"github.com/alexanderramin/arbor/internal/preset"
	"github.com/alexanderramin/arbor/internal/repository"
	"github.com/alexanderramin/arbor/internal/testutil"
	"github.com/stretchr/testify/require"
)

const (
	acme   = "acme"
	globex = "globex"
)

type testEnv struct {
	db       *sql.DB
	items    *repository.SQLiteWorkItemRepo
	configs  *repository.SQLiteHierarchyConfigRepo
	settings *repository.SQLiteFrameworkRepo
	jobs     *repository.SQLiteMigrationJobRepo
	moveLog  *repository.SQLiteMoveLogRepo
	reports  *repository.SQLiteMigrationReportRepo
	logs     *bytes.Buffer
	uow      db.UnitOfWork

	frameworks  FrameworkService
	hierarchies HierarchyService
	workItems   WorkItemService
	migrations  MigrationService
}

// newTestEnv wires every service against a fresh in-memory database.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvOn(t, testutil.NewTestDB(t), nil)
}

// newTestEnvOn wires every service against database. A non-nil uow replaces
// the real unit of work.
func newTestEnvOn(t *testing.T, database *sql.DB, uow db.UnitOfWork) *testEnv {
	t.Helper()
	presets, err := preset.Default()
	require.NoError(t, err)

	env := &testEnv{
		db:       database,
		items:    repository.NewSQLiteWorkItemRepo(database),
		configs:  repository.NewSQLiteHierarchyConfigRepo(database),
		settings: repository.NewSQLiteFrameworkRepo(database),
		jobs:     repository.NewSQLiteMigrationJobRepo(database),
		moveLog:  repository.NewSQLiteMoveLogRepo(database),
		reports:  repository.NewSQLiteMigrationReportRepo(database),
		logs:     &bytes.Buffer{},
	}
	u := uow
	if u == nil {
		u = testutil.NewTestUoW(database)
	}
	env.uow = u
	logger := NewLogger(env.logs, slog.LevelDebug, "text")

	env.frameworks = NewFrameworkService(presets, env.settings, "scrum")
	env.hierarchies = NewHierarchyService(env.configs, env.frameworks, logger)
	env.workItems = NewWorkItemService(env.items, env.hierarchies, u)
	env.migrations = NewMigrationService(env.items, env.jobs, env.moveLog, env.reports, env.frameworks, u, logger)
	return env
}

// seed stores items in the given order; parents must come first.
func (e *testEnv) seed(t *testing.T, items ...*domain.WorkItem) {
	t.Helper()
	for _, it := range items {
		require.NoError(t, e.items.Create(context.Background(), it))
	}
}

func (e *testEnv) get(t *testing.T, id string) *domain.WorkItem {
	t.Helper()
	w, err := e.items.GetByID(context.Background(), id)
	require.NoError(t, err)
	return w
}

// seedEpicScenario stores Acme > Platform > Checkout (epic) > Payments
// (feature) > Pay by card (user story) under ids C, P, E, F, S.
func seedEpicScenario(t *testing.T, env *testEnv) {
	t.Helper()
	c := testutil.NewTestItem(acme, domain.TypeCompany, "Acme", testutil.WithID("C"))
	p := testutil.NewTestItem(acme, domain.TypeProduct, "Platform", testutil.WithID("P"))
	e := testutil.NewTestItem(acme, domain.TypeEpic, "Checkout", testutil.WithID("E"))
	f := testutil.NewTestItem(acme, domain.TypeFeature, "Payments", testutil.WithID("F"))
	s := testutil.NewTestItem(acme, domain.TypeUserStory, "Pay by card", testutil.WithID("S"))
	testutil.Link(c, p)
	testutil.Link(p, e)
	testutil.Link(e, f)
	testutil.Link(f, s)
	env.seed(t, c, p, e, f, s)
}

type placement struct {
	Parent   *string
	Order    *int
	Type     domain.ItemType
	Children []string
}

// snapshot captures every item's placement and children set.
func (e *testEnv) snapshot(t *testing.T, companyID string) map[string]placement {
	t.Helper()
	items, err := e.items.ListByCompany(context.Background(), companyID)
	require.NoError(t, err)
	out := make(map[string]placement, len(items))
	for _, it := range items {
		var kids []string
		if len(it.ChildrenIDs) > 0 {
			kids = slices.Sorted(slices.Values(it.ChildrenIDs))
		}
		out[it.ID] = placement{Parent: it.ParentID, Order: it.Order, Type: it.Type, Children: kids}
	}
	return out
}
