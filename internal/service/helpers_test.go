package service

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/arbor/internal/domain"
	"github.com/alexanderramin/arbor/internal/hierarchy"
	"github.com/alexanderramin/arbor/internal/preset"
	"github.com/alexanderramin/arbor/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now().UTC()
	c := testutil.NewTestItem(acme, domain.TypeCompany, "Acme", testutil.WithID("C"))
	p := testutil.NewTestItem(acme, domain.TypeProduct, "Platform", testutil.WithID("P"))
	e1 := testutil.NewTestItem(acme, domain.TypeEpic, "Checkout", testutil.WithID("E1"))
	e2 := testutil.NewTestItem(acme, domain.TypeEpic, "Search", testutil.WithID("E2"))
	s := testutil.NewTestItem(acme, domain.TypeUserStory, "Pay", testutil.WithID("S"))
	g := testutil.NewTestItem(globex, domain.TypeCompany, "Globex", testutil.WithID("G"))
	testutil.Link(c, p)
	testutil.Link(p, e1)
	testutil.Link(p, e2)
	testutil.Link(e1, s)
	env.seed(t, c, p, e1, e2, s, g)

	story := env.get(t, "S")
	require.NoError(t, relink(ctx, env.items, story, domain.StrPtr("E2"), now))
	assert.Empty(t, env.get(t, "E1").ChildrenIDs)
	assert.Equal(t, []string{"S"}, env.get(t, "E2").ChildrenIDs)
	assert.Equal(t, "E1", *env.get(t, "S").ParentID, "the item itself is left to the caller")

	story.ParentID = domain.StrPtr("E2")
	require.NoError(t, env.items.Update(ctx, story))
	assert.NoError(t, relink(ctx, env.items, story, domain.StrPtr("E2"), now), "same parent is a no-op")

	err := relink(ctx, env.items, env.get(t, "E2"), domain.StrPtr("S"), now)
	assert.ErrorIs(t, err, hierarchy.ErrCycle)

	err = relink(ctx, env.items, story, domain.StrPtr("G"), now)
	assert.ErrorIs(t, err, hierarchy.ErrCrossTenant)
	assert.Empty(t, env.get(t, "G").ChildrenIDs)
}

func TestAuditTree_ReportsCycles(t *testing.T) {
	a := testutil.NewTestItem(acme, domain.TypeEpic, "A", testutil.WithID("A"), testutil.WithParentID("B"))
	b := testutil.NewTestItem(acme, domain.TypeEpic, "B", testutil.WithID("B"), testutil.WithParentID("A"))
	a.ChildrenIDs = []string{"B"}
	b.ChildrenIDs = []string{"A"}
	assert.NotEmpty(t, auditTree([]*domain.WorkItem{a, b}))

	c := testutil.NewTestItem(acme, domain.TypeCompany, "Acme", testutil.WithID("C"))
	p := testutil.NewTestItem(acme, domain.TypeProduct, "Platform", testutil.WithID("P"))
	testutil.Link(c, p)
	assert.Empty(t, auditTree([]*domain.WorkItem{c, p}))
}

func TestCheckPlacement(t *testing.T) {
	presets, err := preset.Default()
	require.NoError(t, err)
	scrum, err := presets.Get("scrum")
	require.NoError(t, err)
	target := hierarchy.TargetFor(scrum, scrum.DefaultConfig(""))

	product := &domain.WorkItem{ID: "P", Type: domain.TypeProduct}
	company := &domain.WorkItem{ID: "C", Type: domain.TypeCompany}

	assert.NoError(t, checkPlacement(target, nil, domain.TypeCompany))
	assert.NoError(t, checkPlacement(target, nil, domain.TypeProduct))
	assert.NoError(t, checkPlacement(target, product, domain.TypeEpic))
	assert.ErrorIs(t, checkPlacement(target, nil, domain.TypeEpic), ErrTypeNotAllowed)
	assert.ErrorIs(t, checkPlacement(target, company, domain.TypeTask), ErrTypeNotAllowed)

	err = checkPlacement(target, product, domain.TypeFeature)
	assert.ErrorIs(t, err, ErrTypeNotAllowed)
	assert.Contains(t, err.Error(), "disabled")
}
