package hierarchy

import (
	"testing"

	"github.com/alexanderramin/arbor/internal/domain"
	"github.com/stretchr/testify/require"
)

const testCompany = "acme"

// testHierarchy nests company > product > (initiative >) epic > feature > story > task.
var testHierarchy = domain.Hierarchy{
	domain.TypeCompany:    {domain.TypeProduct},
	domain.TypeProduct:    {domain.TypeInitiative, domain.TypeEpic, domain.TypeBug},
	domain.TypeInitiative: {domain.TypeEpic},
	domain.TypeEpic:       {domain.TypeFeature},
	domain.TypeFeature:    {domain.TypeUserStory, domain.TypeBug},
	domain.TypeUserStory:  {domain.TypeTask},
	domain.TypeBug:        {domain.TypeTask},
}

type itemOpt func(*domain.WorkItem)

func withOrder(n int) itemOpt {
	return func(w *domain.WorkItem) { w.Order = domain.IntPtr(n) }
}

func withCompany(c string) itemOpt {
	return func(w *domain.WorkItem) { w.CompanyID = c }
}

func item(id string, typ domain.ItemType, parent string, opts ...itemOpt) *domain.WorkItem {
	w := &domain.WorkItem{ID: id, CompanyID: testCompany, Type: typ, Title: id, Status: domain.ItemTodo}
	if parent != "" {
		w.ParentID = domain.StrPtr(parent)
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

func testPreset(enabled ...domain.ItemType) domain.Preset {
	return domain.Preset{
		ID:            "test",
		Name:          "Test",
		ContainerType: domain.TypeProduct,
		EnabledTypes:  enabled,
		Order:         enabled,
		Hierarchy:     testHierarchy,
	}
}

// scenarioItems is Company C > Product P > Epic E > Feature F > Story S.
func scenarioItems() []*domain.WorkItem {
	return []*domain.WorkItem{
		item("C", domain.TypeCompany, ""),
		item("P", domain.TypeProduct, "C"),
		item("E", domain.TypeEpic, "P"),
		item("F", domain.TypeFeature, "E"),
		item("S", domain.TypeUserStory, "F"),
	}
}

func requireInvariants(t *testing.T, tree *Tree) {
	t.Helper()
	require.NoError(t, tree.CheckInvariants())
}
