package hierarchy

import (
	"testing"

	"github.com/alexanderramin/arbor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolverFor(tree *Tree, enabled ...domain.ItemType) Resolver {
	target := NewTarget(testPreset(enabled...))
	return Resolver{
		Tree:          tree,
		Hierarchy:     target.Hierarchy,
		Enabled:       target.Config.IsEnabled,
		ContainerType: domain.TypeProduct,
	}
}

func TestResolve_KeepsLegalParent(t *testing.T) {
	tree := NewTree(scenarioItems())
	r := resolverFor(tree, domain.TypeProduct, domain.TypeEpic, domain.TypeFeature, domain.TypeUserStory)

	res, err := r.Resolve("F", domain.TypeFeature)
	require.NoError(t, err)
	assert.True(t, res.Resolved)
	assert.False(t, res.Moved)
	assert.Equal(t, domain.ConfidenceHigh, res.Confidence)
	assert.Equal(t, "E", *res.ParentID)
}

func TestResolve_UniqueContainerIsHighConfidence(t *testing.T) {
	tree := NewTree(scenarioItems())
	r := resolverFor(tree, domain.TypeProduct, domain.TypeFeature, domain.TypeUserStory)

	res, err := r.Resolve("F", domain.TypeFeature)
	require.NoError(t, err)
	assert.True(t, res.Resolved)
	assert.True(t, res.Moved)
	assert.Equal(t, "P", *res.ParentID)
	assert.Equal(t, domain.ConfidenceHigh, res.Confidence)
	assert.Equal(t, []string{"P"}, res.Candidates)
}

func TestResolve_AmbiguousWithinContainerIsLow(t *testing.T) {
	tree := NewTree([]*domain.WorkItem{
		item("C", domain.TypeCompany, ""),
		item("P", domain.TypeProduct, "C"),
		item("I", domain.TypeInitiative, "P"),
		item("E2", domain.TypeEpic, "P"),
		item("E1", domain.TypeEpic, "I"),
		item("F", domain.TypeFeature, "P"),
	})
	r := resolverFor(tree, domain.TypeProduct, domain.TypeEpic, domain.TypeFeature)

	res, err := r.Resolve("F", domain.TypeFeature)
	require.NoError(t, err)
	assert.True(t, res.Resolved)
	assert.Equal(t, domain.ConfidenceLow, res.Confidence)
	assert.Equal(t, []string{"E1", "E2"}, res.Candidates, "non-ancestors by ascending id")
	assert.Equal(t, "E1", *res.ParentID)
}

func TestResolve_AncestorsPreferred(t *testing.T) {
	tree := NewTree([]*domain.WorkItem{
		item("C", domain.TypeCompany, ""),
		item("P", domain.TypeProduct, "C"),
		item("A", domain.TypeEpic, "P"),
		item("Z", domain.TypeEpic, "P"),
		item("Bug", domain.TypeBug, "Z"),
	})
	r := resolverFor(tree, domain.TypeProduct, domain.TypeEpic, domain.TypeBug)
	r.Hierarchy[domain.TypeEpic] = []domain.ItemType{domain.TypeBug}
	r.Hierarchy[domain.TypeProduct] = []domain.ItemType{domain.TypeEpic, domain.TypeBug}

	// Z drops out of the enabled set, leaving Bug with an illegal parent.
	tree.Index()["Z"].Type = domain.TypeFeature
	res, err := r.Resolve("Bug", domain.TypeBug)
	require.NoError(t, err)
	assert.Equal(t, []string{"P", "A"}, res.Candidates)
	assert.Equal(t, "P", *res.ParentID)
	assert.Equal(t, domain.ConfidenceLow, res.Confidence)
}

func TestResolve_OutsideContainerFallsBackLow(t *testing.T) {
	tree := NewTree([]*domain.WorkItem{
		item("C", domain.TypeCompany, ""),
		item("P1", domain.TypeProduct, "C"),
		item("P2", domain.TypeProduct, "C"),
		item("E", domain.TypeEpic, "P2"),
		item("S", domain.TypeUserStory, "P1"),
	})
	r := resolverFor(tree, domain.TypeProduct, domain.TypeEpic, domain.TypeFeature, domain.TypeUserStory)
	tree.Index()["E"].Type = domain.TypeFeature

	res, err := r.Resolve("S", domain.TypeUserStory)
	require.NoError(t, err)
	assert.True(t, res.Resolved)
	assert.Equal(t, "E", *res.ParentID)
	assert.Equal(t, domain.ConfidenceLow, res.Confidence, "only candidate lives in another product")
}

func TestResolve_NoCandidate(t *testing.T) {
	tree := NewTree(scenarioItems())
	r := resolverFor(tree, domain.TypeProduct, domain.TypeUserStory)
	r.Hierarchy = domain.Hierarchy{domain.TypeCompany: {domain.TypeProduct}}

	res, err := r.Resolve("S", domain.TypeUserStory)
	require.NoError(t, err)
	assert.False(t, res.Resolved)
	assert.Nil(t, res.ParentID)
	assert.Empty(t, res.Candidates)
}

func TestResolve_NeverPicksOwnDescendant(t *testing.T) {
	tree := NewTree([]*domain.WorkItem{
		item("C", domain.TypeCompany, ""),
		item("P", domain.TypeProduct, "C"),
		item("X", domain.TypeBug, "P"),
		item("E", domain.TypeEpic, "X"),
		item("F", domain.TypeFeature, "E"),
	})
	r := resolverFor(tree, domain.TypeProduct, domain.TypeEpic, domain.TypeFeature, domain.TypeBug)
	r.Hierarchy[domain.TypeFeature] = []domain.ItemType{domain.TypeEpic}

	res, err := r.Resolve("E", domain.TypeEpic)
	require.NoError(t, err)
	assert.True(t, res.Resolved)
	assert.Equal(t, "P", *res.ParentID)
	assert.NotContains(t, res.Candidates, "F")
}

func TestResolve_RootsStay(t *testing.T) {
	tree := NewTree(scenarioItems())
	r := resolverFor(tree, domain.TypeProduct)
	res, err := r.Resolve("C", domain.TypeCompany)
	require.NoError(t, err)
	assert.True(t, res.Resolved)
	assert.False(t, res.Moved)
}

func TestResolve_IllegalRootNeedsAParent(t *testing.T) {
	tree := NewTree(append(scenarioItems(), item("T", domain.TypeTask, ""), item("Q", domain.TypeProduct, "")))
	r := resolverFor(tree, domain.TypeProduct, domain.TypeEpic, domain.TypeFeature, domain.TypeUserStory, domain.TypeTask)

	res, err := r.Resolve("T", domain.TypeTask)
	require.NoError(t, err)
	assert.True(t, res.Resolved)
	assert.True(t, res.Moved)
	assert.Equal(t, "S", *res.ParentID)
	assert.Equal(t, domain.ConfidenceLow, res.Confidence, "adopting a root is always reviewed")

	res, err = r.Resolve("Q", domain.TypeProduct)
	require.NoError(t, err)
	assert.True(t, res.Resolved)
	assert.False(t, res.Moved, "a product may sit at the root")
}
