package formatter

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/arbor/internal/domain"
	"github.com/alexanderramin/arbor/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// stripANSI removes ANSI escape codes so assertions are terminal-independent.
func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func TestRenderTree_Connectors(t *testing.T) {
	got := stripANSI(RenderTree([]TreeItem{
		{Title: "Acme", Level: 0, IsLast: true},
		{Title: "A", Level: 1},
		{Title: "A1", Level: 2, IsLast: true},
		{Title: "B", Level: 1, IsLast: true},
		{Title: "B1", Level: 2, IsLast: true, Status: "done"},
	}))
	assert.Equal(t, "Acme\n├─ A\n│  └─ A1\n└─ B\n   └─ ✔ B1\n", got)
	assert.Empty(t, RenderTree(nil))
}

func TestRenderTable_AlignsColumns(t *testing.T) {
	got := stripANSI(RenderTable([]string{"ID", "NAME"}, [][]string{
		{"a", "long name"},
		{"bbbb", "x"},
	}))
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ID    NAME", lines[0])
	assert.Equal(t, "────  ─────────", lines[1])
	assert.Equal(t, "a     long name", lines[2])
	assert.Equal(t, "bbbb  x", lines[3])
}

func TestRenderProgress(t *testing.T) {
	got := stripANSI(RenderProgress(domain.MigrationProgress{Processed: 1, Total: 4}, domain.JobRunning, 8))
	assert.Equal(t, "[██░░░░░░]  25% (1/4)", got)

	empty := stripANSI(RenderProgress(domain.MigrationProgress{}, domain.JobCompleted, 4))
	assert.Equal(t, "[████] 100% (0/0)", empty, "an empty plan is complete")
}

func TestHumanTimestampFrom(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "Just now", HumanTimestampFrom(now.Add(-10*time.Second), now))
	assert.Equal(t, "5m ago", HumanTimestampFrom(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", HumanTimestampFrom(now.Add(-3*time.Hour), now))
	assert.Equal(t, "Feb 1, 2026 12:00", HumanTimestampFrom(now.AddDate(0, -1, 0), now))
}

func TestFormatReport(t *testing.T) {
	report := &domain.MigrationReport{
		Moves: []domain.PlannedMove{{
			ItemID:     "F",
			Title:      "Payments",
			From:       domain.Placement{ParentID: domain.StrPtr("E"), Type: domain.TypeFeature},
			To:         domain.Placement{ParentID: domain.StrPtr("P"), Type: domain.TypeFeature},
			Confidence: domain.ConfidenceHigh,
		}},
		ReviewQueue: []domain.ReviewItem{{ItemID: "E", Title: "Checkout", Type: domain.TypeEpic, Reason: domain.ReasonDisabledType}},
		Issues:      []string{"item P: stored childrenIds [ghost], parent references []"},
	}
	got := stripANSI(FormatReport(report))
	assert.Contains(t, got, "MOVES")
	assert.Contains(t, got, "feature under E")
	assert.Contains(t, got, "feature under P")
	assert.Contains(t, got, "HIGH")
	assert.Contains(t, got, "REVIEW QUEUE")
	assert.Contains(t, got, "disabled_type")
	assert.Contains(t, got, "• item P: stored childrenIds")
	assert.NotContains(t, got, "FAILURES")

	assert.Contains(t, stripANSI(FormatReport(&domain.MigrationReport{})), "Nothing to migrate.")
}

func TestFormatPlacement(t *testing.T) {
	assert.Equal(t, "(new)", stripANSI(FormatPlacement(domain.Placement{})))
	assert.Equal(t, "product under (root)", stripANSI(FormatPlacement(domain.Placement{Type: domain.TypeProduct})))
	assert.Equal(t, "task under S #3", stripANSI(FormatPlacement(domain.Placement{
		ParentID: domain.StrPtr("S"), Order: domain.IntPtr(3), Type: domain.TypeTask,
	})))
}

func TestFormatMoveLog_MarksCreations(t *testing.T) {
	got := stripANSI(FormatMoveLog([]domain.MoveLogEntry{
		{Seq: 1, ItemID: "X", Next: domain.Placement{ParentID: domain.StrPtr("P"), Type: domain.TypeInitiative}, MovedBy: "ana"},
		{Seq: 2, ItemID: "E", Prev: domain.Placement{ParentID: domain.StrPtr("P"), Type: domain.TypeEpic},
			Next: domain.Placement{ParentID: domain.StrPtr("X"), Type: domain.TypeEpic}, MovedBy: "ana"},
	}))
	assert.Contains(t, got, "create")
	assert.Contains(t, got, "epic under X")
	assert.Contains(t, stripANSI(FormatMoveLog(nil)), "No moves recorded.")
}

func TestFormatJobAndRollback(t *testing.T) {
	job := &domain.MigrationJob{
		ID: "job-1", FromPreset: "scrum", ToPreset: "less", Mode: domain.ModeApply,
		Status: domain.JobFailed, Progress: domain.MigrationProgress{Processed: 2, Total: 2},
		Summary: domain.MigrationSummary{MovedItems: 1}, Error: "1 step failed",
	}
	got := stripANSI(FormatJob(job))
	assert.Contains(t, got, "scrum → less")
	assert.Contains(t, got, "FAILED")
	assert.Contains(t, got, "1 moved")
	assert.Contains(t, got, "1 step failed")

	list := stripANSI(FormatJobList([]*domain.MigrationJob{job}))
	assert.Contains(t, list, "job-1")
	assert.Contains(t, list, "2/2")

	rb := stripANSI(FormatRollback(&service.RollbackResult{
		Reverted: 1,
		Failures: []domain.ItemFailure{{ItemID: "F", Step: "revert", Error: "changed since apply"}},
	}))
	assert.Contains(t, rb, "Reverted 1 moves, removed 0 placeholders.")
	assert.Contains(t, rb, "COULD NOT REVERT")
	assert.Contains(t, rb, "changed since apply")
}

func TestFormatOutline(t *testing.T) {
	company := &domain.WorkItem{ID: "C", Title: "Acme", Type: domain.TypeCompany, Status: domain.ItemTodo}
	product := &domain.WorkItem{ID: "P", Title: "Platform", Type: domain.TypeProduct, Status: domain.ItemTodo}
	epicA := &domain.WorkItem{ID: "E1", Title: "Checkout", Type: domain.TypeEpic, Status: domain.ItemInProgress, Order: domain.IntPtr(1)}
	epicB := &domain.WorkItem{ID: "E2", Title: "Search", Type: domain.TypeEpic, Status: domain.ItemTodo}
	got := stripANSI(FormatOutline([]service.OutlineRow{
		{Item: company, Depth: 0, Label: "Company"},
		{Item: product, Depth: 1, Label: "Product"},
		{Item: epicA, Depth: 2, Label: "Epic"},
		{Item: epicB, Depth: 2, Label: "Epic"},
	}))
	assert.Contains(t, got, "└─ Product Platform P")
	assert.Contains(t, got, "   ├─ ▶ Epic Checkout E1")
	assert.Contains(t, got, "   └─ Epic Search E2")
	assert.Contains(t, got, "[ #1 ]")

	assert.Contains(t, stripANSI(FormatOutline(nil)), "No work items yet.")
}

func TestFormatTreeCheck(t *testing.T) {
	assert.Contains(t, stripANSI(FormatTreeCheck(&service.TreeCheck{Items: 3})), "3 items, no problems found.")
	bad := stripANSI(FormatTreeCheck(&service.TreeCheck{Items: 2, Problems: []string{"item F: nope"}}))
	assert.Contains(t, bad, "2 items, 1 problems:")
	assert.Contains(t, bad, "• item F: nope")
}

func TestFormatDeletePreview(t *testing.T) {
	got := stripANSI(FormatDeletePreview(&service.SubtreePreview{
		RootID: "E",
		IDs:    []string{"T", "S", "E"},
		Counts: map[domain.ItemType]int{domain.TypeEpic: 1, domain.TypeUserStory: 1, domain.TypeTask: 1},
	}))
	assert.Contains(t, got, "Deleting E removes 3 items:")
	assert.Less(t, strings.Index(got, "epic"), strings.Index(got, "task"))
}

func TestFormatHierarchyAndPresets(t *testing.T) {
	p := domain.Preset{
		ID:           "scrum",
		Name:         "Scrum",
		EnabledTypes: []domain.ItemType{domain.TypeProduct, domain.TypeEpic},
		Order:        []domain.ItemType{domain.TypeProduct, domain.TypeEpic},
		Hierarchy:    domain.Hierarchy{domain.TypeProduct: {domain.TypeEpic}},
		Labels:       map[domain.ItemType]string{domain.TypeEpic: "Epic"},
	}
	cfg := stripANSI(FormatHierarchyConfig(domain.HierarchyConfig{
		ProductID:    "P",
		EnabledTypes: []domain.ItemType{domain.TypeProduct},
		Order:        []domain.ItemType{domain.TypeProduct, domain.TypeEpic},
	}, p))
	assert.Contains(t, cfg, "product P")
	assert.Contains(t, cfg, " 1. ● product")
	assert.Contains(t, cfg, " 2. ○ Epic epic")

	list := stripANSI(FormatPresetList([]domain.Preset{p, {ID: "less", Name: "LeSS"}}, "scrum"))
	assert.Contains(t, list, "* scrum")
	assert.NotContains(t, list, "* less")

	assert.Contains(t, stripANSI(FormatPreset(p)), "product → epic")
}
