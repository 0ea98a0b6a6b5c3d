package domain

import "fmt"

// ItemType is the closed set of work item kinds a hierarchy can govern.
type ItemType string

const (
	TypeCompany        ItemType = "company"
	TypeProduct        ItemType = "product"
	TypeStrategicTheme ItemType = "strategic-theme"
	TypeSolution       ItemType = "solution"
	TypeInitiative     ItemType = "initiative"
	TypeCapability     ItemType = "capability"
	TypeEpic           ItemType = "epic"
	TypeFeature        ItemType = "feature"
	TypeUserStory      ItemType = "user-story"
	TypeTask           ItemType = "task"
	TypeBug            ItemType = "bug"
)

// CanonicalTypes lists every known item type in default display rank.
// It doubles as the default enabled-type set of a hierarchy config.
var CanonicalTypes = []ItemType{
	TypeCompany,
	TypeProduct,
	TypeStrategicTheme,
	TypeSolution,
	TypeInitiative,
	TypeCapability,
	TypeEpic,
	TypeFeature,
	TypeUserStory,
	TypeTask,
	TypeBug,
}

// TenantRootType is the type of the item that anchors a company scope.
// It is enabled under every framework.
const TenantRootType = TypeCompany

var canonicalTypeSet = func() map[ItemType]bool {
	m := make(map[ItemType]bool, len(CanonicalTypes))
	for _, t := range CanonicalTypes {
		m[t] = true
	}
	return m
}()

// Valid reports whether t is one of the canonical item types.
func (t ItemType) Valid() bool {
	return canonicalTypeSet[t]
}

// ParseItemType converts a user-supplied string into an ItemType.
func ParseItemType(s string) (ItemType, error) {
	t := ItemType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown item type %q", s)
	}
	return t, nil
}

type ItemStatus string

const (
	ItemTodo       ItemStatus = "todo"
	ItemInProgress ItemStatus = "in_progress"
	ItemDone       ItemStatus = "done"
)

// ParseItemStatus converts a user-supplied string into an ItemStatus.
func ParseItemStatus(s string) (ItemStatus, error) {
	switch st := ItemStatus(s); st {
	case ItemTodo, ItemInProgress, ItemDone:
		return st, nil
	}
	return "", fmt.Errorf("unknown item status %q", s)
}

type MigrationMode string

const (
	ModeDryRun MigrationMode = "DRY_RUN"
	ModeApply  MigrationMode = "APPLY"
)

// ParseMigrationMode accepts the canonical names plus the CLI spellings
// "scan" and "apply".
func ParseMigrationMode(s string) (MigrationMode, error) {
	switch s {
	case string(ModeDryRun), "dry-run", "scan":
		return ModeDryRun, nil
	case string(ModeApply), "apply":
		return ModeApply, nil
	}
	return "", fmt.Errorf("unknown migration mode %q", s)
}

type JobStatus string

const (
	JobQueued     JobStatus = "QUEUED"
	JobRunning    JobStatus = "RUNNING"
	JobCompleted  JobStatus = "COMPLETED"
	JobFailed     JobStatus = "FAILED"
	JobRolledBack JobStatus = "ROLLED_BACK"
)

type Confidence string

const (
	ConfidenceHigh Confidence = "HIGH"
	ConfidenceLow  Confidence = "LOW"
)

// ReviewReason explains why an item landed in a migration's review queue.
type ReviewReason string

const (
	ReasonDisabledType     ReviewReason = "disabled_type"
	ReasonUnresolvedParent ReviewReason = "unresolved_parent"
	ReasonAmbiguousParent  ReviewReason = "ambiguous_parent"
)
