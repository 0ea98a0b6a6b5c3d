package domain

import (
	"fmt"
	"time"
)

// MigrationProgress counts processed plan steps against the plan size.
type MigrationProgress struct {
	Processed int
	Total     int
}

// MigrationSummary is updated incrementally while a job runs so that it
// always reflects work that actually completed.
type MigrationSummary struct {
	CreatedContainers int
	MovedItems        int
	FlaggedForReview  int
	InvalidItems      int
}

type MigrationJob struct {
	ID         string
	CompanyID  string
	FromPreset string
	ToPreset   string
	Mode       MigrationMode
	Status     JobStatus
	Progress   MigrationProgress
	Summary    MigrationSummary
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

var jobTransitions = map[JobStatus][]JobStatus{
	JobQueued:    {JobRunning},
	JobRunning:   {JobCompleted, JobFailed},
	JobCompleted: {JobRolledBack},
}

// CanTransition reports whether the job may move to next.
func (j *MigrationJob) CanTransition(next JobStatus) bool {
	for _, s := range jobTransitions[j.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// Transition moves the job to next, enforcing
// QUEUED -> RUNNING -> {COMPLETED, FAILED}; COMPLETED -> ROLLED_BACK.
func (j *MigrationJob) Transition(next JobStatus, now time.Time) error {
	if !j.CanTransition(next) {
		return fmt.Errorf("%s -> %s: %w", j.Status, next, ErrInvalidTransition)
	}
	j.Status = next
	j.UpdatedAt = now
	return nil
}

// IsTerminal reports whether the job has left RUNNING for good.
func (j *MigrationJob) IsTerminal() bool {
	switch j.Status {
	case JobCompleted, JobFailed, JobRolledBack:
		return true
	}
	return false
}

// MoveLogEntry records one applied move. Entries are append-only and are
// the sole input to rollback.
type MoveLogEntry struct {
	Seq       int64
	JobID     string
	ItemID    string
	Prev      Placement
	Next      Placement
	MovedBy   string
	CreatedAt time.Time
}

// IsCreation reports whether the entry records an item the job created
// (a synthesized placeholder) rather than a move. Such entries have an
// empty Prev.
func (e MoveLogEntry) IsCreation() bool {
	return e.Prev.Type == ""
}

// PlannedMove is one re-parent (and possibly retype) decided by the planner.
type PlannedMove struct {
	ItemID     string
	Title      string
	From       Placement
	To         Placement
	Confidence Confidence
}

// PlannedContainer is a placeholder the planner synthesizes because no item
// of a required parent type exists in scope.
type PlannedContainer struct {
	ID       string
	Type     ItemType
	Title    string
	ParentID *string
}

// ReviewItem is an item a human must look at after the migration.
type ReviewItem struct {
	ItemID       string
	Title        string
	Type         ItemType
	Reason       ReviewReason
	CandidateIDs []string
}

// ItemFailure records a persistence failure against one plan step.
type ItemFailure struct {
	ItemID string
	Step   string
	Error  string
}

// MigrationReport is persisted alongside a finished job.
type MigrationReport struct {
	JobID       string
	Moves       []PlannedMove
	Creations   []PlannedContainer
	ReviewQueue []ReviewItem
	Issues      []string
	Failures    []ItemFailure
}
