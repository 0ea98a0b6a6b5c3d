package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/alexanderramin/arbor/internal/db"
	"github.com/alexanderramin/arbor/internal/domain"
	"github.com/alexanderramin/arbor/internal/hierarchy"
	"github.com/alexanderramin/arbor/internal/repository"
	"github.com/google/uuid"
)

// ErrMigrationIncomplete is returned by an APPLY run or a rollback that
// finished with per-item failures.
var ErrMigrationIncomplete = errors.New("migration finished with failures")

type migrationService struct {
	items      repository.WorkItemRepo
	jobs       repository.MigrationJobRepo
	moveLog    repository.MoveLogRepo
	reports    repository.MigrationReportRepo
	frameworks FrameworkService
	uow        db.UnitOfWork
	logger     *slog.Logger
	observer   UseCaseObserver
	now        func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewMigrationService(
	items repository.WorkItemRepo,
	jobs repository.MigrationJobRepo,
	moveLog repository.MoveLogRepo,
	reports repository.MigrationReportRepo,
	frameworks FrameworkService,
	uow db.UnitOfWork,
	logger *slog.Logger,
	observers ...UseCaseObserver,
) MigrationService {
	return &migrationService{
		items:      items,
		jobs:       jobs,
		moveLog:    moveLog,
		reports:    reports,
		frameworks: frameworks,
		uow:        uow,
		logger:     loggerOrDiscard(logger),
		observer:   useCaseObserverOrNoop(observers),
		now:        func() time.Time { return time.Now().UTC() },
		locks:      make(map[string]*sync.Mutex),
	}
}

// companyLock serializes migrations and rollbacks of one company within
// this process.
func (s *migrationService) companyLock(companyID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[companyID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[companyID] = l
	}
	return l
}

func (s *migrationService) Start(ctx context.Context, req MigrationRequest) (_ *MigrationResult, err error) {
	startedAt := s.now()
	fields := map[string]any{
		"company_id":    req.CompanyID,
		"target_preset": req.TargetPreset,
		"mode":          string(req.Mode),
	}
	defer observe(ctx, s.observer, "start-migration", startedAt, fields, &err)

	if req.Mode != domain.ModeDryRun && req.Mode != domain.ModeApply {
		return nil, fmt.Errorf("unknown migration mode %q", req.Mode)
	}
	target, err := s.frameworks.Preset(req.TargetPreset)
	if err != nil {
		return nil, err
	}

	lock := s.companyLock(req.CompanyID)
	lock.Lock()
	defer lock.Unlock()

	from, err := s.frameworks.Current(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	job := &domain.MigrationJob{
		ID:         uuid.New().String(),
		CompanyID:  req.CompanyID,
		FromPreset: from.ID,
		ToPreset:   target.ID,
		Mode:       req.Mode,
		Status:     domain.JobQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err = s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("creating migration job: %w", err)
	}
	fields["job_id"] = job.ID
	if err = job.Transition(domain.JobRunning, s.now()); err != nil {
		return nil, err
	}
	if err = s.jobs.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("starting migration job: %w", err)
	}

	items, err := s.items.ListByCompany(ctx, req.CompanyID)
	if err != nil {
		return nil, s.fail(ctx, job, fmt.Errorf("loading items: %w", err))
	}
	plan, err := hierarchy.BuildPlan(req.CompanyID, items, hierarchy.NewTarget(target))
	if err != nil {
		return nil, s.fail(ctx, job, fmt.Errorf("planning: %w", err))
	}
	report := &domain.MigrationReport{
		JobID:       job.ID,
		Moves:       plan.Moves,
		Creations:   plan.Creations,
		ReviewQueue: plan.ReviewQueue,
		Issues:      auditTree(items),
	}
	job.Progress.Total = plan.Steps()
	fields["steps"] = plan.Steps()

	if req.Mode == domain.ModeDryRun {
		done := *job
		done.Summary = plan.Summary()
		done.Progress.Processed = done.Progress.Total
		err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
			if err := repository.NewSQLiteMigrationReportRepo(tx).Save(ctx, report); err != nil {
				return err
			}
			if err := done.Transition(domain.JobCompleted, s.now()); err != nil {
				return err
			}
			return repository.NewSQLiteMigrationJobRepo(tx).Update(ctx, &done)
		})
		if err != nil {
			return nil, s.fail(ctx, job, fmt.Errorf("saving scan report: %w", err))
		}
		*job = done
		return &MigrationResult{Job: job, Report: report}, nil
	}

	return s.apply(ctx, job, plan, report, target, req.MovedBy)
}

// apply persists the plan one step per transaction, creations first.
// A failed step is recorded in the report and the run moves on.
func (s *migrationService) apply(ctx context.Context, job *domain.MigrationJob, plan hierarchy.Plan, report *domain.MigrationReport, target domain.Preset, movedBy string) (*MigrationResult, error) {
	job.Summary.InvalidItems = plan.InvalidItems
	job.Summary.FlaggedForReview = len(plan.ReviewQueue)

	for _, c := range plan.Creations {
		created, err := s.createContainer(ctx, job, c, movedBy)
		if err != nil {
			s.recordFailure(ctx, report, c.ID, "create", err)
		} else if created {
			job.Summary.CreatedContainers++
		}
		job.Progress.Processed++
		s.saveProgress(ctx, job)
	}
	for _, m := range plan.Moves {
		moved, err := s.applyMove(ctx, job, m, movedBy)
		if err != nil {
			s.recordFailure(ctx, report, m.ItemID, "move", err)
		} else if moved {
			job.Summary.MovedItems++
		}
		job.Progress.Processed++
		s.saveProgress(ctx, job)
	}

	result := &MigrationResult{Job: job, Report: report}
	if len(report.Failures) > 0 {
		if err := s.reports.Save(ctx, report); err != nil {
			s.logger.ErrorContext(ctx, "saving migration report", "job_id", job.ID, "error", err)
		}
		cause := fmt.Errorf("%d of %d steps: %w", len(report.Failures), plan.Steps(), ErrMigrationIncomplete)
		return result, s.fail(ctx, job, cause)
	}

	products, err := s.containerIDs(ctx, job.CompanyID, target.ContainerType)
	if err != nil {
		return nil, s.fail(ctx, job, err)
	}
	done := *job
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		now := s.now()
		if err := repository.NewSQLiteMigrationReportRepo(tx).Save(ctx, report); err != nil {
			return err
		}
		settings := &domain.FrameworkSettings{CompanyID: job.CompanyID, PresetID: target.ID, UpdatedAt: now}
		if err := repository.NewSQLiteFrameworkRepo(tx).Upsert(ctx, settings); err != nil {
			return err
		}
		if err := resetConfigs(ctx, tx, job.CompanyID, target, products, now); err != nil {
			return err
		}
		if err := done.Transition(domain.JobCompleted, now); err != nil {
			return err
		}
		return repository.NewSQLiteMigrationJobRepo(tx).Update(ctx, &done)
	})
	if err != nil {
		return nil, s.fail(ctx, job, fmt.Errorf("finishing migration: %w", err))
	}
	*job = done
	s.logger.InfoContext(ctx, "migration applied",
		"job_id", job.ID,
		"company_id", job.CompanyID,
		"from", job.FromPreset,
		"to", job.ToPreset,
		"moved", job.Summary.MovedItems,
		"created", job.Summary.CreatedContainers,
	)
	return result, nil
}

// createContainer inserts a planned placeholder and logs its creation.
// It reports false when the placeholder already exists.
func (s *migrationService) createContainer(ctx context.Context, job *domain.MigrationJob, c domain.PlannedContainer, movedBy string) (bool, error) {
	created := false
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		items := repository.NewSQLiteWorkItemRepo(tx)
		if _, err := items.GetByID(ctx, c.ID); err == nil {
			return nil
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		now := s.now()
		w := &domain.WorkItem{
			ID:        c.ID,
			CompanyID: job.CompanyID,
			Type:      c.Type,
			ParentID:  domain.CloneStrPtr(c.ParentID),
			Title:     c.Title,
			Status:    domain.ItemTodo,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := items.Create(ctx, w); err != nil {
			return err
		}
		if w.ParentID != nil {
			parent, err := items.GetByID(ctx, *w.ParentID)
			if err != nil {
				return err
			}
			parent.AddChild(w.ID)
			parent.UpdatedAt = now
			if err := items.Update(ctx, parent); err != nil {
				return err
			}
		}
		entry := &domain.MoveLogEntry{
			JobID:     job.ID,
			ItemID:    w.ID,
			Next:      w.Placement(),
			MovedBy:   movedBy,
			CreatedAt: now,
		}
		if err := repository.NewSQLiteMoveLogRepo(tx).Append(ctx, entry); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

// applyMove re-reads the item and applies one planned move. An item that
// already sits at the destination is skipped; one that changed since
// planning is a failure.
func (s *migrationService) applyMove(ctx context.Context, job *domain.MigrationJob, m domain.PlannedMove, movedBy string) (bool, error) {
	moved := false
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		items := repository.NewSQLiteWorkItemRepo(tx)
		item, err := items.GetByID(ctx, m.ItemID)
		if err != nil {
			return err
		}
		cur := item.Placement()
		if cur.Equal(m.To) {
			return nil
		}
		if !cur.Equal(m.From) {
			return fmt.Errorf("item %s changed since planning", m.ItemID)
		}

		now := s.now()
		if err := relink(ctx, items, item, m.To.ParentID, now); err != nil {
			return err
		}
		item.Apply(m.To)
		item.UpdatedAt = now
		if err := items.Update(ctx, item); err != nil {
			return err
		}
		entry := &domain.MoveLogEntry{
			JobID:     job.ID,
			ItemID:    item.ID,
			Prev:      m.From,
			Next:      m.To,
			MovedBy:   movedBy,
			CreatedAt: now,
		}
		if err := repository.NewSQLiteMoveLogRepo(tx).Append(ctx, entry); err != nil {
			return err
		}
		moved = true
		return nil
	})
	return moved, err
}

func (s *migrationService) Rollback(ctx context.Context, jobID string) (_ *RollbackResult, err error) {
	startedAt := s.now()
	fields := map[string]any{"job_id": jobID}
	defer observe(ctx, s.observer, "rollback-migration", startedAt, fields, &err)

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Mode != domain.ModeApply || !job.CanTransition(domain.JobRolledBack) {
		return nil, fmt.Errorf("job %s is %s %s: %w", job.ID, job.Mode, job.Status, domain.ErrRollbackNotAllowed)
	}
	from, err := s.frameworks.Preset(job.FromPreset)
	if err != nil {
		return nil, err
	}

	lock := s.companyLock(job.CompanyID)
	lock.Lock()
	defer lock.Unlock()

	entries, err := s.moveLog.ListByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	res := &RollbackResult{Job: job}
	for _, e := range slices.Backward(entries) {
		if err := s.revert(ctx, e); err != nil {
			res.Failures = append(res.Failures, domain.ItemFailure{ItemID: e.ItemID, Step: "rollback", Error: err.Error()})
			s.logger.WarnContext(ctx, "rollback step failed", "job_id", jobID, "item_id", e.ItemID, "error", err)
			continue
		}
		if e.IsCreation() {
			res.Removed++
		} else {
			res.Reverted++
		}
	}
	fields["reverted"] = res.Reverted
	fields["removed"] = res.Removed
	if len(res.Failures) > 0 {
		return res, fmt.Errorf("%d of %d log entries: %w", len(res.Failures), len(entries), ErrMigrationIncomplete)
	}

	products, err := s.containerIDs(ctx, job.CompanyID, from.ContainerType)
	if err != nil {
		return nil, err
	}
	done := *job
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		now := s.now()
		settings := &domain.FrameworkSettings{CompanyID: job.CompanyID, PresetID: from.ID, UpdatedAt: now}
		if err := repository.NewSQLiteFrameworkRepo(tx).Upsert(ctx, settings); err != nil {
			return err
		}
		if err := resetConfigs(ctx, tx, job.CompanyID, from, products, now); err != nil {
			return err
		}
		if err := done.Transition(domain.JobRolledBack, now); err != nil {
			return err
		}
		return repository.NewSQLiteMigrationJobRepo(tx).Update(ctx, &done)
	})
	if err != nil {
		return nil, fmt.Errorf("finishing rollback: %w", err)
	}
	*job = done
	return res, nil
}

// revert undoes one log entry. A creation entry deletes the placeholder if
// nothing has been put under it; a move entry restores Prev if the item is
// still where the job left it. Entries an earlier rollback already undid
// succeed without writing.
func (s *migrationService) revert(ctx context.Context, e domain.MoveLogEntry) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		items := repository.NewSQLiteWorkItemRepo(tx)
		item, err := items.GetByID(ctx, e.ItemID)
		if err != nil {
			if e.IsCreation() && errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return err
		}
		if !e.IsCreation() && item.Placement().Equal(e.Prev) {
			return nil
		}
		if !item.Placement().Equal(e.Next) {
			return fmt.Errorf("item %s changed since the migration", e.ItemID)
		}
		now := s.now()

		if e.IsCreation() {
			kids, err := items.ListChildren(ctx, item.ID)
			if err != nil {
				return err
			}
			if len(kids) > 0 {
				return fmt.Errorf("placeholder %s: %w", item.ID, hierarchy.ErrHasChildren)
			}
			if err := relink(ctx, items, item, nil, now); err != nil {
				return err
			}
			return items.Delete(ctx, item.ID)
		}

		if err := relink(ctx, items, item, e.Prev.ParentID, now); err != nil {
			return err
		}
		item.Apply(e.Prev)
		item.UpdatedAt = now
		return items.Update(ctx, item)
	})
}

func (s *migrationService) Get(ctx context.Context, jobID string) (*domain.MigrationJob, error) {
	return s.jobs.GetByID(ctx, jobID)
}

func (s *migrationService) Report(ctx context.Context, jobID string) (*domain.MigrationReport, error) {
	return s.reports.GetByJob(ctx, jobID)
}

func (s *migrationService) MoveLog(ctx context.Context, jobID string) ([]domain.MoveLogEntry, error) {
	return s.moveLog.ListByJob(ctx, jobID)
}

func (s *migrationService) List(ctx context.Context, companyID string) ([]*domain.MigrationJob, error) {
	return s.jobs.ListByCompany(ctx, companyID)
}

// fail marks job FAILED with cause and returns cause. Persisting the status
// is best effort.
func (s *migrationService) fail(ctx context.Context, job *domain.MigrationJob, cause error) error {
	job.Error = cause.Error()
	if err := job.Transition(domain.JobFailed, s.now()); err == nil {
		if err := s.jobs.Update(ctx, job); err != nil {
			s.logger.ErrorContext(ctx, "recording migration failure", "job_id", job.ID, "error", err)
		}
	}
	s.logger.ErrorContext(ctx, "migration failed", "job_id", job.ID, "company_id", job.CompanyID, "error", cause)
	return cause
}

func (s *migrationService) recordFailure(ctx context.Context, report *domain.MigrationReport, itemID, step string, err error) {
	report.Failures = append(report.Failures, domain.ItemFailure{ItemID: itemID, Step: step, Error: err.Error()})
	s.logger.WarnContext(ctx, "migration step failed", "job_id", report.JobID, "item_id", itemID, "step", step, "error", err)
}

func (s *migrationService) saveProgress(ctx context.Context, job *domain.MigrationJob) {
	job.UpdatedAt = s.now()
	if err := s.jobs.Update(ctx, job); err != nil {
		s.logger.WarnContext(ctx, "saving migration progress", "job_id", job.ID, "error", err)
	}
}

// containerIDs lists the ids of the company's items of containerType.
func (s *migrationService) containerIDs(ctx context.Context, companyID string, containerType domain.ItemType) ([]string, error) {
	if containerType == "" {
		return nil, nil
	}
	items, err := s.items.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing containers: %w", err)
	}
	var ids []string
	for _, it := range items {
		if it.Type == containerType {
			ids = append(ids, it.ID)
		}
	}
	return ids, nil
}
