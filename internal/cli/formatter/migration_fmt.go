package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/arbor/internal/domain"
	"github.com/alexanderramin/arbor/internal/service"
)

// FormatJob renders the header box of a migration job.
func FormatJob(job *domain.MigrationJob) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", Bold(job.ID), JobStatusPill(job.Status))
	fmt.Fprintf(&b, "%s %s → %s  %s\n", Dim("Framework:"), job.FromPreset, StyleBold.Render(job.ToPreset), Dim(string(job.Mode)))
	fmt.Fprintf(&b, "%s %s\n", Dim("Progress: "), RenderProgress(job.Progress, job.Status, 20))
	s := job.Summary
	fmt.Fprintf(&b, "%s %d moved, %d created, %d for review, %d invalid",
		Dim("Summary:  "), s.MovedItems, s.CreatedContainers, s.FlaggedForReview, s.InvalidItems)
	if job.Error != "" {
		fmt.Fprintf(&b, "\n%s %s", StyleRed.Render("Error:    "), job.Error)
	}
	return RenderBox("Migration "+strings.ToLower(string(job.Mode)), b.String())
}

// FormatMigration renders a job together with its report.
func FormatMigration(job *domain.MigrationJob, report *domain.MigrationReport) string {
	var b strings.Builder
	b.WriteString(FormatJob(job))
	b.WriteString("\n")
	if report != nil {
		b.WriteString(FormatReport(report))
	}
	return b.String()
}

// FormatReport renders the sections of a migration report that have content.
func FormatReport(r *domain.MigrationReport) string {
	var b strings.Builder
	section := func(title, body string) {
		b.WriteString("\n" + Header(title) + "\n" + body)
	}

	if len(r.Moves) > 0 {
		rows := make([][]string, 0, len(r.Moves))
		for _, m := range r.Moves {
			rows = append(rows, []string{
				TruncID(m.ItemID),
				m.Title,
				FormatPlacement(m.From),
				FormatPlacement(m.To),
				ConfidenceBadge(m.Confidence),
			})
		}
		section("Moves", RenderTable([]string{"ID", "TITLE", "FROM", "TO", "CONFIDENCE"}, rows))
	}

	if len(r.Creations) > 0 {
		rows := make([][]string, 0, len(r.Creations))
		for _, c := range r.Creations {
			rows = append(rows, []string{TruncID(c.ID), string(c.Type), c.Title, ParentLabel(c.ParentID)})
		}
		section("Placeholders", RenderTable([]string{"ID", "TYPE", "TITLE", "PARENT"}, rows))
	}

	if len(r.ReviewQueue) > 0 {
		rows := make([][]string, 0, len(r.ReviewQueue))
		for _, q := range r.ReviewQueue {
			candidates := "-"
			if len(q.CandidateIDs) > 0 {
				candidates = strings.Join(q.CandidateIDs, ", ")
			}
			rows = append(rows, []string{TruncID(q.ItemID), q.Title, string(q.Type), StyleYellow.Render(string(q.Reason)), candidates})
		}
		section("Review queue", RenderTable([]string{"ID", "TITLE", "TYPE", "REASON", "CANDIDATES"}, rows))
	}

	if len(r.Issues) > 0 {
		section("Pre-existing issues", bulletList(r.Issues, StyleYellow))
	}

	if len(r.Failures) > 0 {
		section("Failures", formatFailures(r.Failures))
	}

	if b.Len() == 0 {
		return Dim("Nothing to migrate.") + "\n"
	}
	return b.String()
}

// FormatPlacement renders "type under parent", with "#n" when an explicit
// order is set.
func FormatPlacement(p domain.Placement) string {
	if p.Type == "" {
		return Dim("(new)")
	}
	s := string(p.Type) + " under " + ParentLabel(p.ParentID)
	if p.Order != nil {
		s += fmt.Sprintf(" #%d", *p.Order)
	}
	return s
}

// FormatMoveLog renders the applied entries of a job in sequence order.
func FormatMoveLog(entries []domain.MoveLogEntry) string {
	if len(entries) == 0 {
		return Dim("No moves recorded.") + "\n"
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		kind := "move"
		if e.IsCreation() {
			kind = StylePurple.Render("create")
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", e.Seq),
			kind,
			TruncID(e.ItemID),
			FormatPlacement(e.Prev),
			FormatPlacement(e.Next),
			e.MovedBy,
			HumanTimestamp(e.CreatedAt),
		})
	}
	return RenderTable([]string{"SEQ", "KIND", "ITEM", "BEFORE", "AFTER", "BY", "WHEN"}, rows)
}

// FormatJobList renders a company's migration jobs, newest first as given.
func FormatJobList(jobs []*domain.MigrationJob) string {
	if len(jobs) == 0 {
		return Dim("No migrations yet.") + "\n"
	}
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []string{
			TruncID(j.ID),
			j.FromPreset + " → " + j.ToPreset,
			string(j.Mode),
			JobStatusPill(j.Status),
			fmt.Sprintf("%d/%d", j.Progress.Processed, j.Progress.Total),
			HumanTimestamp(j.CreatedAt),
		})
	}
	return RenderTable([]string{"ID", "FRAMEWORK", "MODE", "STATUS", "STEPS", "STARTED"}, rows)
}

// FormatRollback renders the outcome of a rollback.
func FormatRollback(res *service.RollbackResult) string {
	var b strings.Builder
	if res.Job != nil {
		fmt.Fprintf(&b, "%s  %s\n", Bold(res.Job.ID), JobStatusPill(res.Job.Status))
	}
	fmt.Fprintf(&b, "Reverted %d moves, removed %d placeholders.\n", res.Reverted, res.Removed)
	if len(res.Failures) > 0 {
		b.WriteString("\n" + Header("Could not revert") + "\n")
		b.WriteString(formatFailures(res.Failures))
	}
	return b.String()
}

func formatFailures(failures []domain.ItemFailure) string {
	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		rows = append(rows, []string{TruncID(f.ItemID), f.Step, StyleRed.Render(f.Error)})
	}
	return RenderTable([]string{"ITEM", "STEP", "ERROR"}, rows)
}
