package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/arbor/internal/cli/formatter"
	"github.com/alexanderramin/arbor/internal/domain"
	"github.com/alexanderramin/arbor/internal/service"
	"github.com/spf13/cobra"
)

func newMigrateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Switch a company to another framework",
	}

	cmd.AddCommand(
		newMigrateScanCmd(app),
		newMigrateApplyCmd(app),
		newMigrateStatusCmd(app),
		newMigrateReportCmd(app),
		newMigrateLogCmd(app),
		newMigrateRollbackCmd(app),
		newMigrateListCmd(app),
	)

	return cmd
}

func newMigrateScanCmd(app *App) *cobra.Command {
	var companyID, target string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Plan a framework switch without changing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Migrations.Start(context.Background(), service.MigrationRequest{
				CompanyID:    companyID,
				TargetPreset: target,
				Mode:         domain.ModeDryRun,
				MovedBy:      app.Actor,
			})
			printMigration(cmd, res)
			return err
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "Company ID (required)")
	cmd.Flags().StringVar(&target, "to", "", "Target preset ID (required)")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newMigrateApplyCmd(app *App) *cobra.Command {
	var companyID, target string
	var yes bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Switch a company to another framework and move its items",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			current, err := app.Frameworks.Current(ctx, companyID)
			if err != nil {
				return err
			}
			next, err := app.Frameworks.Preset(target)
			if err != nil {
				return err
			}
			ok, err := confirm(app, yes,
				fmt.Sprintf("Switch %s from %s to %s?", companyID, current.Name, next.Name),
				"Items will be re-parented. Run 'migrate scan' first to preview.")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}

			stop := func() {}
			if app.IsInteractive != nil && app.IsInteractive() {
				stop = formatter.StartSpinner(cmd.ErrOrStderr(), "Applying migration...")
			}
			res, err := app.Migrations.Start(ctx, service.MigrationRequest{
				CompanyID:    companyID,
				TargetPreset: target,
				Mode:         domain.ModeApply,
				MovedBy:      app.Actor,
			})
			stop()
			printMigration(cmd, res)
			return err
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "Company ID (required)")
	cmd.Flags().StringVar(&target, "to", "", "Target preset ID (required)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func printMigration(cmd *cobra.Command, res *service.MigrationResult) {
	if res == nil || res.Job == nil {
		return
	}
	fmt.Fprint(cmd.OutOrStdout(), formatter.FormatMigration(res.Job, res.Report))
}

func newMigrateStatusCmd(app *App) *cobra.Command {
	var companyID string

	cmd := &cobra.Command{
		Use:   "status JOB",
		Short: "Show a migration job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveJobID(ctx, app, companyID, args[0])
			if err != nil {
				return err
			}
			job, err := app.Migrations.Get(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatJob(job))
			return nil
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "Company to resolve ID prefixes in")
	return cmd
}

func newMigrateReportCmd(app *App) *cobra.Command {
	var companyID string

	cmd := &cobra.Command{
		Use:   "report JOB",
		Short: "Show the report of a finished migration job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveJobID(ctx, app, companyID, args[0])
			if err != nil {
				return err
			}
			job, err := app.Migrations.Get(ctx, id)
			if err != nil {
				return err
			}
			report, err := app.Migrations.Report(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatMigration(job, report))
			return nil
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "Company to resolve ID prefixes in")
	return cmd
}

func newMigrateLogCmd(app *App) *cobra.Command {
	var companyID string

	cmd := &cobra.Command{
		Use:   "log JOB",
		Short: "Show the moves an applied migration recorded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveJobID(ctx, app, companyID, args[0])
			if err != nil {
				return err
			}
			entries, err := app.Migrations.MoveLog(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatMoveLog(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "Company to resolve ID prefixes in")
	return cmd
}

func newMigrateRollbackCmd(app *App) *cobra.Command {
	var companyID string
	var yes bool

	cmd := &cobra.Command{
		Use:   "rollback JOB",
		Short: "Undo an applied migration from its move log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveJobID(ctx, app, companyID, args[0])
			if err != nil {
				return err
			}
			job, err := app.Migrations.Get(ctx, id)
			if err != nil {
				return err
			}
			ok, err := confirm(app, yes,
				fmt.Sprintf("Roll back %s to %s?", job.ToPreset, job.FromPreset),
				"Every move recorded by this job is reverted.")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}

			res, err := app.Migrations.Rollback(ctx, id)
			if res != nil {
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRollback(res))
			}
			return err
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "Company to resolve ID prefixes in")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}

func newMigrateListCmd(app *App) *cobra.Command {
	var companyID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a company's migration jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := app.Migrations.List(context.Background(), companyID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatJobList(jobs))
			return nil
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "Company ID (required)")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}
