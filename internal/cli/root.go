package cli

import (
	"github.com/alexanderramin/arbor/internal/service"
	"github.com/spf13/cobra"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	WorkItems   service.WorkItemService
	Hierarchies service.HierarchyService
	Frameworks  service.FrameworkService
	Migrations  service.MigrationService

	// Actor is recorded as the author of applied migration moves.
	Actor string

	// IsInteractive reports whether prompts can be shown. Nil means never.
	IsInteractive func() bool

	// Confirm asks a yes/no question. Defaults to a huh form.
	Confirm func(title, description string) (bool, error)
}

// NewRootCmd creates the top-level "arbor" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "arbor",
		Short:         "Work-item hierarchy and framework migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newItemCmd(app),
		newHierarchyCmd(app),
		newFrameworkCmd(app),
		newMigrateCmd(app),
		newCheckCmd(app),
	)

	return root
}
