package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/alexanderramin/arbor/internal/cli/formatter"
	"github.com/alexanderramin/arbor/internal/domain"
	"github.com/spf13/cobra"
)

func newHierarchyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hierarchy",
		Short: "Inspect or change a product's enabled item types",
	}

	cmd.AddCommand(
		newHierarchyShowCmd(app),
		newHierarchySetCmd(app),
	)

	return cmd
}

func newHierarchyShowCmd(app *App) *cobra.Command {
	var companyID, productID string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the hierarchy config of a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, err := app.Hierarchies.Get(ctx, companyID, productID)
			if err != nil {
				return err
			}
			p, err := app.Frameworks.Current(ctx, companyID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHierarchyConfig(cfg, p))
			return nil
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "Company ID (required)")
	cmd.Flags().StringVar(&productID, "product", "", "Product ID; omit for the company-wide config")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

func newHierarchySetCmd(app *App) *cobra.Command {
	var companyID, productID string
	var enabled, order []domain.ItemType

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the hierarchy config of a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := domain.HierarchyConfig{ProductID: productID, EnabledTypes: enabled, Order: order}
			if len(cfg.Order) == 0 {
				cfg.Order = slices.Clone(enabled)
			}

			if err := app.Hierarchies.Set(ctx, companyID, cfg); err != nil {
				return err
			}
			saved, err := app.Hierarchies.Get(ctx, companyID, productID)
			if err != nil {
				return err
			}
			p, err := app.Frameworks.Current(ctx, companyID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHierarchyConfig(saved, p))
			return nil
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "Company ID (required)")
	cmd.Flags().StringVar(&productID, "product", "", "Product ID; omit for the company-wide config")
	typeListFlag(cmd.Flags(), &enabled, "enabled", "Enabled item types (required)")
	typeListFlag(cmd.Flags(), &order, "order", "Display order; defaults to --enabled")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("enabled")
	return cmd
}

func newFrameworkCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "framework",
		Short: "List planning frameworks and show a company's current one",
	}

	cmd.AddCommand(
		newFrameworkListCmd(app),
		newFrameworkShowCmd(app),
	)

	return cmd
}

func newFrameworkListCmd(app *App) *cobra.Command {
	var companyID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available framework presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			current := ""
			if companyID != "" {
				p, err := app.Frameworks.Current(context.Background(), companyID)
				if err != nil {
					return err
				}
				current = p.ID
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPresetList(app.Frameworks.Presets(), current))
			return nil
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "Mark this company's current framework")
	return cmd
}

func newFrameworkShowCmd(app *App) *cobra.Command {
	var companyID, presetID string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a preset, or the company's current one",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				p   domain.Preset
				err error
			)
			switch {
			case presetID != "":
				p, err = app.Frameworks.Preset(presetID)
			case companyID != "":
				p, err = app.Frameworks.Current(context.Background(), companyID)
			default:
				return fmt.Errorf("one of --company or --preset is required")
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPreset(p))
			return nil
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "Company ID")
	cmd.Flags().StringVar(&presetID, "preset", "", "Preset ID")
	return cmd
}

func newCheckCmd(app *App) *cobra.Command {
	var companyID string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Audit a company's tree for cycles, link mismatches and illegal nesting",
		RunE: func(cmd *cobra.Command, args []string) error {
			check, err := app.WorkItems.CheckTree(context.Background(), companyID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTreeCheck(check))
			if !check.OK() {
				return fmt.Errorf("%d problems found", len(check.Problems))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "Company ID (required)")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}
