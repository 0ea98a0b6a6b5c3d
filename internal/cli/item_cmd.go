package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/arbor/internal/cli/formatter"
	"github.com/alexanderramin/arbor/internal/domain"
	"github.com/spf13/cobra"
)

func newItemCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage work items",
	}

	cmd.AddCommand(
		newItemAddCmd(app),
		newItemShowCmd(app),
		newItemMoveCmd(app),
		newItemReorderCmd(app),
		newItemTreeCmd(app),
		newItemRemoveCmd(app),
	)

	return cmd
}

func newItemAddCmd(app *App) *cobra.Command {
	var companyID, title, parentID, status string
	var itemType domain.ItemType
	var order int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a work item",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			w := &domain.WorkItem{
				CompanyID: companyID,
				Type:      itemType,
				Title:     title,
			}
			if status != "" {
				st, err := domain.ParseItemStatus(status)
				if err != nil {
					return err
				}
				w.Status = st
			}
			if parentID != "" {
				id, err := resolveItemID(ctx, app, companyID, parentID)
				if err != nil {
					return err
				}
				w.ParentID = &id
			}
			if cmd.Flags().Changed("order") {
				w.Order = &order
			}

			if err := app.WorkItems.Create(ctx, w); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatItem(w))
			return nil
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "Company ID (required)")
	typeFlag(cmd.Flags(), &itemType, "type", "Item type, e.g. epic, user-story (required)")
	cmd.Flags().StringVar(&title, "title", "", "Item title (required)")
	cmd.Flags().StringVar(&parentID, "parent", "", "Parent item ID; omit for a root")
	cmd.Flags().StringVar(&status, "status", "", "todo, in_progress or done")
	cmd.Flags().IntVar(&order, "order", 0, "Explicit position among siblings")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newItemShowCmd(app *App) *cobra.Command {
	var companyID string

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show a work item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveItemID(ctx, app, companyID, args[0])
			if err != nil {
				return err
			}
			w, err := app.WorkItems.GetByID(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatItem(w))
			return nil
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "Company to resolve ID prefixes in")
	return cmd
}

func newItemMoveCmd(app *App) *cobra.Command {
	var companyID, parentID string
	var toRoot bool

	cmd := &cobra.Command{
		Use:   "move ID",
		Short: "Re-parent a work item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if (parentID == "") == !toRoot {
				return fmt.Errorf("exactly one of --parent or --root is required")
			}
			id, err := resolveItemID(ctx, app, companyID, args[0])
			if err != nil {
				return err
			}
			newParent := ""
			if !toRoot {
				if newParent, err = resolveItemID(ctx, app, companyID, parentID); err != nil {
					return err
				}
			}

			moved, err := app.WorkItems.Move(ctx, id, newParent)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatItem(moved))
			return nil
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "Company to resolve ID prefixes in")
	cmd.Flags().StringVar(&parentID, "parent", "", "New parent item ID")
	cmd.Flags().BoolVar(&toRoot, "root", false, "Make the item a root")
	return cmd
}

func newItemReorderCmd(app *App) *cobra.Command {
	var companyID string
	var index int

	cmd := &cobra.Command{
		Use:   "reorder ID",
		Short: "Move a work item to a position among its siblings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveItemID(ctx, app, companyID, args[0])
			if err != nil {
				return err
			}
			changed, err := app.WorkItems.Reorder(ctx, id, index)
			if err != nil {
				return err
			}
			if len(changed) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Already in place."))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reordered %d siblings.\n", len(changed))
			return nil
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "Company to resolve ID prefixes in")
	cmd.Flags().IntVar(&index, "index", 0, "Zero-based target position (required)")
	_ = cmd.MarkFlagRequired("index")
	return cmd
}

func newItemTreeCmd(app *App) *cobra.Command {
	var companyID string

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show a company's work-item tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := app.WorkItems.Outline(context.Background(), companyID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatOutline(rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "Company ID (required)")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

func newItemRemoveCmd(app *App) *cobra.Command {
	var companyID string
	var yes bool

	cmd := &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a work item and everything under it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id, err := resolveItemID(ctx, app, companyID, args[0])
			if err != nil {
				return err
			}
			preview, err := app.WorkItems.PreviewDelete(ctx, id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			summary := formatter.FormatDeletePreview(preview)
			fmt.Fprint(out, summary)

			ok, err := confirm(app, yes, "Delete this subtree?", fmt.Sprintf("%d items will be removed.", len(preview.IDs)))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "Cancelled.")
				return nil
			}

			deleted, err := app.WorkItems.DeleteSubtree(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted %d items.\n", len(deleted.IDs))
			return nil
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "Company to resolve ID prefixes in")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}
