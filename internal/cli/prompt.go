package cli

import (
	"fmt"

	"github.com/alexanderramin/arbor/internal/cli/formatter"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

func arborHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

func huhConfirm(title, description string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithTheme(arborHuhTheme()).WithShowHelp(false).Run()
	return ok, err
}

// confirm gates destructive commands. --yes skips the prompt; without it a
// non-interactive session refuses rather than guessing.
func confirm(app *App, yes bool, title, description string) (bool, error) {
	if yes {
		return true, nil
	}
	if app.IsInteractive == nil || !app.IsInteractive() {
		return false, fmt.Errorf("%s: pass --yes to confirm in a non-interactive session", title)
	}
	ask := app.Confirm
	if ask == nil {
		ask = huhConfirm
	}
	return ask(title, description)
}
