package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/arbor/internal/repository"
)

// resolveItemID accepts a full item ID or, when a company is given, a
// unique prefix of one as shown by "item tree".
func resolveItemID(ctx context.Context, app *App, companyID, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("item ID is required")
	}
	if _, err := app.WorkItems.GetByID(ctx, input); err == nil {
		return input, nil
	} else if !errors.Is(err, repository.ErrNotFound) || companyID == "" {
		return "", err
	}

	items, err := app.WorkItems.ListByCompany(ctx, companyID)
	if err != nil {
		return "", err
	}
	ids := make([]string, len(items))
	for i, w := range items {
		ids[i] = w.ID
	}
	return matchPrefix("item", input, ids)
}

// resolveJobID is resolveItemID for migration jobs.
func resolveJobID(ctx context.Context, app *App, companyID, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("job ID is required")
	}
	if _, err := app.Migrations.Get(ctx, input); err == nil {
		return input, nil
	} else if !errors.Is(err, repository.ErrNotFound) || companyID == "" {
		return "", err
	}

	jobs, err := app.Migrations.List(ctx, companyID)
	if err != nil {
		return "", err
	}
	ids := make([]string, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}
	return matchPrefix("job", input, ids)
}

func matchPrefix(kind, input string, ids []string) (string, error) {
	var matches []string
	for _, id := range ids {
		if strings.HasPrefix(id, input) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s not found: %q", kind, input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%s ID prefix %q is ambiguous (%d matches)", kind, input, len(matches))
	}
}
