package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/arbor/internal/domain"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderProgress renders a bar like [████░░░░] 45%. Failed jobs render red,
// finished jobs green and anything still moving amber.
func RenderProgress(p domain.MigrationProgress, status domain.JobStatus, width int) string {
	width = max(width, 2)
	pct := 1.0
	if p.Total > 0 {
		pct = min(max(float64(p.Processed)/float64(p.Total), 0), 1)
	}
	filled := min(int(pct*float64(width)), width)
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleYellow
	switch status {
	case domain.JobFailed:
		style = StyleRed
	case domain.JobCompleted, domain.JobRolledBack:
		style = StyleGreen
	}
	return fmt.Sprintf("[%s] %3.0f%% (%d/%d)", style.Render(bar), pct*100, p.Processed, p.Total)
}
