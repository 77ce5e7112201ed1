package report

import (
	"fmt"
	"strings"
	"time"

	"modscan/internal/core/ports"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	moduleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B"))
)

func RenderText(res ports.ScanResult) string {
	var b strings.Builder

	mode := "shallow"
	if res.DeepScan {
		mode = "deep"
	}
	if res.ForceLoad {
		mode += ", force load"
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("Module scan (%s)", mode)))
	b.WriteString("\n")

	if len(res.Modules) == 0 {
		b.WriteString(statusStyle.Render("no modules matched the include filters"))
		b.WriteString("\n")
	}
	for i, m := range res.Modules {
		b.WriteString(fmt.Sprintf("%3d. %s\n", i+1, moduleStyle.Render(m)))
	}

	for _, w := range res.Warnings {
		b.WriteString(warningStyle.Render("warning: " + w))
		b.WriteString("\n")
	}

	b.WriteString(statusStyle.Render(fmt.Sprintf(
		"%d modules | %d visited | %d refs dropped | %d unresolved | driver %s | %s | scan %s",
		len(res.Modules),
		res.Stats.Visited,
		res.Stats.ReferencesDropped,
		res.Stats.ResolveFailures,
		nonEmpty(res.Driver, "custom"),
		res.Duration.Round(time.Microsecond),
		nonEmpty(res.ScanID, "-"),
	)))
	b.WriteString("\n")
	return b.String()
}

func nonEmpty(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
