package report

import (
	"fmt"
	"strings"
	"time"

	"modscan/internal/core/ports"
)

func RenderMarkdown(res ports.ScanResult) string {
	generated := res.StartedAt
	if generated.IsZero() {
		generated = time.Now().UTC()
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("title: Module Scan Report\n")
	b.WriteString("scan_id: " + nonEmpty(res.ScanID, "unknown") + "\n")
	b.WriteString("generated_at: " + generated.UTC().Format(time.RFC3339) + "\n")
	b.WriteString("driver: " + nonEmpty(res.Driver, "custom") + "\n")
	b.WriteString("---\n\n")

	b.WriteString("# Module Scan Report\n\n")
	b.WriteString("## Summary\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("| --- | --- |\n")
	b.WriteString(fmt.Sprintf("| Deep Scan | %t |\n", res.DeepScan))
	b.WriteString(fmt.Sprintf("| Force Load | %t |\n", res.ForceLoad))
	b.WriteString(fmt.Sprintf("| Seeds | %d |\n", res.Stats.Seeds))
	b.WriteString(fmt.Sprintf("| Visited | %d |\n", res.Stats.Visited))
	b.WriteString(fmt.Sprintf("| References Dropped | %d |\n", res.Stats.ReferencesDropped))
	b.WriteString(fmt.Sprintf("| Unresolved References | %d |\n", res.Stats.ResolveFailures))
	b.WriteString(fmt.Sprintf("| Force Load Failures | %d |\n", res.Stats.ForceLoadFailures))
	b.WriteString(fmt.Sprintf("| Modules | %d |\n\n", len(res.Modules)))

	b.WriteString("## Modules\n")
	if len(res.Modules) == 0 {
		b.WriteString("_No modules matched the include filters._\n")
	}
	for i, m := range res.Modules {
		b.WriteString(fmt.Sprintf("%d. `%s`\n", i+1, m))
	}

	if len(res.Warnings) > 0 {
		b.WriteString("\n## Warnings\n")
		for _, w := range res.Warnings {
			b.WriteString("- " + w + "\n")
		}
	}
	return b.String()
}
