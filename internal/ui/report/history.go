package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"modscan/internal/data/history"
)

func RenderHistoryTSV(scans []history.Snapshot) []byte {
	var buf strings.Builder

	buf.WriteString("Timestamp\tScanID\tDriver\tDeep\tForceLoad\tSeeds\tVisited\tDropped\tUnresolved\tResults\tDurationMs\n")
	for _, s := range scans {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%t\t%t\t%d\t%d\t%d\t%d\t%d\t%d\n",
			s.Timestamp.UTC().Format(time.RFC3339),
			s.ScanID,
			s.Driver,
			s.DeepScan,
			s.ForceLoad,
			s.Seeds,
			s.Visited,
			s.ReferencesDropped,
			s.ResolveFailures,
			s.Results,
			s.Duration.Milliseconds(),
		))
	}
	return []byte(buf.String())
}

func RenderHistoryJSON(scans []history.Snapshot) ([]byte, error) {
	if scans == nil {
		scans = []history.Snapshot{}
	}
	return json.MarshalIndent(scans, "", "  ")
}
