// Package report renders scan results and scan history for people and tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"modscan/internal/core/config"
	coreerrors "modscan/internal/core/errors"
	"modscan/internal/core/ports"
	"modscan/internal/shared/util"
)

// Render formats res as text, json or markdown.
func Render(format string, res ports.ScanResult) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", config.FormatText:
		return []byte(RenderText(res)), nil
	case config.FormatJSON:
		return RenderJSON(res)
	case config.FormatMarkdown:
		return []byte(RenderMarkdown(res)), nil
	}
	err := coreerrors.New(coreerrors.CodeNotSupported, "unknown output format")
	return nil, coreerrors.AddContext(err, "format", format)
}

// Write renders res and writes it to path, or to stdout when path is empty.
func Write(format string, res ports.ScanResult, path string, stdout io.Writer) error {
	data, err := Render(format, res)
	if err != nil {
		return err
	}
	if strings.TrimSpace(path) == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := util.WriteFileWithDirs(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %q: %w", path, err)
	}
	return nil
}

func RenderJSON(res ports.ScanResult) ([]byte, error) {
	if res.Modules == nil {
		res.Modules = []string{}
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
