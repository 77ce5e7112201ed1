// Package buildinfo exposes the running Go binary as a module registry. The
// binary's main module and linked dependencies count as loaded; references
// come from `go mod graph` output when it is supplied.
package buildinfo

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	coreerrors "modscan/internal/core/errors"
	"modscan/internal/engine/module"
	"modscan/internal/registry/static"

	gomodule "golang.org/x/mod/module"
)

// Graph maps a module path to the module paths it requires, in first-seen
// order.
type Graph struct {
	order []string
	edges map[string][]string
}

// ParseGraph reads `go mod graph` output. Each line is "from to"; versions
// are checked and then stripped. Edges to the go and toolchain pseudo-nodes
// are skipped.
func ParseGraph(r io.Reader) (*Graph, error) {
	g := &Graph{edges: make(map[string][]string)}
	seen := make(map[string]map[string]bool)

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, coreerrors.New(coreerrors.CodeValidationError, fmt.Sprintf("mod graph line %d: expected 2 fields, got %d", line, len(fields)))
		}
		from, ok, err := graphNode(line, fields[0])
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		g.touch(from)
		to, ok, err := graphNode(line, fields[1])
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		g.touch(to)
		if seen[from] == nil {
			seen[from] = make(map[string]bool)
		}
		if seen[from][to] || from == to {
			continue
		}
		seen[from][to] = true
		g.edges[from] = append(g.edges[from], to)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read mod graph: %w", err)
	}
	return g, nil
}

func (g *Graph) touch(path string) {
	if _, ok := g.edges[path]; ok {
		return
	}
	g.edges[path] = nil
	g.order = append(g.order, path)
}

// Requires lists the direct requirements of path.
func (g *Graph) Requires(path string) []string {
	if g == nil {
		return nil
	}
	return g.edges[path]
}

// New builds a registry from build info and an optional graph.
func New(info *debug.BuildInfo, graph *Graph) (*static.Registry, error) {
	if info == nil || strings.TrimSpace(info.Main.Path) == "" {
		return nil, coreerrors.New(coreerrors.CodeNotSupported, "build info has no main module")
	}

	linked := make([]string, 0, len(info.Deps)+1)
	linked = append(linked, info.Main.Path)
	for _, dep := range info.Deps {
		if dep != nil && dep.Path != "" {
			linked = append(linked, dep.Path)
		}
	}

	known := make(map[string]bool)
	var mods []module.Module
	add := func(path string) {
		key := module.Key(path)
		if known[key] {
			return
		}
		known[key] = true
		mods = append(mods, module.Module{Name: path, Refs: graph.Requires(path)})
	}
	for _, path := range linked {
		add(path)
	}
	if graph != nil {
		// Modules that appear only in the graph are resolvable but not loaded.
		for _, path := range graph.order {
			add(path)
		}
	}

	out := static.New(mods...)
	if err := out.Preload(linked...); err != nil {
		return nil, err
	}
	if err := out.SetEntry(info.Main.Path); err != nil {
		return nil, err
	}
	return out, nil
}

// Current builds a registry for the running binary. graphPath may be empty.
func Current(graphPath string) (*static.Registry, error) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil, coreerrors.New(coreerrors.CodeNotSupported, "binary was built without module support")
	}

	var graph *Graph
	if strings.TrimSpace(graphPath) != "" {
		f, err := os.Open(graphPath)
		if err != nil {
			return nil, fmt.Errorf("open mod graph: %w", err)
		}
		defer f.Close()
		if graph, err = ParseGraph(f); err != nil {
			return nil, coreerrors.AddContext(err, coreerrors.CtxPath, graphPath)
		}
	}
	return New(info, graph)
}

// graphNode returns the module path of a graph node. The main module carries
// no version.
func graphNode(line int, node string) (string, bool, error) {
	path, version, versioned := strings.Cut(node, "@")
	if !versioned {
		return node, true, nil
	}
	if path == "go" || path == "toolchain" {
		return "", false, nil
	}
	if err := gomodule.Check(path, version); err != nil {
		return "", false, coreerrors.Wrap(err, coreerrors.CodeValidationError, fmt.Sprintf("mod graph line %d", line))
	}
	return path, true, nil
}
