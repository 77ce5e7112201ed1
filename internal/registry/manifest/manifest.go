// Package manifest builds a module registry from TOML manifest files.
//
// A manifest lists modules, their references and whether the host has them
// loaded:
//
//	entry = "App.Host"
//
//	[[module]]
//	name = "App.Core"
//	references = ["App.Data"]
//	loaded = true
package manifest

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	coreerrors "modscan/internal/core/errors"
	"modscan/internal/engine/module"
	"modscan/internal/registry/static"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
)

// DefaultPatterns selects manifest files when none are configured.
var DefaultPatterns = []string{"*.toml"}

type File struct {
	Entry   string  `toml:"entry"`
	Modules []Entry `toml:"module"`
}

type Entry struct {
	Name       string   `toml:"name"`
	References []string `toml:"references"`
	Loaded     bool     `toml:"loaded"`
}

// Parse decodes one manifest. source names the input in errors.
func Parse(r io.Reader, source string) (File, error) {
	var f File
	md, err := toml.NewDecoder(r).Decode(&f)
	if err != nil {
		return File{}, coreerrors.AddContext(
			coreerrors.Wrap(err, coreerrors.CodeValidationError, "decode manifest"),
			coreerrors.CtxPath, source)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		err := coreerrors.New(coreerrors.CodeValidationError, "unknown manifest keys: "+strings.Join(keys, ", "))
		return File{}, coreerrors.AddContext(err, coreerrors.CtxPath, source)
	}

	f.Entry = strings.TrimSpace(f.Entry)
	for i := range f.Modules {
		e := &f.Modules[i]
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			err := coreerrors.New(coreerrors.CodeValidationError, fmt.Sprintf("module[%d].name must not be empty", i))
			return File{}, coreerrors.AddContext(err, coreerrors.CtxPath, source)
		}
		refs := make([]string, 0, len(e.References))
		for _, ref := range e.References {
			if ref = strings.TrimSpace(ref); ref != "" {
				refs = append(refs, ref)
			}
		}
		e.References = refs
	}
	return f, nil
}

// Files lists the manifest files under dir whose base name matches one of
// patterns, in lexical order.
func Files(dir string, patterns []string) ([]string, error) {
	matchers, err := compile(patterns)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if matchAny(matchers, d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk manifest dir %q: %w", dir, err)
	}
	return files, nil
}

// Read parses every manifest under dir and merges them. A module declared in
// two places is a conflict.
func Read(dir string, patterns []string) (File, error) {
	files, err := Files(dir, patterns)
	if err != nil {
		return File{}, err
	}

	var merged File
	owner := make(map[string]string)
	for _, path := range files {
		f, err := readFile(path)
		if err != nil {
			return File{}, err
		}
		for _, e := range f.Modules {
			key := module.Key(e.Name)
			if prev, dup := owner[key]; dup {
				err := coreerrors.New(coreerrors.CodeConflict, fmt.Sprintf("module %q declared in both %s and %s", e.Name, prev, path))
				return File{}, coreerrors.AddContext(err, coreerrors.CtxModule, e.Name)
			}
			owner[key] = path
			merged.Modules = append(merged.Modules, e)
		}
		if f.Entry != "" {
			if merged.Entry != "" && !module.Equal(merged.Entry, f.Entry) {
				return File{}, coreerrors.New(coreerrors.CodeConflict, fmt.Sprintf("entry declared as %q and %q", merged.Entry, f.Entry))
			}
			merged.Entry = f.Entry
		}
	}
	return merged, nil
}

// Registry turns a manifest into an in-memory registry with the declared
// modules preloaded.
func (f File) Registry() (*static.Registry, error) {
	reg := static.New(f.moduleList()...)
	for _, e := range f.Modules {
		if !e.Loaded {
			continue
		}
		if err := reg.Preload(e.Name); err != nil {
			return nil, err
		}
	}
	if f.Entry != "" {
		if err := reg.SetEntry(f.Entry); err != nil {
			return nil, fmt.Errorf("manifest entry: %w", err)
		}
	}
	return reg, nil
}

// moduleList returns the declared modules as registry records.
func (f File) moduleList() []module.Module {
	out := make([]module.Module, 0, len(f.Modules))
	for _, e := range f.Modules {
		out = append(out, module.Module{Name: e.Name, Refs: e.References})
	}
	return out
}

// LoadDir reads dir and returns the resulting registry.
func LoadDir(dir string, patterns []string) (*static.Registry, error) {
	f, err := Read(dir, patterns)
	if err != nil {
		return nil, err
	}
	return f.Registry()
}

func readFile(path string) (File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open manifest: %w", err)
	}
	defer fh.Close()
	return Parse(fh, path)
}

func compile(patterns []string) ([]glob.Glob, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, coreerrors.Wrap(err, coreerrors.CodeValidationError, fmt.Sprintf("invalid manifest pattern %q", p))
		}
		out = append(out, g)
	}
	return out, nil
}

func matchAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}
