// Package module defines the module identity model and the registry bridge
// the scan engine consumes from its host.
package module

import (
	"strings"

	coreerrors "modscan/internal/core/errors"

	"golang.org/x/text/cases"
)

// ErrNotFound is the single resolution failure kind. Registries wrap it (or
// return a NOT_FOUND DomainError) when an identity cannot be resolved.
var ErrNotFound = coreerrors.Sentinel(coreerrors.CodeNotFound)

// Handle is a read-only view of a loaded module.
type Handle interface {
	Identity() string
	References() []string
}

// Registry is the host's set of loaded modules together with its loading
// primitive. Load must be idempotent.
type Registry interface {
	Loaded() []Handle
	Load(id string) (Handle, error)
}

// EntryProvider is implemented by registries that know the module which
// started the host process.
type EntryProvider interface {
	Entry() (Handle, bool)
}

// Module is the plain Handle implementation shared by the registries.
type Module struct {
	Name string
	Refs []string
}

func (m Module) Identity() string { return m.Name }

func (m Module) References() []string {
	out := make([]string, len(m.Refs))
	copy(out, m.Refs)
	return out
}

// Key returns the canonical identity key. Two identities are the same module
// iff their keys are equal.
func Key(id string) string {
	// Casers carry state; build one per call.
	return cases.Fold().String(id)
}

// Equal reports whether two identities name the same module.
func Equal(a, b string) bool {
	return Key(a) == Key(b)
}

// NotFound builds a resolution error for id.
func NotFound(id string) error {
	err := coreerrors.New(coreerrors.CodeNotFound, "module not found")
	return coreerrors.AddContext(err, coreerrors.CtxModule, id)
}

// Valid reports whether h can take part in a scan.
func Valid(h Handle) bool {
	return h != nil && strings.TrimSpace(h.Identity()) != ""
}

// Identities lists the identities of hs in order.
func Identities(hs []Handle) []string {
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		out = append(out, h.Identity())
	}
	return out
}
