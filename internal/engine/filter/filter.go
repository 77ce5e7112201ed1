// Package filter holds the include/exclude/ignore predicates applied to
// module identities during a scan.
//
// Matching is case-sensitive. An empty include list never matches: a scan
// without include patterns selects nothing.
package filter

import "strings"

// ToolchainPrefixes are exclude patterns for modules shipped with the Go
// toolchain itself.
var ToolchainPrefixes = []string{"std", "cmd/", "golang.org/toolchain", "golang.org/x/"}

// TestifyPrefix excludes the testify assertion library and its subpackages.
const TestifyPrefix = "github.com/stretchr/testify"

type Set struct {
	Include []string
	Exclude []string
	Ignore  []string
}

// IsIncluded reports whether id starts with one of includes.
func IsIncluded(id string, includes []string) bool {
	return hasAnyPrefix(id, includes)
}

// IsExcluded reports whether id starts with one of excludes.
func IsExcluded(id string, excludes []string) bool {
	return hasAnyPrefix(id, excludes)
}

// IsIgnored reports whether id contains one of ignores.
func IsIgnored(id string, ignores []string) bool {
	for _, p := range ignores {
		if strings.Contains(id, p) {
			return true
		}
	}
	return false
}

// Survives is the composite predicate: included, not excluded, not ignored.
func (s Set) Survives(id string) bool {
	return IsIncluded(id, s.Include) && !IsExcluded(id, s.Exclude) && !IsIgnored(id, s.Ignore)
}

// Reason names the first stage that rejects id, or "" when it survives.
func (s Set) Reason(id string) string {
	switch {
	case !IsIncluded(id, s.Include):
		return "not_included"
	case IsExcluded(id, s.Exclude):
		return "excluded"
	case IsIgnored(id, s.Ignore):
		return "ignored"
	default:
		return ""
	}
}

func hasAnyPrefix(id string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(id, p) {
			return true
		}
	}
	return false
}
