// Package catalog holds the built-in catalogs of job classes, optimization
// algorithms, and report generators, and the resolver that validates class
// names against whatever catalog the store was seeded with.
package catalog

import (
	"sort"
	"strings"
)

// Default catalogs seeded into a freshly bootstrapped store. Callers can
// extend the stored catalogs afterwards; these are only the starting set.
var (
	DefaultJobClasses = []string{
		"http.GetRateJob",
		"ldap.AddRateJob",
		"ldap.AuthRateJob",
		"ldap.CompRateJob",
		"ldap.DeleteRateJob",
		"ldap.ModRateJob",
		"ldap.SearchRateJob",
		"misc.ExecJob",
		"misc.NoopJob",
		"misc.SleepJob",
		"net.TCPConnectRateJob",
	}

	DefaultOptimizationAlgorithms = []string{
		"SingleStatisticOptimization",
		"SingleStatisticWithCPUUtilization",
		"SingleStatisticWithReplicaLatency",
	}

	DefaultReportGenerators = []string{
		"HTMLReportGenerator",
		"PDFReportGenerator",
		"TextReportGenerator",
	}
)

// Join serializes a catalog as a newline-joined string for storage as a
// config parameter value.
func Join(names []string) string {
	return strings.Join(names, "\n")
}

// Split parses a newline-joined catalog back into its member names,
// dropping blank lines.
func Split(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, "\n")
	names := parts[:0]
	for _, p := range parts {
		if p != "" {
			names = append(names, p)
		}
	}
	return names
}

// Resolver answers whether a class name is known. Callers consult it
// before filing jobs; the storage layer itself stores class names
// opaquely.
type Resolver interface {
	IsKnownClass(name string) bool
}

// SetResolver is a Resolver backed by a fixed name set.
type SetResolver struct {
	names map[string]struct{}
}

// NewSetResolver builds a resolver over the given class names.
func NewSetResolver(names []string) *SetResolver {
	r := &SetResolver{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		r.names[n] = struct{}{}
	}
	return r
}

// IsKnownClass reports whether the name was in the resolver's set.
func (r *SetResolver) IsKnownClass(name string) bool {
	_, ok := r.names[name]
	return ok
}

// Names returns the resolver's class names in sorted order.
func (r *SetResolver) Names() []string {
	names := make([]string, 0, len(r.names))
	for n := range r.names {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// PermissiveResolver accepts every class name. It is the default when no
// catalog has been injected.
type PermissiveResolver struct{}

func (PermissiveResolver) IsKnownClass(string) bool { return true }
