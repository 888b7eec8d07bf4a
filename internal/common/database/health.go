// internal/common/database/health.go
package database

import (
	"context"
	"sort"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

// Readiness runs every check and reports each result by name ("ok" or the
// error text) and whether all of them passed.
func Readiness(ctx context.Context, checks map[string]Check) (map[string]string, bool) {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := make(map[string]string, len(checks))
	ready := true
	for _, name := range names {
		if err := checks[name](ctx); err != nil {
			status[name] = err.Error()
			ready = false
			continue
		}
		status[name] = "ok"
	}
	return status, ready
}
