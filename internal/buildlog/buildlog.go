// Package buildlog records every generation operation of a build as
// an append-only log. The log is written during the build phase and
// exposed read-only from post_build onward; it doubles as the
// attribution key space for collector contributions.
package buildlog

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/modm-io/lbuild/internal/errors"
)

// Operation identifies one generation action: the owning module and
// the source/destination of the produced file. Destination may be
// empty for operations without a target path.
type Operation struct {
	// Module is the fully qualified name of the producing module.
	Module string

	// Source is the template or input file, empty for synthesized
	// output.
	Source string

	// Destination is the generated file below the output path.
	Destination string
}

// BuildLog is the append-only ordered record of operations.
type BuildLog struct {
	mu      sync.Mutex
	outpath string
	ops     []Operation
	byDest  map[string]Operation
	frozen  bool
}

// New creates an empty build log rooted at the given output path.
func New(outpath string) *BuildLog {
	return &BuildLog{
		outpath: outpath,
		byDest:  make(map[string]Operation),
	}
}

// OutPath returns the output root all destinations are relative to.
func (l *BuildLog) OutPath() string { return l.outpath }

// Log appends one operation. A destination already produced by a
// different module is a build error: modules must not overwrite each
// other's generated files.
func (l *BuildLog) Log(op Operation) (Operation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.frozen {
		return Operation{}, errors.Wrap(errors.ErrBuild,
			"build log is read-only after the build phase")
	}
	if op.Destination != "" {
		op.Destination = filepath.Clean(op.Destination)
		if previous, ok := l.byDest[op.Destination]; ok && previous.Module != op.Module {
			return Operation{}, errors.Wrap(errors.ErrBuild,
				"module %q would overwrite %q generated by %q",
				op.Module, op.Destination, previous.Module)
		}
		l.byDest[op.Destination] = op
	}
	l.ops = append(l.ops, op)
	return op, nil
}

// Freeze makes the log immutable. Called when the first reading phase
// begins; later appends fail.
func (l *BuildLog) Freeze() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frozen = true
}

// Operations returns the global view in append order.
func (l *BuildLog) Operations() []Operation {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Operation, len(l.ops))
	copy(out, l.ops)
	return out
}

// OperationsForModule returns the operations of one module and its
// submodules, in append order.
func (l *BuildLog) OperationsForModule(module string) []Operation {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Operation
	for _, op := range l.ops {
		if op.Module == module || hasPrefix(op.Module, module) {
			out = append(out, op)
		}
	}
	return out
}

// Modules returns the sorted set of module names that logged at least
// one operation.
func (l *BuildLog) Modules() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	seen := make(map[string]struct{})
	for _, op := range l.ops {
		seen[op.Module] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Repositories returns the sorted set of repositories that produced
// operations.
func (l *BuildLog) Repositories() []string {
	seen := make(map[string]struct{})
	for _, name := range l.Modules() {
		seen[repositoryOf(name)] = struct{}{}
	}
	repos := make([]string, 0, len(seen))
	for repo := range seen {
		repos = append(repos, repo)
	}
	sort.Strings(repos)
	return repos
}

func repositoryOf(module string) string {
	for i := 0; i < len(module); i++ {
		if module[i] == ':' {
			return module[:i]
		}
	}
	return module
}

func hasPrefix(module, prefix string) bool {
	return len(module) > len(prefix) &&
		module[:len(prefix)] == prefix &&
		module[len(prefix)] == ':'
}
