package engine

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/modm-io/lbuild/internal/config"
	"github.com/modm-io/lbuild/internal/errors"
	"github.com/modm-io/lbuild/internal/ident"
	"github.com/modm-io/lbuild/internal/option"
	"github.com/modm-io/lbuild/internal/output"
	"github.com/modm-io/lbuild/internal/registry"
	"github.com/modm-io/lbuild/internal/tree"
)

// State tracks one module through the pipeline.
type State int

const (
	StateDiscovered State = iota
	StateInitialized
	StatePrepared
	StateValidated
	StateBuilt
	StatePostBuilt
	StateFailed
)

// Engine owns the repository/module forest and runs the pipeline.
// The forest is rebuilt fresh per invocation; nothing persists
// across runs.
type Engine struct {
	fs   afero.Fs
	root *tree.Node

	repositories []*repositoryEntry
	modules      []*moduleEntry
	pending      []*moduleEntry
	byNode       map[*tree.Node]*moduleEntry

	order    []*moduleEntry
	consumed map[string]bool
}

type repositoryEntry struct {
	hook Repository
	node *tree.Node

	name        string
	description string
	filename    string
	options     []*option.Option
	queries     []*registry.Query
	collectors  []*registry.Collector
	aliases     map[string]string
}

type moduleEntry struct {
	hook       Module
	repository *repositoryEntry
	parent     *moduleEntry
	node       *tree.Node

	name        string
	parentName  string
	description string
	filename    string
	options     []*option.Option
	queries     []*registry.Query
	collectors  []*registry.Collector

	dependencies []string
	depends      []*moduleEntry
	order        int
	state        State
}

// New creates an empty engine on the given filesystem.
func New(fs afero.Fs) *Engine {
	return &Engine{
		fs:       fs,
		root:     tree.NewRoot(),
		byNode:   make(map[*tree.Node]*moduleEntry),
		consumed: make(map[string]bool),
	}
}

// Root exposes the forest for discovery tooling.
func (e *Engine) Root() *tree.Node { return e.root }

// AddRepository runs the repository's Init hook and attaches the
// repository node. A duplicate repository name is fatal.
func (e *Engine) AddRepository(hook Repository) error {
	entry := &repositoryEntry{hook: hook}
	e.repositories = append(e.repositories, entry)

	setup := &RepositorySetup{engine: e, entry: entry}
	if err := hook.Init(setup); err != nil {
		return &errors.HookError{Node: entry.filename, Phase: "init", Err: err}
	}
	if err := requireName(entry.name, "repository", entry.filename); err != nil {
		return err
	}

	node := tree.New(tree.KindRepository, entry.name)
	node.SetDescription(entry.description)
	node.SetFilename(entry.filename)
	entry.node = node
	if err := e.root.Add(node); err != nil {
		return err
	}
	output.Debug("repository registered", "name", entry.name)
	return attachPayload(node, entry.filename, entry.options, entry.queries, entry.collectors)
}

// ConfigAliases returns the `repository:alias` to file path mapping
// registered by every repository, used to resolve pending `extends`
// references.
func (e *Engine) ConfigAliases() map[string]string {
	aliases := make(map[string]string)
	for _, repo := range e.repositories {
		for alias, path := range repo.aliases {
			aliases[repo.name+ident.Separator+alias] = path
		}
	}
	return aliases
}

// Prepare runs the configuration and preparation half of the
// pipeline: repository option assignment, repository Prepare hooks,
// re-entrant module discovery with Init and Prepare, and finally
// module option assignment.
func (e *Engine) Prepare(merged *config.Merged) error {
	if err := e.applyOptions(merged, tree.KindRepository); err != nil {
		return err
	}
	for _, repo := range e.repositories {
		setup := &RepositorySetup{engine: e, entry: repo}
		view := &OptionView{context: repo.node}
		if err := repo.hook.Prepare(setup, view); err != nil {
			return &errors.HookError{Node: repo.name, Phase: "prepare", Err: err}
		}
	}
	if err := e.discover(); err != nil {
		return err
	}
	if err := e.applyOptions(merged, tree.KindModule); err != nil {
		return err
	}
	e.warnUnconsumed(merged)
	return nil
}

// discover drains the pending module list. Prepare hooks may register
// further submodules, so the loop re-enters until the list stays
// empty.
func (e *Engine) discover() error {
	for len(e.pending) > 0 {
		batch := e.pending
		e.pending = nil

		for _, entry := range batch {
			setup := &ModuleSetup{engine: e, entry: entry}
			if err := entry.hook.Init(setup); err != nil {
				return &errors.HookError{Node: entry.filename, Phase: "init", Err: err}
			}
			if err := requireName(entry.name, "module", entry.filename); err != nil {
				return err
			}
			entry.state = StateInitialized
		}
		if err := e.attach(batch); err != nil {
			return err
		}

		for _, entry := range batch {
			setup := &ModuleSetup{engine: e, entry: entry}
			view := &OptionView{context: entry.node}
			available, err := entry.hook.Prepare(setup, view)
			if err != nil {
				return &errors.HookError{Node: entry.node.FullName(), Phase: "prepare", Err: err}
			}
			entry.node.SetAvailable(available)
			entry.state = StatePrepared
			if err := attachPayload(entry.node, entry.filename,
				entry.options, entry.queries, entry.collectors); err != nil {
				return err
			}
			output.Debug("module prepared",
				"name", entry.node.FullName(), "available", available)
		}
	}
	return nil
}

// attach places initialized modules into the forest, parents before
// children. Named parents may themselves be part of the batch, so
// attachment runs in rounds until no progress is possible.
func (e *Engine) attach(batch []*moduleEntry) error {
	waiting := batch
	for len(waiting) > 0 {
		var next []*moduleEntry
		progress := false
		for _, entry := range waiting {
			owner, err := e.owner(entry)
			if err != nil {
				return err
			}
			if owner == nil {
				next = append(next, entry)
				continue
			}
			node := tree.New(tree.KindModule, entry.name)
			node.SetDescription(entry.description)
			node.SetFilename(entry.filename)
			entry.node = node
			if err := owner.Add(node); err != nil {
				return err
			}
			e.byNode[node] = entry
			e.modules = append(e.modules, entry)
			progress = true
		}
		if !progress {
			return errors.Wrap(errors.ErrUnresolved,
				"parent %q of module %q not found",
				next[0].parentName, next[0].name)
		}
		waiting = next
	}
	return nil
}

// owner resolves the node a module attaches below, or nil when the
// named parent does not exist yet.
func (e *Engine) owner(entry *moduleEntry) (*tree.Node, error) {
	if entry.parent != nil {
		return entry.parent.node, nil
	}
	if entry.parentName == "" {
		return entry.repository.node, nil
	}
	parent, err := entry.repository.node.ResolveKind(entry.parentName, tree.KindModule)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return parent, nil
}

// applyOptions assigns merged configuration values to the option
// nodes owned by nodes of ownerKind. A key with wildcard or empty
// fields is a broadcast write: it sets every currently-known matching
// option and is never a resolver lookup.
func (e *Engine) applyOptions(merged *config.Merged, ownerKind tree.Kind) error {
	for _, key := range merged.OptionOrder {
		entry := merged.Options[key]
		pattern := ident.Parse(key)
		for _, node := range e.root.FindAll(tree.KindOption, false) {
			if node.Parent().Kind() != ownerKind {
				continue
			}
			if !pattern.Matches(node.FullName()) {
				continue
			}
			opt := node.Payload.(*option.Option)
			if err := opt.Assign(entry.Value); err != nil {
				return fmt.Errorf("%s (from %s): %w", node.FullName(), entry.Source, err)
			}
			e.consumed[key] = true
		}
	}
	return nil
}

// warnUnconsumed reports configuration keys that matched no option
// after both assignment passes. Typos should not fail silently.
func (e *Engine) warnUnconsumed(merged *config.Merged) {
	for _, key := range merged.OptionOrder {
		if !e.consumed[key] {
			output.Warn("option matched nothing",
				"name", key, "source", merged.Options[key].Source)
		}
	}
}

func filenameDir(filename string) string {
	return filepath.Dir(filename)
}
