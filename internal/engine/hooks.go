// Package engine drives the build pipeline: it discovers
// repositories and modules through their lifecycle hooks, applies the
// merged configuration, computes the active closure and its execution
// order, and runs the validate, build, and post-build phases.
package engine

import (
	"github.com/modm-io/lbuild/internal/env"
	"github.com/modm-io/lbuild/internal/errors"
	"github.com/modm-io/lbuild/internal/option"
	"github.com/modm-io/lbuild/internal/registry"
	"github.com/modm-io/lbuild/internal/tree"
)

// Repository is the lifecycle hook set of one repository. Init names
// the repository and registers its options and modules; Prepare runs
// after the repository's option values are final and may register
// additional modules.
type Repository interface {
	Init(repo *RepositorySetup) error
	Prepare(repo *RepositorySetup, options *OptionView) error
}

// RepositoryBuilder is implemented by repositories that generate
// files of their own. The hook runs before any module build.
type RepositoryBuilder interface {
	Build(e *env.Environment) error
}

// Module is the lifecycle hook set of one module. Init fixes the
// module's name and place in the tree; Prepare sees the repository's
// final option values, declares the module's own options,
// dependencies, and submodules, and decides availability.
type Module interface {
	Init(module *ModuleSetup) error
	Prepare(module *ModuleSetup, options *OptionView) (bool, error)
}

// ModuleValidator is implemented by modules that check their
// finalized option values before anything is generated.
type ModuleValidator interface {
	Validate(e *env.Environment) error
}

// ModuleBuilder is implemented by modules that generate files.
type ModuleBuilder interface {
	Build(e *env.Environment) error
}

// ModulePostBuilder runs after every build hook succeeded, with the
// frozen build log available through the environment.
type ModulePostBuilder interface {
	PostBuild(e *env.Environment) error
}

// RepositorySetup is the facade handed to repository hooks.
type RepositorySetup struct {
	engine *Engine
	entry  *repositoryEntry
}

// SetName fixes the repository name. Required during Init.
func (r *RepositorySetup) SetName(name string) { r.entry.name = name }

// SetDescription sets the repository description.
func (r *RepositorySetup) SetDescription(text string) { r.entry.description = text }

// SetFilename records the file the repository was declared in.
// Relative paths of path options and build sources anchor here.
func (r *RepositorySetup) SetFilename(path string) { r.entry.filename = path }

// AddOption registers a repository-level option.
func (r *RepositorySetup) AddOption(opt *option.Option) { r.entry.options = append(r.entry.options, opt) }

// AddQuery registers a repository-level query.
func (r *RepositorySetup) AddQuery(q *registry.Query) { r.entry.queries = append(r.entry.queries, q) }

// AddCollector registers a repository-level collector.
func (r *RepositorySetup) AddCollector(c *registry.Collector) {
	r.entry.collectors = append(r.entry.collectors, c)
}

// AddModules registers module hooks for discovery. Callable from
// both Init and Prepare.
func (r *RepositorySetup) AddModules(modules ...Module) {
	for _, hook := range modules {
		r.engine.pending = append(r.engine.pending, &moduleEntry{
			hook:       hook,
			repository: r.entry,
			order:      len(r.engine.pending) + len(r.engine.modules),
		})
	}
}

// AddConfigAlias registers a named configuration file that
// `extends` entries can reference as `repository:alias`.
func (r *RepositorySetup) AddConfigAlias(alias, path string) {
	if r.entry.aliases == nil {
		r.entry.aliases = make(map[string]string)
	}
	r.entry.aliases[alias] = path
}

// ModuleSetup is the facade handed to module hooks.
type ModuleSetup struct {
	engine *Engine
	entry  *moduleEntry
}

// SetName fixes the module's local name. Required during Init.
func (m *ModuleSetup) SetName(name string) { m.entry.name = name }

// SetParent places the module below another module of the same
// repository instead of directly below the repository.
func (m *ModuleSetup) SetParent(name string) { m.entry.parentName = name }

// SetDescription sets the module description.
func (m *ModuleSetup) SetDescription(text string) { m.entry.description = text }

// SetFilename records the file the module was declared in.
func (m *ModuleSetup) SetFilename(path string) { m.entry.filename = path }

// AddOption registers a module-level option.
func (m *ModuleSetup) AddOption(opt *option.Option) { m.entry.options = append(m.entry.options, opt) }

// AddQuery registers a module-level query.
func (m *ModuleSetup) AddQuery(q *registry.Query) { m.entry.queries = append(m.entry.queries, q) }

// AddCollector registers a module-level collector.
func (m *ModuleSetup) AddCollector(c *registry.Collector) {
	m.entry.collectors = append(m.entry.collectors, c)
}

// DependsOn declares dependencies on other modules. Partial
// identifiers resolve against this module's context later.
func (m *ModuleSetup) DependsOn(names ...string) {
	m.entry.dependencies = append(m.entry.dependencies, names...)
}

// AddSubmodules registers generated submodules. Discovery re-enters
// for them, so their own Init and Prepare still run.
func (m *ModuleSetup) AddSubmodules(modules ...Module) {
	for _, hook := range modules {
		m.engine.pending = append(m.engine.pending, &moduleEntry{
			hook:       hook,
			repository: m.entry.repository,
			parent:     m.entry,
			order:      len(m.engine.pending) + len(m.engine.modules),
		})
	}
}

// OptionView is the read-only option access handed to Prepare hooks.
// Lookups resolve relative to the owning node, nearest scope first.
type OptionView struct {
	context *tree.Node
}

// Get resolves an option and returns its finalized value.
func (v *OptionView) Get(name string) (any, error) {
	node, err := v.context.ResolveKind(name, tree.KindOption)
	if err != nil {
		return nil, err
	}
	opt := node.Payload.(*option.Option)
	if opt.IsSet() {
		values, err := opt.Values()
		if err != nil {
			return nil, err
		}
		return values, nil
	}
	return opt.Value()
}

// GetDefault resolves an option, falling back when it is missing or
// unset.
func (v *OptionView) GetDefault(name string, fallback any) any {
	value, err := v.Get(name)
	if err != nil {
		return fallback
	}
	return value
}

// Has reports whether name resolves to an option.
func (v *OptionView) Has(name string) bool {
	_, err := v.context.ResolveKind(name, tree.KindOption)
	return err == nil
}

// attachPayload adds the declared options, queries, and collectors
// below owner, anchoring path options at the declaring file.
func attachPayload(owner *tree.Node, filename string,
	options []*option.Option, queries []*registry.Query, collectors []*registry.Collector) error {

	for _, opt := range options {
		node := tree.New(tree.KindOption, opt.Name)
		node.SetDescription(opt.Description)
		node.SetFilename(filename)
		node.Payload = opt
		if filename != "" {
			option.AnchorPaths(opt, filenameDir(filename))
		}
		if err := owner.Add(node); err != nil {
			return err
		}
	}
	for _, q := range queries {
		node := tree.New(tree.KindQuery, q.Name)
		node.SetDescription(q.Description)
		node.SetFilename(filename)
		node.Payload = q
		if err := owner.Add(node); err != nil {
			return err
		}
	}
	for _, c := range collectors {
		node := tree.New(tree.KindCollector, c.Name)
		node.SetDescription(c.Description)
		node.SetFilename(filename)
		node.Payload = c
		if err := owner.Add(node); err != nil {
			return err
		}
	}
	return nil
}

// requireName checks the hook assigned a name during Init.
func requireName(name, what, filename string) error {
	if name == "" {
		return errors.Wrap(errors.ErrConfiguration,
			"%s defined in %q did not set a name during init", what, filename)
	}
	return nil
}
