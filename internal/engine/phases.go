package engine

import (
	"github.com/modm-io/lbuild/internal/buildlog"
	"github.com/modm-io/lbuild/internal/env"
	"github.com/modm-io/lbuild/internal/errors"
	"github.com/modm-io/lbuild/internal/option"
	"github.com/modm-io/lbuild/internal/output"
	"github.com/modm-io/lbuild/internal/registry"
	"github.com/modm-io/lbuild/internal/tree"
)

// Validate finalizes every option of the active closure and runs the
// module Validate hooks. Failures are collected across the whole
// closure and reported together, never short-circuited.
func (e *Engine) Validate(outpath string) error {
	var failures []error

	failures = append(failures, e.finalizeOptions()...)

	scratch := buildlog.New(outpath)
	for _, entry := range e.order {
		validator, ok := entry.hook.(ModuleValidator)
		if !ok {
			entry.state = StateValidated
			continue
		}
		environment := env.New(e.fs, entry.node, scratch)
		if err := validator.Validate(environment); err != nil {
			entry.state = StateFailed
			failures = append(failures, &errors.HookError{
				Node:  entry.node.FullName(),
				Phase: "validate",
				Err:   errors.Wrap(errors.ErrModuleValidate, "%v", err),
			})
			continue
		}
		entry.state = StateValidated
	}

	if len(failures) > 0 {
		return errors.Join(failures...)
	}
	return nil
}

// finalizeOptions checks that every option visible to the active
// closure holds a valid value. An option without default and without
// configuration entry fails here, before anything is generated.
func (e *Engine) finalizeOptions() []error {
	var failures []error
	check := func(node *tree.Node) {
		opt := node.Payload.(*option.Option)
		var err error
		if opt.IsSet() {
			_, err = opt.Values()
		} else {
			_, err = opt.Value()
		}
		if err != nil {
			failures = append(failures, errors.Wrap(err, "option %q", node.FullName()))
		}
	}

	for _, repo := range e.repositories {
		for _, node := range repo.node.Options() {
			check(node)
		}
	}
	for _, entry := range e.order {
		for _, node := range entry.node.Options() {
			check(node)
		}
	}
	return failures
}

// Build runs repository build hooks, then every module build hook in
// execution order, then seals the collectors, freezes the log, and
// runs the post-build hooks. The first build failure aborts the
// remaining phases; the log of already generated files is returned
// either way.
func (e *Engine) Build(outpath string) (*buildlog.BuildLog, error) {
	log := buildlog.New(outpath)

	for _, repo := range e.repositories {
		builder, ok := repo.hook.(RepositoryBuilder)
		if !ok {
			continue
		}
		environment := env.New(e.fs, repo.node, log)
		if err := builder.Build(environment); err != nil {
			return log, &errors.HookError{Node: repo.name, Phase: "build", Err: asBuildError(err)}
		}
	}

	for _, entry := range e.order {
		builder, ok := entry.hook.(ModuleBuilder)
		if !ok {
			entry.state = StateBuilt
			continue
		}
		environment := env.New(e.fs, entry.node, log)
		output.Info("building", "module", entry.node.FullName())
		if err := builder.Build(environment); err != nil {
			entry.state = StateFailed
			return log, &errors.HookError{
				Node:  entry.node.FullName(),
				Phase: "build",
				Err:   asBuildError(err),
			}
		}
		entry.state = StateBuilt
	}

	e.sealCollectors()
	log.Freeze()

	for _, entry := range e.order {
		post, ok := entry.hook.(ModulePostBuilder)
		if !ok {
			entry.state = StatePostBuilt
			continue
		}
		environment := env.New(e.fs, entry.node, log)
		if err := post.PostBuild(environment); err != nil {
			entry.state = StateFailed
			return log, &errors.HookError{
				Node:  entry.node.FullName(),
				Phase: "post-build",
				Err:   err,
			}
		}
		entry.state = StatePostBuilt
	}
	return log, nil
}

// asBuildError classifies generator failures. Errors of a known
// class pass through unchanged.
func asBuildError(err error) error {
	if errors.Is(err, errors.ErrBuild) {
		return err
	}
	return errors.Wrap(errors.ErrBuild, "%v", err)
}

// sealCollectors closes write access once the build phase is over.
func (e *Engine) sealCollectors() {
	e.root.Walk(func(node *tree.Node) error {
		if node.Kind() == tree.KindCollector {
			node.Payload.(*registry.Collector).Seal()
		}
		return nil
	})
}
