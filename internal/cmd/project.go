package cmd

import (
	"os"

	"github.com/spf13/afero"

	"github.com/modm-io/lbuild/internal/config"
	"github.com/modm-io/lbuild/internal/engine"
	"github.com/modm-io/lbuild/internal/errors"
	"github.com/modm-io/lbuild/internal/repo"
)

// project bundles the loaded configuration chain, the engine with
// all repositories registered, and the flattened option view. Verbs
// decide how far to run the pipeline.
type project struct {
	fs      afero.Fs
	engine  *engine.Engine
	merged  *config.Merged
	outpath string
}

// loadProject loads the configuration chain (explicit file, upward
// lbuild.xml markers, repository aliases), registers every repository
// from flags and configuration, and applies command-line overrides.
func loadProject(extraModules []string) (*project, error) {
	fs := afero.NewOsFs()

	node, err := configChain(fs)
	if err != nil {
		return nil, err
	}

	e := engine.New(fs)
	loaded := make(map[string]bool)
	addRepositories := func(paths []string) error {
		for _, path := range paths {
			if loaded[path] {
				continue
			}
			loaded[path] = true
			repository, err := repo.Load(fs, path)
			if err != nil {
				return err
			}
			if err := e.AddRepository(repository); err != nil {
				return err
			}
		}
		return nil
	}

	merged := node.Flatten()
	if err := addRepositories(append(repositoryFlags, merged.Repositories...)); err != nil {
		return nil, err
	}

	// Aliased `extends` entries can only resolve after the
	// repositories registering them are loaded, and an alias target
	// can in turn declare more repositories.
	resolved := make(map[string]bool)
	for {
		pending := node.Pending()
		if len(pending) == 0 {
			break
		}
		aliases := e.ConfigAliases()
		for _, ref := range pending {
			key := ref.Node.Filename + "->" + ref.Alias
			if resolved[key] {
				return nil, errors.Wrap(errors.ErrConfiguration,
					"cyclic configuration alias %q (from %q)", ref.Alias, ref.Node.Filename)
			}
			resolved[key] = true

			path, ok := aliases[ref.Alias]
			if !ok {
				return nil, errors.Wrap(errors.ErrConfiguration,
					"unknown configuration alias %q (from %q)", ref.Alias, ref.Node.Filename)
			}
			if err := ref.Resolve(fs, path); err != nil {
				return nil, err
			}
		}
		merged = node.Flatten()
		if err := addRepositories(merged.Repositories); err != nil {
			return nil, err
		}
	}

	if err := merged.AddCommandLine(optionFlags); err != nil {
		return nil, err
	}
	merged.AddModules(extraModules)

	outpath := outpathFlag
	if outpath == "" {
		outpath = merged.OutPath
	}
	if outpath == "" {
		outpath = "."
	}

	return &project{fs: fs, engine: e, merged: merged, outpath: outpath}, nil
}

// configChain combines the explicit configuration file with the
// implicit upward lbuild.xml marker chain.
func configChain(fs afero.Fs) (*config.Node, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	marker, err := config.FromPath(fs, cwd)
	if err != nil {
		return nil, err
	}

	if configFlag == "" {
		if marker == nil {
			return &config.Node{}, nil
		}
		return marker, nil
	}
	node, err := config.Load(fs, configFlag)
	if err != nil {
		return nil, err
	}
	node.Extend(marker)
	return node, nil
}

// prepare runs configuration application and module discovery.
func (p *project) prepare() error {
	return p.engine.Prepare(p.merged)
}

// resolve additionally computes the active closure and its order.
func (p *project) resolve() error {
	if err := p.prepare(); err != nil {
		return err
	}
	return p.engine.Resolve(p.merged)
}
