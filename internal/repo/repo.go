// Package repo loads declarative repository and module definition
// files and exposes them through the engine's lifecycle hook
// interfaces. A repository file names the repository, declares its
// options and configuration aliases, and lists module file locations;
// a module file declares name, parent, dependencies, options,
// collectors, and build actions.
package repo

import (
	"encoding/xml"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/modm-io/lbuild/internal/engine"
	"github.com/modm-io/lbuild/internal/env"
	"github.com/modm-io/lbuild/internal/errors"
	"github.com/modm-io/lbuild/internal/option"
	"github.com/modm-io/lbuild/internal/registry"
)

type xmlRepository struct {
	XMLName     xml.Name    `xml:"repository"`
	Name        string      `xml:"name"`
	Description string      `xml:"description"`
	Options     []xmlOption `xml:"options>option"`
	Modules     []string    `xml:"modules>module"`
	Configs     []xmlConfig `xml:"configurations>configuration"`
}

type xmlConfig struct {
	Name string `xml:"name,attr"`
	Path string `xml:",chardata"`
}

type xmlModule struct {
	XMLName     xml.Name       `xml:"module"`
	Name        string         `xml:"name"`
	Parent      string         `xml:"parent"`
	Description string         `xml:"description"`
	Depends     []string       `xml:"depends"`
	Options     []xmlOption    `xml:"options>option"`
	Collectors  []xmlCollector `xml:"collectors>collector"`
	Build       []xmlAction    `xml:"build>copy"`
	Templates   []xmlAction    `xml:"build>template"`
	Collects    []xmlCollect   `xml:"build>collect"`
}

type xmlCollector struct {
	Name        string `xml:"name,attr"`
	Type        string `xml:"type,attr"`
	Description string `xml:",chardata"`
}

type xmlAction struct {
	Src  string `xml:"src,attr"`
	Dest string `xml:"dest,attr"`
}

type xmlCollect struct {
	Name   string `xml:"name,attr"`
	Values string `xml:",chardata"`
}

// Repository is a declaratively defined repository.
type Repository struct {
	fs       afero.Fs
	filename string
	doc      xmlRepository
}

// Load parses one repository definition file.
func Load(fs afero.Fs, path string) (*Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfiguration, "resolving %q: %v", path, err)
	}
	data, err := afero.ReadFile(fs, abs)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfiguration,
			"repository file not found: %q", path)
	}
	repo := &Repository{fs: fs, filename: abs}
	if err := xml.Unmarshal(data, &repo.doc); err != nil {
		return nil, errors.Wrap(errors.ErrConfiguration,
			"malformed repository %q: %v", path, err)
	}
	return repo, nil
}

// Init implements engine.Repository.
func (r *Repository) Init(setup *engine.RepositorySetup) error {
	setup.SetName(r.doc.Name)
	setup.SetDescription(r.doc.Description)
	setup.SetFilename(r.filename)

	for _, decl := range r.doc.Options {
		opt, err := buildOption(decl)
		if err != nil {
			return errors.Wrap(err, "repository %q", r.doc.Name)
		}
		setup.AddOption(opt)
	}
	for _, cfg := range r.doc.Configs {
		setup.AddConfigAlias(cfg.Name, relocate(cfg.Path, filepath.Dir(r.filename)))
	}

	modules, err := r.moduleFiles()
	if err != nil {
		return err
	}
	for _, path := range modules {
		module, err := loadModule(r.fs, path)
		if err != nil {
			return err
		}
		setup.AddModules(module)
	}
	return nil
}

// Prepare implements engine.Repository. Everything a declarative
// repository can state is known at Init time.
func (r *Repository) Prepare(*engine.RepositorySetup, *engine.OptionView) error {
	return nil
}

// moduleFiles expands the declared module locations, which may be
// glob patterns, relative to the repository file.
func (r *Repository) moduleFiles() ([]string, error) {
	base := filepath.Dir(r.filename)
	var files []string
	for _, pattern := range r.doc.Modules {
		pattern = relocate(pattern, base)
		matches, err := afero.Glob(r.fs, pattern)
		if err != nil {
			return nil, errors.Wrap(errors.ErrConfiguration,
				"invalid module pattern %q in %q: %v", pattern, r.filename, err)
		}
		if len(matches) == 0 {
			return nil, errors.Wrap(errors.ErrConfiguration,
				"module pattern %q in %q matched no files", pattern, r.filename)
		}
		files = append(files, matches...)
	}
	return files, nil
}

// module is a declaratively defined module.
type module struct {
	fs       afero.Fs
	filename string
	doc      xmlModule
}

func loadModule(fs afero.Fs, path string) (*module, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfiguration,
			"module file not found: %q", path)
	}
	m := &module{fs: fs, filename: path}
	if err := xml.Unmarshal(data, &m.doc); err != nil {
		return nil, errors.Wrap(errors.ErrConfiguration,
			"malformed module %q: %v", path, err)
	}
	return m, nil
}

// Init implements engine.Module.
func (m *module) Init(setup *engine.ModuleSetup) error {
	setup.SetName(m.doc.Name)
	setup.SetParent(m.doc.Parent)
	setup.SetDescription(m.doc.Description)
	setup.SetFilename(m.filename)
	return nil
}

// Prepare implements engine.Module. Declarative modules are always
// available; conditional availability needs a programmatic hook.
func (m *module) Prepare(setup *engine.ModuleSetup, _ *engine.OptionView) (bool, error) {
	setup.DependsOn(m.doc.Depends...)
	for _, decl := range m.doc.Options {
		opt, err := buildOption(decl)
		if err != nil {
			return false, errors.Wrap(err, "module %q", m.doc.Name)
		}
		setup.AddOption(opt)
	}
	for _, decl := range m.doc.Collectors {
		typ, err := collectorType(decl.Type)
		if err != nil {
			return false, errors.Wrap(err, "module %q", m.doc.Name)
		}
		setup.AddCollector(registry.NewCollector(decl.Name, decl.Description, typ))
	}
	return true, nil
}

// Build implements engine.ModuleBuilder: copies, renders templates,
// and contributes collector values in declaration order.
func (m *module) Build(e *env.Environment) error {
	for _, action := range m.doc.Build {
		if err := e.Copy(action.Src, action.Dest); err != nil {
			return err
		}
	}
	for _, action := range m.doc.Templates {
		if err := e.Template(action.Src, action.Dest, nil); err != nil {
			return err
		}
	}
	for _, collect := range m.doc.Collects {
		values := make([]any, 0)
		for _, raw := range option.SplitSet(collect.Values) {
			values = append(values, raw)
		}
		if err := e.Collect(collect.Name, values...); err != nil {
			return err
		}
	}
	return nil
}

func relocate(path, base string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}
