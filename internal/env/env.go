// Package env implements the environment handed to module hooks
// during the build and post-build phases. It resolves options and
// queries relative to the owning module, copies and renders files
// into the output path, and records every produced file in the
// build log.
package env

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/afero"

	"github.com/modm-io/lbuild/internal/buildlog"
	"github.com/modm-io/lbuild/internal/errors"
	"github.com/modm-io/lbuild/internal/option"
	"github.com/modm-io/lbuild/internal/output"
	"github.com/modm-io/lbuild/internal/registry"
	"github.com/modm-io/lbuild/internal/tree"
)

// Environment gives one module's hooks access to finalized options,
// queries, collectors, and the output filesystem. Option and module
// lookups resolve relative to the owning module, so short names work
// the same way they do in module metadata.
type Environment struct {
	fs     afero.Fs
	module *tree.Node
	log    *buildlog.BuildLog

	basepath      string
	outpath       string
	substitutions map[string]any
}

// New creates the environment for one module. basepath is the
// directory the module was loaded from; relative sources resolve
// against it and relative destinations against the build log's
// output path.
func New(fs afero.Fs, module *tree.Node, log *buildlog.BuildLog) *Environment {
	return &Environment{
		fs:            fs,
		module:        module,
		log:           log,
		basepath:      filepath.Dir(module.Filename()),
		outpath:       log.OutPath(),
		substitutions: make(map[string]any),
	}
}

// Module returns the node the environment belongs to.
func (e *Environment) Module() *tree.Node { return e.module }

// BuildLog exposes the shared build log, for post-build inspection.
func (e *Environment) BuildLog() *buildlog.BuildLog { return e.log }

// SetSubstitution registers a default template substitution shared by
// every Template call of this environment.
func (e *Environment) SetSubstitution(key string, value any) {
	e.substitutions[key] = value
}

// Get resolves an option relative to the module and returns its
// finalized value. Set options return the whole []any sequence.
func (e *Environment) Get(name string) (any, error) {
	node, err := e.module.ResolveKind(name, tree.KindOption)
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

// GetDefault resolves an option and returns fallback when the option
// does not exist or carries no value.
func (e *Environment) GetDefault(name string, fallback any) any {
	value, err := e.Get(name)
	if err != nil {
		return fallback
	}
	return value
}

// Has reports whether name resolves to an option.
func (e *Environment) Has(name string) bool {
	_, err := e.module.ResolveKind(name, tree.KindOption)
	return err == nil
}

// HasModule reports whether name resolves to an active module.
func (e *Environment) HasModule(name string) bool {
	node, err := e.module.ResolveKind(name, tree.KindModule)
	return err == nil && node.Active()
}

// Query resolves and invokes a query relative to the module.
func (e *Environment) Query(name string, args ...any) (any, error) {
	node, err := e.module.ResolveKind(name, tree.KindQuery)
	if err != nil {
		return nil, err
	}
	return node.Payload.(*registry.Query).Invoke(args...)
}

// Collect contributes values to a collector, attributed to the
// calling module.
func (e *Environment) Collect(name string, values ...any) error {
	node, err := e.module.ResolveKind(name, tree.KindCollector)
	if err != nil {
		return err
	}
	return node.Payload.(*registry.Collector).AddFromModule(e.module.FullName(), values...)
}

// CollectorValues returns the finalized values of a collector,
// deduplicated when unique is set.
func (e *Environment) CollectorValues(name string, unique bool) ([]any, error) {
	node, err := e.module.ResolveKind(name, tree.KindCollector)
	if err != nil {
		return nil, err
	}
	return node.Payload.(*registry.Collector).Values(unique, nil), nil
}

// LocalPath joins parts below the module's source directory.
func (e *Environment) LocalPath(parts ...string) string {
	return filepath.Join(append([]string{e.basepath}, parts...)...)
}

// OutPath joins parts below the output path.
func (e *Environment) OutPath(parts ...string) string {
	return filepath.Join(append([]string{e.outpath}, parts...)...)
}

// RelativeOutPath returns path relative to the output path, for use
// inside generated files.
func (e *Environment) RelativeOutPath(path string) string {
	rel, err := filepath.Rel(e.outpath, e.resolveDest(path))
	if err != nil {
		return path
	}
	return rel
}

// Copy copies a file or directory tree from the module's source
// directory into the output path and records every file produced.
// An empty dest reuses the source's base name.
func (e *Environment) Copy(src, dest string) error {
	srcpath := e.resolveSrc(src)
	if dest == "" {
		dest = filepath.Base(srcpath)
	}
	destpath := e.resolveDest(dest)

	info, err := e.fs.Stat(srcpath)
	if err != nil {
		return errors.Wrap(errors.ErrBuild, "%s: copy source %q: %v",
			e.module.FullName(), src, err)
	}
	if !info.IsDir() {
		return e.copyFile(srcpath, destpath)
	}

	return afero.Walk(e.fs, srcpath, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(srcpath, path)
		if err != nil {
			return err
		}
		return e.copyFile(path, filepath.Join(destpath, rel))
	})
}

// Template renders a text/template source into the output path. An
// empty dest strips a trailing ".tmpl" from the source name. data
// overrides the environment's default substitutions per key. The
// template can read options through the `option` function.
func (e *Environment) Template(src, dest string, data map[string]any) error {
	srcpath := e.resolveSrc(src)
	if dest == "" {
		dest = strings.TrimSuffix(filepath.Base(srcpath), ".tmpl")
	}
	destpath := e.resolveDest(dest)

	content, err := afero.ReadFile(e.fs, srcpath)
	if err != nil {
		return errors.Wrap(errors.ErrBuild, "%s: template source %q: %v",
			e.module.FullName(), src, err)
	}

	tmpl, err := template.New(filepath.Base(srcpath)).
		Funcs(template.FuncMap{
			"option": func(name string) (any, error) { return e.Get(name) },
		}).
		Parse(string(content))
	if err != nil {
		return errors.Wrap(errors.ErrBuild, "%s: parsing template %q: %v",
			e.module.FullName(), src, err)
	}

	substitutions := make(map[string]any, len(e.substitutions)+len(data))
	for key, value := range e.substitutions {
		substitutions[key] = value
	}
	for key, value := range data {
		substitutions[key] = value
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, substitutions); err != nil {
		return errors.Wrap(errors.ErrBuild, "%s: rendering template %q: %v",
			e.module.FullName(), src, err)
	}
	return e.write(srcpath, destpath, buf.Bytes())
}

func (e *Environment) copyFile(srcpath, destpath string) error {
	content, err := afero.ReadFile(e.fs, srcpath)
	if err != nil {
		return errors.Wrap(errors.ErrBuild, "%s: reading %q: %v",
			e.module.FullName(), srcpath, err)
	}
	return e.write(srcpath, destpath, content)
}

func (e *Environment) write(srcpath, destpath string, content []byte) error {
	if _, err := e.log.Log(buildlog.Operation{
		Module:      e.module.FullName(),
		Source:      srcpath,
		Destination: destpath,
	}); err != nil {
		return err
	}
	if err := e.fs.MkdirAll(filepath.Dir(destpath), 0o755); err != nil {
		return errors.Wrap(errors.ErrBuild, "%s: creating %q: %v",
			e.module.FullName(), filepath.Dir(destpath), err)
	}
	if err := afero.WriteFile(e.fs, destpath, content, 0o644); err != nil {
		return errors.Wrap(errors.ErrBuild, "%s: writing %q: %v",
			e.module.FullName(), destpath, err)
	}
	output.Debug("generated", "module", e.module.FullName(), "file", destpath)
	return nil
}

func (e *Environment) resolveSrc(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(e.basepath, path)
}

func (e *Environment) resolveDest(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(e.outpath, path)
}
