// Package config loads and merges project configuration files.
//
// A configuration is an XML `<library>` document declaring repository
// locations, inherited configurations (`extends`), the output path,
// selected modules, raw option values, and collector contributions.
// Merging produces one raw identifier-to-string mapping in increasing
// precedence: built-in defaults, the inherited chain (most-derived
// wins), then explicit command-line overrides.
package config

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/afero"

	"github.com/modm-io/lbuild/internal/errors"
)

// FileName is the project-local marker file searched upward from the
// working directory; every file found on the way to the filesystem
// root becomes an implicit, lowest-precedence extension point.
const FileName = "lbuild.xml"

// DefaultCacheFolder holds downloaded repositories next to the
// outermost configuration file.
const DefaultCacheFolder = ".lbuild_cache"

// Version is the engine version checked against `<version>`
// requirements in configuration files.
const Version = "2.0.0"

// Git describes one remote repository declared under `<vcs><git>`.
type Git struct {
	Name   string `xml:"name"`
	URL    string `xml:"url"`
	Branch string `xml:"branch"`
	Commit string `xml:"commit"`
}

// Entry is one raw option value and the file it came from.
type Entry struct {
	Value  string
	Source string
}

// CollectorValue is one collector contribution from configuration.
type CollectorValue struct {
	Name   string
	Value  string
	Source string
}

// xmlLibrary mirrors the `<library>` document structure.
type xmlLibrary struct {
	XMLName      xml.Name     `xml:"library"`
	MinVersion   string       `xml:"version"`
	Repositories []xmlRepo    `xml:"repositories>repository"`
	Cache        string       `xml:"repositories>cache"`
	Extends      []string     `xml:"extends"`
	OutPath      string       `xml:"outpath"`
	Options      []xmlOption  `xml:"options>option"`
	Modules      []string     `xml:"modules>module"`
	Collectors   []xmlCollect `xml:"collectors>collect"`
}

type xmlRepo struct {
	Path string  `xml:"path"`
	VCS  *xmlVCS `xml:"vcs"`
}

type xmlVCS struct {
	Git *Git `xml:"git"`
}

type xmlOption struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
	Text  string `xml:",chardata"`
}

type xmlCollect struct {
	Name string `xml:"name,attr"`
	Text string `xml:",chardata"`
}

// Node is one parsed configuration file together with the files it
// extends. Alias references (`repo:alias`) stay pending until the
// repositories that register them have been parsed.
type Node struct {
	Filename string
	OutPath  string
	Cache    string

	Repositories []string
	VCS          []Git
	Modules      []string
	Options      map[string]Entry
	optionOrder  []string
	Collectors   []CollectorValue

	extends        []*Node
	PendingAliases []string
}

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads one configuration file and, depth-first, every file it
// extends. A cyclic extends chain is a configuration error.
func Load(fs afero.Fs, path string) (*Node, error) {
	return load(fs, path, nil)
}

func load(fs afero.Fs, path string, visiting []string) (*Node, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfiguration, "resolving %q: %v", path, err)
	}
	for _, seen := range visiting {
		if seen == abs {
			return nil, errors.Wrap(errors.ErrConfiguration,
				"cyclic extends chain: %s", strings.Join(append(visiting, abs), " -> "))
		}
	}
	visiting = append(visiting, abs)

	data, err := afero.ReadFile(fs, abs)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfiguration,
			"configuration file not found: %q", path)
	}

	var doc xmlLibrary
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrConfiguration,
			"malformed configuration %q: %v", path, err)
	}
	if err := checkVersion(abs, doc.MinVersion); err != nil {
		return nil, err
	}

	node := &Node{
		Filename: abs,
		Options:  make(map[string]Entry),
	}
	base := filepath.Dir(abs)

	substitute := func(text string) (string, error) {
		var substErr error
		out := envPattern.ReplaceAllStringFunc(text, func(match string) string {
			key := envPattern.FindStringSubmatch(match)[1]
			value, ok := os.LookupEnv(key)
			if !ok {
				substErr = errors.Wrap(errors.ErrConfiguration,
					"%q: unknown environment variable %q", path, key)
				return match
			}
			return value
		})
		return out, substErr
	}

	if doc.Cache != "" {
		node.Cache = relocate(doc.Cache, base)
	}
	if doc.OutPath != "" {
		node.OutPath = relocate(doc.OutPath, base)
	}

	for _, repo := range doc.Repositories {
		if repo.VCS != nil && repo.VCS.Git != nil {
			node.VCS = append(node.VCS, *repo.VCS.Git)
		}
		if repo.Path == "" {
			continue
		}
		text, err := substitute(repo.Path)
		if err != nil {
			return nil, err
		}
		text = strings.ReplaceAll(text, "{cache}", node.cacheFolder())
		node.Repositories = append(node.Repositories, relocate(text, base))
	}

	for _, module := range doc.Modules {
		node.Modules = append(node.Modules, strings.TrimSpace(module))
	}

	for _, opt := range doc.Options {
		value := opt.Value
		if value == "" {
			value = strings.TrimSpace(opt.Text)
		}
		value, err := substitute(value)
		if err != nil {
			return nil, err
		}
		node.setOption(opt.Name, Entry{Value: value, Source: abs})
	}

	for _, collect := range doc.Collectors {
		node.Collectors = append(node.Collectors, CollectorValue{
			Name:   collect.Name,
			Value:  strings.TrimSpace(collect.Text),
			Source: abs,
		})
	}

	for _, ref := range doc.Extends {
		ref = strings.TrimSpace(ref)
		candidate := relocate(ref, base)
		exists, _ := afero.Exists(fs, candidate)
		switch {
		case exists:
			child, err := load(fs, candidate, visiting)
			if err != nil {
				return nil, err
			}
			node.extends = append(node.extends, child)
		case strings.Contains(ref, ":"):
			node.PendingAliases = append(node.PendingAliases, ref)
		default:
			return nil, errors.Wrap(errors.ErrConfiguration,
				"extended configuration %q not found (from %q)", ref, path)
		}
	}

	return node, nil
}

// FromPath walks from startdir upward to the filesystem root and
// chains every marker file found: files closer to the working
// directory extend (and therefore override) the ones above them.
// Returns nil without error when no marker file exists.
func FromPath(fs afero.Fs, startdir string) (*Node, error) {
	dir, err := filepath.Abs(startdir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfiguration, "resolving %q: %v", startdir, err)
	}

	var chain *Node
	var tail *Node
	for {
		marker := filepath.Join(dir, FileName)
		if exists, _ := afero.Exists(fs, marker); exists {
			node, err := Load(fs, marker)
			if err != nil {
				return nil, err
			}
			if chain == nil {
				chain = node
			} else {
				tail.extends = append(tail.extends, node)
			}
			tail = node
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return chain, nil
		}
		dir = parent
	}
}

// Extend attaches a lower-precedence base configuration, used for
// resolved aliases and the implicit project-local marker chain.
func (n *Node) Extend(base *Node) {
	if base != nil {
		n.extends = append(n.extends, base)
	}
}

func (n *Node) setOption(name string, entry Entry) {
	if _, ok := n.Options[name]; !ok {
		n.optionOrder = append(n.optionOrder, name)
	}
	n.Options[name] = entry
}

func (n *Node) cacheFolder() string {
	if n.Cache != "" {
		return n.Cache
	}
	return filepath.Join(filepath.Dir(n.Filename), DefaultCacheFolder)
}

func checkVersion(path, required string) error {
	if required == "" {
		return nil
	}
	minimum, err := semver.NewVersion(strings.TrimSpace(required))
	if err != nil {
		return errors.Wrap(errors.ErrConfiguration,
			"%q: invalid version requirement %q", path, required)
	}
	current := semver.MustParse(Version)
	if current.LessThan(minimum) {
		return errors.Wrap(errors.ErrConfiguration,
			"%q requires version %s, but this is %s", path, minimum, current)
	}
	return nil
}

func relocate(path, base string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}
