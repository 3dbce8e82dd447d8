package config

import (
	"strings"

	"github.com/spf13/afero"

	"github.com/modm-io/lbuild/internal/errors"
)

// Merged is the flattened configuration view: one raw mapping from
// qualified identifier to string plus the selected repositories and
// modules.
type Merged struct {
	Filename string
	OutPath  string
	Cache    string

	Repositories []string
	VCS          []Git
	Modules      []string
	Options      map[string]Entry
	OptionOrder  []string
	Collectors   []CollectorValue
}

// Flatten merges the whole extends chain depth-first. Bases apply
// first, so the most-derived entry wins on conflict; command-line
// overrides are applied on top via AddCommandLine afterwards.
func (n *Node) Flatten() *Merged {
	merged := &Merged{
		Filename: n.Filename,
		Options:  make(map[string]Entry),
	}
	n.flattenInto(merged)
	merged.Repositories = dedupe(merged.Repositories)
	merged.Modules = dedupe(merged.Modules)
	return merged
}

func (n *Node) flattenInto(merged *Merged) {
	for _, base := range n.extends {
		base.flattenInto(merged)
	}
	if n.OutPath != "" {
		merged.OutPath = n.OutPath
	}
	if n.Cache != "" {
		merged.Cache = n.Cache
	}
	merged.Repositories = append(merged.Repositories, n.Repositories...)
	merged.VCS = append(merged.VCS, n.VCS...)
	merged.Modules = append(merged.Modules, n.Modules...)
	merged.Collectors = append(merged.Collectors, n.Collectors...)
	for _, name := range n.optionOrder {
		merged.set(name, n.Options[name])
	}
}

// set records an option entry. An overwritten key moves to the end of
// the order, behind every earlier broadcast key that could re-assign
// the same option.
func (m *Merged) set(name string, entry Entry) {
	if _, ok := m.Options[name]; ok {
		for i, existing := range m.OptionOrder {
			if existing == name {
				m.OptionOrder = append(m.OptionOrder[:i], m.OptionOrder[i+1:]...)
				break
			}
		}
	}
	m.OptionOrder = append(m.OptionOrder, name)
	m.Options[name] = entry
}

// AddCommandLine applies `name=value` overrides with the highest
// precedence of all sources.
func (m *Merged) AddCommandLine(options []string) error {
	for _, raw := range options {
		name, value, ok := strings.Cut(raw, "=")
		if !ok {
			return errors.Wrap(errors.ErrConfiguration,
				"invalid option %q, expected name=value", raw)
		}
		m.set(strings.TrimSpace(name), Entry{Value: value, Source: "command-line"})
	}
	return nil
}

// AddModules selects additional modules, as command-line arguments do.
func (m *Merged) AddModules(modules []string) {
	m.Modules = dedupe(append(m.Modules, modules...))
}

// AliasRef is one unresolved `repo:alias` extends reference.
type AliasRef struct {
	Node  *Node
	Alias string
}

// Pending collects every unresolved alias reference in the chain.
func (n *Node) Pending() []AliasRef {
	var refs []AliasRef
	for _, alias := range n.PendingAliases {
		refs = append(refs, AliasRef{Node: n, Alias: alias})
	}
	for _, base := range n.extends {
		refs = append(refs, base.Pending()...)
	}
	return refs
}

// Resolve loads the configuration file an alias points to and
// attaches it as a base of the declaring node.
func (r AliasRef) Resolve(fs afero.Fs, path string) error {
	child, err := Load(fs, path)
	if err != nil {
		return err
	}
	r.Node.extends = append(r.Node.extends, child)
	for i, alias := range r.Node.PendingAliases {
		if alias == r.Alias {
			r.Node.PendingAliases = append(
				r.Node.PendingAliases[:i], r.Node.PendingAliases[i+1:]...)
			break
		}
	}
	return nil
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
