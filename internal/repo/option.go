package repo

import (
	"fmt"
	"math"
	"strings"

	"github.com/modm-io/lbuild/internal/errors"
	"github.com/modm-io/lbuild/internal/option"
)

type xmlOption struct {
	Name        string       `xml:"name,attr"`
	Type        string       `xml:"type,attr"`
	Default     *string      `xml:"default,attr"`
	Set         bool         `xml:"set,attr"`
	Description string       `xml:"description"`
	Values      string       `xml:"values"`
	Minimum     *float64     `xml:"minimum"`
	Maximum     *float64     `xml:"maximum"`
	EmptyOK     bool         `xml:"empty-ok"`
	Absolute    bool         `xml:"absolute"`
	Depends     []xmlDepends `xml:"depends"`
}

type xmlDepends struct {
	Value   string `xml:"value,attr"`
	Modules string `xml:",chardata"`
}

// buildOption turns one declarative option into a typed option. An
// option without a default attribute is REQUIRED.
func buildOption(decl xmlOption) (*option.Option, error) {
	if decl.Name == "" {
		return nil, errors.Wrap(errors.ErrConfiguration, "option without name")
	}

	var opt *option.Option
	switch strings.ToLower(decl.Type) {
	case "", "string":
		opt = option.NewString(decl.Name, decl.Description)
	case "boolean":
		opt = option.NewBoolean(decl.Name, decl.Description)
	case "numeric":
		if decl.Minimum != nil || decl.Maximum != nil {
			minimum, maximum := math.Inf(-1), math.Inf(1)
			if decl.Minimum != nil {
				minimum = *decl.Minimum
			}
			if decl.Maximum != nil {
				maximum = *decl.Maximum
			}
			opt = option.NewNumericRange(decl.Name, decl.Description, minimum, maximum)
		} else {
			opt = option.NewNumeric(decl.Name, decl.Description)
		}
	case "path":
		opt = option.NewPath(decl.Name, decl.Description, decl.EmptyOK, decl.Absolute)
	case "enumeration":
		values := option.SplitSet(decl.Values)
		if len(values) == 0 {
			return nil, errors.Wrap(errors.ErrConfiguration,
				"enumeration option %q without values", decl.Name)
		}
		opt = option.NewEnumeration(decl.Name, decl.Description, values...)
	default:
		return nil, errors.Wrap(errors.ErrConfiguration,
			"option %q has unknown type %q", decl.Name, decl.Type)
	}

	if decl.Set {
		if strings.ToLower(decl.Type) == "string" || decl.Type == "" {
			return nil, errors.Wrap(errors.ErrConfiguration,
				"string option %q has no set form", decl.Name)
		}
		opt.AsSet()
	}
	if decl.Default != nil {
		opt.Default(*decl.Default)
	}
	if len(decl.Depends) > 0 {
		opt.DependsOn(dependencyHandler(decl.Depends))
	}
	return opt, nil
}

// dependencyHandler maps finalized values to module identifiers. An
// entry without a value attribute applies unconditionally.
func dependencyHandler(entries []xmlDepends) option.DependencyHandler {
	return func(value any) []string {
		var modules []string
		add := func(v any) {
			token := fmt.Sprint(v)
			for _, entry := range entries {
				if entry.Value == "" || entry.Value == token {
					modules = append(modules,
						option.SplitSet(strings.TrimSpace(entry.Modules))...)
				}
			}
		}
		if sequence, ok := value.([]any); ok {
			for _, v := range sequence {
				add(v)
			}
		} else {
			add(value)
		}
		return modules
	}
}

// collectorType maps a declared collector type to its value kind.
func collectorType(name string) (option.Type, error) {
	switch strings.ToLower(name) {
	case "", "string":
		return option.NewString("", "").Type(), nil
	case "boolean":
		return option.NewBoolean("", "").Type(), nil
	case "numeric":
		return option.NewNumeric("", "").Type(), nil
	case "path":
		return option.NewPath("", "", true, false).Type(), nil
	}
	return nil, errors.Wrap(errors.ErrConfiguration,
		"unknown collector type %q", name)
}
