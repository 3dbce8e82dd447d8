// Package option implements the typed option system: String, Path,
// Boolean, Numeric, and Enumeration values with parsing, validation,
// serialization, scalar/set semantics, and dependency handlers.
package option

import (
	"strings"

	"github.com/modm-io/lbuild/internal/errors"
)

// Kind tags the closed set of value types.
type Kind int

// Option value kinds.
const (
	KindString Kind = iota
	KindPath
	KindBoolean
	KindNumeric
	KindEnumeration
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindPath:
		return "Path"
	case KindBoolean:
		return "Boolean"
	case KindNumeric:
		return "Numeric"
	case KindEnumeration:
		return "Enumeration"
	}
	return "Unknown"
}

// Type bundles the parse, validate, and serialize capabilities of one
// value kind. Implementations are the closed set in types.go.
type Type interface {
	Kind() Kind

	// Parse converts a raw string into a typed value.
	Parse(raw string) (any, error)

	// Validate checks a typed value against the kind's predicate.
	Validate(value any) error

	// Serialize converts a typed value back into its raw form so that
	// parse/serialize round-trips for display.
	Serialize(value any) string

	// SupportsSet reports whether the kind may be used in set form.
	SupportsSet() bool
}

// DependencyHandler maps a finalized option value to zero or more
// additional module identifiers. Scalar options pass the single typed
// value; set options pass the whole decoded []any sequence.
type DependencyHandler func(value any) []string

// Option is a typed, named, validated configuration value attached to
// a repository or module. An option without a default is REQUIRED:
// finalizing it without an explicit configuration entry is fatal.
type Option struct {
	Name        string
	Description string

	typ     Type
	set     bool
	handler DependencyHandler

	hasDefault bool
	defaultRaw string
	assigned   bool
	raw        string
}

func newOption(name, description string, typ Type) *Option {
	return &Option{Name: name, Description: description, typ: typ}
}

// Type exposes the value kind bundle, shared with collectors.
func (o *Option) Type() Type { return o.typ }

// Kind returns the value kind tag.
func (o *Option) Kind() Kind { return o.typ.Kind() }

// IsSet reports whether the option stores a sequence of elements.
func (o *Option) IsSet() bool { return o.set }

// Required reports whether the option has no default value.
func (o *Option) Required() bool { return !o.hasDefault }

// IsDefault reports whether the option still carries its default.
func (o *Option) IsDefault() bool { return !o.assigned }

// AsSet switches the option to set form. The raw value is stored as a
// comma-separated string and decoded element-wise. String options do
// not support the set form.
func (o *Option) AsSet() *Option {
	if !o.typ.SupportsSet() {
		panic("option: " + o.typ.Kind().String() + " does not support set form")
	}
	o.set = true
	return o
}

// Default installs a default raw value. The default must itself parse
// and validate; a broken default is a programming error in the
// repository definition and reported on first finalize.
func (o *Option) Default(raw string) *Option {
	o.hasDefault = true
	o.defaultRaw = raw
	return o
}

// DependsOn installs the dependency handler evaluated against the
// final option value during closure computation.
func (o *Option) DependsOn(handler DependencyHandler) *Option {
	o.handler = handler
	return o
}

// Assign parses and validates a raw configuration value and stores it.
func (o *Option) Assign(raw string) error {
	if _, err := o.decode(raw); err != nil {
		return err
	}
	o.raw = raw
	o.assigned = true
	return nil
}

// Raw returns the effective raw value, falling back to the default.
func (o *Option) Raw() string {
	if o.assigned {
		return o.raw
	}
	return o.defaultRaw
}

// Value finalizes the option: the effective raw value is decoded into
// its typed form. A required option that was never assigned fails with
// ErrRequired.
func (o *Option) Value() (any, error) {
	if !o.assigned && !o.hasDefault {
		return nil, errors.Wrap(errors.ErrRequired, "option %q has no value", o.Name)
	}
	return o.decode(o.Raw())
}

// Values finalizes a set option into its decoded element sequence.
func (o *Option) Values() ([]any, error) {
	if !o.set {
		v, err := o.Value()
		if err != nil {
			return nil, err
		}
		return []any{v}, nil
	}
	v, err := o.Value()
	if err != nil {
		return nil, err
	}
	return v.([]any), nil
}

// Serialize renders the effective value back into display form.
func (o *Option) Serialize() (string, error) {
	value, err := o.Value()
	if err != nil {
		return "", err
	}
	if o.set {
		elements := value.([]any)
		parts := make([]string, len(elements))
		for i, e := range elements {
			parts[i] = o.typ.Serialize(e)
		}
		return strings.Join(parts, ", "), nil
	}
	return o.typ.Serialize(value), nil
}

// DependencyModules evaluates the dependency handler against the final
// value. Options without a handler contribute nothing.
func (o *Option) DependencyModules() ([]string, error) {
	if o.handler == nil {
		return nil, nil
	}
	value, err := o.Value()
	if err != nil {
		return nil, err
	}
	return o.handler(value), nil
}

// decode parses and validates raw into the typed form. For set
// options the raw text is split on commas, each element trimmed, then
// parsed and validated independently; duplicates are preserved.
func (o *Option) decode(raw string) (any, error) {
	if !o.set {
		return o.decodeScalar(raw)
	}
	elements := SplitSet(raw)
	values := make([]any, 0, len(elements))
	for _, element := range elements {
		v, err := o.decodeScalar(element)
		if err != nil {
			return nil, errors.Wrap(errors.ErrValidation,
				"invalid set element %q of option %q: %v", element, o.Name, err)
		}
		values = append(values, v)
	}
	return values, nil
}

func (o *Option) decodeScalar(raw string) (any, error) {
	value, err := o.typ.Parse(raw)
	if err != nil {
		return nil, o.named(err)
	}
	if err := o.typ.Validate(value); err != nil {
		return nil, o.named(err)
	}
	return value, nil
}

// named attributes range errors to this option.
func (o *Option) named(err error) error {
	var rangeErr *errors.RangeError
	if errors.As(err, &rangeErr) && rangeErr.Option == "" {
		rangeErr.Option = o.Name
	}
	return err
}

// SplitSet decodes the comma-separated raw form of a set option into
// trimmed elements. Duplicates and order are preserved.
func SplitSet(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	elements := make([]string, len(parts))
	for i, p := range parts {
		elements[i] = strings.TrimSpace(p)
	}
	return elements
}
