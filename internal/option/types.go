package option

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/modm-io/lbuild/internal/errors"
)

// NewString creates a free-text option. An optional validator may
// reject values; the set form is not supported.
func NewString(name, description string) *Option {
	return newOption(name, description, &stringType{})
}

// NewStringValidated creates a string option with an external
// validator applied after parsing.
func NewStringValidated(name, description string, validate func(string) error) *Option {
	return newOption(name, description, &stringType{validate: validate})
}

// NewBoolean creates a boolean option with case-insensitive token
// mapping: true/yes/1 and false/no/0.
func NewBoolean(name, description string) *Option {
	return newOption(name, description, &booleanType{})
}

// NewNumeric creates an unbounded numeric option.
func NewNumeric(name, description string) *Option {
	return newOption(name, description, &numericType{})
}

// NewNumericRange creates a numeric option bounded by the inclusive
// [minimum, maximum] interval.
func NewNumericRange(name, description string, minimum, maximum float64) *Option {
	if minimum >= maximum {
		panic(fmt.Sprintf("option %q: minimum '%v' must be smaller than maximum '%v'",
			name, minimum, maximum))
	}
	return newOption(name, description, &numericType{
		minimum: &minimum,
		maximum: &maximum,
	})
}

// NewPath creates a path option. Only syntactic well-formedness is
// checked, never filesystem existence. With emptyOK the empty string
// is exempt from the check; with absolute a relative input is
// relocated below the defining file's directory.
func NewPath(name, description string, emptyOK, absolute bool) *Option {
	return newOption(name, description, &pathType{emptyOK: emptyOK, absolute: absolute})
}

// NewEnumeration creates an enumeration over an ordered collection of
// candidate values; each value maps to itself, keyed by its string
// form.
func NewEnumeration(name, description string, values ...string) *Option {
	mapping := make(map[string]any, len(values))
	for _, v := range values {
		mapping[v] = v
	}
	return newOption(name, description, &enumType{tokens: values, mapping: mapping})
}

// NewEnumerationMap creates an enumeration with an explicit mapping
// from input token to associated value. Order gives the token
// sequence reported in errors and listings.
func NewEnumerationMap(name, description string, order []string, mapping map[string]any) *Option {
	return newOption(name, description, &enumType{tokens: order, mapping: mapping})
}

// stringType accepts any text.
type stringType struct {
	validate func(string) error
}

func (t *stringType) Kind() Kind        { return KindString }
func (t *stringType) SupportsSet() bool { return false }

func (t *stringType) Parse(raw string) (any, error) { return raw, nil }

func (t *stringType) Validate(value any) error {
	if t.validate == nil {
		return nil
	}
	return t.validate(value.(string))
}

func (t *stringType) Serialize(value any) string { return value.(string) }

// booleanType maps tokens case-insensitively.
type booleanType struct{}

func (t *booleanType) Kind() Kind        { return KindBoolean }
func (t *booleanType) SupportsSet() bool { return true }

func (t *booleanType) Parse(raw string) (any, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "1":
		return true, nil
	case "false", "no", "0":
		return false, nil
	}
	return nil, errors.Wrap(errors.ErrParse, "value %q must be boolean", raw)
}

func (t *booleanType) Validate(any) error { return nil }

func (t *booleanType) Serialize(value any) string {
	return strconv.FormatBool(value.(bool))
}

// numericType accepts any real number, optionally bounded inclusively.
type numericType struct {
	minimum *float64
	maximum *float64
}

func (t *numericType) Kind() Kind        { return KindNumeric }
func (t *numericType) SupportsSet() bool { return true }

func (t *numericType) Parse(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	// Integer forms first so prefixed literals (0x, 0b, 0o) work.
	if i, err := strconv.ParseInt(raw, 0, 64); err == nil {
		return float64(i), nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.Wrap(errors.ErrParse, "value %q must be numeric", raw)
	}
	return f, nil
}

func (t *numericType) Validate(value any) error {
	v := value.(float64)
	if t.minimum != nil && v < *t.minimum {
		return &errors.RangeError{Value: v, Bound: *t.minimum, Above: false}
	}
	if t.maximum != nil && v > *t.maximum {
		return &errors.RangeError{Value: v, Bound: *t.maximum, Above: true}
	}
	return nil
}

func (t *numericType) Serialize(value any) string {
	return strconv.FormatFloat(value.(float64), 'g', -1, 64)
}

// pathType validates syntactic well-formedness only.
type pathType struct {
	emptyOK  bool
	absolute bool
	basedir  string
}

func (t *pathType) Kind() Kind        { return KindPath }
func (t *pathType) SupportsSet() bool { return true }

func (t *pathType) Parse(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	path := raw
	if t.absolute && !filepath.IsAbs(path) {
		path = filepath.Join(t.basedir, path)
	}
	return filepath.Clean(path), nil
}

func (t *pathType) Validate(value any) error {
	path := value.(string)
	if path == "" {
		if t.emptyOK {
			return nil
		}
		return errors.Wrap(errors.ErrValidation, "path must not be empty")
	}
	if strings.ContainsRune(path, 0) {
		return errors.Wrap(errors.ErrValidation, "path %q contains an invalid character", path)
	}
	return nil
}

func (t *pathType) Serialize(value any) string { return value.(string) }

// AnchorPaths pins the base directory used by a path option's
// `absolute` relocation to the directory of the defining file. It is
// independent of the process working directory.
func AnchorPaths(o *Option, basedir string) {
	if t, ok := o.typ.(*pathType); ok {
		t.basedir = basedir
	}
}

// enumType maps input tokens to associated values. The typed value is
// the associated value, not the token; an unknown token is a
// validation error listing the valid token set.
type enumType struct {
	tokens  []string
	mapping map[string]any
}

func (t *enumType) Kind() Kind        { return KindEnumeration }
func (t *enumType) SupportsSet() bool { return true }

func (t *enumType) Parse(raw string) (any, error) {
	token := strings.TrimSpace(raw)
	value, ok := t.mapping[token]
	if !ok {
		return nil, errors.Wrap(errors.ErrValidation,
			"value %q not found in enumeration, possible values are: '%s'",
			token, strings.Join(t.tokens, "', '"))
	}
	return value, nil
}

func (t *enumType) Validate(any) error { return nil }

func (t *enumType) Serialize(value any) string { return fmt.Sprint(value) }

// Values returns the valid token set of an enumeration option, in
// declaration order. Nil for every other kind.
func Values(o *Option) []string {
	if t, ok := o.typ.(*enumType); ok {
		out := make([]string, len(t.tokens))
		copy(out, t.tokens)
		return out
	}
	return nil
}

// Mapped resolves an enumeration token to its associated value.
func Mapped(o *Option, token string) (any, bool) {
	if t, ok := o.typ.(*enumType); ok {
		v, found := t.mapping[token]
		return v, found
	}
	return nil, false
}
