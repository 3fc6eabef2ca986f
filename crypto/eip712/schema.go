package eip712

import (
	"regexp"
	"strings"

	"github.com/herorealm/realm/errors"
)

var (
	schemaRx = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_]*)\((.*)\)$`)
	fieldRx  = regexp.MustCompile(`^([a-z0-9]+(\[\])?) ([A-Za-z_][A-Za-z0-9_]*)$`)
)

var supportedTypes = map[string]bool{
	"address":   true,
	"uint256":   true,
	"uint64":    true,
	"bool":      true,
	"string":    true,
	"bytes32":   true,
	"address[]": true,
	"uint256[]": true,
}

// Field is a single member of a typed struct.
type Field struct {
	Name string
	Type string
}

// Schema describes the primary type of a signed message.
type Schema struct {
	Name   string
	Fields []Field
}

// ParseSchema reads a type declaration of the form
// "Name(type1 name1,type2 name2)".
func ParseSchema(decl string) (Schema, error) {
	m := schemaRx.FindStringSubmatch(strings.TrimSpace(decl))
	if m == nil {
		return Schema{}, errors.Wrapf(errors.ErrInput, "malformed type declaration %q", decl)
	}
	s := Schema{Name: m[1]}
	if m[2] == "" {
		return Schema{}, errors.Wrapf(errors.ErrInput, "type %s has no fields", s.Name)
	}
	seen := make(map[string]bool)
	for _, raw := range strings.Split(m[2], ",") {
		f := fieldRx.FindStringSubmatch(strings.TrimSpace(raw))
		if f == nil {
			return Schema{}, errors.Wrapf(errors.ErrInput, "malformed field %q", raw)
		}
		if !supportedTypes[f[1]] {
			return Schema{}, errors.Wrapf(errors.ErrType, "unsupported field type %q", f[1])
		}
		if seen[f[3]] {
			return Schema{}, errors.Wrapf(errors.ErrDuplicate, "field %q", f[3])
		}
		seen[f[3]] = true
		s.Fields = append(s.Fields, Field{Name: f[3], Type: f[1]})
	}
	return s, nil
}

// MustParseSchema is like ParseSchema but panics on error. Use it for
// package level declarations.
func MustParseSchema(decl string) Schema {
	s, err := ParseSchema(decl)
	if err != nil {
		panic(err)
	}
	return s
}

// String returns the canonical type declaration.
func (s Schema) String() string {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		parts[i] = f.Type + " " + f.Name
	}
	return s.Name + "(" + strings.Join(parts, ",") + ")"
}
