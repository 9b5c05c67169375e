// Package params declares the typed parameter surface a rhythm machine
// exposes to its host: an ordered list of named, typed declarations plus
// an immutable snapshot type handed to callback contexts.
package params

import "fmt"

// Kind identifies a parameter's value type.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindNumber
	KindEnum
)

// Decl is one declared parameter. Range fields only apply to KindInt and
// KindNumber; Options only applies to KindEnum.
type Decl struct {
	Name    string
	Kind    Kind
	Default any

	Min, Max float64
	HasRange bool
	Options  []string
}

// Set is an ordered list of parameter declarations, preserving declaration
// order the way the host is expected to present them.
type Set struct {
	decls []Decl
	index map[string]int
}

// NewSet builds a Set from an ordered declaration list, rejecting
// duplicate names and out-of-range defaults.
func NewSet(decls []Decl) (*Set, error) {
	s := &Set{index: make(map[string]int, len(decls))}
	for _, d := range decls {
		if _, exists := s.index[d.Name]; exists {
			return nil, fmt.Errorf("params: duplicate parameter name %q", d.Name)
		}
		if err := validateDecl(d); err != nil {
			return nil, err
		}
		s.index[d.Name] = len(s.decls)
		s.decls = append(s.decls, d)
	}
	return s, nil
}

func validateDecl(d Decl) error {
	switch d.Kind {
	case KindBool:
		if _, ok := d.Default.(bool); !ok {
			return fmt.Errorf("params: %q declared bool but default is %T", d.Name, d.Default)
		}
	case KindInt:
		v, ok := d.Default.(int)
		if !ok {
			return fmt.Errorf("params: %q declared int but default is %T", d.Name, d.Default)
		}
		if d.HasRange && (float64(v) < d.Min || float64(v) > d.Max) {
			return fmt.Errorf("params: %q default %d outside range [%v, %v]", d.Name, v, d.Min, d.Max)
		}
	case KindNumber:
		v, ok := d.Default.(float64)
		if !ok {
			return fmt.Errorf("params: %q declared number but default is %T", d.Name, d.Default)
		}
		if d.HasRange && (v < d.Min || v > d.Max) {
			return fmt.Errorf("params: %q default %v outside range [%v, %v]", d.Name, v, d.Min, d.Max)
		}
	case KindEnum:
		v, ok := d.Default.(string)
		if !ok {
			return fmt.Errorf("params: %q declared enum but default is %T", d.Name, d.Default)
		}
		if !contains(d.Options, v) {
			return fmt.Errorf("params: %q default %q not among options %v", d.Name, v, d.Options)
		}
	default:
		return fmt.Errorf("params: %q has unknown kind %d", d.Name, d.Kind)
	}
	return nil
}

func contains(opts []string, v string) bool {
	for _, o := range opts {
		if o == v {
			return true
		}
	}
	return false
}

// Decls returns the declarations in their original order.
func (s *Set) Decls() []Decl { return append([]Decl{}, s.decls...) }

// Defaults builds a Snapshot populated with every declared default.
func (s *Set) Defaults() Snapshot {
	values := make(map[string]any, len(s.decls))
	for _, d := range s.decls {
		values[d.Name] = d.Default
	}
	return Snapshot{order: s.decls, values: values}
}

// With returns a new Snapshot derived from base with overrides applied,
// validating each override's type and range against its declaration.
func (s *Set) With(base Snapshot, overrides map[string]any) (Snapshot, error) {
	values := make(map[string]any, len(base.values))
	for k, v := range base.values {
		values[k] = v
	}
	for name, v := range overrides {
		i, ok := s.index[name]
		if !ok {
			return Snapshot{}, fmt.Errorf("params: unknown parameter %q", name)
		}
		d := s.decls[i]
		checked := Decl{Name: d.Name, Kind: d.Kind, Default: v, Min: d.Min, Max: d.Max, HasRange: d.HasRange, Options: d.Options}
		if err := validateDecl(checked); err != nil {
			return Snapshot{}, err
		}
		values[name] = v
	}
	return Snapshot{order: s.decls, values: values}, nil
}

// Snapshot is an immutable, point-in-time view of parameter values handed
// to pulse/gate/event callback contexts. Its value map is never exposed,
// and Set.With copies it, so deriving a new snapshot leaves the base
// unchanged.
type Snapshot struct {
	order  []Decl
	values map[string]any
}

// Bool, Int, Number, and Enum read a parameter by name, panicking if the
// name was never declared — callers only ever look up names their own
// Decl list produced.
func (s Snapshot) Bool(name string) bool     { return s.values[name].(bool) }
func (s Snapshot) Int(name string) int       { return s.values[name].(int) }
func (s Snapshot) Number(name string) float64 { return s.values[name].(float64) }
func (s Snapshot) Enum(name string) string   { return s.values[name].(string) }

// Has reports whether name was declared.
func (s Snapshot) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}
