package grid

import (
	"fmt"

	"github.com/google/uuid"
)

// FieldKind enumerates the value types a data field may hold.
type FieldKind int

const (
	FieldFloat FieldKind = iota
	FieldFloats
	FieldInt
	FieldString
)

func (k FieldKind) String() string {
	switch k {
	case FieldFloat:
		return "float"
	case FieldFloats:
		return "floats"
	case FieldInt:
		return "int"
	case FieldString:
		return "string"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

// Schema declares the data fields that may be attached to grids and
// edges of a bucket. Setting an undeclared field, or a declared field
// with the wrong kind, is an error.
type Schema struct {
	kinds map[string]FieldKind
}

func NewSchema() *Schema {
	return &Schema{kinds: make(map[string]FieldKind)}
}

// Declare registers a field name with its kind. Re-declaring a name
// with a different kind fails.
func (s *Schema) Declare(name string, kind FieldKind) error {
	if prev, ok := s.kinds[name]; ok && prev != kind {
		return fmt.Errorf("field %q already declared as %s", name, prev)
	}
	s.kinds[name] = kind
	return nil
}

// KindOf reports the declared kind of a field.
func (s *Schema) KindOf(name string) (FieldKind, bool) {
	k, ok := s.kinds[name]
	return k, ok
}

type assocKey struct {
	owner uuid.UUID
	field string
}

// Table associates field values with grids and edges, keyed by their
// UID. Values are stored per kind so lookups stay type safe without
// reflection.
type Table struct {
	schema  *Schema
	floats  map[assocKey]float64
	slices  map[assocKey][]float64
	ints    map[assocKey]int
	strings map[assocKey]string
}

func NewTable(schema *Schema) *Table {
	if schema == nil {
		schema = NewSchema()
	}
	return &Table{
		schema:  schema,
		floats:  make(map[assocKey]float64),
		slices:  make(map[assocKey][]float64),
		ints:    make(map[assocKey]int),
		strings: make(map[assocKey]string),
	}
}

func (t *Table) Schema() *Schema { return t.schema }

func (t *Table) check(field string, want FieldKind) error {
	kind, ok := t.schema.kinds[field]
	if !ok {
		return fmt.Errorf("field %q not declared", field)
	}
	if kind != want {
		return fmt.Errorf("field %q is %s, not %s", field, kind, want)
	}
	return nil
}

func (t *Table) SetFloat(owner uuid.UUID, field string, v float64) error {
	if err := t.check(field, FieldFloat); err != nil {
		return err
	}
	t.floats[assocKey{owner, field}] = v
	return nil
}

func (t *Table) Float(owner uuid.UUID, field string) (float64, bool) {
	v, ok := t.floats[assocKey{owner, field}]
	return v, ok
}

func (t *Table) SetFloats(owner uuid.UUID, field string, v []float64) error {
	if err := t.check(field, FieldFloats); err != nil {
		return err
	}
	t.slices[assocKey{owner, field}] = v
	return nil
}

func (t *Table) Floats(owner uuid.UUID, field string) ([]float64, bool) {
	v, ok := t.slices[assocKey{owner, field}]
	return v, ok
}

func (t *Table) SetInt(owner uuid.UUID, field string, v int) error {
	if err := t.check(field, FieldInt); err != nil {
		return err
	}
	t.ints[assocKey{owner, field}] = v
	return nil
}

func (t *Table) Int(owner uuid.UUID, field string) (int, bool) {
	v, ok := t.ints[assocKey{owner, field}]
	return v, ok
}

func (t *Table) SetString(owner uuid.UUID, field string, v string) error {
	if err := t.check(field, FieldString); err != nil {
		return err
	}
	t.strings[assocKey{owner, field}] = v
	return nil
}

func (t *Table) String(owner uuid.UUID, field string) (string, bool) {
	v, ok := t.strings[assocKey{owner, field}]
	return v, ok
}
