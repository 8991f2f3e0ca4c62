package ir

import (
	"strings"
)

// SemanticType is the domain classification of a field. It decides which
// operators are generated for the field.
type SemanticType string

const (
	TypeIdentifier  SemanticType = "identifier"
	TypeBoolean     SemanticType = "boolean"
	TypeNumeric     SemanticType = "numeric"
	TypeString      SemanticType = "string"
	TypeTemporal    SemanticType = "temporal"
	TypeMap         SemanticType = "map"
	TypeArray       SemanticType = "array"         // array of scalars
	TypeArrayOfMaps SemanticType = "array_of_maps" // array of objects
	TypeOther       SemanticType = "other"
)

// FieldDescriptor describes one field of a builder definition.
// Immutable once registered.
type FieldDescriptor struct {
	Name string       `json:"name"`
	Type SemanticType `json:"type"`

	// Declared is the storage type the field was declared with
	// (e.g. "uuid", "text", "array<string>").
	Declared string `json:"declared,omitempty"`
}

// DefaultIdentifierTypes lists the declared types treated as identifiers
// when no configuration overrides them.
var DefaultIdentifierTypes = []string{"id", "uuid", "binary_id"}

var declaredTypes = map[string]SemanticType{
	"bool":    TypeBoolean,
	"boolean": TypeBoolean,

	"int":      TypeNumeric,
	"integer":  TypeNumeric,
	"smallint": TypeNumeric,
	"bigint":   TypeNumeric,
	"float":    TypeNumeric,
	"double":   TypeNumeric,
	"real":     TypeNumeric,
	"decimal":  TypeNumeric,
	"numeric":  TypeNumeric,

	"string":  TypeString,
	"text":    TypeString,
	"varchar": TypeString,
	"char":    TypeString,
	"citext":  TypeString,

	"date":           TypeTemporal,
	"time":           TypeTemporal,
	"datetime":       TypeTemporal,
	"timestamp":      TypeTemporal,
	"timestamptz":    TypeTemporal,
	"utc_datetime":   TypeTemporal,
	"naive_datetime": TypeTemporal,

	"map":    TypeMap,
	"json":   TypeMap,
	"jsonb":  TypeMap,
	"object": TypeMap,
}

// TypeTable resolves declared storage types to semantic types.
// It is built once from configuration and never mutated.
type TypeTable struct {
	identifiers map[string]bool
}

// NewTypeTable creates a TypeTable. identifierTypes lists the declared types
// that classify as TypeIdentifier; nil uses DefaultIdentifierTypes.
func NewTypeTable(identifierTypes []string) TypeTable {
	if identifierTypes == nil {
		identifierTypes = DefaultIdentifierTypes
	}
	ids := make(map[string]bool, len(identifierTypes))
	for _, t := range identifierTypes {
		ids[normalizeDeclared(t)] = true
	}
	return TypeTable{identifiers: ids}
}

// IsZero reports whether t was never initialized with NewTypeTable.
func (t TypeTable) IsZero() bool {
	return t.identifiers == nil
}

// Resolve returns the semantic type for a declared storage type.
// Unknown declarations resolve to TypeOther.
//
// Array declarations use either "array<elem>" or "[]elem"; an element type
// that is itself map-like yields TypeArrayOfMaps.
func (t TypeTable) Resolve(declared string) SemanticType {
	d := normalizeDeclared(declared)
	if t.identifiers[d] {
		return TypeIdentifier
	}
	if elem, ok := arrayElem(d); ok {
		if t.Resolve(elem) == TypeMap {
			return TypeArrayOfMaps
		}
		return TypeArray
	}
	if st, ok := declaredTypes[d]; ok {
		return st
	}
	return TypeOther
}

// Describe builds a FieldDescriptor for name declared with the given type.
func (t TypeTable) Describe(name, declared string) FieldDescriptor {
	return FieldDescriptor{Name: name, Type: t.Resolve(declared), Declared: declared}
}

func arrayElem(d string) (string, bool) {
	switch {
	case strings.HasPrefix(d, "array<") && strings.HasSuffix(d, ">"):
		return strings.TrimSuffix(strings.TrimPrefix(d, "array<"), ">"), true
	case strings.HasPrefix(d, "[]"):
		return strings.TrimPrefix(d, "[]"), true
	default:
		return "", false
	}
}

func normalizeDeclared(d string) string {
	return strings.ToLower(strings.TrimSpace(d))
}
