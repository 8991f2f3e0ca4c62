package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeTableResolve(t *testing.T) {
	table := NewTypeTable(nil)

	tests := []struct {
		declared string
		want     SemanticType
	}{
		{"uuid", TypeIdentifier},
		{"ID", TypeIdentifier},
		{"boolean", TypeBoolean},
		{"bigint", TypeNumeric},
		{"decimal", TypeNumeric},
		{"text", TypeString},
		{"timestamptz", TypeTemporal},
		{"jsonb", TypeMap},
		{"array<string>", TypeArray},
		{"[]int", TypeArray},
		{"array<map>", TypeArrayOfMaps},
		{"[]jsonb", TypeArrayOfMaps},
		{"tsvector", TypeOther},
		{"", TypeOther},
	}

	for _, tc := range tests {
		t.Run(tc.declared, func(t *testing.T) {
			assert.Equal(t, tc.want, table.Resolve(tc.declared))
		})
	}
}

func TestTypeTableCustomIdentifiers(t *testing.T) {
	table := NewTypeTable([]string{"ulid"})

	assert.Equal(t, TypeIdentifier, table.Resolve("ulid"))
	// uuid is no longer in the identifier list and is not a known scalar type.
	assert.Equal(t, TypeOther, table.Resolve("uuid"))
}

func TestTypeTableDescribe(t *testing.T) {
	fd := NewTypeTable(nil).Describe("price", "decimal")
	assert.Equal(t, FieldDescriptor{Name: "price", Type: TypeNumeric, Declared: "decimal"}, fd)
}
