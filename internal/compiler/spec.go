package compiler

import (
	"fmt"

	"cuelang.org/go/cue/token"
)

// Spec is one builder definition as written in a definition file.
type Spec struct {
	Name        string
	Table       string
	Fields      []FieldSpec
	Unsupported string
	Filters     []KeySpec
	Sorts       []KeySpec
	Plugins     []PluginSpec
	Pos         Position
}

// FieldSpec declares one column and its storage type.
type FieldSpec struct {
	Name string
	Type string
	Pos  Position
}

// KeySpec is a declared filter or sort handler.
type KeySpec struct {
	Key string

	// Computed is set when the key was not written as a literal label.
	Computed bool
	Pos      Position

	Field    string
	Operator string
	Join     *JoinSpec
	Column   string
	Type     string
}

// JoinSpec describes the joined resource of a KeySpec. On holds the local
// and foreign columns.
type JoinSpec struct {
	Alias string   `json:"alias" yaml:"alias"`
	Table string   `json:"table" yaml:"table"`
	On    []string `json:"on" yaml:"on"`
	Kind  string   `json:"kind" yaml:"kind"`
}

// PluginSpec names a plugin and its options.
type PluginSpec struct {
	Name    string
	Options map[string]any
	Pos     Position
}

// handlerBody is the decoded value of a filters/sorts entry.
type handlerBody struct {
	Field    string    `json:"field" yaml:"field"`
	Operator string    `json:"operator" yaml:"operator"`
	Join     *JoinSpec `json:"join" yaml:"join"`
	Column   string    `json:"column" yaml:"column"`
	Type     string    `json:"type" yaml:"type"`
}

func (b handlerBody) keySpec(key string, computed bool, pos Position) KeySpec {
	return KeySpec{
		Key:      key,
		Computed: computed,
		Pos:      pos,
		Field:    b.Field,
		Operator: b.Operator,
		Join:     b.Join,
		Column:   b.Column,
		Type:     b.Type,
	}
}

// Position locates a node in a definition file.
type Position struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

func cuePosition(p token.Pos) Position {
	if !p.IsValid() {
		return Position{}
	}
	return Position{File: p.Filename(), Line: p.Line(), Column: p.Column()}
}

// IsValid reports whether p carries a line.
func (p Position) IsValid() bool {
	return p.Line > 0
}

func (p Position) String() string {
	switch {
	case !p.IsValid():
		return p.File
	case p.File == "":
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	default:
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     Position
}

func (e *CompileError) Error() string {
	if loc := e.Pos.String(); loc != "" {
		return fmt.Sprintf("%s: %s: %s", loc, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
