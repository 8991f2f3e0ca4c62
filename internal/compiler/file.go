package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Definition file extensions.
const (
	ExtCUE  = ".cue"
	ExtYAML = ".yaml"
	ExtYML  = ".yml"
)

// IsDefinitionFile reports whether path has a definition file extension.
func IsDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtCUE, ExtYAML, ExtYML:
		return true
	}
	return false
}

// CompileFile reads one definition file and compiles it by extension.
func CompileFile(path string) ([]Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ExtCUE:
		return CompileCUESource(path, data)
	case ExtYAML, ExtYML:
		return CompileYAML(path, data)
	default:
		return nil, fmt.Errorf("unsupported definition file %s: want %s, %s or %s", path, ExtCUE, ExtYAML, ExtYML)
	}
}

// Find returns the spec named name. An empty name selects the only spec.
func Find(specs []Spec, name string) (Spec, error) {
	if name == "" {
		if len(specs) == 1 {
			return specs[0], nil
		}
		return Spec{}, fmt.Errorf("%d builders defined, name one of %v", len(specs), Names(specs))
	}
	for _, s := range specs {
		if s.Name == name {
			return s, nil
		}
	}
	return Spec{}, fmt.Errorf("builder %q not found (defined: %v)", name, Names(specs))
}

// Names lists spec names in order.
func Names(specs []Spec) []string {
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return names
}
