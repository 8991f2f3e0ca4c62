package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/sieve/internal/builder"
	"github.com/roach88/sieve/internal/compiler"
	"github.com/roach88/sieve/internal/config"
)

// LoadMode controls how errors are handled during definition loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the definitions loaded from a directory.
type LoadResult struct {
	Specs []compiler.Spec
	Files []string // definition files found, in directory order
}

// LoadError represents an error that occurred during definition loading.
type LoadError struct {
	Code    string
	Message string
	Pos     compiler.Position
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeScanError     = "E002" // Directory scan error
	ErrCodeNoFiles       = "E003" // No definition files found
	ErrCodeLoadFailed    = "E004" // CUE load failed
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeBuildFailed   = "E006" // CUE build failed
	ErrCodeWriteFailed   = "E007" // File write error
	ErrCodeCompileFailed = "E008" // Definition did not compile
	ErrCodeBadInput      = "E009" // Unparseable --filter or --options
)

// LoadDefinitions compiles every definition file directly inside dir.
// CUE files are loaded together as one package so definitions may share
// values across files; YAML files are compiled one at a time.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadDefinitions(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("definitions directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing definitions directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	files, err := FindDefinitionFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no definition files found in %s", dir)}}
	}

	result := &LoadResult{Files: files}
	var errs []error

	hasCUE := false
	for _, f := range files {
		if filepath.Ext(f) == compiler.ExtCUE {
			hasCUE = true
			continue
		}
		specs, err := compiler.CompileFile(f)
		if err != nil {
			errs = append(errs, convertCompileError(err, f))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Specs = append(result.Specs, specs...)
	}

	if hasCUE {
		specs, err := loadCUE(dir)
		if err != nil {
			errs = append(errs, err)
			if mode == LoadModeFailFast {
				return result, errs
			}
		}
		result.Specs = append(result.Specs, specs...)
	}

	if len(result.Specs) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("no builders found in %s", dir)})
	}

	return result, errs
}

func loadCUE(dir string) ([]compiler.Spec, error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	specs, err := compiler.CompileCUE(value, inst.Files)
	if err != nil {
		return nil, convertCompileError(err, dir)
	}
	return specs, nil
}

// FindDefinitionFiles lists the .cue, .yaml and .yml files directly
// inside dir.
func FindDefinitionFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !compiler.IsDefinitionFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, source string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeCompileFailed,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeCompileFailed,
		Message: fmt.Sprintf("%s: %v", source, err),
	}
}

// Register defines every spec against cfg. Specs that fail registration
// are reported and skipped.
func Register(specs []compiler.Spec, cfg *config.Config) ([]*builder.Builder, []error) {
	env := cfg.Env()

	var (
		builders []*builder.Builder
		errs     []error
	)
	for _, s := range specs {
		b, err := compiler.Define(s, env)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		builders = append(builders, b)
	}
	return builders, errs
}

// loadBuilder loads dir, validates every definition and registers the one
// named name (which may be empty when dir defines a single builder).
func loadBuilder(cfg *config.Config, dir, name string) (*builder.Builder, error) {
	result, errs := LoadDefinitions(dir, LoadModeFailFast)
	if len(errs) > 0 {
		return nil, errs[0]
	}

	if verrs := compiler.ValidateAll(result.Specs); len(verrs) > 0 {
		return nil, verrs[0]
	}

	spec, err := compiler.Find(result.Specs, name)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: err.Error()}
	}

	return compiler.Define(spec, cfg.Env())
}
