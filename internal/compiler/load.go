package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/correlate/internal/rule"
)

// LoadMode controls how errors are handled while loading a rules directory.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Load error codes (E001-E099). Compile errors are mapped onto E0xx by field.
const (
	ErrCodeGeneric     = "E001"
	ErrCodeScanError   = "E002"
	ErrCodeNoFiles     = "E003"
	ErrCodeLoadFailed  = "E004"
	ErrCodeNotFound    = "E005"
	ErrCodeBuildFailed = "E006"
	ErrCodeNoContexts  = "E007"

	ErrCodeUUID       = "E010"
	ErrCodeKind       = "E011"
	ErrCodePatterns   = "E012"
	ErrCodeConditions = "E013"
	ErrCodeActions    = "E014"
)

// LoadResult contains the contexts compiled from a rules directory.
type LoadResult struct {
	Configs   []rule.Config
	CUEValue  cue.Value
	FileCount int
}

// LoadError is an error raised while loading or compiling a rules directory.
type LoadError struct {
	Code    string
	Context string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Context != "" {
		msg = e.Context + ": " + msg
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// IsLoadError returns true if err is a LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// LoadRules loads every CUE file in dir as one instance and compiles each
// entry under the top-level "context" struct. Contexts come back in
// declaration order.
func LoadRules(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("rules directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing rules directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{toLoadError(formatCUEError(err), "", ErrCodeBuildFailed)}
	}

	result := &LoadResult{CUEValue: value, FileCount: len(files)}
	cfgs, errs := compileContexts(value, mode)
	result.Configs = cfgs
	if len(cfgs) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoContexts, Message: "no contexts found in rules"})
	}
	return result, errs
}

func compileContexts(v cue.Value, mode LoadMode) ([]rule.Config, []error) {
	var (
		cfgs []rule.Config
		errs []error
	)

	ctxVal := v.LookupPath(cue.ParsePath("context"))
	if !ctxVal.Exists() {
		return nil, nil
	}
	iter, err := ctxVal.Fields()
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating contexts: %v", err)}}
	}
	for iter.Next() {
		label := iter.Label()
		cfg, err := CompileContext(iter.Value())
		if err != nil {
			errs = append(errs, toLoadError(err, label, ErrCodeGeneric))
			if mode == LoadModeFailFast {
				return cfgs, errs
			}
			continue
		}
		cfgs = append(cfgs, *cfg)
	}
	return cfgs, errs
}

// FindCUEFiles walks dir and returns all .cue file paths, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

func toLoadError(err error, context, fallback string) *LoadError {
	var ce *CompileError
	if errors.As(err, &ce) {
		code := MapFieldToErrorCode(ce.Field)
		if code == ErrCodeGeneric {
			code = fallback
		}
		return &LoadError{Code: code, Context: context, Message: ce.Field + ": " + ce.Message, Pos: ce.Pos}
	}
	return &LoadError{Code: fallback, Context: context, Message: err.Error()}
}

// MapFieldToErrorCode maps a CompileError field onto a load error code.
func MapFieldToErrorCode(field string) string {
	root, _, _ := strings.Cut(field, ".")
	if i := strings.IndexByte(root, '['); i >= 0 {
		root = root[:i]
	}
	switch root {
	case "uuid":
		return ErrCodeUUID
	case "kind":
		return ErrCodeKind
	case "patterns":
		return ErrCodePatterns
	case "conditions":
		return ErrCodeConditions
	case "actions":
		return ErrCodeActions
	default:
		return ErrCodeGeneric
	}
}
