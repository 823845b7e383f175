// Package errors provides standardized error messaging for declview
package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryParse      ErrorCategory = "PARSE"
	CategoryExpansion  ErrorCategory = "EXPANSION"
	CategoryConversion ErrorCategory = "CONVERSION"
	CategoryMacro      ErrorCategory = "MACRO"
	CategoryConfig     ErrorCategory = "CONFIG"
	CategoryIndex      ErrorCategory = "INDEX"
	CategoryWorkspace  ErrorCategory = "WORKSPACE"
)

// Error codes
const (
	CodeExpansionFailed   = "EXPANSION_FAILED"
	CodeIncompatibleKind  = "INCOMPATIBLE_KIND"
	CodeUnsupportedShape  = "UNSUPPORTED_SHAPE"
	CodeConversionFailed  = "CONVERSION_FAILED"
	CodeMacroNotFound     = "MACRO_NOT_FOUND"
	CodeMacroDuplicate    = "MACRO_DUPLICATE"
	CodeMacroLoad         = "MACRO_LOAD"
	CodeMacroAPIMismatch  = "MACRO_API_MISMATCH"
	CodeMacroDepth        = "MACRO_DEPTH_EXCEEDED"
	CodeInvalidConfig     = "INVALID_CONFIG"
	CodeStaleStub         = "STALE_STUB"
	CodeWorkspaceIO       = "WORKSPACE_IO"
	CodeGeneratedUnparsed = "GENERATED_TEXT_UNPARSABLE"
)

// StandardError provides a consistent error format
type StandardError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Context  map[string]interface{}
	Caller   string
	Cause    error
}

// Error implements the error interface
func (e *StandardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap exposes the underlying cause
func (e *StandardError) Unwrap() error {
	return e.Cause
}

// NewStandardError creates a new standardized error
func NewStandardError(category ErrorCategory, code, message string, context map[string]interface{}) *StandardError {
	return newStandardError(2, category, code, message, context, nil)
}

// Wrap creates a standardized error around cause
func Wrap(cause error, category ErrorCategory, code, message string, context map[string]interface{}) *StandardError {
	return newStandardError(2, category, code, message, context, cause)
}

func newStandardError(skip int, category ErrorCategory, code, message string, context map[string]interface{}, cause error) *StandardError {
	pc, _, _, ok := runtime.Caller(skip)
	caller := "unknown"
	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}

	return &StandardError{
		Category: category,
		Code:     code,
		Message:  message,
		Context:  context,
		Caller:   caller,
		Cause:    cause,
	}
}

// HasCode reports whether any StandardError in err's chain carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		var se *StandardError
		if !stderrors.As(err, &se) {
			return false
		}
		if se.Code == code {
			return true
		}
		err = se.Cause
	}
	return false
}

// CategoryOf returns the category of the outermost StandardError in err's
// chain, or "" when there is none.
func CategoryOf(err error) ErrorCategory {
	var se *StandardError
	if stderrors.As(err, &se) {
		return se.Category
	}
	return ""
}

// Common error constructors

func ExpansionFailed(declaration, stage string, cause error) *StandardError {
	return newStandardError(2, CategoryExpansion, CodeExpansionFailed,
		fmt.Sprintf("macro expansion of %s failed during %s", declaration, stage),
		map[string]interface{}{"declaration": declaration, "stage": stage}, cause)
}

func IncompatibleKind(expected, got string) *StandardError {
	return newStandardError(2, CategoryExpansion, CodeIncompatibleKind,
		fmt.Sprintf("generated declaration is a %s, expected %s", got, expected),
		map[string]interface{}{"expected": expected, "got": got}, nil)
}

func GeneratedTextUnparsable(text string, cause error) *StandardError {
	return newStandardError(2, CategoryParse, CodeGeneratedUnparsed,
		"generated text does not parse",
		map[string]interface{}{"text": text}, cause)
}

func UnsupportedShape(kind, reason string) *StandardError {
	return newStandardError(2, CategoryConversion, CodeUnsupportedShape,
		fmt.Sprintf("cannot convert %s: %s", kind, reason),
		map[string]interface{}{"kind": kind, "reason": reason}, nil)
}

func ConversionFailed(declaration string, cause error) *StandardError {
	return newStandardError(2, CategoryConversion, CodeConversionFailed,
		fmt.Sprintf("cannot convert %s to its generic form", declaration),
		map[string]interface{}{"declaration": declaration}, cause)
}

func StaleStub(path string) *StandardError {
	return newStandardError(2, CategoryIndex, CodeStaleStub,
		fmt.Sprintf("stub for %s does not match its text", path),
		map[string]interface{}{"path": path}, nil)
}

func MacroNotFound(name string) *StandardError {
	return newStandardError(2, CategoryMacro, CodeMacroNotFound,
		fmt.Sprintf("unknown macro: %s", name),
		map[string]interface{}{"name": name}, nil)
}

func MacroDuplicate(name string) *StandardError {
	return newStandardError(2, CategoryMacro, CodeMacroDuplicate,
		fmt.Sprintf("macro '%s' already defined", name),
		map[string]interface{}{"name": name}, nil)
}

func MacroLoad(file string, cause error) *StandardError {
	return newStandardError(2, CategoryMacro, CodeMacroLoad,
		fmt.Sprintf("failed to load macro module %s", file),
		map[string]interface{}{"file": file}, cause)
}

func MacroAPIMismatch(module, version, constraint string) *StandardError {
	return newStandardError(2, CategoryMacro, CodeMacroAPIMismatch,
		fmt.Sprintf("macro module %s targets API %s which does not satisfy %s", module, version, constraint),
		map[string]interface{}{"module": module, "version": version, "constraint": constraint}, nil)
}

func MacroDepthExceeded(name string, limit int) *StandardError {
	return newStandardError(2, CategoryMacro, CodeMacroDepth,
		fmt.Sprintf("macro expansion depth limit %d exceeded in %s", limit, name),
		map[string]interface{}{"name": name, "limit": limit}, nil)
}

func InvalidConfig(key, reason string) *StandardError {
	return newStandardError(2, CategoryConfig, CodeInvalidConfig,
		fmt.Sprintf("invalid configuration %s: %s", key, reason),
		map[string]interface{}{"key": key, "reason": reason}, nil)
}

func WorkspaceIO(path string, cause error) *StandardError {
	return newStandardError(2, CategoryWorkspace, CodeWorkspaceIO,
		fmt.Sprintf("cannot access %s", path),
		map[string]interface{}{"path": path}, cause)
}
