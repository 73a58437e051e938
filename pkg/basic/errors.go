package basic

import "errors"

// Error category tokens surfaced to the user. Output is always the fixed
// token, optionally followed by a newline and a free-text detail.
const (
	ErrCategorySyntax         = "?SYNTAX ERROR"
	ErrCategoryUndefStatement = "?UNDEF'D STATEMENT ERROR"
	ErrCategoryTypeMismatch   = "?TYPE MISMATCH ERROR"
	ErrCategoryNextWithoutFor = "?NEXT WITHOUT FOR ERROR"
	ErrCategoryDivisionByZero = "?DIVISION BY ZERO ERROR"
	ErrCategoryFileNotFound   = "?FILE NOT FOUND ERROR"
)

// Sentinel errors.
var (
	// ErrProgramNotFound is returned by a ProgramStore when LOAD names an
	// unknown program.
	ErrProgramNotFound = errors.New("program not found")

	// errRestartRun signals the RUN driver that a stored RUN statement was
	// executed; the driver resets and starts over instead of nesting.
	errRestartRun = errors.New("restart run")
)

// BasicError is an error with a classic BASIC category token and an optional
// free-text detail line. All BasicErrors abort only the current line or the
// current RUN; they are never fatal to the session.
type BasicError struct {
	Category string
	Detail   string
}

func (e *BasicError) Error() string {
	if e.Detail == "" {
		return e.Category
	}
	return e.Category + ": " + e.Detail
}

// NewBasicError creates a BasicError with the given category token and detail.
func NewBasicError(category, detail string) *BasicError {
	return &BasicError{Category: category, Detail: detail}
}
