package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput signals that no non-empty serial line was supplied.
	ErrEmptyInput = errors.New("no serials provided: input is empty")
	// ErrNoContent signals that composition was asked to lay out zero symbols.
	// The normalizer guarantees at least one record, so this is an internal fault.
	ErrNoContent = errors.New("no rendered symbols to compose")
	// ErrPageTooSmall signals that not even one cell fits on the selected paper.
	ErrPageTooSmall = errors.New("symbol size does not fit on the selected paper")
	// ErrTooManySerials signals that the request exceeds the configured batch limit.
	ErrTooManySerials = errors.New("too many serials in one request")
	// ErrInvalidEncoding signals an uploaded file that is not UTF-8 text.
	ErrInvalidEncoding = errors.New("unable to read uploaded file: ensure it is a valid UTF-8 text file")
	// ErrInputTooLarge signals a serial list above the configured byte limit.
	ErrInputTooLarge = errors.New("input is too large")
	// ErrOutputTooLarge signals a generated document above the configured byte limit.
	ErrOutputTooLarge = errors.New("generated document is too large")

	// ErrInvalidAPIKey signals that the provided API key is not known.
	ErrInvalidAPIKey = errors.New("invalid api key")
	// ErrTokenStoreNotReady signals that the token store has not been loaded yet.
	ErrTokenStoreNotReady = errors.New("token store not ready")
)

// InvalidParameterError reports a malformed optional request parameter.
type InvalidParameterError struct {
	Name   string
	Value  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Name, e.Value, e.Reason)
}

// UnsupportedSizeError is returned for a size selector outside the enumerated classes.
type UnsupportedSizeError struct {
	Size string
}

func (e *UnsupportedSizeError) Error() string {
	return fmt.Sprintf("unsupported size %q: must be one of small, medium, large", e.Size)
}

// CapacityExceededError is returned when a serial needs more data codewords
// than the largest supported symbol holds.
type CapacityExceededError struct {
	Index     int
	Line      int
	Serial    string
	Codewords int
	Max       int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("serial on line %d is too long to encode: needs %d codewords, maximum is %d",
		lineOf(e.Line, e.Index), e.Codewords, e.Max)
}

// SymbolTooSmallError is returned when the selected size class would print
// modules below the legibility threshold.
type SymbolTooSmallError struct {
	Index    int
	Line     int
	Serial   string
	Size     SizeClass
	ModuleMM float64
	MinMM    float64
}

func (e *SymbolTooSmallError) Error() string {
	return fmt.Sprintf("serial on line %d does not fit the %s size: module would be %.3fmm, minimum is %.3fmm",
		lineOf(e.Line, e.Index), e.Size, e.ModuleMM, e.MinMM)
}

func lineOf(line, index int) int {
	if line > 0 {
		return line
	}
	return index + 1
}

// IsClientError reports whether err was caused by the request data rather
// than by an internal fault.
func IsClientError(err error) bool {
	var sizeErr *UnsupportedSizeError
	var capErr *CapacityExceededError
	var smallErr *SymbolTooSmallError
	var paramErr *InvalidParameterError
	switch {
	case errors.Is(err, ErrEmptyInput),
		errors.Is(err, ErrPageTooSmall),
		errors.Is(err, ErrTooManySerials),
		errors.Is(err, ErrInvalidEncoding),
		errors.Is(err, ErrInputTooLarge),
		errors.Is(err, ErrOutputTooLarge),
		errors.As(err, &paramErr),
		errors.As(err, &sizeErr),
		errors.As(err, &capErr),
		errors.As(err, &smallErr):
		return true
	}
	return false
}
