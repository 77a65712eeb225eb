package domain

import "strings"

// SerialRecord is one accepted input line. Index is the 0-based position
// among accepted lines and is the ordering key for every later stage.
// SourceLine is the 1-based line of the submitted text, blank lines included.
type SerialRecord struct {
	Text       string
	Index      int
	SourceLine int
}

// SizeClass selects the physical edge length of a printed symbol.
type SizeClass string

const (
	SizeSmall  SizeClass = "small"
	SizeMedium SizeClass = "medium"
	SizeLarge  SizeClass = "large"
)

// DefaultSize is used when the caller does not supply a size selector.
const DefaultSize = SizeMedium

var sizeEdgeMM = map[SizeClass]float64{
	SizeSmall:  18,
	SizeMedium: 34,
	SizeLarge:  60,
}

// SizeClasses lists the supported classes from smallest to largest.
func SizeClasses() []SizeClass {
	return []SizeClass{SizeSmall, SizeMedium, SizeLarge}
}

// ParseSizeClass resolves a selector. An empty selector yields DefaultSize.
func ParseSizeClass(s string) (SizeClass, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultSize, nil
	}
	sc := SizeClass(s)
	if _, ok := sizeEdgeMM[sc]; !ok {
		return "", &UnsupportedSizeError{Size: s}
	}
	return sc, nil
}

// EdgeMM returns the target physical edge length of the class.
func (s SizeClass) EdgeMM() float64 {
	return sizeEdgeMM[s]
}

// Valid reports whether s is one of the enumerated classes.
func (s SizeClass) Valid() bool {
	_, ok := sizeEdgeMM[s]
	return ok
}

func (s SizeClass) String() string {
	return string(s)
}

// LineNumber returns the 1-based input line reported in user-facing
// messages, falling back to the accepted position when the source line is
// unknown.
func (r SerialRecord) LineNumber() int {
	if r.SourceLine > 0 {
		return r.SourceLine
	}
	return r.Index + 1
}
