package resolve

import (
	"slices"
	"strings"
	"unicode"
)

// Features is the set of enabled @unstable feature names.
type Features map[string]struct{}

// ParseFeatures splits every argument on commas and whitespace and collects
// the non-empty tokens. Order and duplicates in the input do not matter.
func ParseFeatures(args []string) Features {
	f := Features{}
	for _, arg := range args {
		tokens := strings.FieldsFunc(arg, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})
		for _, tok := range tokens {
			f[tok] = struct{}{}
		}
	}
	return f
}

// Has reports whether name is enabled.
func (f Features) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// Len returns the number of enabled features.
func (f Features) Len() int {
	return len(f)
}

// Sorted returns the feature names in lexical order.
func (f Features) Sorted() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
