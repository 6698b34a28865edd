package cryo

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Kinder supplies the stable category string used as the first segment of a
// frozen object's directory name. Every type persisted through Freezable
// must implement it; two unrelated types must not share a kind.
//
// Kinds must be stable across runs: renaming a kind orphans every directory
// created under the old one.
type Kinder interface {
	Kind() string
}

// cleanSegment validates s for use as a single directory-name segment and
// returns it NFC-normalized, so visually identical names resolve to the same
// directory regardless of how the caller composed them.
func cleanSegment(s, what string) (string, error) {
	s = norm.NFC.String(s)
	switch {
	case s == "":
		return "", &InvalidNameError{Name: s, Reason: what + " is empty"}
	case s == "." || s == "..":
		return "", &InvalidNameError{Name: s, Reason: what + " is a relative path element"}
	case strings.ContainsAny(s, `/\`):
		return "", &InvalidNameError{Name: s, Reason: what + " contains a path separator"}
	case strings.ContainsRune(s, 0):
		return "", &InvalidNameError{Name: s, Reason: what + " contains a NUL byte"}
	}
	return s, nil
}

// cleanKind is cleanSegment plus a no-dot rule: the dot joins kind and name
// in directory names, and a dotted kind would make kind.name unsplittable.
func cleanKind(s string) (string, error) {
	s, err := cleanSegment(s, "kind")
	if err != nil {
		return "", err
	}
	if strings.Contains(s, ".") {
		return "", &InvalidNameError{Name: s, Reason: "kind contains a dot"}
	}
	return s, nil
}
