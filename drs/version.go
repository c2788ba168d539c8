package drs

import (
	"fmt"
	"regexp"
	"time"
)

// DateLayout is the reference layout of the date stamp carried by version names.
const DateLayout = "20060102"

var versionPattern = regexp.MustCompile(`^v[0-9]+$`)

// IsVersion reports whether s is a version name, "v" followed by one or more digits.
func IsVersion(s string) bool {
	return versionPattern.MatchString(s)
}

// CheckVersion returns an ErrMalformedPath error when s is not a version name.
func CheckVersion(s string) error {
	if !IsVersion(s) {
		return fmt.Errorf("%w: %q is not a version (want v[0-9]+)", ErrMalformedPath, s)
	}
	return nil
}

// ParseDate parses a YYYYMMDD stamp.
func ParseDate(s string) (time.Time, error) {
	if len(s) != len(DateLayout) {
		return time.Time{}, fmt.Errorf("%w: date %q is not YYYYMMDD", ErrMalformedPath, s)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q: %w", ErrMalformedPath, s, err)
	}
	return t, nil
}

// VersionDate returns the date embedded in a version name, taken from its
// trailing eight digits.
func VersionDate(name string) (time.Time, error) {
	if err := CheckVersion(name); err != nil {
		return time.Time{}, err
	}
	if len(name) < len(DateLayout)+1 {
		return time.Time{}, fmt.Errorf("%w: version %q carries no YYYYMMDD date", ErrMalformedPath, name)
	}
	return ParseDate(name[len(name)-len(DateLayout):])
}

// VersionName formats the version directory name for a YYYYMMDD date.
func VersionName(date string) string {
	return "v" + date
}
