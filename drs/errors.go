package drs

import "errors"

// Sentinel errors for package drs.
// Concrete failures wrap one of these, so callers classify them with errors.Is().
var (
	// Identifier errors: wrong segment count or unexpected leading project tag
	ErrMalformedIdentifier = errors.New("malformed dataset identifier")

	// Path errors: version segment fails its pattern or the depth does not fit the layout
	ErrMalformedPath = errors.New("malformed path")

	// Copy, link or directory-creation failures
	ErrIOFailure = errors.New("i/o failure")

	// Two version directories of one variable share the same date
	ErrAmbiguousLatest = errors.New("ambiguous latest version")

	// A latest link that exists but does not point at the newest version
	ErrStaleLatest = errors.New("latest does not point at the newest version")
)

// Error kinds as they appear in run reports.
const (
	KindMalformedIdentifier = "MalformedIdentifier"
	KindMalformedPath       = "MalformedPath"
	KindIOFailure           = "IOFailure"
	KindAmbiguousLatest     = "AmbiguousLatest"
	KindStaleLatest         = "StaleLatest"
	KindUnknown             = "Unknown"
)

// Kind returns the taxonomy name of err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedIdentifier):
		return KindMalformedIdentifier
	case errors.Is(err, ErrMalformedPath):
		return KindMalformedPath
	case errors.Is(err, ErrAmbiguousLatest):
		return KindAmbiguousLatest
	case errors.Is(err, ErrStaleLatest):
		return KindStaleLatest
	case errors.Is(err, ErrIOFailure):
		return KindIOFailure
	default:
		return KindUnknown
	}
}
