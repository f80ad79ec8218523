package engine

import "errors"

var (
	// ErrInvalidCountryCode means the observation carried no resolvable
	// ISO 3166-1 alpha-2 code. The observation is rejected without any
	// timeline mutation.
	ErrInvalidCountryCode = errors.New("invalid country code")

	// ErrInconsistentTimeline means the open interval was closed but the
	// replacement insert failed, leaving zero open intervals. The
	// timeline needs a reconciliation pass before day assignment can be
	// trusted again.
	ErrInconsistentTimeline = errors.New("timeline inconsistent: no open interval after switch")
)
