package catalog

import "errors"

var (
	// ErrAccessDenied means the host rejected the request because the
	// synthetic session lapsed (age gate, region cookie, expired state).
	// Recovered once per fetch via a fresh bootstrap; propagated after that.
	ErrAccessDenied = errors.New("catalog: access denied")

	// ErrBadResponse means the host's payload could not be understood.
	// Never auto-retried.
	ErrBadResponse = errors.New("catalog: malformed upstream response")
)
