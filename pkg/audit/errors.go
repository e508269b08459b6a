package audit

import "errors"

// ErrAdvisoriesFound is returned when --fail-on-advisories is set and the audit found at least one advisory.
var ErrAdvisoriesFound = errors.New("patch advisories found")
