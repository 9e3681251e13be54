package bracket

import "errors"

// Error kinds shared by the store and the services. Concrete errors wrap one
// of these so callers can branch with errors.Is.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflicting update")
	ErrConsistency = errors.New("bracket consistency violated")
)
