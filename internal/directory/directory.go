// Package directory reads identity records from the shared directory
// store. All lookups are read-only; record lifecycle is owned by the
// wider portal, not by this service.
package directory

import "errors"

// ErrNotFound is returned when no record matches the given key.
var ErrNotFound = errors.New("directory: record not found")
