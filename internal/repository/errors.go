// Package repository holds the console's own persistence: the audit trail
// of mutations performed through the console.  The booking data itself lives
// behind the REST API and is never touched here.
package repository

import "errors"

// ErrAuditDisabled is returned when the audit trail is read while no audit
// database is configured.  Handlers show it as a notice, not a failure.
var ErrAuditDisabled = errors.New("audit trail is not configured")
