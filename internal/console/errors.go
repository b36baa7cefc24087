package console

import (
	"errors"

	"github.com/iliyamo/transit-admin-console/internal/apiclient"
	"github.com/iliyamo/transit-admin-console/internal/schema"
)

var (
	// ErrAccessDenied is returned before any privileged call when the
	// session is not an admin session.  The backend authorizes again.
	ErrAccessDenied = errors.New("admin access required")
	// ErrUnsupportedKind is returned for kinds without a schema.
	ErrUnsupportedKind = errors.New("unsupported entity kind")
	// ErrCreateDisallowed is returned for creates of kinds that only the
	// customer flow may create (bookings).
	ErrCreateDisallowed = errors.New("this entity cannot be created from the admin console")
	// ErrNotConfirmed is returned when a delete skipped the confirmation step.
	ErrNotConfirmed = errors.New("delete was not confirmed")
)

// Failure buckets an error for the operator notice and for deciding what
// happens next.
type Failure int

const (
	FailureNone Failure = iota
	FailureAccessDenied
	FailureRequest
	FailureNetwork
	FailureValidation
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureAccessDenied:
		return "access denied"
	case FailureRequest:
		return "request failed"
	case FailureNetwork:
		return "network error"
	case FailureValidation:
		return "validation failure"
	}
	return "unknown"
}

// Refetch reports whether the list view should be fetched again after the
// failure.  It is true only when the server answered.
func (f Failure) Refetch() bool {
	return f == FailureRequest
}

// Classify maps err onto the failure taxonomy.  Errors that fit no bucket,
// such as an undecodable success body, count as failed requests.
func Classify(err error) Failure {
	var (
		rf *apiclient.RequestFailed
		ne *apiclient.NetworkError
		ve *schema.ValidationError
	)
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrAccessDenied):
		return FailureAccessDenied
	case errors.As(err, &ne):
		return FailureNetwork
	case errors.As(err, &rf):
		return FailureRequest
	case errors.As(err, &ve),
		errors.Is(err, ErrUnsupportedKind),
		errors.Is(err, ErrCreateDisallowed),
		errors.Is(err, ErrNotConfirmed):
		return FailureValidation
	}
	return FailureRequest
}

// Notice is the text shown to the operator for err.
func Notice(err error) string {
	var rf *apiclient.RequestFailed
	switch Classify(err) {
	case FailureNone:
		return ""
	case FailureAccessDenied:
		return "Admin access required. Log in with an admin account."
	case FailureNetwork:
		return "Cannot reach the booking API. Check the connection and try again."
	case FailureRequest:
		if errors.As(err, &rf) {
			return rf.Message
		}
	}
	return err.Error()
}
