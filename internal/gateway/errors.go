// Package gateway holds the plumbing shared by the push-messaging and
// billing gateways: failure kinds and cancellable event streams.
package gateway

import "errors"

var (
	// ErrPermissionDenied means the user or platform refused the capability.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrUnavailable means the external service could not be reached.
	ErrUnavailable = errors.New("service unavailable")
	// ErrNotConfigured means the gateway was used before it was set up.
	ErrNotConfigured = errors.New("gateway not configured")
)

// Kind names the failure class of err for logging.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	default:
		return "sdk_error"
	}
}
