package flagapi

import "fmt"

// APIError is a failure reported by the remote API or its transport. Status
// is zero when the request never produced an HTTP response.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	switch {
	case e.Status != 0 && e.Code != "":
		return fmt.Sprintf("remote API error %d (%s): %s", e.Status, e.Code, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("remote API error %d: %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("remote API unreachable: %s", e.Message)
	}
}

// IsAuth reports whether the failure is credential-class (401/403).
func (e *APIError) IsAuth() bool {
	return e.Status == 401 || e.Status == 403
}

// IsNotFound reports whether the remote entity does not exist.
func (e *APIError) IsNotFound() bool {
	return e.Status == 404
}
