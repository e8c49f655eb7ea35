package worldtides

import "fmt"

// APIError represents an error from the WorldTides API
type APIError struct {
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("worldtides API error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("worldtides API error: %s", e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func NewAPIError(message string, err error) *APIError {
	return &APIError{
		Message: message,
		Err:     err,
	}
}
