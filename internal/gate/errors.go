package gate

// EmptySeriesError is returned when the predictor is invoked with no tide
// samples. It is never silently defaulted to an empty event list.
type EmptySeriesError struct {
	Message string
}

func (e *EmptySeriesError) Error() string {
	return e.Message
}

func NewEmptySeriesError() *EmptySeriesError {
	return &EmptySeriesError{Message: "tide series is empty"}
}
