package cache

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownDataset is returned when invalidating a name nobody registered.
var ErrUnknownDataset = errors.New("unknown dataset")

// StaleError reports that a refresh failed and the value returned alongside
// it is the previous entry, served past its TTL. Callers decide whether to
// surface the failure or quietly use the stale value.
type StaleError struct {
	Dataset   string
	FetchedAt time.Time
	Err       error
}

func (e *StaleError) Error() string {
	return fmt.Sprintf("dataset %s: serving value fetched at %s after refresh failure: %v",
		e.Dataset, e.FetchedAt.Format(time.RFC3339), e.Err)
}

func (e *StaleError) Unwrap() error {
	return e.Err
}
