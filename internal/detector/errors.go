package detector

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrOrdering matches any *OrderingError.
	ErrOrdering = errors.New("records not sorted by utc time")
	// ErrConfiguration matches any *ConfigurationError.
	ErrConfiguration = errors.New("invalid detector configuration")
)

// OrderingError reports the first record whose timestamp precedes its predecessor.
type OrderingError struct {
	Index    int
	Previous time.Time
	Current  time.Time
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("record %d at %s precedes record %d at %s",
		e.Index, e.Current.Format(time.RFC3339), e.Index-1, e.Previous.Format(time.RFC3339))
}

func (e *OrderingError) Is(target error) bool { return target == ErrOrdering }

// ConfigurationError reports an out-of-range parameter.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }
