package leads

import "fmt"

// ConfigError is fatal: the run aborts before any I/O.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

// NewConfigError builds a ConfigError with the given reason.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// QueryError records a search failure for one query. The run continues
// with the remaining queries.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %q: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// PersistError records a store failure for one lead. The run continues
// with the remaining leads.
type PersistError struct {
	LeadID string
	URL    string
	Err    error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist lead %s (%s): %v", e.LeadID, e.URL, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
