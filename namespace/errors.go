package namespace

import "fmt"

// ConfigurationError reports an invalid static input such as an unknown
// namespace scope or region. It is never worth retrying.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}
