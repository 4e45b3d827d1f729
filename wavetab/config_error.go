package wavetab

import (
	"fmt"
)

// ConfigError reports a table or clip setting that can't be satisfied.
type ConfigError struct {
	Message string

	// Field names the offending setting, like "MaxFreq".
	Field string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("wavetab: %s (field=%s)", e.Message, e.Field)
}
