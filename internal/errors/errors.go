package errors

import (
	"fmt"
	"os"

	"github.com/julianstephens/habitcast/internal/logger"
)

// ConfigError reports a required configuration value that is missing or invalid.
// It is raised before any network call is made.
type ConfigError struct {
	Name string
	Hint string
}

func (e *ConfigError) Error() string {
	if e.Hint == "" {
		return fmt.Sprintf("%s is required", e.Name)
	}
	return fmt.Sprintf("%s is required (%s)", e.Name, e.Hint)
}

// Missing returns a ConfigError for the named value.
func Missing(name, hint string) error {
	return &ConfigError{Name: name, Hint: hint}
}

// ValidationError reports a response or file whose shape is not what we expect.
// It is distinct from transport errors so callers can tell the two apart.
type ValidationError struct {
	Source string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("unexpected %s format: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("unexpected %s format: '%s' %s", e.Source, e.Field, e.Reason)
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}
