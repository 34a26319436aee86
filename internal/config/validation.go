package config

import (
	"fmt"
	"strings"

	"ultrafocus/internal/logging"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidateConfig checks semantic constraints the schema cannot express.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateFocus(&c.Focus)...)
	errs = append(errs, validateLogging(&c.Logging)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateFocus(f *FocusConfig) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(f.Marker) == "" {
		errs = append(errs, ValidationError{
			Field:   "focus.marker",
			Message: "marker cannot be empty",
		})
	}
	if f.SelfTitle == "" {
		errs = append(errs, ValidationError{
			Field:   "focus.self_title",
			Message: "self title cannot be empty",
		})
	}
	// Our own title containing the marker is fine, it is excluded by exact
	// match. A marker equal to it would make every other match impossible.
	if f.Marker != "" && f.Marker == f.SelfTitle {
		errs = append(errs, ValidationError{
			Field:   "focus.marker",
			Message: "marker must differ from self_title",
		})
	}

	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	if _, err := logging.ParseLevel(l.Level); err != nil {
		errs = append(errs, ValidationError{Field: "logging.level", Message: err.Error()})
	}
	if _, err := logging.ParseFormat(l.Format); err != nil {
		errs = append(errs, ValidationError{Field: "logging.format", Message: err.Error()})
	}

	switch l.Output {
	case "stdout", "stderr":
	case "file", "both":
		if l.FilePath == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.file_path",
				Message: "file path required when output includes a file",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("invalid output %q (must be stdout, stderr, file or both)", l.Output),
		})
	}

	if l.MaxSizeMB < 1 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Message: "max size must be at least 1 MB",
		})
	}
	if l.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Message: "max backups cannot be negative",
		})
	}

	return errs
}
