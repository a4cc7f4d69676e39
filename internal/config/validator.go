package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/BinToss/DeadLock/internal/errors"
	"github.com/BinToss/DeadLock/internal/logging"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "scan.query_timeout")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Is lets errors.Is(err, errors.ErrInvalidConfig) match.
func (e ValidationErrors) Is(target error) bool {
	return target == errors.ErrInvalidConfig
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	levels := logging.ValidLevels()
	for i, l := range levels {
		levels[i] = strings.ToLower(l)
	}
	return levels
}

// ValidColorModes returns the list of valid output.color values
func ValidColorModes() []string {
	return []string{"auto", "always", "never"}
}

// ValidOutputFormats returns the list of valid output.format values
func ValidOutputFormats() []string {
	return []string{"standard", "short", "tree", "json", "yaml"}
}

// maxQueryTimeout keeps a hung path query from stalling a scan for minutes.
const maxQueryTimeout = time.Minute

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, c.validateScan()...)
	errs = append(errs, c.validateIdentity()...)
	errs = append(errs, c.validateOutput()...)
	errs = append(errs, c.validateWatch()...)
	errs = append(errs, c.validateLogging()...)
	return errs
}

func (c *Config) validateScan() []ValidationError {
	var errs []ValidationError

	if c.Scan.QueryTimeout <= 0 {
		errs = append(errs, ValidationError{
			Field:   "scan.query_timeout",
			Value:   c.Scan.QueryTimeout,
			Message: "must be positive",
		})
	} else if c.Scan.QueryTimeout > maxQueryTimeout {
		errs = append(errs, ValidationError{
			Field:   "scan.query_timeout",
			Value:   c.Scan.QueryTimeout,
			Message: fmt.Sprintf("exceeds maximum of %s", maxQueryTimeout),
		})
	}

	if c.Scan.MaxFiles < 0 {
		errs = append(errs, ValidationError{
			Field:   "scan.max_files",
			Value:   c.Scan.MaxFiles,
			Message: "must be non-negative",
		})
	}

	return errs
}

func (c *Config) validateIdentity() []ValidationError {
	var errs []ValidationError

	if c.Identity.InventoryTimeout <= 0 {
		errs = append(errs, ValidationError{
			Field:   "identity.inventory_timeout",
			Value:   c.Identity.InventoryTimeout,
			Message: "must be positive",
		})
	}

	if strings.TrimSpace(c.Identity.Sentinel) == "" {
		errs = append(errs, ValidationError{
			Field:   "identity.sentinel",
			Value:   c.Identity.Sentinel,
			Message: "must not be empty",
		})
	}

	return errs
}

func (c *Config) validateOutput() []ValidationError {
	var errs []ValidationError

	if !slices.Contains(ValidColorModes(), c.Output.Color) {
		errs = append(errs, ValidationError{
			Field:   "output.color",
			Value:   c.Output.Color,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidColorModes(), ", ")),
		})
	}

	if !slices.Contains(ValidOutputFormats(), c.Output.Format) {
		errs = append(errs, ValidationError{
			Field:   "output.format",
			Value:   c.Output.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidOutputFormats(), ", ")),
		})
	}

	return errs
}

func (c *Config) validateWatch() []ValidationError {
	if c.Watch.Interval < 100*time.Millisecond {
		return []ValidationError{{
			Field:   "watch.interval",
			Value:   c.Watch.Interval,
			Message: "must be at least 100ms",
		}}
	}
	return nil
}

func (c *Config) validateLogging() []ValidationError {
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		return []ValidationError{{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		}}
	}
	return nil
}
