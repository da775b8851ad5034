package common

import (
	"fmt"
	"slices"

	"jobpilot/internal/formatters"
)

// ValidateOutputFormat checks format against the configured formats and
// the formats a formatter exists for
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) > 0 && !slices.Contains(supportedFormats, format) {
		return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
			format, supportedFormats)
	}

	if !slices.Contains(formatters.GlobalRegistry.GetSupportedFormats(), format) {
		return fmt.Errorf("no formatter available for output format '%s'", format)
	}
	return nil
}

// GetSupportedFormats returns the formats offered for shell completion:
// the configured ones, or every registered format when none are configured
func GetSupportedFormats(supportedFormats []string) []string {
	if len(supportedFormats) > 0 {
		return supportedFormats
	}
	formats := formatters.GlobalRegistry.GetSupportedFormats()
	slices.Sort(formats)
	return formats
}
