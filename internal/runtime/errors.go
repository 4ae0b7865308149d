package runtime

import (
	"io"

	apperrors "github.com/manav03panchal/alarmd/internal/errors"
	"github.com/manav03panchal/alarmd/internal/output"
)

// Exit codes returned by the CLI.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitUsage       = 2
	ExitUnavailable = 3
)

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch apperrors.Classify(err) {
	case apperrors.CategoryUser:
		return ExitUsage
	case apperrors.CategoryUnavailable:
		return ExitUnavailable
	default:
		return ExitError
	}
}

// FormatError formats an error with its suggestion, if any.
func FormatError(err error) string {
	return apperrors.FormatByCategory(err)
}

// PrintError reports err on w, as JSON when json is set.
func PrintError(w io.Writer, json bool, err error) {
	if json {
		f := &output.Formatter{Writer: w, Format: output.FormatJSON}
		f.JSON(&output.ErrorResponse{
			Status:     "error",
			Error:      err.Error(),
			Category:   apperrors.Classify(err).String(),
			Suggestion: apperrors.GetSuggestion(err),
		})
		return
	}
	io.WriteString(w, "Error: "+FormatError(err)+"\n")
}
