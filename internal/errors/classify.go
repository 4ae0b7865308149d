package errors

import (
	"errors"
	"net/http"
	"syscall"
)

// Category represents the type of error for display and handling purposes.
type Category int

const (
	// CategoryUnknown is the default for unclassified errors.
	CategoryUnknown Category = iota
	// CategoryUser indicates an error the user can fix.
	CategoryUser
	// CategoryNotFound indicates the addressed alarm does not exist.
	CategoryNotFound
	// CategorySystem indicates a system-level error.
	CategorySystem
	// CategoryUnavailable indicates the daemon could not be reached.
	CategoryUnavailable
)

// String returns the string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryUser:
		return "user"
	case CategoryNotFound:
		return "not_found"
	case CategorySystem:
		return "system"
	case CategoryUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Classify determines the category of an error.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	switch {
	case errors.Is(err, ErrAlarmNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrDaemonUnreachable), errors.Is(err, ErrNotRunning):
		return CategoryUnavailable
	case IsUserError(err),
		errors.Is(err, ErrMalformedTimeSpec),
		errors.Is(err, ErrLabelSeparator),
		errors.Is(err, ErrLabelLineBreak):
		return CategoryUser
	case IsSystemError(err), isSystemLevel(err):
		return CategorySystem
	}
	return CategoryUnknown
}

func isSystemLevel(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ENOSPC, syscall.EACCES, syscall.EPERM, syscall.EIO, syscall.EROFS:
			return true
		}
	}
	return errors.Is(err, ErrLockHeld) ||
		errors.Is(err, ErrAlreadyRunning) ||
		errors.Is(err, ErrPermissionDenied)
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	switch Classify(err) {
	case CategoryUser:
		return http.StatusBadRequest
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Suggestions maps common errors to helpful suggestions.
var Suggestions = map[error]string{
	ErrMalformedTimeSpec: "Use the form YYYY-MM-DDTHH:MM, e.g. 2030-01-01T07:30.",
	ErrLabelSeparator:    "Remove the '&' character from the label.",
	ErrLabelLineBreak:    "Keep the label on a single line.",
	ErrAlarmNotFound:     "Use 'alarmd list' to see pending alarms.",
	ErrDaemonUnreachable: "Start the daemon with 'alarmd serve' or check --server.",
	ErrNotRunning:        "Start the daemon with 'alarmd serve'.",
	ErrLockHeld:          "Another alarmd instance owns the event log. Stop it first.",
	ErrAlreadyRunning:    "Use 'alarmd daemon status' to inspect the running instance.",
	ErrPermissionDenied:  "Check permissions on the state directory (~/.local/state/alarmd/).",
}

// GetSuggestion returns a suggestion for an error, if available.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}
	if ue, ok := AsUserError(err); ok && ue.Suggestion != "" {
		return ue.Suggestion
	}
	for known, suggestion := range Suggestions {
		if errors.Is(err, known) {
			return suggestion
		}
	}
	return ""
}

// FormatByCategory returns a user-appropriate error message based on category.
func FormatByCategory(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	suggestion := GetSuggestion(err)

	switch Classify(err) {
	case CategoryUser, CategoryNotFound, CategoryUnavailable:
		if suggestion != "" {
			return msg + "\n\nTry: " + suggestion
		}
		return msg
	case CategorySystem:
		if suggestion != "" {
			return "System error: " + msg + "\n\n" + suggestion
		}
		return "System error: " + msg
	default:
		return msg
	}
}
