package command

import (
	"errors"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/simplyqio/simplyq-go/core"
)

func commandDependencyError(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.ErrorCodeInternal)
}

func commandValidationError(field string, message string) error {
	return goerrors.NewValidation("command: validation failed", goerrors.FieldError{
		Field:   field,
		Message: message,
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.ErrorCodeUsage).
		WithSeverity(goerrors.SeverityError)
}

// commandModelError converts a model validation failure into the go-errors
// validation envelope.
func commandModelError(err error) error {
	if err == nil {
		return nil
	}
	var typed *core.Error
	if errors.As(err, &typed) {
		return typed.ToServiceError()
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "command: validation failed").
		WithCode(http.StatusBadRequest).
		WithTextCode(core.ErrorCodeUsage)
}
