package service

import (
	"errors"
	"net/http"

	apperrors "github.com/spec-kit/mileage-skill/pkg/util/errorutil"
)

// Validation causes, distinguishable with errors.Is.
var (
	ErrMissingCredentials = errors.New("name and phone suffix are required")
	ErrMissingCaller      = errors.New("caller identity is required")
	ErrNotAuthenticated   = errors.New("caller has not authenticated")
)

func validationError(cause error) error {
	return &apperrors.DomainError{
		Code:       apperrors.CodeValidation,
		Message:    cause.Error(),
		HTTPStatus: http.StatusBadRequest,
		Err:        cause,
	}
}
