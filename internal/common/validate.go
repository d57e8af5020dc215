package common

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared request payload validator.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct validates the payload and converts failures into a VALIDATION_ERROR AppError.
func ValidateStruct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewAppError("VALIDATION_ERROR", "invalid payload", http.StatusBadRequest, err)
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    "invalid payload",
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details:    details,
	}
}

// RenderError writes an error response, unwrapping AppError codes when available.
func RenderError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
}
