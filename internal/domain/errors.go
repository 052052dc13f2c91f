package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	// ErrServerNotConfigured is the precondition failure: no record server
	// has been set up, so no pipeline may run.
	ErrServerNotConfigured = &AppError{
		Code:       "SERVER_NOT_CONFIGURED",
		Message:    "Record server is not set up yet",
		StatusCode: 412,
	}

	ErrDeviceNotFound = &AppError{
		Code:       "DEVICE_NOT_FOUND",
		Message:    "Device not found",
		StatusCode: 404,
	}

	ErrDeviceExists = &AppError{
		Code:       "DEVICE_ALREADY_EXISTS",
		Message:    "Device already registered with this token",
		StatusCode: 409,
	}

	// ErrBackendRejected covers any non-success response code from the
	// record backend.
	ErrBackendRejected = &AppError{
		Code:       "BACKEND_REJECTED",
		Message:    "Record backend rejected the request",
		StatusCode: 502,
	}

	ErrNoFaceRecognized = &AppError{
		Code:       "NO_FACE_RECOGNIZED",
		Message:    "Face is not recognizable",
		StatusCode: 422,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Image is missing, too large or not a supported format",
		StatusCode: 422,
	}
)
