package http

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shorturl/internal/entity"
)

// urlRequest is the body of shorten and update requests.
type urlRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// urlResponse is the JSON form of a URL record.
type urlResponse struct {
	ShortCode   string    `json:"shortCode"`
	OriginalURL string    `json:"originalUrl"`
	AccessCount int64     `json:"accessCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toURLResponse(url *entity.URL) urlResponse {
	return urlResponse{
		ShortCode:   url.ShortCode,
		OriginalURL: url.OriginalURL,
		AccessCount: url.AccessCount,
		CreatedAt:   url.CreatedAt,
		UpdatedAt:   url.UpdatedAt,
	}
}

type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Errors []validationError `json:"errors,omitempty"`
}

var (
	emptyRequestBodyResponse = errorResponse{
		Error: "empty request body",
	}

	invalidRequestBodyResponse = errorResponse{
		Error: "invalid request body",
	}

	urlNotFoundResponse = errorResponse{
		Error: "url not found",
	}
)

// serverErrorResponse carries the error message back to the caller.
func serverErrorResponse(err error) errorResponse {
	return errorResponse{
		Error: err.Error(),
	}
}

// messageForTag returns a user-friendly message based on the validation tag.
func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "this field is required"
	case "url":
		return "invalid url"
	default:
		return "invalid value"
	}
}

func getValidationErrors(err error) []validationError {
	var validationErrs []validationError

	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		for _, e := range errs {
			validationErrs = append(validationErrs, validationError{
				Field:   e.Field(),
				Message: messageForTag(e.Tag()),
			})
		}
	}

	return validationErrs
}

func validationErrorResponse(err error) errorResponse {
	return errorResponse{
		Error:  "validation error",
		Errors: getValidationErrors(err),
	}
}
