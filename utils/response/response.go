package response

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/devcamper-api/utils/apperror"
	"github.com/sahilchouksey/devcamper-api/utils/logger"
	"github.com/sahilchouksey/devcamper-api/utils/validation"
	"gorm.io/gorm"
)

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// Response represents a standardized API response
type Response struct {
	Status     string      `json:"status"`
	Message    string      `json:"message,omitempty"`
	Token      string      `json:"token,omitempty"`
	Count      *int        `json:"count,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// PageLink points at a neighbouring page
type PageLink struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination contains links to the neighbouring pages, if any
type Pagination struct {
	Next *PageLink `json:"next,omitempty"`
	Prev *PageLink `json:"prev,omitempty"`
}

// Success returns a successful response
func Success(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Status: StatusSuccess,
		Data:   data,
	})
}

// SuccessWithMessage returns a successful response with a message
func SuccessWithMessage(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	})
}

// Created returns a 201 Created response
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Status: StatusSuccess,
		Data:   data,
	})
}

// List returns a collection with its count and optional pagination links
func List(c *fiber.Ctx, data interface{}, count int, pagination *Pagination) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Status:     StatusSuccess,
		Count:      &count,
		Pagination: pagination,
		Data:       data,
	})
}

// Token returns a response carrying a freshly issued token
func Token(c *fiber.Ctx, status int, token string) error {
	return c.Status(status).JSON(Response{
		Status: StatusSuccess,
		Token:  token,
	})
}

// Error writes an error response. 4xx are "fail", 5xx are "error".
func Error(c *fiber.Ctx, statusCode int, message string, fields map[string]string) error {
	status := StatusFail
	if statusCode >= fiber.StatusInternalServerError {
		status = StatusError
	}
	return c.Status(statusCode).JSON(ErrorResponse{
		Status:  status,
		Message: message,
		Errors:  fields,
	})
}

// ErrorHandler returns the fiber.ErrorHandler every handler error funnels
// into. In production, untyped errors are reported with a generic message.
func ErrorHandler(production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code, message, fields := translate(err)

		if code >= fiber.StatusInternalServerError {
			logger.Errorf("%s %s: %v", c.Method(), c.Path(), err)
			if production {
				var appErr *apperror.Error
				if !errors.As(err, &appErr) {
					message = "Something went wrong"
				}
			} else {
				message = err.Error()
			}
		}

		return Error(c, code, message, fields)
	}
}

func translate(err error) (int, string, map[string]string) {
	var (
		appErr    *apperror.Error
		fiberErr  *fiber.Error
		validErrs validator.ValidationErrors
	)

	switch {
	case errors.As(err, &appErr):
		return appErr.Status(), appErr.Message, appErr.Fields
	case errors.As(err, &validErrs):
		fields := validation.FormatValidationErrors(validErrs)
		return fiber.StatusBadRequest, validation.Summary(fields), fields
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.StatusNotFound, "Resource not found", nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fiber.StatusBadRequest, "Duplicate field value entered", nil
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberErr.Message, nil
	default:
		return fiber.StatusInternalServerError, "Something went wrong", nil
	}
}
