// Package httpkit provides HTTP response utilities.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"net/http"

	"transit_portal_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// Envelope is the uniform response shape for every operation, success or
// failure. Clients always receive the same five fields.
type Envelope struct {
	StatusCode int         `json:"statusCode"`
	Error      bool        `json:"error"`
	Errors     []string    `json:"errors"`
	Message    string      `json:"message"`
	Response   interface{} `json:"response"`
}

const defaultSuccessMessage = "Operation success"

// OK sends a 200 envelope with the given payload.
func OK(c *gin.Context, payload interface{}) {
	Success(c, http.StatusOK, defaultSuccessMessage, payload)
}

// Created sends a 201 envelope with the given payload.
func Created(c *gin.Context, payload interface{}) {
	Success(c, http.StatusCreated, defaultSuccessMessage, payload)
}

// Success sends a success envelope with the given status, message and payload.
func Success(c *gin.Context, status int, message string, payload interface{}) {
	c.JSON(status, Envelope{
		StatusCode: status,
		Error:      false,
		Errors:     []string{},
		Message:    message,
		Response:   payload,
	})
}

// Fail sends an error envelope with the given status and error messages.
func Fail(c *gin.Context, status int, errs ...string) {
	if len(errs) == 0 {
		errs = []string{http.StatusText(status)}
	}
	c.JSON(status, Envelope{
		StatusCode: status,
		Error:      true,
		Errors:     errs,
		Message:    errs[0],
		Response:   nil,
	})
}

// HandleError maps domain errors to error envelopes. Typed *apperr.Error
// values use their Kind for the status code; anything else is treated as an
// unexpected internal failure so storage errors never leak details.
// Returns true if an error was handled, false otherwise.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	if domainErr, ok := err.(*apperr.Error); ok {
		Fail(c, domainErr.HTTPStatus(), domainErr.Message)
		return true
	}

	Fail(c, http.StatusInternalServerError, "unexpected server error")
	return true
}
