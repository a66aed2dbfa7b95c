package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marco-erp/ledger-core/internal/api/middleware"
	"github.com/marco-erp/ledger-core/internal/domain/shared"
)

// Response represents a standard API response
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

// ErrorInfo represents error information in a response. Details carries every
// independent violation when an operation fails multiple checks at once.
type ErrorInfo struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// NewResponse creates a new response with data
func NewResponse(data interface{}) *Response {
	return &Response{
		Data: data,
	}
}

// NewErrorResponse creates a new error response
func NewErrorResponse(code, message string, details ...string) *Response {
	return &Response{
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// RespondWithData sends a JSON response with data
func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	response := NewResponse(data)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondWithError sends a JSON response with an error
func RespondWithError(c *gin.Context, statusCode int, code, message string, details ...string) {
	response := NewErrorResponse(code, message, details...)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondOK sends a 200 OK response with data
func RespondOK(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusOK, data)
}

// RespondCreated sends a 201 Created response with data
func RespondCreated(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusCreated, data)
}

// RespondNoContent sends a 204 No Content response
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// RespondBadRequest sends a 400 Bad Request response with an error
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// RespondServiceError translates a structured service failure into the
// matching HTTP status. Unclassified errors surface as 500 without leaking
// internals.
func RespondServiceError(c *gin.Context, err error) {
	var structured *shared.Error
	if !errors.As(err, &structured) {
		RespondWithError(c, http.StatusInternalServerError, string(shared.KindPersistence), "An internal server error occurred")
		return
	}

	message := "Request failed"
	if len(structured.Messages) > 0 {
		message = structured.Messages[0]
	}

	switch structured.Kind {
	case shared.KindValidation, shared.KindDomainViolation:
		RespondWithError(c, http.StatusUnprocessableEntity, string(structured.Kind), message, structured.Messages...)
	case shared.KindNotFound:
		RespondWithError(c, http.StatusNotFound, string(structured.Kind), message)
	case shared.KindAuthorization:
		RespondWithError(c, http.StatusForbidden, string(structured.Kind), message)
	case shared.KindConcurrencyConflict:
		RespondWithError(c, http.StatusConflict, string(structured.Kind), message)
	default:
		RespondWithError(c, http.StatusInternalServerError, string(shared.KindPersistence), "An internal server error occurred")
	}
}
