// Package handlers implements the HTTP API of the recognition engine.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/FigureLens/pkg/errors"
)

// Response is the uniform API envelope.
type Response struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

const codeOK = "OK"

// respondOK writes a 200 envelope.
func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: codeOK, Message: "success", Data: data})
}

// respondError maps an application error to its HTTP status and writes the
// envelope.  Unknown errors become a generic 500 so internals never leak.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)

	message := code.DefaultMessage()
	if ae, ok := err.(*errors.AppError); ok && ae.Message != "" {
		message = ae.Message
	}

	c.AbortWithStatusJSON(status, Response{Code: string(code), Message: message})
}

// statusFor maps error codes onto HTTP statuses.
func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeBadRequest, errors.ErrCodeValidation,
		errors.ErrCodeInvalidImage, errors.ErrCodeInvalidWeights,
		errors.ErrCodeVectorDimMismatch, errors.ErrCodeSynonymTableInvalid:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeNoMatchFound:
		return http.StatusNotFound
	case errors.ErrCodeConflict:
		return http.StatusConflict
	case errors.ErrCodePoorImageQuality, errors.ErrCodeExtractionFailed:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeCancelled:
		// Client went away or a newer request superseded this one.
		return 499
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeEmptyCatalog, errors.ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
