// Package response writes the JSON bodies shared by all handlers. Record
// endpoints get the bare record, everything else the success envelope, and
// every failure the error object.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error types carried in ErrorInfo.Type.
const (
	TypeBadRequest      = "BadRequest"
	TypeUnauthorized    = "Unauthorized"
	TypeForbidden       = "Forbidden"
	TypeNotFound        = "NotFound"
	TypeConflict        = "Conflict"
	TypeTooManyRequests = "TooManyRequests"
	TypeInternal        = "InternalServerError"
)

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorInfo struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ErrorResponse is {"error": {...}}.
type ErrorResponse struct {
	Error ErrorInfo `json:"error"`
}

// OK wraps data in the envelope. Used by search, summary and avatar upload.
func OK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data})
}

// Record writes data as is.
func Record(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Fail writes the error object. Code repeats the HTTP status so clients that
// only see the body can still branch on it.
func Fail(c *gin.Context, statusCode int, errType string, message string) {
	c.JSON(statusCode, ErrorResponse{Error: ErrorInfo{
		Code:    statusCode,
		Message: message,
		Type:    errType,
	}})
}

func BadRequest(c *gin.Context, message string) {
	Fail(c, http.StatusBadRequest, TypeBadRequest, message)
}

func Unauthorized(c *gin.Context, message string) {
	Fail(c, http.StatusUnauthorized, TypeUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	Fail(c, http.StatusForbidden, TypeForbidden, message)
}

func NotFound(c *gin.Context, message string) {
	Fail(c, http.StatusNotFound, TypeNotFound, message)
}

// Conflict covers duplicate usernames and writes to deleted comments.
func Conflict(c *gin.Context, message string) {
	Fail(c, http.StatusConflict, TypeConflict, message)
}

func TooManyRequests(c *gin.Context, message string) {
	Fail(c, http.StatusTooManyRequests, TypeTooManyRequests, message)
}

func InternalError(c *gin.Context, message string) {
	Fail(c, http.StatusInternalServerError, TypeInternal, message)
}
