// Package respond defines the API response envelope and the application
// error taxonomy. Every success body is {"success":true,"data":...} with an
// optional message; every failure is {"success":false,"error":"..."} with the
// HTTP status carrying the category.
package respond

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Kind categorizes an application error for HTTP mapping
type Kind int

const (
	KindValidation   Kind = iota // malformed/out-of-range input -> 400
	KindConflict                 // business-rule violation -> 400
	KindUnauthorized             // missing/invalid credential -> 401
	KindForbidden                // wrong role -> 403
	KindNotFound                 // absent or cross-tenant -> 404
	KindInternal                 // unexpected failure -> 500
)

// Error is an application error with a user-facing message
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func Validation(msg string) *Error   { return &Error{Kind: KindValidation, Message: msg} }
func Conflict(msg string) *Error     { return &Error{Kind: KindConflict, Message: msg} }
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }
func Forbidden(msg string) *Error    { return &Error{Kind: KindForbidden, Message: msg} }
func NotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Message: msg} }

// OK writes a 200 success envelope
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// OKMessage writes a 200 success envelope with a message
func OKMessage(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data, "message": message})
}

// Created writes a 201 success envelope
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

// Fail writes a failure envelope with an explicit status
func Fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

// Err maps an application error onto the wire. Unknown errors are logged and
// reported as a generic internal error; no internal detail leaks to clients.
func Err(c *gin.Context, err error) {
	var appErr *Error
	if errors.As(err, &appErr) {
		Fail(c, statusFor(appErr.Kind), appErr.Message)
		return
	}
	zap.L().Error("unexpected error",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	Fail(c, http.StatusInternalServerError, "Internal server error")
}

func statusFor(k Kind) int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
