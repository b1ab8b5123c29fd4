package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler recovers from panics in later handlers and answers 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				LoggerFrom(c).Error("Unhandled panic",
					zap.Any("error", rec),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"))
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Code:    "internal_error",
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
			}
		}()
		c.Next()
	}
}

// JSONError writes an ErrorResponse and logs it at a level matching status.
func JSONError(c *gin.Context, status int, code, message string) {
	logger := LoggerFrom(c).With(zap.String("code", code), zap.String("path", c.Request.URL.Path))
	if status >= http.StatusInternalServerError {
		logger.Error(message)
	} else {
		logger.Warn(message)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Code: code, Message: message})
}
