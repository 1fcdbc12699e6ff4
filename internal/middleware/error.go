package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/souschef/backend/internal/apperrors"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error *apperrors.AppError `json:"error"`
}

// AbortWithError records err on the context and writes the JSON error body
func AbortWithError(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.NewInternalError("Internal server error", err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.StatusCode(), ErrorResponse{Error: PublicError(appErr)})
}

// PublicError returns the client facing form of err with internal causes
// removed
func PublicError(err error) *apperrors.AppError {
	e, ok := apperrors.As(err)
	if !ok {
		return apperrors.New(apperrors.CodeInternal, "Internal server error", "")
	}
	switch e.Code {
	case apperrors.CodeInternal, apperrors.CodeDatabaseError, apperrors.CodeExternalServiceError:
		return apperrors.New(e.Code, e.Message, "")
	default:
		return e
	}
}

// ErrorHandler recovers panics and renders errors that handlers attached
// with c.Error but did not write themselves
func ErrorHandler(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"),
				)
				if !c.Writer.Written() {
					c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
						Error: apperrors.New(apperrors.CodeInternal, "Internal server error", ""),
					})
				}
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		appErr, ok := apperrors.As(err)
		if !ok {
			appErr = apperrors.NewInternalError("Internal server error", err)
		}
		if appErr.StatusCode() >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.String("code", string(appErr.Code)),
				zap.Error(err),
			)
		}
		if !c.Writer.Written() {
			c.JSON(appErr.StatusCode(), ErrorResponse{Error: PublicError(appErr)})
		}
	}
}
