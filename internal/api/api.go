// Package api holds the gin handlers of the /api/v1 surface.
package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pageza/souschef/backend/internal/apperrors"
	"github.com/pageza/souschef/backend/internal/middleware"
	"github.com/pageza/souschef/backend/internal/models"
)

// currentUser returns the caller or aborts with 401
func currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.AbortWithError(c, apperrors.NewUnauthorizedError(""))
		return nil, false
	}
	return user, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		middleware.AbortWithError(c, bindingError(err))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		middleware.AbortWithError(c, bindingError(err))
		return false
	}
	return true
}

func bindingError(err error) *apperrors.AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		problems := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			if fe.Param() != "" {
				problems = append(problems, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			} else {
				problems = append(problems, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
		}
		return apperrors.NewValidationError(strings.Join(problems, ", "))
	}
	return apperrors.NewBadRequestError("invalid request body")
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		middleware.AbortWithError(c, apperrors.NewValidationError(name+" must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}
