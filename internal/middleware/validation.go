package middleware

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/pageza/souschef/backend/internal/service"
)

// RegisterValidators adds the preference enum tags to gin's validator and
// reports field errors by their JSON names
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	if err := v.RegisterValidation("skill_level", func(fl validator.FieldLevel) bool {
		return service.IsValidSkillLevel(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("cooking_time", func(fl validator.FieldLevel) bool {
		return service.IsValidCookingTime(fl.Field().String())
	})
}
