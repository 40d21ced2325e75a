package validation

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterGinValidators exposes the local rules as struct tags on gin's
// binding engine: `sa_mobile` and `shape_email`.
func RegisterGinValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return Register(v)
}

// Register installs the custom tags on v.
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation("sa_mobile", func(fl validator.FieldLevel) bool {
		return IsValidSaudiPhone(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("shape_email", func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	})
}
