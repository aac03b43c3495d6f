package task

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
)

var (
	importanceTag  = "importance"
	importanceText = "{0} must be one of: " + strings.Join(Importances, ", ")

	statusTag  = "taskstatus"
	statusText = "{0} must be one of: " + strings.Join(Statuses, ", ")
)

// InitValidators registers the task validators on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(importanceTag, oneOfValidation(Importances))
	core.RegisterCustomTranslation(validate, translator, importanceTag, importanceText)

	_ = validate.RegisterValidation(statusTag, oneOfValidation(Statuses))
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)
}

func oneOfValidation(values []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		val := fl.Field().String()
		for _, v := range values {
			if v == val {
				return true
			}
		}
		return false
	}
}
