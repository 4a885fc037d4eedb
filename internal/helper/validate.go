package helper

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStruct checks `validate` tags and returns a 400 AppError naming the
// first failing field.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return BadRequest("Please provide valid inputs")
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return BadRequest(fmt.Sprintf("%s is required", fe.Field()))
	case "email":
		return BadRequest(fmt.Sprintf("%s must be a valid email address", fe.Field()))
	case "max":
		return BadRequest(fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
	default:
		return BadRequest(fmt.Sprintf("%s is invalid", fe.Field()))
	}
}
