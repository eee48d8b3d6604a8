package api

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"sellnext/internal/domain/entity"
)

// CustomValidator plugs go-playground/validator into Echo.
type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New()

	// report json names so field errors match the request body
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	_ = v.RegisterValidation("password", validatePassword)
	_ = v.RegisterValidation("category", oneOfList(entity.ProductCategories))
	_ = v.RegisterValidation("condition", oneOfList(entity.ProductConditions))
	_ = v.RegisterValidation("delivery", oneOfList(entity.DeliveryOptions))

	return &CustomValidator{validator: v}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// validatePassword requires 8+ characters with upper case, lower case and a digit.
func validatePassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if len(password) < 8 {
		return false
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

func oneOfList(allowed []string) validator.Func {
	set := make(map[string]struct{}, len(allowed))
	for _, v := range allowed {
		set[v] = struct{}{}
	}
	return func(fl validator.FieldLevel) bool {
		_, ok := set[fl.Field().String()]
		return ok
	}
}
