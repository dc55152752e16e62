package services

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"go-ratings-backend/apperror"
	"go-ratings-backend/models"

	"github.com/go-playground/validator/v10"
)

// passwordSpecials are the characters that satisfy the "special character"
// part of the password rule.
const passwordSpecials = `!@#$%^&*(),.?":{}|<>`

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return ValidPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == "" || models.ValidRole(fl.Field().String())
	})
	return v
}

// ValidPassword: 8 to 16 characters with at least one uppercase letter and
// one special character.
func ValidPassword(p string) bool {
	n := len([]rune(p))
	if n < 8 || n > 16 {
		return false
	}
	var upper, special bool
	for _, r := range p {
		if unicode.IsUpper(r) {
			upper = true
		}
		if strings.ContainsRune(passwordSpecials, r) {
			special = true
		}
	}
	return upper && special
}

// validateInput runs the struct tags of in and reports every failing field
// in one Validation error.
func validateInput(in interface{}) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewValidation(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	sort.Strings(msgs)
	return apperror.NewValidation(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "password":
		return fe.Field() + " must be 8-16 characters and include an uppercase letter and a special character"
	case "role":
		return fe.Field() + " must be one of admin, user, owner"
	default:
		return fe.Field() + " is invalid"
	}
}
