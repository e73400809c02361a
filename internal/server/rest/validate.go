package rest

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/userhub/internal/common"
	"github.com/dmitrijs2005/userhub/internal/server/auth"
	"github.com/go-playground/validator/v10"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 128
)

// fieldMessages overrides the generic message for a json field and tag.
var fieldMessages = map[string]string{
	"email.required":              "Email is required",
	"email.email":                 "Please provide a valid email address",
	"password.required":           "Password is required",
	"password.password":           "Password must be 8-128 characters with at least one uppercase letter, one lowercase letter and one number",
	"password.bcryptlen":          "Password cannot exceed 72 bytes",
	"confirmPassword.required":    "Password confirmation is required",
	"confirmPassword.eqfield":     "Passwords do not match",
	"firstName.required":          "First name is required",
	"firstName.min":               "First name is required",
	"firstName.max":               "First name cannot exceed 50 characters",
	"lastName.required":           "Last name is required",
	"lastName.min":                "Last name is required",
	"lastName.max":                "Last name cannot exceed 50 characters",
	"refreshToken.required":       "Refresh token is required",
	"currentPassword.required":    "Current password is required",
	"newPassword.required":        "New password is required",
	"newPassword.password":        "New password must be 8-128 characters with at least one uppercase letter, one lowercase letter and one number",
	"newPassword.bcryptlen":       "New password cannot exceed 72 bytes",
	"confirmNewPassword.required": "Password confirmation is required",
	"confirmNewPassword.eqfield":  "Passwords do not match",
	"avatar.avatar":               "Avatar must be a valid URL",
	"role.oneof":                  "Role must be one of: user, admin, moderator",
	"contentType.required":        "Content type is required",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return strongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= auth.MaxPasswordBytes
	})
	_ = v.RegisterValidation("avatar", func(fl validator.FieldLevel) bool {
		return avatarURL(fl.Field().String())
	})
	return v
}

// strongPassword requires 8..128 characters including a lower-case letter, an
// upper-case letter and a digit.
func strongPassword(p string) bool {
	n := len([]rune(p))
	if n < minPasswordLen || n > maxPasswordLen {
		return false
	}
	var lower, upper, digit bool
	for _, r := range p {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

// avatarURL accepts an empty string (clears the avatar) or an absolute
// http(s) URL.
func avatarURL(s string) bool {
	if s == "" {
		return true
	}
	u, err := url.ParseRequestURI(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// check validates v and returns a classified validation error listing every
// rejected field.
func (s *Server) check(v any, location string) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) {
		return common.ValidationFields("Validation failed", fieldErrors(invalid, location))
	}
	return err
}

func fieldErrors(invalid validator.ValidationErrors, location string) []common.FieldError {
	out := make([]common.FieldError, 0, len(invalid))
	for _, fe := range invalid {
		out = append(out, common.FieldError{
			Field:    fe.Field(),
			Message:  fieldMessage(fe),
			Location: location,
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
