package utils

import (
  "fmt"
  "regexp"
  "strings"

  "github.com/go-playground/validator/v10"
)

// local@domain.tld, nothing stricter.
var simpleEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
  v := validator.New(validator.WithRequiredStructEnabled())
  _ = v.RegisterValidation("simpleemail", func(fl validator.FieldLevel) bool {
    return simpleEmailPattern.MatchString(fl.Field().String())
  })
  return v
}

func IsValidEmail(email string) bool {
  return validate.Var(email, "simpleemail") == nil
}

// ValidateStruct returns a field -> message map, or nil when the struct is valid.
func ValidateStruct(data interface{}) map[string]string {
  err := validate.Struct(data)
  if err == nil {
    return nil
  }
  errs := make(map[string]string)
  if validationErrors, ok := err.(validator.ValidationErrors); ok {
    for _, fe := range validationErrors {
      errs[fe.Field()] = simpleErrorMessage(fe)
    }
  }
  return errs
}

func simpleErrorMessage(fe validator.FieldError) string {
  switch fe.Tag() {
  case "required":
    return "This field is required"
  case "simpleemail", "email":
    return "Invalid email format"
  case "max":
    return fmt.Sprintf("Maximum length is %s", fe.Param())
  case "uuid":
    return "Must be a valid UUID"
  default:
    return fmt.Sprintf("Invalid %s field", fe.Field())
  }
}

func FormatValidationErrors(errs map[string]string) string {
  var msgs []string
  for field, msg := range errs {
    msgs = append(msgs, fmt.Sprintf("%s: %s", field, msg))
  }
  return strings.Join(msgs, "; ")
}
