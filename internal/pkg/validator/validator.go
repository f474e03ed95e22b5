package validator

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

var (
	messagesMu sync.RWMutex
	messages   = map[string]string{}
)

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Four-digit year, not in the future
	validate.RegisterValidation("art_year", func(fl validator.FieldLevel) bool {
		year := fl.Field().Int()
		return year >= 1000 && year <= int64(time.Now().Year())
	})

	// Relative path under the public uploads prefix
	validate.RegisterValidation("upload_path", func(fl validator.FieldLevel) bool {
		p := fl.Field().String()
		return strings.HasPrefix(p, "/uploads/") && !strings.Contains(p, "..")
	})
}

// Register adds a string rule owned by a domain package, e.g. the genre enum.
func Register(tag string, valid func(string) bool, message string) {
	validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return valid(fl.Field().String())
	})

	messagesMu.Lock()
	messages[tag] = message
	messagesMu.Unlock()
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	errors := make(map[string]string)
	for _, err := range validationErrors {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "art_year":
			errors[field] = "Year must be a four-digit year, not in the future"
		case "upload_path":
			errors[field] = "Image must be a path returned by /api/upload"
		default:
			messagesMu.RLock()
			msg, ok := messages[err.Tag()]
			messagesMu.RUnlock()
			if !ok {
				msg = "Invalid value"
			}
			errors[field] = msg
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
