package domain

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// StructValidator checks `binding` struct tags with go-playground/validator,
// reports fields by their json names and returns *ValidationError. It has
// the method set of gin's binding.StructValidator so the HTTP layer and the
// services share one engine.
type StructValidator struct {
	once     sync.Once
	validate *validator.Validate
	plain    *validator.Validate
}

var structValidator = &StructValidator{}

// Binding returns the shared validator.
func Binding() *StructValidator {
	return structValidator
}

// ValidateStruct checks s against its binding tags.
func ValidateStruct(s any) error {
	return structValidator.ValidateStruct(s)
}

func (v *StructValidator) lazyinit() {
	v.once.Do(func() {
		v.validate = validator.New(validator.WithRequiredStructEnabled())
		v.plain = validator.New()
		v.validate.SetTagName("binding")
		v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		// bcrypt reads at most 72 bytes, max= counts runes
		if err := v.validate.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
			n, err := strconv.Atoi(fl.Param())
			return err == nil && len(fl.Field().String()) <= n
		}); err != nil {
			panic(err)
		}
		// emails are trimmed before storage; a blank one is left to required
		if err := v.validate.RegisterValidation("trimmed_email", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			return s == "" || v.plain.Var(s, "email") == nil
		}); err != nil {
			panic(err)
		}
	})
}

// ValidateStruct validates a struct or pointer to struct. Other kinds pass.
func (v *StructValidator) ValidateStruct(obj any) error {
	if obj == nil {
		return nil
	}
	value := reflect.ValueOf(obj)
	if value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil
	}

	v.lazyinit()
	err := v.validate.Struct(obj)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, ok := fields[fe.Field()]; !ok {
			fields[fe.Field()] = fieldMessage(fe)
		}
	}
	return &ValidationError{Fields: fields}
}

// Engine exposes the underlying *validator.Validate.
func (v *StructValidator) Engine() any {
	v.lazyinit()
	return v.validate
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must be provided"
	case "email", "trimmed_email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "maxbytes":
		return "must be at most " + fe.Param() + " bytes long"
	default:
		return "failed the " + fe.Tag() + " check"
	}
}
