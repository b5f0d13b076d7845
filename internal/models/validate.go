package models

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateKeyLayout is the yyyy-MM-dd form used for every date on the wire.
const DateKeyLayout = "2006-01-02"

// ErrInvalidPayload marks data that failed boundary validation.
var ErrInvalidPayload = errors.New("invalid payload")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their wire names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	v.RegisterValidation("datekey", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(DateKeyLayout, fl.Field().String())
		return err == nil
	})

	v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		switch Status(fl.Field().String()) {
		case StatusActive, StatusInactive, StatusDeleted, StatusFlagged:
			return true
		}
		return false
	})

	return v
}

// ValidationError lists the failing fields and the rule each one broke.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate checks v against its validate tags.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = fe.Tag()
	}
	return &ValidationError{Fields: fields}
}

// ValidatePayload validates data received from the backend.
func ValidatePayload(v any) error {
	if err := Validate(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return nil
}

// ValidatePayloads validates every element of a decoded list.
func ValidatePayloads[T any](items []T) error {
	for i := range items {
		if err := ValidatePayload(&items[i]); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
