package httpx

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator reporting fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
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
	return v
}

// Error is a domain error with a user-facing message classified by one of the sentinel errors.
type Error struct {
	kind error
	msg  string
}

// NewError classifies msg under kind (ErrNotFound, ErrDuplicate, ...).
func NewError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Is(target error) bool { return target == e.kind }

// IsDomain reports whether err carries a classified domain message.
func IsDomain(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
