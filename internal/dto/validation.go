package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/classroom-api/pkg/mention"
)

// MailboxTag is the validation tag checking the local@domain.tld shape.
const MailboxTag = "mailbox"

// NewValidator returns a validator that reports JSON/form field names and
// understands the mailbox tag.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, key := range []string{"json", "form"} {
			name := strings.SplitN(field.Tag.Get(key), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return field.Name
	})
	_ = v.RegisterValidation(MailboxTag, func(fl validator.FieldLevel) bool {
		return mention.IsEmail(fl.Field().String())
	})
	return v
}

// ValidationMessages renders every field failure of err as a readable line.
// Errors that are not validator errors yield their own message.
func ValidationMessages(err error) []string {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fieldMessage(fe))
	}
	return messages
}

func fieldMessage(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case MailboxTag:
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// fieldPath strips the struct name from the namespace: "RegisterStudentsRequest.students[1]" -> "students[1]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	if ns == "" {
		return fe.Field()
	}
	return ns
}
