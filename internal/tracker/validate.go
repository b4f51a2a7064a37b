package tracker

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// newBookInput is the parsed form of an add-book request
type newBookInput struct {
	Title      string `json:"title" validate:"required"`
	TotalPages int    `json:"totalPages" validate:"gt=0"`
	TargetDays int    `json:"targetDays" validate:"gt=0"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// parseNewBook turns raw form input into a validated newBookInput.
// Counts must be whole numbers; nothing is coerced.
func parseNewBook(v *validator.Validate, title, rawTotalPages, rawTargetDays string) (newBookInput, error) {
	in := newBookInput{Title: strings.TrimSpace(title)}
	verr := &ValidationError{}

	var err error
	if in.TotalPages, err = strconv.Atoi(strings.TrimSpace(rawTotalPages)); err != nil {
		verr.add("totalPages", "must be a positive integer")
	}
	if in.TargetDays, err = strconv.Atoi(strings.TrimSpace(rawTargetDays)); err != nil {
		verr.add("targetDays", "must be a positive integer")
	}

	if err := v.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return in, err
		}
		for _, fe := range fieldErrs {
			switch fe.Tag() {
			case "required":
				verr.add(fe.Field(), "is required")
			default:
				verr.add(fe.Field(), "must be a positive integer")
			}
		}
	}

	if len(verr.Problems) > 0 {
		return in, verr
	}
	return in, nil
}
