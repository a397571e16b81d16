// Package validation provides input validation for launchcache.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/mod/semver"
)

// SpaceX resource ids are Mongo object ids: 24 lowercase hex characters
var objectIDRegex = regexp.MustCompile(`^[0-9a-f]{24}$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// V returns the shared struct validator with the custom rules registered
func V() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("objectid", objectIDValidator)
		_ = validate.RegisterValidation("apiversion", apiVersionValidator)
	})
	return validate
}

func objectIDValidator(fl validator.FieldLevel) bool {
	return objectIDRegex.MatchString(fl.Field().String())
}

func apiVersionValidator(fl validator.FieldLevel) bool {
	return ValidateAPIVersion(fl.Field().String()) == nil
}

// Struct validates s against its `validate` tags and flattens the failures
// into a single readable error
func Struct(s any) error {
	err := V().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Errorf("%s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.Join(msgs...)
}

// ValidateID validates a launch or rocket id
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}
	if !objectIDRegex.MatchString(id) {
		return fmt.Errorf("invalid id %q: must be 24 lowercase hex characters", id)
	}
	return nil
}

// ValidateAPIVersion accepts bare major versions such as "v4" or "v5"
func ValidateAPIVersion(v string) error {
	if !semver.IsValid(v) || semver.Major(v) != v {
		return fmt.Errorf("invalid API version %q: want a major version like v4", v)
	}
	return nil
}
