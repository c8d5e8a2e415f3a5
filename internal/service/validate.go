package service

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// failedTags returns the validation tags that rejected input, keyed by struct field name.
func failedTags(input any) (map[string]string, error) {
	err := validate.Struct(input)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	failed := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		failed[fe.StructField()] = fe.Tag()
	}
	return failed, nil
}

func hasTag(failed map[string]string, tag string) bool {
	for _, t := range failed {
		if t == tag {
			return true
		}
	}
	return false
}
