package donorform

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyLabel       = errors.New("field label is required")
	ErrEmptyOptionSet   = errors.New("selector and radio fields need at least one option")
	ErrEmptyOption      = errors.New("option value is required")
	ErrDuplicateOption  = errors.New("option already exists")
	ErrUnknownFieldType = errors.New("unknown field type")
	ErrFieldNotFound    = errors.New("field not found")
	ErrOptionIndex      = errors.New("option index out of range")
	ErrNoOptions        = errors.New("field type does not take options")
	ErrAtBoundary       = errors.New("field cannot move further in that direction")
	ErrInvalidDirection = errors.New("direction must be up or down")
	ErrIDCollision      = errors.New("could not allocate a unique field id")

	ErrMissingRequired = errors.New("required field missing")
	ErrEmptyDonorName  = errors.New("donor name is required")
	ErrMissingAmount   = errors.New("amount is required")
)

// MissingRequiredFieldError names the first required field a candidate
// donation left empty.
type MissingRequiredFieldError struct {
	FieldID string
	Label   string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("please fill in the required field: %s", e.Label)
}

func (e *MissingRequiredFieldError) Is(target error) bool {
	return target == ErrMissingRequired
}

// IsValidation reports whether err belongs to the validation family, which
// is always raised before any write is attempted.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrEmptyLabel, ErrEmptyOptionSet, ErrEmptyOption, ErrDuplicateOption,
		ErrUnknownFieldType, ErrOptionIndex, ErrNoOptions, ErrAtBoundary,
		ErrInvalidDirection, ErrMissingRequired, ErrEmptyDonorName, ErrMissingAmount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
