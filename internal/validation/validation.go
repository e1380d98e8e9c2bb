// Package validation checks address form input before it reaches the store.
package validation

import (
	"errors"
	"regexp"
	"strings"

	"github.com/UnknownOlympus/addressbook/internal/models"
	"github.com/go-playground/validator/v10"
)

// Rule violations, reported in this priority order.
var (
	ErrMissingFields  = errors.New("required address fields are missing")
	ErrInvalidPhone   = errors.New("phone number is not a valid Indian mobile number")
	ErrInvalidPincode = errors.New("pincode must be exactly 6 digits")
)

var (
	phonePattern   = regexp.MustCompile(`^[6-9]\d{9}$`)
	pincodePattern = regexp.MustCompile(`^\d{6}$`)
	nonDigits      = regexp.MustCompile(`\D`)
)

var validate = newValidator()

// addressForm mirrors the editable address fields with their rules.
type addressForm struct {
	Name         string `validate:"required"`
	Phone        string `validate:"required,in_phone"`
	AddressLine1 string `validate:"required"`
	City         string `validate:"required"`
	State        string `validate:"required"`
	Pincode      string `validate:"required,pincode"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.RegisterValidation("in_phone", func(fl validator.FieldLevel) bool {
		return IsValidPhone(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("pincode", func(fl validator.FieldLevel) bool {
		return IsValidPincode(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	return v
}

// ValidateAddress checks the form fields of addr and returns the first rule it breaks.
func ValidateAddress(addr models.Address) error {
	form := addressForm{
		Name:         addr.Name,
		Phone:        addr.Phone,
		AddressLine1: addr.AddressLine1,
		City:         addr.City,
		State:        addr.State,
		Pincode:      addr.Pincode,
	}

	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	var phoneErr, pincodeErr bool
	for _, fe := range fieldErrs {
		switch {
		case fe.Tag() == "required":
			return ErrMissingFields
		case fe.Field() == "Phone":
			phoneErr = true
		case fe.Field() == "Pincode":
			pincodeErr = true
		}
	}

	switch {
	case phoneErr:
		return ErrInvalidPhone
	case pincodeErr:
		return ErrInvalidPincode
	default:
		return err
	}
}

// IsValidPhone accepts a 10-digit Indian mobile number starting with 6-9.
// Separators and other non-digits are ignored.
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(nonDigits.ReplaceAllString(phone, ""))
}

// IsValidPincode accepts exactly six digits.
func IsValidPincode(pincode string) bool {
	return pincodePattern.MatchString(pincode)
}

// Message returns the text shown to the user for a validation error.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrMissingFields):
		return "Please fill all required fields"
	case errors.Is(err, ErrInvalidPhone):
		return "Please enter a valid Indian phone number"
	case errors.Is(err, ErrInvalidPincode):
		return "Please enter a valid 6-digit pincode"
	case err == nil:
		return ""
	default:
		return strings.TrimSpace(err.Error())
	}
}
