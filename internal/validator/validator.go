package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/seat-reservation-core/internal/domain"
)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	validator.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})

	validator.RegisterValidation("booking_type", validateBookingType)
	validator.RegisterValidation("admin_status", validateAdminStatus)
	validator.RegisterValidation("payment_method", validatePaymentMethod)

	return validator
}

func validateBookingType(fl validator.FieldLevel) bool {
	bookingType := domain.BookingType(fl.Field().String())

	return bookingType == domain.BookingTypeOnline || bookingType == domain.BookingTypeOffline
}

func validateAdminStatus(fl validator.FieldLevel) bool {
	return domain.AdminStatus(fl.Field().String()).Valid()
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	switch domain.PaymentMethod(fl.Field().String()) {
	case domain.PaymentMethodCash, domain.PaymentMethodCard, domain.PaymentMethodTransfer, domain.PaymentMethodCrypto:
		return true
	}

	return false
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "required_unless":
		return "is required for this payment method"
	case "min":
		// An empty list is treated as a missing one.
		if err.Kind() == reflect.Slice && err.Param() == "1" {
			return "is required"
		}
		return fmt.Sprintf("must contain at least %s item(s)", err.Param())
	case "max":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters long", err.Param())
		}
		return fmt.Sprintf("must contain at most %s item(s)", err.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "unique":
		return "must not contain duplicates"
	case "booking_type":
		return "must be one of ONLINE, OFFLINE"
	case "admin_status":
		return "must be one of AVAILABLE, MAINTENANCE, BLOCKED"
	case "payment_method":
		return "must be one of cash, card, transfer, crypto"
	default:
		return "is invalid"
	}
}
