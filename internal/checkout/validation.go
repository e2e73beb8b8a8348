package checkout

import (
	"strconv"

	"canteen-connect/internal/domain"
)

const (
	tableNumberMin = 1
	tableNumberMax = 25
	phoneDigits    = 10
)

// ValidateRequest checks contact and delivery fields before any network call.
func ValidateRequest(req *domain.CheckoutRequest) error {
	if err := validatePhone(req.Phone); err != nil {
		return err
	}

	switch req.Delivery {
	case domain.DeliveryDineIn:
		return validateTableNumber(req.TableNumber)
	case domain.DeliveryTakeaway:
		return nil
	default:
		return ValidationError{
			Field:   "delivery_mode",
			Message: "delivery mode must be dine-in or takeaway",
		}
	}
}

func validatePhone(phone string) error {
	if phone == "" {
		return ValidationError{
			Field:   "phone",
			Message: "phone number is required",
		}
	}
	if len(phone) != phoneDigits {
		return ValidationError{
			Field:   "phone",
			Message: "phone number must be exactly 10 digits",
		}
	}
	for _, c := range phone {
		if c < '0' || c > '9' {
			return ValidationError{
				Field:   "phone",
				Message: "phone number must contain digits only",
			}
		}
	}
	return nil
}

func validateTableNumber(raw string) error {
	if raw == "" {
		return ValidationError{
			Field:   "table_number",
			Message: "table number is required for dine-in",
		}
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < tableNumberMin || n > tableNumberMax {
		return ValidationError{
			Field:   "table_number",
			Message: "table number must be between 1 and 25",
		}
	}
	return nil
}
