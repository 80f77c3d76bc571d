package reservation

import (
	"errors"
	"fmt"
	"strings"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/validation"
)

// NormalizeGuests trims the free-text fields and lowercases emails.
func NormalizeGuests(guests []models.GuestInfo) []models.GuestInfo {
	out := make([]models.GuestInfo, len(guests))
	for i, g := range guests {
		g.FullName = strings.TrimSpace(g.FullName)
		g.Email = strings.ToLower(strings.TrimSpace(g.Email))
		g.Address = strings.TrimSpace(g.Address)
		out[i] = g
	}
	return out
}

// ValidateGuests checks every guest against its field rules and the primary
// guest against the stricter age and address rules.
func ValidateGuests(guests []models.GuestInfo) error {
	for i, g := range guests {
		if err := validation.Struct(g); err != nil {
			var fe *validation.FieldError
			if errors.As(err, &fe) {
				field := fmt.Sprintf("guest_info[%d].%s", i, fe.Field)
				return &ValidationError{Field: field, Message: fmt.Sprintf("guest %d: %s", i+1, fe.Message)}
			}
			return err
		}
	}

	if len(guests) == 0 {
		return nil
	}
	primary := guests[0]
	if *primary.Age <= models.PrimaryGuestMinAge {
		return &ValidationError{
			Field:   "guest_info[0].age",
			Message: fmt.Sprintf("primary guest must be older than %d", models.PrimaryGuestMinAge),
		}
	}
	if primary.Address == "" {
		return &ValidationError{Field: "guest_info[0].address", Message: "primary guest address is required"}
	}
	return nil
}

// ValidateControlNumberData checks an admin-supplied slot before it is stored.
func ValidateControlNumberData(cn string, data models.ControlNumberData) error {
	if !models.ValidControlNumber(cn) {
		return &ValidationError{Field: "control_number", Message: fmt.Sprintf("invalid control number %q", cn)}
	}
	if err := validation.Struct(data); err != nil {
		var fe *validation.FieldError
		if errors.As(err, &fe) {
			return &ValidationError{
				Field:   fmt.Sprintf("control_number.%s.%s", cn, fe.Field),
				Message: fmt.Sprintf("%s: %s", cn, fe.Message),
			}
		}
		return err
	}
	if len(data.GuestInfo) > data.MaxGuests {
		return &MaxGuestsError{Max: data.MaxGuests}
	}
	if len(data.GuestInfo) > 0 {
		return ValidateGuests(data.GuestInfo)
	}
	return nil
}
