package models

import (
	"regexp"
	"time"
)

const (
	MinGuestsPerInvite = 1
	MaxGuestsPerInvite = 10
	// PrimaryGuestMinAge is exclusive.
	PrimaryGuestMinAge = 7
)

var controlNumberPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidControlNumber reports whether cn is safe to use as a lookup key and
// as a document field path.
func ValidControlNumber(cn string) bool {
	return controlNumberPattern.MatchString(cn)
}

type GuestInfo struct {
	FullName string `json:"full_name" bson:"full_name" validate:"required"`
	Age      *int   `json:"age" bson:"age" validate:"required,gte=0,lte=130"`
	Email    string `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Address  string `json:"address,omitempty" bson:"address,omitempty"`
}

// ControlNumberData is the reservation slot behind one control number.
// Guests is always len(GuestInfo).
type ControlNumberData struct {
	Name              string      `json:"name,omitempty"`
	ReservationNumber string      `json:"reservation_number" validate:"required"`
	MaxGuests         int         `json:"maxGuests" validate:"gte=1,lte=10"`
	Guests            int         `json:"guests"`
	GuestInfo         []GuestInfo `json:"guest_info"`
	Submitted         bool        `json:"submitted"`
	SubmittedAt       *time.Time  `json:"submittedAt,omitempty"`
}

func (d ControlNumberData) PrimaryGuest() (GuestInfo, bool) {
	if len(d.GuestInfo) == 0 {
		return GuestInfo{}, false
	}
	return d.GuestInfo[0], true
}

func (d ControlNumberData) Status() string {
	if d.Submitted {
		return "Confirmed"
	}
	return "Pending"
}

type Reservation struct {
	ID                 string                       `json:"_id"`
	ControlNumber      map[string]ControlNumberData `json:"control_number"`
	Submitted          bool                         `json:"submitted"`
	ExpirationNumber   *time.Time                   `json:"expiration_number,omitempty"`
	DistributionNumber *time.Time                   `json:"distribution_number,omitempty"`
	CreatedAt          time.Time                    `json:"createdAt"`
	UpdatedAt          time.Time                    `json:"updatedAt"`
}

// Only narrows the reservation to a single control number. ok is false when
// the reservation does not hold cn.
func (r Reservation) Only(cn string) (Reservation, bool) {
	data, ok := r.ControlNumber[cn]
	if !ok {
		return r, false
	}
	r.ControlNumber = map[string]ControlNumberData{cn: data}
	return r, true
}

// ReservationInput is the admin create/update payload.
type ReservationInput struct {
	ControlNumber      map[string]ControlNumberData `json:"control_number"`
	Submitted          *bool                        `json:"submitted,omitempty"`
	ExpirationNumber   *time.Time                   `json:"expiration_number,omitempty"`
	DistributionNumber *time.Time                   `json:"distribution_number,omitempty"`
}

type SubmissionEvent struct {
	ControlNumber     string    `json:"control_number"`
	ReservationID     string    `json:"reservation_id"`
	ReservationNumber string    `json:"reservation_number"`
	Guests            int       `json:"guests"`
	PrimaryGuest      string    `json:"primary_guest,omitempty"`
	SubmittedAt       time.Time `json:"submittedAt"`
}
