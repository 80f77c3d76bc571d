package db

import (
	"time"

	"wedding-rsvp/internal/models"

	"github.com/uptrace/bun"
)

type ReservationRow struct {
	bun.BaseModel `bun:"table:reservations"`

	ID                 string              `bun:"id,pk"`
	Submitted          bool                `bun:"submitted,notnull"`
	ExpirationNumber   *time.Time          `bun:"expiration_number"`
	DistributionNumber *time.Time          `bun:"distribution_number"`
	CreatedAt          time.Time           `bun:"created_at,notnull"`
	UpdatedAt          time.Time           `bun:"updated_at,notnull"`
	ControlNumbers     []*ControlNumberRow `bun:"rel:has-many,join:id=reservation_id"`
}

type ControlNumberRow struct {
	bun.BaseModel `bun:"table:control_numbers"`

	ControlNumber     string             `bun:"control_number,pk"`
	ReservationID     string             `bun:"reservation_id,notnull"`
	Name              string             `bun:"name"`
	ReservationNumber string             `bun:"reservation_number,notnull"`
	MaxGuests         int                `bun:"max_guests,notnull"`
	Guests            int                `bun:"guests,notnull"`
	GuestInfo         []models.GuestInfo `bun:"guest_info,type:jsonb"`
	Submitted         bool               `bun:"submitted,notnull"`
	SubmittedAt       *time.Time         `bun:"submitted_at"`
}

func (r *ReservationRow) toModel() *models.Reservation {
	res := &models.Reservation{
		ID:                 r.ID,
		ControlNumber:      make(map[string]models.ControlNumberData, len(r.ControlNumbers)),
		Submitted:          r.Submitted,
		ExpirationNumber:   r.ExpirationNumber,
		DistributionNumber: r.DistributionNumber,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	for _, cn := range r.ControlNumbers {
		guests := cn.GuestInfo
		if guests == nil {
			guests = []models.GuestInfo{}
		}
		res.ControlNumber[cn.ControlNumber] = models.ControlNumberData{
			Name:              cn.Name,
			ReservationNumber: cn.ReservationNumber,
			MaxGuests:         cn.MaxGuests,
			Guests:            len(guests),
			GuestInfo:         guests,
			Submitted:         cn.Submitted,
			SubmittedAt:       cn.SubmittedAt,
		}
	}
	return res
}

func fromModel(res *models.Reservation) (*ReservationRow, []*ControlNumberRow) {
	row := &ReservationRow{
		ID:                 res.ID,
		Submitted:          res.Submitted,
		ExpirationNumber:   res.ExpirationNumber,
		DistributionNumber: res.DistributionNumber,
		CreatedAt:          res.CreatedAt,
		UpdatedAt:          res.UpdatedAt,
	}
	cns := make([]*ControlNumberRow, 0, len(res.ControlNumber))
	for cn, data := range res.ControlNumber {
		cns = append(cns, &ControlNumberRow{
			ControlNumber:     cn,
			ReservationID:     res.ID,
			Name:              data.Name,
			ReservationNumber: data.ReservationNumber,
			MaxGuests:         data.MaxGuests,
			Guests:            len(data.GuestInfo),
			GuestInfo:         data.GuestInfo,
			Submitted:         data.Submitted,
			SubmittedAt:       data.SubmittedAt,
		})
	}
	return row, cns
}
