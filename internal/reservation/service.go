package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wedding-rsvp/internal/logger"
	"wedding-rsvp/internal/metrics"
	"wedding-rsvp/internal/models"
)

// Store is implemented by the relational and the document persistence layers.
type Store interface {
	FindByControlNumber(ctx context.Context, controlNumber string) (*models.Reservation, error)
	// SubmitGuests replaces the guest list of an unsubmitted control number
	// and marks it submitted in one conditional write. applied is false when
	// the guard (exists, not submitted, len(guests) <= maxGuests) failed.
	SubmitGuests(ctx context.Context, controlNumber string, guests []models.GuestInfo, at time.Time) (applied bool, err error)
	List(ctx context.Context) ([]models.Reservation, error)
	GetByID(ctx context.Context, id string) (*models.Reservation, error)
	Create(ctx context.Context, r *models.Reservation) error
	Update(ctx context.Context, r *models.Reservation) error
	Delete(ctx context.Context, id string) error
}

type EventPublisher interface {
	PublishSubmission(ctx context.Context, evt models.SubmissionEvent) error
}

type Mailer interface {
	SendSubmissionConfirmation(ctx context.Context, controlNumber string, data models.ControlNumberData) error
}

type Service struct {
	Store     Store
	Publisher EventPublisher
	Mailer    Mailer
	Logger    *logger.Logger
	now       func() time.Time
}

func NewService(store Store, publisher EventPublisher, mailer Mailer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		Store:     store,
		Publisher: publisher,
		Mailer:    mailer,
		Logger:    log,
		now:       time.Now,
	}
}

// WithClock replaces the time source used for submittedAt and timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Verify resolves a control number without writing anything.
func (s *Service) Verify(ctx context.Context, controlNumber string) (*models.Reservation, models.ControlNumberData, error) {
	if !models.ValidControlNumber(controlNumber) {
		return nil, models.ControlNumberData{}, models.ErrNotFound
	}
	res, err := s.Store.FindByControlNumber(ctx, controlNumber)
	if err != nil {
		return nil, models.ControlNumberData{}, err
	}
	data, ok := res.ControlNumber[controlNumber]
	if !ok {
		return nil, models.ControlNumberData{}, models.ErrNotFound
	}
	return res, data, nil
}

// Submit finalizes the guest list of a control number exactly once.
func (s *Service) Submit(ctx context.Context, controlNumber string, guests []models.GuestInfo) (models.ControlNumberData, error) {
	res, data, err := s.Verify(ctx, controlNumber)
	if err != nil {
		s.countSubmission(err)
		return models.ControlNumberData{}, err
	}

	if err := checkSubmission(data, guests); err != nil {
		s.countSubmission(err)
		return models.ControlNumberData{}, err
	}

	guests = NormalizeGuests(guests)
	if err := ValidateGuests(guests); err != nil {
		s.countSubmission(err)
		return models.ControlNumberData{}, err
	}

	at := s.now().UTC()
	applied, err := s.Store.SubmitGuests(ctx, controlNumber, guests, at)
	if err != nil {
		metrics.Submissions.WithLabelValues(metrics.OutcomeError).Inc()
		return models.ControlNumberData{}, fmt.Errorf("submit guests for %s: %w", controlNumber, err)
	}
	if !applied {
		err := s.explainRejected(ctx, controlNumber, len(guests))
		s.countSubmission(err)
		s.Logger.LogReservation("SUBMIT_REJECTED", controlNumber, err.Error())
		return models.ControlNumberData{}, err
	}

	data.GuestInfo = guests
	data.Guests = len(guests)
	data.Submitted = true
	data.SubmittedAt = &at

	metrics.Submissions.WithLabelValues(metrics.OutcomeAccepted).Inc()
	s.Logger.LogReservation("SUBMITTED", controlNumber, fmt.Sprintf("%d guest(s) confirmed", data.Guests))

	s.afterSubmit(ctx, res.ID, controlNumber, data)
	return data, nil
}

func checkSubmission(data models.ControlNumberData, guests []models.GuestInfo) error {
	if data.Submitted {
		return &AlreadySubmittedError{SubmittedAt: data.SubmittedAt}
	}
	if len(guests) == 0 {
		return ErrNoGuestInfo
	}
	if len(guests) > data.MaxGuests {
		return &MaxGuestsError{Max: data.MaxGuests}
	}
	return nil
}

// explainRejected re-reads the slot after the conditional write lost to
// find out which part of the guard failed.
func (s *Service) explainRejected(ctx context.Context, controlNumber string, count int) error {
	res, err := s.Store.FindByControlNumber(ctx, controlNumber)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		return fmt.Errorf("re-read %s: %w", controlNumber, err)
	}
	data, ok := res.ControlNumber[controlNumber]
	switch {
	case !ok:
		return models.ErrNotFound
	case data.Submitted:
		return &AlreadySubmittedError{SubmittedAt: data.SubmittedAt}
	case count > data.MaxGuests:
		return &MaxGuestsError{Max: data.MaxGuests}
	default:
		return fmt.Errorf("submission for %s was not applied", controlNumber)
	}
}

func (s *Service) afterSubmit(ctx context.Context, reservationID, controlNumber string, data models.ControlNumberData) {
	if s.Mailer != nil {
		if err := s.Mailer.SendSubmissionConfirmation(ctx, controlNumber, data); err != nil {
			s.Logger.Warn("EMAIL", fmt.Sprintf("confirmation for %s failed: %v", controlNumber, err))
		}
	}

	if s.Publisher != nil {
		evt := models.SubmissionEvent{
			ControlNumber:     controlNumber,
			ReservationID:     reservationID,
			ReservationNumber: data.ReservationNumber,
			Guests:            data.Guests,
			SubmittedAt:       *data.SubmittedAt,
		}
		if primary, ok := data.PrimaryGuest(); ok {
			evt.PrimaryGuest = primary.FullName
		}
		if err := s.Publisher.PublishSubmission(ctx, evt); err != nil {
			s.Logger.Warn("EVENTS", fmt.Sprintf("publish submission %s failed: %v", controlNumber, err))
		}
	}
}

func (s *Service) countSubmission(err error) {
	var (
		already *AlreadySubmittedError
		maxErr  *MaxGuestsError
		invalid *ValidationError
	)
	switch {
	case errors.As(err, &already):
		metrics.Submissions.WithLabelValues(metrics.OutcomeAlreadySubmitted).Inc()
	case errors.As(err, &maxErr):
		metrics.Submissions.WithLabelValues(metrics.OutcomeMaxExceeded).Inc()
	case errors.As(err, &invalid), errors.Is(err, ErrNoGuestInfo):
		metrics.Submissions.WithLabelValues(metrics.OutcomeInvalid).Inc()
	case errors.Is(err, models.ErrNotFound):
		metrics.Submissions.WithLabelValues(metrics.OutcomeNotFound).Inc()
	default:
		metrics.Submissions.WithLabelValues(metrics.OutcomeError).Inc()
	}
}

// ---------------- ADMIN CRUD ----------------

func (s *Service) ListReservations(ctx context.Context) ([]models.Reservation, error) {
	list, err := s.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, models.ErrNotFound
	}
	return list, nil
}

// GetReservation returns the reservation, narrowed to control when it names
// one of its control numbers.
func (s *Service) GetReservation(ctx context.Context, id, control string) (*models.Reservation, error) {
	res, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if control != "" {
		if only, ok := res.Only(control); ok {
			return &only, nil
		}
	}
	return res, nil
}

func (s *Service) CreateReservation(ctx context.Context, in models.ReservationInput) (*models.Reservation, error) {
	if len(in.ControlNumber) == 0 {
		return nil, &ValidationError{Field: "control_number", Message: "at least one control number is required"}
	}

	slots := make(map[string]models.ControlNumberData, len(in.ControlNumber))
	for cn, data := range in.ControlNumber {
		data.GuestInfo = NormalizeGuests(data.GuestInfo)
		if err := ValidateControlNumberData(cn, data); err != nil {
			return nil, err
		}
		data.Guests = len(data.GuestInfo)
		if data.Submitted && data.SubmittedAt == nil {
			at := s.now().UTC()
			data.SubmittedAt = &at
		}
		slots[cn] = data
	}

	now := s.now().UTC()
	res := &models.Reservation{
		ControlNumber:      slots,
		ExpirationNumber:   in.ExpirationNumber,
		DistributionNumber: in.DistributionNumber,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if in.Submitted != nil {
		res.Submitted = *in.Submitted
	}
	if err := s.Store.Create(ctx, res); err != nil {
		return nil, err
	}
	s.Logger.LogDatabase("CREATE", "reservations", fmt.Sprintf("reservation %s with %d control number(s)", res.ID, len(slots)))
	return res, nil
}

// UpdateReservation overwrites the reservation with in. Control numbers
// missing from in are kept. A control number that was submitted stays
// submitted with its original submittedAt.
func (s *Service) UpdateReservation(ctx context.Context, id string, in models.ReservationInput) (*models.Reservation, error) {
	res, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	for cn, data := range in.ControlNumber {
		data.GuestInfo = NormalizeGuests(data.GuestInfo)
		if err := ValidateControlNumberData(cn, data); err != nil {
			return nil, err
		}
		data.Guests = len(data.GuestInfo)
		if prev, ok := res.ControlNumber[cn]; ok && prev.Submitted {
			data.Submitted = true
			data.SubmittedAt = prev.SubmittedAt
		} else if data.Submitted && data.SubmittedAt == nil {
			at := s.now().UTC()
			data.SubmittedAt = &at
		}
		res.ControlNumber[cn] = data
	}

	if in.Submitted != nil {
		res.Submitted = *in.Submitted
	}
	if in.ExpirationNumber != nil {
		res.ExpirationNumber = in.ExpirationNumber
	}
	if in.DistributionNumber != nil {
		res.DistributionNumber = in.DistributionNumber
	}
	res.UpdatedAt = s.now().UTC()

	if err := s.Store.Update(ctx, res); err != nil {
		return nil, err
	}
	s.Logger.LogDatabase("UPDATE", "reservations", fmt.Sprintf("reservation %s updated", id))
	return res, nil
}

func (s *Service) DeleteReservation(ctx context.Context, id string) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	s.Logger.LogDatabase("DELETE", "reservations", fmt.Sprintf("reservation %s deleted", id))
	return nil
}
