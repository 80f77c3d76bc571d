package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wedding-rsvp/internal/logger"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/validation"
)

var (
	ErrSettingsNotFound = errors.New("settings not found")
	ErrSettingsExist    = errors.New("settings already exist")
)

// Store holds at most one settings document.
type Store interface {
	Get(ctx context.Context) (*models.Settings, error)
	Create(ctx context.Context, s *models.Settings) error
	Update(ctx context.Context, s *models.Settings) error
}

type Service struct {
	Store  Store
	Logger *logger.Logger
	now    func() time.Time
}

func NewService(store Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{Store: store, Logger: log, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Get(ctx context.Context) (*models.Settings, error) {
	settings, err := s.Store.Get(ctx)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrSettingsNotFound
	}
	return settings, err
}

// Public is the subset the invitation pages read.
func (s *Service) Public(ctx context.Context) (models.PublicSettings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return models.PublicSettings{}, err
	}
	return settings.Public(), nil
}

func (s *Service) Create(ctx context.Context, in models.Settings) (*models.Settings, error) {
	if _, err := s.Get(ctx); err == nil {
		return nil, ErrSettingsExist
	} else if !errors.Is(err, ErrSettingsNotFound) {
		return nil, err
	}

	in.ApplyDefaults()
	if err := Validate(&in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	in.ID = ""
	in.CreatedAt = now
	in.UpdatedAt = now

	if err := s.Store.Create(ctx, &in); err != nil {
		if errors.Is(err, models.ErrSettingsAlreadyExist) {
			return nil, ErrSettingsExist
		}
		return nil, fmt.Errorf("create settings: %w", err)
	}
	s.Logger.LogDatabase("CREATE", "settings", fmt.Sprintf("settings created for %q", in.EventName))
	return &in, nil
}

// Update overlays the JSON patch onto the stored document: fields absent
// from the patch keep their stored values.
func (s *Service) Update(ctx context.Context, patch json.RawMessage) (*models.Settings, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	id, createdAt := current.ID, current.CreatedAt
	if err := json.Unmarshal(patch, current); err != nil {
		return nil, &validation.FieldError{Field: "body", Message: fmt.Sprintf("invalid settings payload: %v", err)}
	}
	current.ID = id
	current.CreatedAt = createdAt
	current.UpdatedAt = s.now().UTC()

	if err := Validate(current); err != nil {
		return nil, err
	}
	if err := s.Store.Update(ctx, current); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("update settings: %w", err)
	}
	s.Logger.LogDatabase("UPDATE", "settings", "settings updated")
	return current, nil
}

func Validate(in *models.Settings) error {
	if in.EventDate.IsZero() {
		return &validation.FieldError{Field: "eventDate", Message: "eventDate is required"}
	}
	if in.RSVPDeadline.IsZero() {
		return &validation.FieldError{Field: "rsvpDeadline", Message: "rsvpDeadline is required"}
	}
	return validation.Struct(in)
}
