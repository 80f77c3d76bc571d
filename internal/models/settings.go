package models

import "time"

type EventLocation struct {
	Name          string `json:"name" bson:"name" validate:"required"`
	Address       string `json:"address" bson:"address" validate:"required"`
	City          string `json:"city" bson:"city" validate:"required"`
	State         string `json:"state,omitempty" bson:"state,omitempty"`
	ZipCode       string `json:"zipCode,omitempty" bson:"zipCode,omitempty"`
	Country       string `json:"country" bson:"country" validate:"required"`
	GoogleMapsURL string `json:"googleMapsUrl,omitempty" bson:"googleMapsUrl,omitempty" validate:"omitempty,url"`
}

type EmailSettings struct {
	SenderEmail        string `json:"senderEmail" bson:"senderEmail" validate:"required,email"`
	SenderName         string `json:"senderName" bson:"senderName" validate:"required"`
	InvitationSubject  string `json:"invitationSubject" bson:"invitationSubject" validate:"required"`
	InvitationTemplate string `json:"invitationTemplate" bson:"invitationTemplate" validate:"required"`
	ReminderSubject    string `json:"reminderSubject" bson:"reminderSubject" validate:"required"`
	ReminderTemplate   string `json:"reminderTemplate" bson:"reminderTemplate" validate:"required"`
}

type Customization struct {
	PrimaryColor       string `json:"primaryColor" bson:"primaryColor" validate:"required"`
	SecondaryColor     string `json:"secondaryColor" bson:"secondaryColor" validate:"required"`
	FontFamily         string `json:"fontFamily" bson:"fontFamily" validate:"required"`
	LogoURL            string `json:"logoUrl,omitempty" bson:"logoUrl,omitempty"`
	BackgroundImageURL string `json:"backgroundImageUrl,omitempty" bson:"backgroundImageUrl,omitempty"`
}

type FAQ struct {
	Question string `json:"question" bson:"question" validate:"required"`
	Answer   string `json:"answer" bson:"answer" validate:"required"`
}

type AdditionalInfo struct {
	Accommodations string `json:"accommodations,omitempty" bson:"accommodations,omitempty"`
	DressCode      string `json:"dress_code,omitempty" bson:"dress_code,omitempty"`
	Registry       string `json:"registry,omitempty" bson:"registry,omitempty"`
	FAQs           []FAQ  `json:"faqs" bson:"faqs" validate:"dive"`
}

type Settings struct {
	ID               string         `json:"_id,omitempty" bson:"-"`
	EventName        string         `json:"eventName" bson:"eventName" validate:"required"`
	EventDate        Date           `json:"eventDate" bson:"eventDate"`
	EventLocation    EventLocation  `json:"eventLocation" bson:"eventLocation"`
	RSVPDeadline     Date           `json:"rsvpDeadline" bson:"rsvpDeadline"`
	MaxGuestsAllowed int            `json:"maxGuestsAllowed" bson:"maxGuestsAllowed" validate:"gte=1"`
	EmailSettings    EmailSettings  `json:"emailSettings" bson:"emailSettings"`
	Customization    Customization  `json:"customization" bson:"customization"`
	AdditionalInfo   AdditionalInfo `json:"additionalInfo" bson:"additionalInfo"`
	CreatedAt        time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt" bson:"updatedAt"`
}

// ApplyDefaults fills the values the settings form starts from.
func (s *Settings) ApplyDefaults() {
	if s.MaxGuestsAllowed == 0 {
		s.MaxGuestsAllowed = 100
	}
	if s.EmailSettings.InvitationSubject == "" {
		s.EmailSettings.InvitationSubject = "You're Invited!"
	}
	if s.EmailSettings.ReminderSubject == "" {
		s.EmailSettings.ReminderSubject = "RSVP Reminder"
	}
	if s.Customization.PrimaryColor == "" {
		s.Customization.PrimaryColor = "#0A5741"
	}
	if s.Customization.SecondaryColor == "" {
		s.Customization.SecondaryColor = "#F59E0B"
	}
	if s.Customization.FontFamily == "" {
		s.Customization.FontFamily = "Cormorant Garamond, serif"
	}
	if s.AdditionalInfo.FAQs == nil {
		s.AdditionalInfo.FAQs = []FAQ{}
	}
}

// PublicSettings is what the invitation pages may read without a token.
type PublicSettings struct {
	EventName      string         `json:"eventName"`
	EventDate      Date           `json:"eventDate"`
	EventLocation  EventLocation  `json:"eventLocation"`
	RSVPDeadline   Date           `json:"rsvpDeadline"`
	Customization  Customization  `json:"customization"`
	AdditionalInfo AdditionalInfo `json:"additionalInfo"`
}

func (s Settings) Public() PublicSettings {
	return PublicSettings{
		EventName:      s.EventName,
		EventDate:      s.EventDate,
		EventLocation:  s.EventLocation,
		RSVPDeadline:   s.RSVPDeadline,
		Customization:  s.Customization,
		AdditionalInfo: s.AdditionalInfo,
	}
}
