package settings_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"wedding-rsvp/internal/logger"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/settings"
	"wedding-rsvp/internal/utils"
	"wedding-rsvp/internal/validation"
)

type Handler struct {
	Service *settings.Service
	Logger  *logger.Logger
}

func NewHandler(service *settings.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Service.Get(r.Context())
	if err != nil {
		h.writeErr(w, "Error fetching settings", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, s)
}

func (h *Handler) CreateSettings(w http.ResponseWriter, r *http.Request) {
	var in models.Settings
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	s, err := h.Service.Create(r.Context(), in)
	if err != nil {
		h.writeErr(w, "Error creating settings", err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CreateSettings: settings created for %q", s.EventName))
	utils.WriteJSON(w, http.StatusCreated, s)
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch json.RawMessage
	if err := utils.DecodeJSON(w, r, &patch); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	s, err := h.Service.Update(r.Context(), patch)
	if errors.Is(err, settings.ErrSettingsNotFound) {
		utils.WriteError(w, http.StatusNotFound, "Settings not found. Use POST to create initial settings.", "")
		return
	}
	if err != nil {
		h.writeErr(w, "Error updating settings", err)
		return
	}
	h.Logger.Info("API", "UpdateSettings: settings updated")
	utils.WriteJSON(w, http.StatusOK, s)
}

// GetInvitation serves the guest-facing subset without authentication.
func (h *Handler) GetInvitation(w http.ResponseWriter, r *http.Request) {
	pub, err := h.Service.Public(r.Context())
	if err != nil {
		h.writeErr(w, "Error fetching invitation", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, pub)
}

func (h *Handler) writeErr(w http.ResponseWriter, fallback string, err error) {
	var fe *validation.FieldError
	switch {
	case errors.Is(err, settings.ErrSettingsNotFound):
		utils.WriteError(w, http.StatusNotFound, "Settings not found", "")
	case errors.Is(err, settings.ErrSettingsExist):
		utils.WriteError(w, http.StatusBadRequest, "Settings already exist. Use PUT to update.", "")
	case errors.As(err, &fe):
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorBody{Message: fe.Message, Field: fe.Field})
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: %v", fallback, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(fallback, err))
	}
}
