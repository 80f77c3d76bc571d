package reservation_api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"wedding-rsvp/internal/logger"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/reservation"
	"wedding-rsvp/internal/reservation/qr"
	"wedding-rsvp/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *reservation.Service
	QR      *qr.Generator
	// Stream serves GET /api/admin/reservations/stream when set.
	Stream http.Handler
	Logger *logger.Logger
	now    func() time.Time
}

func NewHandler(service *reservation.Service, qrGen *qr.Generator, stream http.Handler, log *logger.Logger) *Handler {
	return &Handler{Service: service, QR: qrGen, Stream: stream, Logger: log, now: time.Now}
}

// RegisterPublicRoutes mounts the guest-facing routes under /api/reservations.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/", h.Verify)
	r.Post("/", h.LegacySubmit)
	r.Get("/{controlNumber}", h.GetByControlNumber)
	r.Patch("/{controlNumber}", h.Submit)
}

// RegisterAdminRoutes mounts the admin routes. The caller applies the auth
// middleware.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/admin/reservations", func(r chi.Router) {
		r.Get("/", h.ListReservations)
		r.Get("/export", h.Export)
		if h.Stream != nil {
			r.Method(http.MethodGet, "/stream", h.Stream)
		}
		r.Get("/{controlNumber}/qr", h.QRCode)
	})
	r.Route("/guests", func(r chi.Router) {
		r.Get("/", h.ListGuests)
		r.Post("/", h.CreateGuest)
		r.Get("/{id}", h.GetGuest)
		r.Put("/{id}", h.UpdateGuest)
		r.Delete("/{id}", h.DeleteGuest)
	})
}

// ---------------- PUBLIC ----------------

type verifyResponse struct {
	ID                 string                   `json:"_id"`
	ControlNumber      models.ControlNumberData `json:"control_number"`
	Submitted          bool                     `json:"submitted"`
	SubmittedAt        *time.Time               `json:"submittedAt"`
	ExpirationNumber   *time.Time               `json:"expiration_number,omitempty"`
	DistributionNumber *time.Time               `json:"distribution_number,omitempty"`
	CreatedAt          time.Time                `json:"createdAt"`
	UpdatedAt          time.Time                `json:"updatedAt"`
}

// Verify looks up ?controlNumber= and reports whether it was submitted.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	controlNumber := r.URL.Query().Get("controlNumber")
	if controlNumber == "" {
		utils.WriteError(w, http.StatusBadRequest, "Control number is required", "")
		return
	}

	res, data, err := h.Service.Verify(r.Context(), controlNumber)
	if err != nil {
		h.writeErr(w, "Error fetching reservation", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, verifyResponse{
		ID:                 res.ID,
		ControlNumber:      data,
		Submitted:          data.Submitted,
		SubmittedAt:        data.SubmittedAt,
		ExpirationNumber:   res.ExpirationNumber,
		DistributionNumber: res.DistributionNumber,
		CreatedAt:          res.CreatedAt,
		UpdatedAt:          res.UpdatedAt,
	})
}

func (h *Handler) GetByControlNumber(w http.ResponseWriter, r *http.Request) {
	controlNumber := chi.URLParam(r, "controlNumber")

	_, data, err := h.Service.Verify(r.Context(), controlNumber)
	if err != nil {
		h.writeErr(w, "Error fetching reservation", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"control_number": map[string]models.ControlNumberData{controlNumber: data},
	})
}

type submitRequest struct {
	ControlNumber string             `json:"control_number"`
	GuestInfo     []models.GuestInfo `json:"guest_info"`
}

type submitData struct {
	ControlNumber string     `json:"control_number"`
	Submitted     bool       `json:"submitted"`
	SubmittedAt   *time.Time `json:"submittedAt"`
}

// Submit finalizes the guest list of the control number in the path.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	controlNumber := chi.URLParam(r, "controlNumber")

	var req submitRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	data, err := h.Service.Submit(r.Context(), controlNumber, req.GuestInfo)
	if err != nil {
		h.writeErr(w, "Error updating reservation", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.MessageResponse{
		Message: "Reservation updated successfully",
		Data: submitData{
			ControlNumber: controlNumber,
			Submitted:     data.Submitted,
			SubmittedAt:   data.SubmittedAt,
		},
	})
}

// LegacySubmit accepts the control number in the body and applies the same
// rules as Submit.
func (h *Handler) LegacySubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil || req.ControlNumber == "" || req.GuestInfo == nil {
		utils.WriteError(w, http.StatusBadRequest, "Control number and guest info are required", "")
		return
	}

	data, err := h.Service.Submit(r.Context(), req.ControlNumber, req.GuestInfo)
	if err != nil {
		h.writeErr(w, "Error processing reservation", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Guests added successfully",
		"reservation": data,
		"submitted":   true,
	})
}

// ---------------- ERRORS ----------------

func (h *Handler) writeErr(w http.ResponseWriter, fallback string, err error) {
	var (
		already *reservation.AlreadySubmittedError
		maxErr  *reservation.MaxGuestsError
		invalid *reservation.ValidationError
	)
	switch {
	case errors.Is(err, models.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, "Reservation not found", "")
	case errors.Is(err, models.ErrInvalidID):
		utils.WriteError(w, http.StatusBadRequest, "Invalid reservation ID format", "")
	case errors.As(err, &already):
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorBody{
			Message:     "This reservation has already been submitted",
			Submitted:   true,
			SubmittedAt: already.SubmittedAt,
		})
	case errors.As(err, &maxErr):
		utils.WriteError(w, http.StatusBadRequest,
			fmt.Sprintf("Cannot exceed the maximum number of guests (%d)", maxErr.Max), "")
	case errors.Is(err, reservation.ErrNoGuestInfo):
		utils.WriteError(w, http.StatusBadRequest, "No guest information provided", "")
	case errors.As(err, &invalid):
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorBody{Message: invalid.Message, Field: invalid.Field})
	case errors.Is(err, models.ErrDuplicateControlNumber):
		utils.WriteError(w, http.StatusConflict, "Control number already assigned to another reservation", "")
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: %v", fallback, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse(fallback, err))
	}
}
