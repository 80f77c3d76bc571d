package reservation_api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/reservation"
	"wedding-rsvp/internal/reservation/export"
	"wedding-rsvp/internal/utils"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListReservations(r.Context())
	if errors.Is(err, models.ErrNotFound) {
		utils.WriteError(w, http.StatusNotFound, "No reservations found", "")
		return
	}
	if err != nil {
		h.writeErr(w, "Error fetching reservations", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

// filterFromQuery reads status, search, sort, order, page and limit.
// Malformed numbers are ignored.
func filterFromQuery(r *http.Request) reservation.GuestFilter {
	q := r.URL.Query()
	f := reservation.GuestFilter{
		Status: q.Get("status"),
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
		Desc:   strings.EqualFold(q.Get("order"), "desc"),
	}
	if n, err := strconv.Atoi(q.Get("page")); err == nil {
		f.Page = n
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil {
		f.Limit = n
	}
	return f
}

// ListGuests returns one record per control number. X-Total-Count carries
// the number of matches before pagination.
func (h *Handler) ListGuests(w http.ResponseWriter, r *http.Request) {
	records, total, err := h.Service.ListGuests(r.Context(), filterFromQuery(r))
	if err != nil {
		h.writeErr(w, "Error fetching guest records", err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	utils.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.GuestRows(r.Context(), filterFromQuery(r))
	if err != nil {
		h.writeErr(w, "Error exporting reservations", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, rows); err != nil {
		h.writeErr(w, "Error exporting reservations", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(h.now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
	h.Logger.Info("API", fmt.Sprintf("Export: %d row(s)", len(rows)))
}

func (h *Handler) QRCode(w http.ResponseWriter, r *http.Request) {
	controlNumber := chi.URLParam(r, "controlNumber")
	if _, _, err := h.Service.Verify(r.Context(), controlNumber); err != nil {
		h.writeErr(w, "Error generating QR code", err)
		return
	}

	png, err := h.QR.PNG(controlNumber)
	if err != nil {
		h.writeErr(w, "Error generating QR code", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handler) CreateGuest(w http.ResponseWriter, r *http.Request) {
	var in models.ReservationInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	res, err := h.Service.CreateReservation(r.Context(), in)
	if err != nil {
		h.writeErr(w, "Error creating reservation", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, res)
}

// GetGuest returns the reservation, narrowed to ?control= when given.
func (h *Handler) GetGuest(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.GetReservation(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("control"))
	if err != nil {
		h.writeErr(w, "Error fetching reservation", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) UpdateGuest(w http.ResponseWriter, r *http.Request) {
	var in models.ReservationInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	res, err := h.Service.UpdateReservation(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeErr(w, "Error updating reservation", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) DeleteGuest(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteReservation(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeErr(w, "Error deleting reservation", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
