package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/pawconnect-system/internal/model"
	"github.com/mmeshcher/pawconnect-system/internal/repository"
	"github.com/mmeshcher/pawconnect-system/internal/service"
	"github.com/mmeshcher/pawconnect-system/internal/validation"
)

type createBookingRequest struct {
	ServiceID   int64           `json:"serviceId"`
	BookingDate string          `json:"bookingDate"`
	BookingTime string          `json:"bookingTime"`
	PetDetails  json.RawMessage `json:"petDetails,omitempty"`
	Notes       string          `json:"notes,omitempty"`
}

// CreateBooking создаёт бронирование услуги для текущего пользователя.
// Требует премиум-статус; стоимость фиксируется по текущей цене услуги.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	var req createBookingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var errs []string
	if req.ServiceID <= 0 {
		errs = append(errs, "Service ID is required")
	}
	date, err := time.Parse("2006-01-02", req.BookingDate)
	if err != nil {
		errs = append(errs, "Please provide a valid date")
	}
	if !validation.IsValidBookingTime(req.BookingTime) {
		errs = append(errs, "Please provide a valid time (e.g., 11:30 AM)")
	}
	if len(errs) > 0 {
		respondValidationErrors(w, errs)
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), ident.UserID, req.ServiceID, date, req.BookingTime, req.PetDetails, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrServiceNotFound):
			respondError(w, http.StatusNotFound, "Service not found")
		case errors.Is(err, service.ErrPremiumRequired):
			respondError(w, http.StatusForbidden, "This feature requires a premium membership.")
		case errors.Is(err, validation.ErrInvalidTime):
			respondError(w, http.StatusBadRequest, "Please provide a valid time (e.g., 11:30 AM)")
		default:
			h.internalError(w, "Error creating booking", err, zap.Int64("userID", ident.UserID))
		}
		return
	}

	respondData(w, http.StatusCreated, "Booking created successfully", newBookingResponse(booking))
}

// GetBookings возвращает бронирования текущего пользователя
// с необязательным фильтром по статусу.
func (h *Handler) GetBookings(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	var status *model.BookingStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := model.BookingStatus(raw)
		if !model.ValidBookingStatus(s) {
			respondError(w, http.StatusBadRequest, "Invalid booking status")
			return
		}
		status = &s
	}

	bookings, err := h.service.ListBookings(r.Context(), ident.UserID, status)
	if err != nil {
		h.internalError(w, "Error fetching bookings", err, zap.Int64("userID", ident.UserID))
		return
	}

	resp := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, newBookingResponse(&bookings[i]))
	}

	respondList(w, len(resp), resp)
}

// GetBookingByID возвращает бронирование текущего пользователя по идентификатору.
func (h *Handler) GetBookingByID(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusNotFound, "Booking not found")
		return
	}

	booking, err := h.service.GetBooking(r.Context(), ident.UserID, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			respondError(w, http.StatusNotFound, "Booking not found")
			return
		}
		h.internalError(w, "Error fetching booking", err, zap.Int64("bookingID", id))
		return
	}

	respondData(w, http.StatusOK, "", newBookingResponse(booking))
}

// CancelBooking отменяет бронирование текущего пользователя.
// Повторная отмена и отмена завершённого бронирования недопустимы.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusNotFound, "Booking not found")
		return
	}

	err = h.service.CancelBooking(r.Context(), ident.UserID, id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			respondError(w, http.StatusNotFound, "Booking not found")
		case errors.Is(err, repository.ErrBookingNotCancellable):
			respondError(w, http.StatusBadRequest, "Booking cannot be cancelled")
		default:
			h.internalError(w, "Error cancelling booking", err, zap.Int64("bookingID", id))
		}
		return
	}

	respondData(w, http.StatusOK, "Booking cancelled successfully", nil)
}
