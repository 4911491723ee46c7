package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/pawconnect-system/internal/model"
	"github.com/mmeshcher/pawconnect-system/internal/repository"
	"github.com/mmeshcher/pawconnect-system/internal/service"
)

type createPaymentRequest struct {
	BookingID     *int64  `json:"bookingId,omitempty"`
	Amount        float64 `json:"amount"`
	PaymentType   string  `json:"paymentType"`
	PaymentMethod string  `json:"paymentMethod,omitempty"`
}

// CreatePayment записывает платёж текущего пользователя. Платёж
// premium_upgrade дополнительно выставляет премиум-статус пользователя.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	var req createPaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// Назначение по умолчанию — оплата бронирования, как в клиенте.
	paymentType := model.PaymentTypeBooking
	if req.PaymentType != "" {
		paymentType = model.PaymentType(req.PaymentType)
	}

	payment, err := h.service.RecordPayment(r.Context(), ident.UserID, paymentType, req.BookingID, amountToCents(req.Amount), req.PaymentMethod)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPaymentType):
			respondError(w, http.StatusBadRequest, "Invalid payment type")
		case errors.Is(err, service.ErrInvalidAmount):
			respondError(w, http.StatusBadRequest, "Payment amount must be positive")
		case errors.Is(err, repository.ErrBookingNotFound):
			respondError(w, http.StatusNotFound, "Booking not found")
		default:
			h.internalError(w, "Error processing payment", err, zap.Int64("userID", ident.UserID))
		}
		return
	}

	respondData(w, http.StatusCreated, "Payment processed successfully", newPaymentResponse(payment))
}

// GetPaymentHistory возвращает историю платежей текущего пользователя.
func (h *Handler) GetPaymentHistory(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	payments, err := h.service.GetPaymentHistory(r.Context(), ident.UserID)
	if err != nil {
		h.internalError(w, "Error fetching payment history", err, zap.Int64("userID", ident.UserID))
		return
	}

	resp := make([]paymentResponse, 0, len(payments))
	for i := range payments {
		resp = append(resp, newPaymentResponse(&payments[i]))
	}

	respondList(w, len(resp), resp)
}

// GetPaymentByID возвращает платёж текущего пользователя по идентификатору.
func (h *Handler) GetPaymentByID(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusNotFound, "Payment not found")
		return
	}

	payment, err := h.service.GetPayment(r.Context(), ident.UserID, id)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			respondError(w, http.StatusNotFound, "Payment not found")
			return
		}
		h.internalError(w, "Error fetching payment", err, zap.Int64("paymentID", id))
		return
	}

	respondData(w, http.StatusOK, "", newPaymentResponse(payment))
}
