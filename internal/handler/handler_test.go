package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/pawconnect-system/internal/middleware"
	"github.com/mmeshcher/pawconnect-system/internal/model"
	"github.com/mmeshcher/pawconnect-system/internal/repository"
	"github.com/mmeshcher/pawconnect-system/internal/service"
	"github.com/mmeshcher/pawconnect-system/internal/token"
)

type stubService struct {
	registerErr error
	loginErr    error

	user *model.User

	profileErr     error
	changePassErr  error
	upgradeErr     error
	updatedProfile *model.User

	services []model.Service
	svc      *model.Service
	svcErr   error

	events   []model.Event
	event    *model.Event
	eventErr error

	booking          *model.Booking
	bookings         []model.Booking
	createBookingErr error
	listBookingsErr  error
	cancelErr        error

	payment          *model.Payment
	payments         []model.Payment
	createPaymentErr error
}

func (s *stubService) Register(ctx context.Context, name, email, password string) (*model.User, string, error) {
	if s.registerErr != nil {
		return nil, "", s.registerErr
	}
	return &model.User{ID: 1, Name: name, Email: email}, "token", nil
}

func (s *stubService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	if s.loginErr != nil {
		return nil, "", s.loginErr
	}
	return s.user, "token", nil
}

func (s *stubService) GoogleAuth(ctx context.Context, credential, name, email, picture string) (*model.User, string, error) {
	return &model.User{ID: 2, Name: name, Email: email, AuthProvider: model.AuthProviderGoogle}, "token", nil
}

func (s *stubService) GetProfile(ctx context.Context, userID int64) (*model.User, error) {
	return s.user, s.profileErr
}

func (s *stubService) UpdateProfile(ctx context.Context, userID int64, patch repository.ProfilePatch) (*model.User, error) {
	if s.profileErr != nil {
		return nil, s.profileErr
	}
	return s.updatedProfile, nil
}

func (s *stubService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	return s.changePassErr
}

func (s *stubService) UpgradeToPremium(ctx context.Context, userID int64) error {
	return s.upgradeErr
}

func (s *stubService) ListServices(ctx context.Context, filter repository.ServiceFilter) ([]model.Service, error) {
	return s.services, nil
}

func (s *stubService) GetService(ctx context.Context, id int64) (*model.Service, error) {
	return s.svc, s.svcErr
}

func (s *stubService) CreateService(ctx context.Context, svc model.Service) (int64, error) {
	return 1, nil
}

func (s *stubService) ListEvents(ctx context.Context, callerIsPremium bool, premiumOnly *bool) ([]model.Event, error) {
	return s.events, nil
}

func (s *stubService) GetEvent(ctx context.Context, id int64, callerIsPremium bool) (*model.Event, error) {
	return s.event, s.eventErr
}

func (s *stubService) CreateEvent(ctx context.Context, e model.Event) (int64, error) {
	return 1, nil
}

func (s *stubService) CreateBooking(ctx context.Context, userID, serviceID int64, date time.Time, time12h string, petDetails json.RawMessage, notes string) (*model.Booking, error) {
	if s.createBookingErr != nil {
		return nil, s.createBookingErr
	}
	return s.booking, nil
}

func (s *stubService) ListBookings(ctx context.Context, userID int64, status *model.BookingStatus) ([]model.Booking, error) {
	if s.listBookingsErr != nil {
		return nil, s.listBookingsErr
	}
	return s.bookings, nil
}

func (s *stubService) GetBooking(ctx context.Context, userID, bookingID int64) (*model.Booking, error) {
	if s.booking == nil {
		return nil, repository.ErrBookingNotFound
	}
	return s.booking, nil
}

func (s *stubService) CancelBooking(ctx context.Context, userID, bookingID int64) error {
	return s.cancelErr
}

func (s *stubService) RecordPayment(ctx context.Context, userID int64, paymentType model.PaymentType, bookingID *int64, amountCents int64, method string) (*model.Payment, error) {
	if s.createPaymentErr != nil {
		return nil, s.createPaymentErr
	}
	return s.payment, nil
}

func (s *stubService) GetPaymentHistory(ctx context.Context, userID int64) ([]model.Payment, error) {
	return s.payments, nil
}

func (s *stubService) GetPayment(ctx context.Context, userID, paymentID int64) (*model.Payment, error) {
	if s.payment == nil {
		return nil, repository.ErrPaymentNotFound
	}
	return s.payment, nil
}

var testTokens = token.NewManager("test-secret", time.Hour)

func newTestRouter(s *stubService) http.Handler {
	h := NewHandler(s, zap.NewNop(), middleware.NewAuthMiddleware(testTokens), time.Minute)
	return h.SetupRouter()
}

func bearer(t *testing.T, userID int64, premium bool) string {
	t.Helper()
	raw, err := testTokens.Issue(userID, "user@example.com", premium)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return "Bearer " + raw
}

func doJSON(t *testing.T, router http.Handler, method, target, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}

	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	if auth != "" {
		r.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Count   *int            `json:"count"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode envelope %q: %v", w.Body.String(), err)
	}
	return e
}

func TestRegisterHandler(t *testing.T) {
	tests := []struct {
		name        string
		body        map[string]string
		registerErr error
		wantCode    int
		wantMessage string
	}{
		{
			name:        "success",
			body:        map[string]string{"name": "Alex", "email": "alex@example.com", "password": "secret1"},
			wantCode:    http.StatusCreated,
			wantMessage: "User registered successfully",
		},
		{
			name:        "duplicate email",
			body:        map[string]string{"name": "Alex", "email": "alex@example.com", "password": "secret1"},
			registerErr: repository.ErrEmailTaken,
			wantCode:    http.StatusBadRequest,
			wantMessage: "User with this email already exists",
		},
		{
			name:        "validation errors",
			body:        map[string]string{"name": "A", "email": "not-an-email", "password": "123"},
			wantCode:    http.StatusBadRequest,
			wantMessage: "Validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubService{registerErr: tt.registerErr})

			w := doJSON(t, router, http.MethodPost, "/api/auth/register", "", tt.body)

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d; body %s", w.Code, tt.wantCode, w.Body.String())
			}
			e := decodeEnvelope(t, w)
			if e.Message != tt.wantMessage {
				t.Fatalf("message = %q, want %q", e.Message, tt.wantMessage)
			}
			if tt.name == "validation errors" && len(e.Errors) != 3 {
				t.Fatalf("errors = %v, want 3 entries", e.Errors)
			}
		})
	}
}

func TestLoginHandler_InvalidCredentials(t *testing.T) {
	router := newTestRouter(&stubService{loginErr: service.ErrInvalidCredentials})

	w := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "a@example.com",
		"password": "wrong",
	})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if e := decodeEnvelope(t, w); e.Message != "Invalid email or password" {
		t.Fatalf("message = %q", e.Message)
	}
}

func TestCreateBookingHandler_PremiumGate(t *testing.T) {
	stub := &stubService{
		booking: &model.Booking{
			ID:              1,
			UserID:          1,
			Date:            time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
			Time:            "14:30",
			Status:          model.BookingStatusConfirmed,
			TotalPriceCents: 4500,
		},
	}
	router := newTestRouter(stub)

	body := map[string]any{
		"serviceId":   3,
		"bookingDate": "2026-10-01",
		"bookingTime": "2:30 PM",
	}

	t.Run("basic user blocked at the gate", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/bookings", bearer(t, 1, false), body)

		if w.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want %d; body %s", w.Code, http.StatusForbidden, w.Body.String())
		}
	})

	t.Run("premium user books", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/bookings", bearer(t, 1, true), body)

		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d; body %s", w.Code, http.StatusCreated, w.Body.String())
		}

		e := decodeEnvelope(t, w)
		var resp struct {
			BookingTime string  `json:"bookingTime"`
			TotalPrice  float64 `json:"totalPrice"`
			Status      string  `json:"status"`
		}
		if err := json.Unmarshal(e.Data, &resp); err != nil {
			t.Fatalf("decode data: %v", err)
		}
		if resp.BookingTime != "2:30 PM" {
			t.Fatalf("bookingTime = %q, want 2:30 PM", resp.BookingTime)
		}
		if resp.TotalPrice != 45 {
			t.Fatalf("totalPrice = %v, want 45", resp.TotalPrice)
		}
		if resp.Status != "confirmed" {
			t.Fatalf("status = %q, want confirmed", resp.Status)
		}
	})

	t.Run("anonymous rejected", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/bookings", "", body)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})
}

func TestCreateBookingHandler_Validation(t *testing.T) {
	router := newTestRouter(&stubService{})

	w := doJSON(t, router, http.MethodPost, "/api/bookings", bearer(t, 1, true), map[string]any{
		"serviceId":   0,
		"bookingDate": "10/01/2026",
		"bookingTime": "25:99",
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if e := decodeEnvelope(t, w); len(e.Errors) != 3 {
		t.Fatalf("errors = %v, want 3 entries", e.Errors)
	}
}

func TestCreateBookingHandler_ServiceNotFound(t *testing.T) {
	router := newTestRouter(&stubService{createBookingErr: repository.ErrServiceNotFound})

	w := doJSON(t, router, http.MethodPost, "/api/bookings", bearer(t, 1, true), map[string]any{
		"serviceId":   999,
		"bookingDate": "2026-10-01",
		"bookingTime": "2:30 PM",
	})

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestCancelBookingHandler(t *testing.T) {
	tests := []struct {
		name      string
		cancelErr error
		wantCode  int
	}{
		{name: "success", wantCode: http.StatusOK},
		{name: "not found", cancelErr: repository.ErrBookingNotFound, wantCode: http.StatusNotFound},
		{name: "already cancelled", cancelErr: repository.ErrBookingNotCancellable, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubService{cancelErr: tt.cancelErr})

			w := doJSON(t, router, http.MethodPatch, "/api/bookings/1/cancel", bearer(t, 1, true), nil)

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d; body %s", w.Code, tt.wantCode, w.Body.String())
			}
		})
	}
}

func TestCreatePaymentHandler(t *testing.T) {
	stub := &stubService{
		payment: &model.Payment{
			ID:            1,
			UserID:        1,
			AmountCents:   999,
			Type:          model.PaymentTypePremiumUpgrade,
			Method:        "card",
			TransactionID: "TXN1700000000000abcd1234",
			Status:        model.PaymentStatusCompleted,
		},
	}
	router := newTestRouter(stub)

	t.Run("premium upgrade", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/payments", bearer(t, 1, false), map[string]any{
			"amount":      9.99,
			"paymentType": "premium_upgrade",
		})

		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d; body %s", w.Code, http.StatusCreated, w.Body.String())
		}

		e := decodeEnvelope(t, w)
		var resp struct {
			Amount        float64 `json:"amount"`
			PaymentType   string  `json:"paymentType"`
			TransactionID string  `json:"transactionId"`
			Status        string  `json:"status"`
		}
		if err := json.Unmarshal(e.Data, &resp); err != nil {
			t.Fatalf("decode data: %v", err)
		}
		if resp.Amount != 9.99 {
			t.Fatalf("amount = %v, want 9.99", resp.Amount)
		}
		if resp.Status != "completed" {
			t.Fatalf("status = %q, want completed", resp.Status)
		}
	})

	t.Run("unknown payment type", func(t *testing.T) {
		router := newTestRouter(&stubService{createPaymentErr: service.ErrInvalidPaymentType})

		w := doJSON(t, router, http.MethodPost, "/api/payments", bearer(t, 1, false), map[string]any{
			"amount":      9.99,
			"paymentType": "subscription",
		})

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("non-positive amount", func(t *testing.T) {
		router := newTestRouter(&stubService{createPaymentErr: service.ErrInvalidAmount})

		w := doJSON(t, router, http.MethodPost, "/api/payments", bearer(t, 1, false), map[string]any{
			"amount":      0,
			"paymentType": "premium_upgrade",
		})

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

func TestGetServicesHandler(t *testing.T) {
	stub := &stubService{
		services: []model.Service{
			{ID: 1, Name: "Happy Paws Grooming", Type: model.ServiceTypeGrooming, BasePriceCents: 4500, PetTypes: []string{"dog", "cat"}},
			{ID: 2, Name: "City Vet Clinic", Type: model.ServiceTypeVeterinary, BasePriceCents: 7500, PetTypes: []string{"dog"}},
		},
	}
	router := newTestRouter(stub)

	w := doJSON(t, router, http.MethodGet, "/api/services?type=Grooming&petType=dog", "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	e := decodeEnvelope(t, w)
	if e.Count == nil || *e.Count != 2 {
		t.Fatalf("count = %v, want 2", e.Count)
	}
}

func TestGetServicesHandler_BadMinRating(t *testing.T) {
	router := newTestRouter(&stubService{})

	w := doJSON(t, router, http.MethodGet, "/api/services?minRating=abc", "", nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestGetEventByIDHandler_PremiumOnly(t *testing.T) {
	router := newTestRouter(&stubService{eventErr: service.ErrPremiumRequired})

	w := doJSON(t, router, http.MethodGet, "/api/events/5", bearer(t, 1, false), nil)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	want := "This event is only available for premium members"
	if e := decodeEnvelope(t, w); e.Message != want {
		t.Fatalf("message = %q, want %q", e.Message, want)
	}
}

func TestUpgradePremiumHandler(t *testing.T) {
	tests := []struct {
		name       string
		upgradeErr error
		wantCode   int
	}{
		{name: "success", wantCode: http.StatusOK},
		{name: "already premium", upgradeErr: repository.ErrAlreadyPremium, wantCode: http.StatusBadRequest},
		{name: "account deleted", upgradeErr: repository.ErrUserNotFound, wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubService{upgradeErr: tt.upgradeErr})

			w := doJSON(t, router, http.MethodPost, "/api/users/upgrade-premium", bearer(t, 1, true), nil)

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d; body %s", w.Code, tt.wantCode, w.Body.String())
			}
		})
	}
}

func TestChangePasswordHandler_WrongCurrent(t *testing.T) {
	router := newTestRouter(&stubService{changePassErr: service.ErrInvalidCredentials})

	w := doJSON(t, router, http.MethodPatch, "/api/users/change-password", bearer(t, 1, false), map[string]string{
		"currentPassword": "wrong",
		"newPassword":     "newpassword",
	})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if e := decodeEnvelope(t, w); e.Message != "Current password is incorrect" {
		t.Fatalf("message = %q", e.Message)
	}
}

func TestHealthHandler(t *testing.T) {
	router := newTestRouter(&stubService{})

	w := doJSON(t, router, http.MethodGet, "/api/health", "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if e := decodeEnvelope(t, w); !e.Success {
		t.Fatalf("success = false, body %s", w.Body.String())
	}
}

func TestRequestDeadlineExceeded(t *testing.T) {
	// Просроченный контекст (например, ожидание соединения из исчерпанного
	// пула БД) отдаётся как 503 в общем конверте, а не как 500.
	router := newTestRouter(&stubService{
		listBookingsErr: fmt.Errorf("select bookings: %w", context.DeadlineExceeded),
	})

	w := doJSON(t, router, http.MethodGet, "/api/bookings", bearer(t, 1, true), nil)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d; body %s", w.Code, http.StatusServiceUnavailable, w.Body.String())
	}
	want := "Server is busy. Please try again later."
	if e := decodeEnvelope(t, w); e.Success || e.Message != want {
		t.Fatalf("envelope = %+v, want message %q", e, want)
	}
}

func TestRouteNotFound(t *testing.T) {
	router := newTestRouter(&stubService{})

	w := doJSON(t, router, http.MethodGet, "/api/unknown", "", nil)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if e := decodeEnvelope(t, w); e.Message != "Route not found" {
		t.Fatalf("message = %q", e.Message)
	}
}
