// Package handler содержит HTTP-обработчики API сервиса PawConnect.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/pawconnect-system/internal/middleware"
	"github.com/mmeshcher/pawconnect-system/internal/model"
	"github.com/mmeshcher/pawconnect-system/internal/repository"
	"github.com/mmeshcher/pawconnect-system/internal/service"
	"github.com/mmeshcher/pawconnect-system/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Register(ctx context.Context, name, email, password string) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	GoogleAuth(ctx context.Context, credential, name, email, picture string) (*model.User, string, error)

	GetProfile(ctx context.Context, userID int64) (*model.User, error)
	UpdateProfile(ctx context.Context, userID int64, patch repository.ProfilePatch) (*model.User, error)
	ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error
	UpgradeToPremium(ctx context.Context, userID int64) error

	ListServices(ctx context.Context, filter repository.ServiceFilter) ([]model.Service, error)
	GetService(ctx context.Context, id int64) (*model.Service, error)
	CreateService(ctx context.Context, svc model.Service) (int64, error)
	ListEvents(ctx context.Context, callerIsPremium bool, premiumOnly *bool) ([]model.Event, error)
	GetEvent(ctx context.Context, id int64, callerIsPremium bool) (*model.Event, error)
	CreateEvent(ctx context.Context, e model.Event) (int64, error)

	CreateBooking(ctx context.Context, userID, serviceID int64, date time.Time, time12h string, petDetails json.RawMessage, notes string) (*model.Booking, error)
	ListBookings(ctx context.Context, userID int64, status *model.BookingStatus) ([]model.Booking, error)
	GetBooking(ctx context.Context, userID, bookingID int64) (*model.Booking, error)
	CancelBooking(ctx context.Context, userID, bookingID int64) error

	RecordPayment(ctx context.Context, userID int64, paymentType model.PaymentType, bookingID *int64, amountCents int64, method string) (*model.Payment, error)
	GetPaymentHistory(ctx context.Context, userID int64) ([]model.Payment, error)
	GetPayment(ctx context.Context, userID, paymentID int64) (*model.Payment, error)
}

// Handler реализует HTTP-обработчики API сервиса PawConnect.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	requestTimeout time.Duration
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, requestTimeout time.Duration) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		requestTimeout: requestTimeout,
	}
}

// response описывает единый конверт JSON-ответа.
type response struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Count   *int     `json:"count,omitempty"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, response{Success: true, Message: message, Data: data})
}

func respondList(w http.ResponseWriter, count int, data any) {
	writeJSON(w, http.StatusOK, response{Success: true, Count: &count, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, response{Success: false, Message: message})
}

func respondValidationErrors(w http.ResponseWriter, errs []string) {
	writeJSON(w, http.StatusBadRequest, response{
		Success: false,
		Message: "Validation failed",
		Errors:  errs,
	})
}

// internalError логирует неожиданную ошибку и возвращает ответ 500.
// Просроченный контекст запроса (исчерпанный пул БД, зависший запрос)
// отдаётся отдельно как 503: клиенту имеет смысл повторить позже.
func (h *Handler) internalError(w http.ResponseWriter, message string, err error, fields ...zap.Field) {
	if errors.Is(err, context.DeadlineExceeded) {
		h.logger.Warn("request timed out", append(fields, zap.Error(err))...)
		respondError(w, http.StatusServiceUnavailable, "Server is busy. Please try again later.")
		return
	}

	h.logger.Error(message, append(fields, zap.Error(err))...)
	respondError(w, http.StatusInternalServerError, message)
}

func identity(r *http.Request) (middleware.Identity, bool) {
	return middleware.IdentityFromContext(r.Context())
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// centsToAmount переводит денежную сумму из целых центов в значение для JSON.
func centsToAmount(cents int64) float64 {
	return float64(cents) / 100
}

func amountToCents(amount float64) int64 {
	return int64(amount*100 + 0.5)
}

type userResponse struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	IsPremium bool    `json:"isPremium"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
	CreatedAt string  `json:"createdAt,omitempty"`
}

func newUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		IsPremium: u.IsPremium,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

type bookingResponse struct {
	ID              int64           `json:"id"`
	ServiceID       *int64          `json:"serviceId"`
	ServiceName     *string         `json:"serviceName,omitempty"`
	ServiceType     *string         `json:"serviceType,omitempty"`
	ServiceLocation *string         `json:"serviceLocation,omitempty"`
	ServiceImage    *string         `json:"serviceImage,omitempty"`
	BookingDate     string          `json:"bookingDate"`
	BookingTime     string          `json:"bookingTime"`
	TotalPrice      float64         `json:"totalPrice"`
	Status          string          `json:"status"`
	Notes           string          `json:"notes,omitempty"`
	PetDetails      json.RawMessage `json:"petDetails,omitempty"`
	CreatedAt       string          `json:"createdAt"`
}

func newBookingResponse(b *model.Booking) bookingResponse {
	// Время хранится в 24-часовом формате, наружу отдаётся 12-часовое.
	displayTime, err := validation.To12Hour(b.Time)
	if err != nil {
		displayTime = b.Time
	}

	return bookingResponse{
		ID:              b.ID,
		ServiceID:       b.ServiceID,
		ServiceName:     b.ServiceName,
		ServiceType:     b.ServiceType,
		ServiceLocation: b.ServiceLocation,
		ServiceImage:    b.ServiceImage,
		BookingDate:     b.Date.Format("2006-01-02"),
		BookingTime:     displayTime,
		TotalPrice:      centsToAmount(b.TotalPriceCents),
		Status:          string(b.Status),
		Notes:           b.Notes,
		PetDetails:      b.PetDetails,
		CreatedAt:       b.CreatedAt.Format(time.RFC3339),
	}
}

type paymentResponse struct {
	ID            int64   `json:"id"`
	BookingID     *int64  `json:"bookingId,omitempty"`
	ServiceName   *string `json:"serviceName,omitempty"`
	BookingDate   *string `json:"bookingDate,omitempty"`
	BookingTime   *string `json:"bookingTime,omitempty"`
	Amount        float64 `json:"amount"`
	PaymentType   string  `json:"paymentType"`
	PaymentMethod string  `json:"paymentMethod"`
	TransactionID string  `json:"transactionId"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"createdAt"`
}

func newPaymentResponse(p *model.Payment) paymentResponse {
	resp := paymentResponse{
		ID:            p.ID,
		BookingID:     p.BookingID,
		ServiceName:   p.ServiceName,
		Amount:        centsToAmount(p.AmountCents),
		PaymentType:   string(p.Type),
		PaymentMethod: p.Method,
		TransactionID: p.TransactionID,
		Status:        string(p.Status),
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}

	if p.BookingDate != nil {
		d := p.BookingDate.Format("2006-01-02")
		resp.BookingDate = &d
	}
	if p.BookingTime != nil {
		if t, err := validation.To12Hour(*p.BookingTime); err == nil {
			resp.BookingTime = &t
		} else {
			resp.BookingTime = p.BookingTime
		}
	}

	return resp
}

type serviceResponse struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Rating      float64  `json:"rating"`
	Reviews     int      `json:"reviews"`
	Location    string   `json:"location"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	PriceRange  string   `json:"priceRange"`
	BasePrice   float64  `json:"basePrice"`
	Verified    bool     `json:"verified"`
	PetTypes    []string `json:"petTypes"`
	Image       string   `json:"image,omitempty"`
	Description string   `json:"description,omitempty"`
}

func newServiceResponse(s *model.Service) serviceResponse {
	return serviceResponse{
		ID:          s.ID,
		Name:        s.Name,
		Type:        string(s.Type),
		Rating:      s.Rating,
		Reviews:     s.Reviews,
		Location:    s.Location,
		Lat:         s.Latitude,
		Lng:         s.Longitude,
		PriceRange:  s.PriceRange,
		BasePrice:   centsToAmount(s.BasePriceCents),
		Verified:    s.Verified,
		PetTypes:    s.PetTypes,
		Image:       s.ImageURL,
		Description: s.Description,
	}
}

type eventResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	PremiumOnly bool   `json:"premiumOnly"`
	Image       string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
}

func newEventResponse(e *model.Event) eventResponse {
	return eventResponse{
		ID:          e.ID,
		Title:       e.Title,
		Date:        e.Date.Format("2006-01-02"),
		Location:    e.Location,
		PremiumOnly: e.PremiumOnly,
		Image:       e.ImageURL,
		Description: e.Description,
	}
}

type authPayload struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register обрабатывает регистрацию нового пользователя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	var errs []string
	if !validation.IsValidName(req.Name) {
		errs = append(errs, "Name must be between 2 and 100 characters")
	}
	if !validation.IsValidEmail(req.Email) {
		errs = append(errs, "Please provide a valid email")
	}
	if !validation.IsValidPassword(req.Password) {
		errs = append(errs, "Password must be at least 6 characters long")
	}
	if len(errs) > 0 {
		respondValidationErrors(w, errs)
		return
	}

	u, tok, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			respondError(w, http.StatusBadRequest, "User with this email already exists")
			return
		}
		h.internalError(w, "Error registering user", err)
		return
	}

	respondData(w, http.StatusCreated, "User registered successfully", authPayload{
		User:  newUserResponse(u),
		Token: tok,
	})
}

// Login выполняет аутентификацию пользователя и выпуск токена доступа.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	u, tok, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		h.internalError(w, "Error logging in", err)
		return
	}

	respondData(w, http.StatusOK, "Login successful", authPayload{
		User:  newUserResponse(u),
		Token: tok,
	})
}

type googleAuthRequest struct {
	Credential string `json:"credential"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Picture    string `json:"picture"`
}

// GoogleAuth выполняет вход или регистрацию через аккаунт Google.
func (h *Handler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	var req googleAuthRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "Email is required for Google authentication")
		return
	}

	u, tok, err := h.service.GoogleAuth(r.Context(), req.Credential, req.Name, req.Email, req.Picture)
	if err != nil {
		h.internalError(w, "Error with Google authentication", err)
		return
	}

	respondData(w, http.StatusOK, "Google authentication successful", authPayload{
		User:  newUserResponse(u),
		Token: tok,
	})
}

// Me возвращает данные текущего пользователя.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	u, err := h.service.GetProfile(r.Context(), ident.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		h.internalError(w, "Error fetching user data", err, zap.Int64("userID", ident.UserID))
		return
	}

	respondData(w, http.StatusOK, "", newUserResponse(u))
}

// Health возвращает состояние сервиса.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, "PawConnect API is running", map[string]string{
		"status": "healthy",
	})
}
