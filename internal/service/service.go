// Package service реализует бизнес-логику сервиса PawConnect.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/pawconnect-system/internal/model"
	"github.com/mmeshcher/pawconnect-system/internal/repository"
	"github.com/mmeshcher/pawconnect-system/internal/token"
	"github.com/mmeshcher/pawconnect-system/internal/validation"
)

// ErrInvalidCredentials возвращается при неверной паре логин-пароль.
// Намеренно не различает отсутствующий адрес и неверный пароль.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPremiumRequired возвращается при попытке премиум-действия без премиум-статуса.
	ErrPremiumRequired = errors.New("premium membership required")
	// ErrInvalidPaymentType возвращается для неизвестного назначения платежа.
	ErrInvalidPaymentType = errors.New("invalid payment type")
	// ErrInvalidAmount возвращается для неположительной суммы платежа.
	ErrInvalidAmount = errors.New("payment amount must be positive")
	// ErrEmptyPatch возвращается, если обновление профиля не содержит полей.
	ErrEmptyPatch = errors.New("no fields to update")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateUser(ctx context.Context, name, email string, passwordHash []byte) (*model.User, error)
	CreateGoogleUser(ctx context.Context, name, email, googleID, avatarURL string) (*model.User, error)
	LinkGoogleAccount(ctx context.Context, userID int64, googleID, avatarURL string) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	UpdateProfile(ctx context.Context, userID int64, patch repository.ProfilePatch) (*model.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash []byte) error
	SetPremium(ctx context.Context, userID int64) (bool, error)

	ListServices(ctx context.Context, filter repository.ServiceFilter) ([]model.Service, error)
	GetServiceByID(ctx context.Context, id int64) (*model.Service, error)
	CreateService(ctx context.Context, s model.Service) (int64, error)
	ListEvents(ctx context.Context, includePremium bool, premiumOnly *bool) ([]model.Event, error)
	GetEventByID(ctx context.Context, id int64) (*model.Event, error)
	CreateEvent(ctx context.Context, e model.Event) (int64, error)

	CreateBooking(ctx context.Context, p repository.BookingParams) (*model.Booking, error)
	GetBookingsByUser(ctx context.Context, userID int64, status *model.BookingStatus) ([]model.Booking, error)
	GetBookingByID(ctx context.Context, userID, bookingID int64) (*model.Booking, error)
	CancelBooking(ctx context.Context, userID, bookingID int64) error

	CreatePayment(ctx context.Context, p repository.PaymentParams) (*model.Payment, error)
	GetPaymentsByUser(ctx context.Context, userID int64) ([]model.Payment, error)
	GetPaymentByID(ctx context.Context, userID, paymentID int64) (*model.Payment, error)
}

// Service содержит бизнес-логику сервиса PawConnect.
type Service struct {
	repo   Repository
	tokens *token.Manager
}

// NewService создаёт новый сервис с указанным репозиторием и менеджером токенов.
func NewService(repo Repository, tokens *token.Manager) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Register регистрирует нового пользователя и выпускает токен доступа.
// Хранится только односторонний хеш пароля.
func (s *Service) Register(ctx context.Context, name, email, password string) (*model.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	u, err := s.repo.CreateUser(ctx, name, email, hash)
	if err != nil {
		return nil, "", err
	}

	return s.issueToken(u)
}

// Login проверяет учётные данные и выпускает токен доступа.
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if len(u.PasswordHash) == 0 {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	return s.issueToken(u)
}

// GoogleAuth выполняет вход через внешний аккаунт Google. Существующий
// пользователь с тем же адресом почты привязывается к аккаунту идемпотентно,
// новый создаётся без локального пароля.
func (s *Service) GoogleAuth(ctx context.Context, credential, name, email, picture string) (*model.User, string, error) {
	u, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if u.AuthProvider != model.AuthProviderGoogle {
			if err := s.repo.LinkGoogleAccount(ctx, u.ID, credential, picture); err != nil {
				return nil, "", err
			}
			u.AuthProvider = model.AuthProviderGoogle
		}
	case errors.Is(err, repository.ErrUserNotFound):
		u, err = s.repo.CreateGoogleUser(ctx, name, email, credential, picture)
		if err != nil {
			return nil, "", err
		}
	default:
		return nil, "", err
	}

	return s.issueToken(u)
}

func (s *Service) issueToken(u *model.User) (*model.User, string, error) {
	t, err := s.tokens.Issue(u.ID, u.Email, u.IsPremium)
	if err != nil {
		return nil, "", err
	}
	return u, t, nil
}

// GetProfile возвращает профиль пользователя.
func (s *Service) GetProfile(ctx context.Context, userID int64) (*model.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

// UpdateProfile обновляет профиль пользователя по явному патчу полей.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, patch repository.ProfilePatch) (*model.User, error) {
	if patch.Empty() {
		return nil, ErrEmptyPatch
	}
	return s.repo.UpdateProfile(ctx, userID, patch)
}

// ChangePassword заменяет пароль пользователя после проверки текущего.
func (s *Service) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if len(u.PasswordHash) == 0 {
		return ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.repo.UpdatePassword(ctx, userID, hash)
}

// UpgradeToPremium выставляет премиум-статус пользователя.
// Повторное повышение уже премиум-пользователя считается конфликтом.
func (s *Service) UpgradeToPremium(ctx context.Context, userID int64) error {
	changed, err := s.repo.SetPremium(ctx, userID)
	if err != nil {
		return err
	}
	if !changed {
		return repository.ErrAlreadyPremium
	}
	return nil
}

// ListServices возвращает услуги каталога по набору фильтров.
func (s *Service) ListServices(ctx context.Context, filter repository.ServiceFilter) ([]model.Service, error) {
	return s.repo.ListServices(ctx, filter)
}

// GetService возвращает услугу по идентификатору.
func (s *Service) GetService(ctx context.Context, id int64) (*model.Service, error) {
	return s.repo.GetServiceByID(ctx, id)
}

// CreateService добавляет новую услугу в каталог.
func (s *Service) CreateService(ctx context.Context, svc model.Service) (int64, error) {
	return s.repo.CreateService(ctx, svc)
}

// ListEvents возвращает события с учётом премиум-видимости: пользователь без
// премиума не видит события premium_only независимо от явного фильтра.
func (s *Service) ListEvents(ctx context.Context, callerIsPremium bool, premiumOnly *bool) ([]model.Event, error) {
	return s.repo.ListEvents(ctx, callerIsPremium, premiumOnly)
}

// GetEvent возвращает событие по идентификатору. Событие premium_only
// недоступно пользователю без премиум-статуса.
func (s *Service) GetEvent(ctx context.Context, id int64, callerIsPremium bool) (*model.Event, error) {
	e, err := s.repo.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.PremiumOnly && !callerIsPremium {
		return nil, ErrPremiumRequired
	}
	return e, nil
}

// CreateEvent добавляет новое событие.
func (s *Service) CreateEvent(ctx context.Context, e model.Event) (int64, error) {
	return s.repo.CreateEvent(ctx, e)
}

// CreateBooking создаёт бронирование услуги. Премиум-статус перепроверяется
// по хранилищу, а не по утверждению токена: утверждение могло устареть.
// Стоимость фиксируется снимком текущей базовой цены услуги.
func (s *Service) CreateBooking(ctx context.Context, userID, serviceID int64, date time.Time, time12h string, petDetails json.RawMessage, notes string) (*model.Booking, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsPremium {
		return nil, ErrPremiumRequired
	}

	svc, err := s.repo.GetServiceByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	time24, err := validation.To24Hour(time12h)
	if err != nil {
		return nil, err
	}

	return s.repo.CreateBooking(ctx, repository.BookingParams{
		UserID:          userID,
		ServiceID:       serviceID,
		Date:            date,
		Time24:          time24,
		Status:          model.BookingStatusConfirmed,
		TotalPriceCents: svc.BasePriceCents,
		Notes:           notes,
		PetDetails:      petDetails,
	})
}

// ListBookings возвращает бронирования пользователя с необязательным фильтром по статусу.
func (s *Service) ListBookings(ctx context.Context, userID int64, status *model.BookingStatus) ([]model.Booking, error) {
	return s.repo.GetBookingsByUser(ctx, userID, status)
}

// GetBooking возвращает бронирование пользователя по идентификатору.
func (s *Service) GetBooking(ctx context.Context, userID, bookingID int64) (*model.Booking, error) {
	return s.repo.GetBookingByID(ctx, userID, bookingID)
}

// CancelBooking отменяет бронирование пользователя. Отмена не создаёт
// возврат платежа: возврат — отдельная операция платёжного контура.
func (s *Service) CancelBooking(ctx context.Context, userID, bookingID int64) error {
	return s.repo.CancelBooking(ctx, userID, bookingID)
}

// RecordPayment записывает платёж. Платёж premium_upgrade не ссылается на
// бронирование и атомарно с записью платежа выставляет премиум-флаг.
func (s *Service) RecordPayment(ctx context.Context, userID int64, paymentType model.PaymentType, bookingID *int64, amountCents int64, method string) (*model.Payment, error) {
	if !model.ValidPaymentType(paymentType) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentType, paymentType)
	}
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	if method == "" {
		method = "card"
	}
	if paymentType == model.PaymentTypePremiumUpgrade {
		bookingID = nil
	}

	return s.repo.CreatePayment(ctx, repository.PaymentParams{
		UserID:        userID,
		BookingID:     bookingID,
		AmountCents:   amountCents,
		Type:          paymentType,
		Method:        method,
		TransactionID: newTransactionID(),
	})
}

// newTransactionID генерирует идентификатор транзакции: отметка времени
// плюс случайный суффикс. Глобальная уникальность не гарантируется
// криптографически и не требуется.
func newTransactionID() string {
	return "TXN" + strconv.FormatInt(time.Now().UnixMilli(), 10) + uuid.NewString()[:8]
}

// GetPaymentHistory возвращает историю платежей пользователя.
func (s *Service) GetPaymentHistory(ctx context.Context, userID int64) ([]model.Payment, error) {
	return s.repo.GetPaymentsByUser(ctx, userID)
}

// GetPayment возвращает платёж пользователя по идентификатору.
func (s *Service) GetPayment(ctx context.Context, userID, paymentID int64) (*model.Payment, error) {
	return s.repo.GetPaymentByID(ctx, userID, paymentID)
}
