// Package model содержит доменные сущности сервиса PawConnect.
package model

import (
	"encoding/json"
	"time"
)

// AuthProvider описывает способ регистрации пользователя.
type AuthProvider string

const (
	AuthProviderLocal  AuthProvider = "local"
	AuthProviderGoogle AuthProvider = "google"
)

// User представляет зарегистрированного пользователя маркетплейса.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash []byte
	GoogleID     *string
	AuthProvider AuthProvider
	AvatarURL    *string
	IsPremium    bool
	CreatedAt    time.Time
}

// ServiceType описывает тип услуги из фиксированного перечня.
type ServiceType string

const (
	ServiceTypeGrooming   ServiceType = "Grooming"
	ServiceTypeVeterinary ServiceType = "Veterinary"
	ServiceTypeTraining   ServiceType = "Training"
	ServiceTypeBoarding   ServiceType = "Boarding"
	ServiceTypeWalking    ServiceType = "Walking"
)

// Service описывает бронируемую услугу каталога.
type Service struct {
	ID             int64
	Name           string
	Type           ServiceType
	Rating         float64
	Reviews        int
	Location       string
	Latitude       float64
	Longitude      float64
	PriceRange     string
	BasePriceCents int64
	Verified       bool
	PetTypes       []string
	ImageURL       string
	Description    string
}

// Event описывает событие сообщества.
type Event struct {
	ID          int64
	Title       string
	Date        time.Time
	Location    string
	PremiumOnly bool
	ImageURL    string
	Description string
}

// BookingStatus описывает статус бронирования.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// ValidBookingStatus сообщает, входит ли значение в перечень статусов бронирования.
func ValidBookingStatus(s BookingStatus) bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// CanTransition сообщает, допустим ли переход бронирования из статуса from в статус to.
// Терминальные статусы completed и cancelled переходов не допускают.
func (from BookingStatus) CanTransition(to BookingStatus) bool {
	switch from {
	case BookingStatusPending:
		return to == BookingStatusConfirmed || to == BookingStatusCancelled
	case BookingStatusConfirmed:
		return to == BookingStatusCompleted || to == BookingStatusCancelled
	}
	return false
}

// Booking представляет одно бронирование услуги пользователем.
// Стоимость фиксируется на момент создания и далее не пересчитывается.
type Booking struct {
	ID              int64
	UserID          int64
	ServiceID       *int64
	Date            time.Time
	Time            string
	Status          BookingStatus
	TotalPriceCents int64
	Notes           string
	PetDetails      json.RawMessage
	CreatedAt       time.Time

	// Денормализованные поля услуги для отображения. Заполняются
	// соединением при каждом чтении; услуга могла быть удалена.
	ServiceName     *string
	ServiceType     *string
	ServiceLocation *string
	ServiceImage    *string
}

// PaymentType описывает назначение платежа.
type PaymentType string

const (
	PaymentTypeBooking        PaymentType = "booking"
	PaymentTypePremiumUpgrade PaymentType = "premium_upgrade"
)

// ValidPaymentType сообщает, входит ли значение в перечень назначений платежа.
func ValidPaymentType(t PaymentType) bool {
	return t == PaymentTypeBooking || t == PaymentTypePremiumUpgrade
}

// PaymentStatus описывает статус платежа.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// CanTransition сообщает, допустим ли переход платежа из статуса from в статус to.
// Текущий поток записывает платёж сразу в completed, модель переходов
// сохранена для подключения реального платёжного шлюза.
func (from PaymentStatus) CanTransition(to PaymentStatus) bool {
	switch from {
	case PaymentStatusPending:
		return to == PaymentStatusCompleted || to == PaymentStatusFailed
	case PaymentStatusCompleted:
		return to == PaymentStatusRefunded
	}
	return false
}

// Payment представляет одну попытку оплаты. Платёж premium_upgrade не
// ссылается на бронирование; удаление бронирования обнуляет ссылку,
// но не удаляет сам платёж.
type Payment struct {
	ID            int64
	UserID        int64
	BookingID     *int64
	AmountCents   int64
	Type          PaymentType
	Method        string
	TransactionID string
	Status        PaymentStatus
	CreatedAt     time.Time

	// Данные связанного бронирования для истории платежей.
	ServiceName *string
	BookingDate *time.Time
	BookingTime *string
}
