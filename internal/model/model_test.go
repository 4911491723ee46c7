package model

import "testing"

func TestBookingStatusCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{name: "pending to confirmed", from: BookingStatusPending, to: BookingStatusConfirmed, allowed: true},
		{name: "pending to cancelled", from: BookingStatusPending, to: BookingStatusCancelled, allowed: true},
		{name: "confirmed to completed", from: BookingStatusConfirmed, to: BookingStatusCompleted, allowed: true},
		{name: "confirmed to cancelled", from: BookingStatusConfirmed, to: BookingStatusCancelled, allowed: true},
		{name: "pending to completed", from: BookingStatusPending, to: BookingStatusCompleted, allowed: false},
		{name: "completed is terminal", from: BookingStatusCompleted, to: BookingStatusCancelled, allowed: false},
		{name: "cancelled is terminal", from: BookingStatusCancelled, to: BookingStatusConfirmed, allowed: false},
		{name: "no self transition", from: BookingStatusCancelled, to: BookingStatusCancelled, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.allowed {
				t.Fatalf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestPaymentStatusCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    PaymentStatus
		to      PaymentStatus
		allowed bool
	}{
		{name: "pending to completed", from: PaymentStatusPending, to: PaymentStatusCompleted, allowed: true},
		{name: "pending to failed", from: PaymentStatusPending, to: PaymentStatusFailed, allowed: true},
		{name: "completed to refunded", from: PaymentStatusCompleted, to: PaymentStatusRefunded, allowed: true},
		{name: "pending to refunded", from: PaymentStatusPending, to: PaymentStatusRefunded, allowed: false},
		{name: "failed is terminal", from: PaymentStatusFailed, to: PaymentStatusCompleted, allowed: false},
		{name: "refunded is terminal", from: PaymentStatusRefunded, to: PaymentStatusCompleted, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.allowed {
				t.Fatalf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestValidBookingStatus(t *testing.T) {
	for _, s := range []BookingStatus{BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled} {
		if !ValidBookingStatus(s) {
			t.Fatalf("ValidBookingStatus(%s) = false", s)
		}
	}
	if ValidBookingStatus("archived") {
		t.Fatalf("unknown status must be invalid")
	}
}

func TestValidPaymentType(t *testing.T) {
	if !ValidPaymentType(PaymentTypeBooking) || !ValidPaymentType(PaymentTypePremiumUpgrade) {
		t.Fatalf("known payment types must be valid")
	}
	if ValidPaymentType("subscription") {
		t.Fatalf("unknown payment type must be invalid")
	}
}
