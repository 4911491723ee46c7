package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/pawconnect-system/internal/model"
)

// PaymentParams описывает данные для записи платежа.
type PaymentParams struct {
	UserID        int64
	BookingID     *int64
	AmountCents   int64
	Type          model.PaymentType
	Method        string
	TransactionID string
}

const paymentColumns = `p.id, p.user_id, p.booking_id, p.amount_cents, p.payment_type,
	 p.payment_method, p.transaction_id, p.status, p.created_at,
	 s.name, b.booking_date, b.booking_time`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var p model.Payment
	err := row.Scan(&p.ID, &p.UserID, &p.BookingID, &p.AmountCents, &p.Type,
		&p.Method, &p.TransactionID, &p.Status, &p.CreatedAt,
		&p.ServiceName, &p.BookingDate, &p.BookingTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	return &p, nil
}

// CreatePayment записывает платёж в статусе completed. Для платежа за
// бронирование принадлежность бронирования проверяется в той же транзакции.
// Платёж premium_upgrade выставляет премиум-флаг пользователя атомарно с
// записью платежа: сбой обновления флага откатывает и сам платёж.
func (r *PostgresRepository) CreatePayment(ctx context.Context, p PaymentParams) (*model.Payment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if p.Type == model.PaymentTypeBooking && p.BookingID != nil {
		var dummy int64
		err = tx.QueryRow(ctx,
			`SELECT id FROM bookings WHERE id = $1 AND user_id = $2`,
			*p.BookingID, p.UserID,
		).Scan(&dummy)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrBookingNotFound
			}
			return nil, fmt.Errorf("check booking: %w", err)
		}
	}

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO payments (user_id, booking_id, amount_cents, payment_type,
		                       payment_method, transaction_id, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		p.UserID, p.BookingID, p.AmountCents, p.Type, p.Method, p.TransactionID,
		model.PaymentStatusCompleted,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}

	if p.Type == model.PaymentTypePremiumUpgrade {
		_, err = tx.Exec(ctx,
			`UPDATE users SET is_premium = TRUE, updated_at = NOW() WHERE id = $1`,
			p.UserID,
		)
		if err != nil {
			return nil, fmt.Errorf("set premium: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	row := r.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+`
		 FROM payments p
		 LEFT JOIN bookings b ON p.booking_id = b.id
		 LEFT JOIN services s ON b.service_id = s.id
		 WHERE p.id = $1`,
		id,
	)
	return scanPayment(row)
}

// GetPaymentsByUser возвращает историю платежей пользователя, новые первыми,
// с данными связанного бронирования, если оно есть.
func (r *PostgresRepository) GetPaymentsByUser(ctx context.Context, userID int64) ([]model.Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentColumns+`
		 FROM payments p
		 LEFT JOIN bookings b ON p.booking_id = b.id
		 LEFT JOIN services s ON b.service_id = s.id
		 WHERE p.user_id = $1
		 ORDER BY p.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return payments, nil
}

// GetPaymentByID возвращает платёж пользователя по идентификатору.
func (r *PostgresRepository) GetPaymentByID(ctx context.Context, userID, paymentID int64) (*model.Payment, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+`
		 FROM payments p
		 LEFT JOIN bookings b ON p.booking_id = b.id
		 LEFT JOIN services s ON b.service_id = s.id
		 WHERE p.id = $1 AND p.user_id = $2`,
		paymentID, userID,
	)
	return scanPayment(row)
}
