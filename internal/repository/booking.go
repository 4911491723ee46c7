package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/pawconnect-system/internal/model"
)

// BookingParams описывает данные для создания бронирования.
// Стоимость передаётся снимком цены услуги на момент вызова.
type BookingParams struct {
	UserID          int64
	ServiceID       int64
	Date            time.Time
	Time24          string
	Status          model.BookingStatus
	TotalPriceCents int64
	Notes           string
	PetDetails      json.RawMessage
}

const bookingColumns = `b.id, b.user_id, b.service_id, b.booking_date, b.booking_time,
	 b.status, b.total_price_cents, b.notes, b.pet_details, b.created_at,
	 s.name, s.type, s.location, s.image_url`

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var (
		b          model.Booking
		petDetails []byte
	)
	err := row.Scan(&b.ID, &b.UserID, &b.ServiceID, &b.Date, &b.Time,
		&b.Status, &b.TotalPriceCents, &b.Notes, &petDetails, &b.CreatedAt,
		&b.ServiceName, &b.ServiceType, &b.ServiceLocation, &b.ServiceImage)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("scan booking: %w", err)
	}
	b.PetDetails = petDetails
	return &b, nil
}

// CreateBooking сохраняет новое бронирование и возвращает его вместе с
// денормализованными полями услуги для отображения.
func (r *PostgresRepository) CreateBooking(ctx context.Context, p BookingParams) (*model.Booking, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO bookings (user_id, service_id, booking_date, booking_time,
		                       status, total_price_cents, notes, pet_details)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		p.UserID, p.ServiceID, p.Date, p.Time24, p.Status, p.TotalPriceCents,
		p.Notes, []byte(p.PetDetails),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	row := r.pool.QueryRow(ctx,
		`SELECT `+bookingColumns+`
		 FROM bookings b
		 LEFT JOIN services s ON b.service_id = s.id
		 WHERE b.id = $1`,
		id,
	)
	return scanBooking(row)
}

// GetBookingsByUser возвращает бронирования пользователя, самые поздние по
// дате и времени первыми. Услуга соединяется нежёстко: бронирование с
// удалённой услугой остаётся в выдаче с пустыми полями отображения.
func (r *PostgresRepository) GetBookingsByUser(ctx context.Context, userID int64, status *model.BookingStatus) ([]model.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		 FROM bookings b
		 LEFT JOIN services s ON b.service_id = s.id
		 WHERE b.user_id = $1`
	args := []any{userID}

	if status != nil {
		args = append(args, *status)
		query += ` AND b.status = $2`
	}

	query += ` ORDER BY b.booking_date DESC, b.booking_time DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return bookings, nil
}

// GetBookingByID возвращает бронирование пользователя по идентификатору.
func (r *PostgresRepository) GetBookingByID(ctx context.Context, userID, bookingID int64) (*model.Booking, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+bookingColumns+`
		 FROM bookings b
		 LEFT JOIN services s ON b.service_id = s.id
		 WHERE b.id = $1 AND b.user_id = $2`,
		bookingID, userID,
	)
	return scanBooking(row)
}

// CancelBooking переводит бронирование пользователя в статус cancelled.
// Условное обновление сериализует конкурирующие отмены: из двух
// одновременных вызовов ровно один меняет статус, второй получает
// ErrBookingNotCancellable по уже терминальному состоянию.
func (r *PostgresRepository) CancelBooking(ctx context.Context, userID, bookingID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE bookings SET status = $3, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND status IN ($4, $5)`,
		bookingID, userID, model.BookingStatusCancelled,
		model.BookingStatusPending, model.BookingStatusConfirmed,
	)
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}

	if tag.RowsAffected() == 1 {
		return nil
	}

	var status model.BookingStatus
	err = r.pool.QueryRow(ctx,
		`SELECT status FROM bookings WHERE id = $1 AND user_id = $2`,
		bookingID, userID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("select booking status: %w", err)
	}

	return fmt.Errorf("%w: status %s", ErrBookingNotCancellable, status)
}
