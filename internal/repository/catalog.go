package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/pawconnect-system/internal/model"
)

// ServiceFilter описывает независимо комбинируемые фильтры каталога услуг.
type ServiceFilter struct {
	Search    string
	PetType   string
	Type      string
	MinRating *float64
}

const serviceColumns = `id, name, type, rating, reviews, location, latitude, longitude,
	 price_range, base_price_cents, verified, pet_types, image_url, description`

func scanService(row pgx.Row) (*model.Service, error) {
	var (
		s        model.Service
		petTypes []byte
	)
	err := row.Scan(&s.ID, &s.Name, &s.Type, &s.Rating, &s.Reviews, &s.Location,
		&s.Latitude, &s.Longitude, &s.PriceRange, &s.BasePriceCents, &s.Verified,
		&petTypes, &s.ImageURL, &s.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("scan service: %w", err)
	}

	if len(petTypes) > 0 {
		if err := json.Unmarshal(petTypes, &s.PetTypes); err != nil {
			return nil, fmt.Errorf("unmarshal pet types: %w", err)
		}
	}

	return &s, nil
}

// ListServices возвращает услуги каталога по набору фильтров,
// отсортированные по рейтингу и числу отзывов по убыванию.
func (r *PostgresRepository) ListServices(ctx context.Context, filter ServiceFilter) ([]model.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE TRUE`
	var args []any

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := strconv.Itoa(len(args))
		query += ` AND (name ILIKE $` + n + ` OR type ILIKE $` + n + ` OR location ILIKE $` + n + `)`
	}

	if filter.PetType != "" && filter.PetType != "All" {
		args = append(args, filter.PetType)
		query += ` AND pet_types ? $` + strconv.Itoa(len(args))
	}

	if filter.Type != "" {
		args = append(args, filter.Type)
		query += ` AND type = $` + strconv.Itoa(len(args))
	}

	if filter.MinRating != nil {
		args = append(args, *filter.MinRating)
		query += ` AND rating >= $` + strconv.Itoa(len(args))
	}

	query += ` ORDER BY rating DESC, reviews DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select services: %w", err)
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return services, nil
}

// GetServiceByID возвращает услугу по идентификатору.
func (r *PostgresRepository) GetServiceByID(ctx context.Context, id int64) (*model.Service, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE id = $1`,
		id,
	)
	return scanService(row)
}

// CreateService добавляет новую услугу в каталог.
func (r *PostgresRepository) CreateService(ctx context.Context, s model.Service) (int64, error) {
	petTypes, err := json.Marshal(s.PetTypes)
	if err != nil {
		return 0, fmt.Errorf("marshal pet types: %w", err)
	}

	var id int64
	err = r.pool.QueryRow(ctx,
		`INSERT INTO services (name, type, location, latitude, longitude, price_range,
		                       base_price_cents, verified, pet_types, image_url, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		s.Name, s.Type, s.Location, s.Latitude, s.Longitude, s.PriceRange,
		s.BasePriceCents, s.Verified, petTypes, s.ImageURL, s.Description,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create service: %w", err)
	}
	return id, nil
}

const eventColumns = `id, title, event_date, location, premium_only, image_url, description`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(&e.ID, &e.Title, &e.Date, &e.Location, &e.PremiumOnly, &e.ImageURL, &e.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}
	return &e, nil
}

// ListEvents возвращает события по дате по возрастанию. Для пользователей
// без премиума события premium_only исключаются независимо от явного фильтра.
func (r *PostgresRepository) ListEvents(ctx context.Context, includePremium bool, premiumOnly *bool) ([]model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE TRUE`
	var args []any

	if !includePremium {
		query += ` AND premium_only = FALSE`
	}

	if premiumOnly != nil {
		args = append(args, *premiumOnly)
		query += ` AND premium_only = $` + strconv.Itoa(len(args))
	}

	query += ` ORDER BY event_date ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return events, nil
}

// GetEventByID возвращает событие по идентификатору.
func (r *PostgresRepository) GetEventByID(ctx context.Context, id int64) (*model.Event, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`,
		id,
	)
	return scanEvent(row)
}

// CreateEvent добавляет новое событие.
func (r *PostgresRepository) CreateEvent(ctx context.Context, e model.Event) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO events (title, event_date, location, premium_only, image_url, description)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		e.Title, e.Date, e.Location, e.PremiumOnly, e.ImageURL, e.Description,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create event: %w", err)
	}
	return id, nil
}
