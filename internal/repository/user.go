package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mmeshcher/pawconnect-system/internal/model"
)

const userColumns = `id, name, email, password_hash, google_id, auth_provider, avatar_url, is_premium, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.GoogleID,
		&u.AuthProvider, &u.AvatarURL, &u.IsPremium, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// CreateUser создаёт нового пользователя с локальным паролем.
func (r *PostgresRepository) CreateUser(ctx context.Context, name, email string, passwordHash []byte) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, auth_provider)
		 VALUES ($1, $2, $3, 'local')
		 RETURNING `+userColumns,
		name, email, passwordHash,
	)

	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrEmailTaken, email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// CreateGoogleUser создаёт нового пользователя без локального пароля.
func (r *PostgresRepository) CreateGoogleUser(ctx context.Context, name, email, googleID, avatarURL string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, google_id, auth_provider, avatar_url)
		 VALUES ($1, $2, $3, 'google', $4)
		 RETURNING `+userColumns,
		name, email, googleID, avatarURL,
	)

	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrEmailTaken, email)
		}
		return nil, fmt.Errorf("create google user: %w", err)
	}
	return u, nil
}

// LinkGoogleAccount привязывает внешний аккаунт Google к существующему пользователю.
// Повторная привязка того же аккаунта ничего не меняет.
func (r *PostgresRepository) LinkGoogleAccount(ctx context.Context, userID int64, googleID, avatarURL string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET google_id = $2, auth_provider = 'google', avatar_url = $3, updated_at = NOW()
		 WHERE id = $1`,
		userID, googleID, avatarURL,
	)
	if err != nil {
		return fmt.Errorf("link google account: %w", err)
	}
	return nil
}

// GetUserByEmail возвращает пользователя по адресу почты.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	)
	return scanUser(row)
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
	return scanUser(row)
}

// ProfilePatch описывает изменяемые поля профиля. Отсутствующее поле
// оставляет текущее значение; набор обновляемых колонок фиксирован.
type ProfilePatch struct {
	Name  *string
	Email *string
}

// Empty сообщает, что патч не содержит ни одного поля.
func (p ProfilePatch) Empty() bool {
	return p.Name == nil && p.Email == nil
}

// UpdateProfile обновляет профиль пользователя по явному патчу.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, userID int64, patch ProfilePatch) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users
		 SET name = COALESCE($2, name), email = COALESCE($3, email), updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		userID, patch.Name, patch.Email,
	)

	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// UpdatePassword заменяет хеш пароля пользователя.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash []byte) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		userID, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetPremium выставляет премиум-флаг пользователя. Операция идемпотентна:
// возвращает признак того, что флаг действительно изменился. Отсутствующий
// пользователь даёт ErrUserNotFound, а не ложное "уже премиум".
func (r *PostgresRepository) SetPremium(ctx context.Context, userID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_premium = TRUE, updated_at = NOW()
		 WHERE id = $1 AND is_premium = FALSE`,
		userID,
	)
	if err != nil {
		return false, fmt.Errorf("set premium: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var isPremium bool
	err = r.pool.QueryRow(ctx, `SELECT is_premium FROM users WHERE id = $1`, userID).Scan(&isPremium)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("select premium flag: %w", err)
	}
	return false, nil
}
