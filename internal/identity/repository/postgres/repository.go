package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperr "github.com/piyush1222p/Samadhan-Kendra/internal/errors"
	"github.com/piyush1222p/Samadhan-Kendra/internal/identity/domain"
)

const uniqueViolationCode = "23505"

// PgxIface is the slice of the pgxpool API the repository needs. pgxmock
// pools satisfy it in tests.
type PgxIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db PgxIface
}

func NewRepository(db PgxIface) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, first_name, last_name, email, city, phone, password_hash, points, joined
		FROM users
		WHERE email = $1
		LIMIT 1;
	`
	row := r.db.QueryRow(ctx, query, domain.NormalizeEmail(email))

	return scanUser(row)
}

func (r *Repository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, first_name, last_name, email, city, phone, password_hash, points, joined
		FROM users
		WHERE id = $1
		LIMIT 1;
	`
	row := r.db.QueryRow(ctx, query, id)

	return scanUser(row)
}

func (r *Repository) Insert(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO users (id, first_name, last_name, email, city, phone, password_hash, points, joined)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, user.ID, user.FirstName, user.LastName, domain.NormalizeEmail(user.Email),
		user.City, user.Phone, user.PasswordHash, user.Points, user.Joined)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return apperr.ErrEmailAlreadyInUse
	}

	return err
}

// AdjustPoints applies delta in a single guarded UPDATE so that concurrent
// adjustments for the same user serialize on the row and the balance can
// never go negative.
func (r *Repository) AdjustPoints(ctx context.Context, id string, delta int) (int, error) {
	query := `
		UPDATE users
		SET points = points + $2
		WHERE id = $1 AND points + $2 >= 0
		RETURNING points;
	`

	var newBalance int
	err := r.db.QueryRow(ctx, query, id, delta).Scan(&newBalance)
	if err == nil {
		return newBalance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to adjust points: %w", err)
	}

	// No row matched: either the user does not exist or the guard rejected
	// the debit. Tell the two apart.
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, apperr.ErrUserNotFound
	}

	return 0, apperr.ErrInsufficientPoints
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email,
		&user.City, &user.Phone, &user.PasswordHash, &user.Points, &user.Joined)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return &user, nil
}
