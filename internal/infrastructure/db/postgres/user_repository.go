package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/99minutos/user-auth-service/internal/core/domain"
	"github.com/99minutos/user-auth-service/internal/core/ports"
)

var _ ports.UserRepository = (*UserRepository)(nil)

const uniqueViolation = "23505"

const selectUser = `SELECT u.id::text, u.username, u.password_hash, u.first_name, u.last_name, u.dob,
	       u.created_at, u.updated_at,
	       COALESCE(array_agg(r.role ORDER BY r.role) FILTER (WHERE r.role IS NOT NULL), '{}')
	  FROM users u
	  LEFT JOIN user_roles r ON r.user_id = u.id`

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts the user and its roles in one transaction.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO users (id, username, password_hash, first_name, last_name, dob, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			user.ID, user.Username, user.PasswordHash, user.FirstName, user.LastName,
			dateArg(user.DOB), user.CreatedAt, user.UpdatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return domain.ErrUserExists
			}
			return fmt.Errorf("insert user: %w", err)
		}
		return insertRoles(ctx, tx, user.ID, user.Roles)
	})
	if err != nil {
		return nil, err
	}

	created := *user
	created.Roles = domain.NewRoles(user.Roles...)
	return &created, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, selectUser+` WHERE u.username = $1 GROUP BY u.id`, username)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return user, nil
}

// FindByID looks the user up by primary key. Ids that are not UUIDs cannot
// exist and are reported as not found without a round trip.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("find user by id: %w", domain.ErrUserNotFound)
	}
	row := r.db.QueryRow(ctx, selectUser+` WHERE u.id = $1::uuid GROUP BY u.id`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx, selectUser+` GROUP BY u.id ORDER BY u.username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Update replaces the mutable columns and the full role set atomically.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE users
			    SET password_hash = $2, first_name = $3, last_name = $4, dob = $5, updated_at = $6
			  WHERE id = $1`,
			user.ID, user.PasswordHash, user.FirstName, user.LastName, dateArg(user.DOB), user.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrUserNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, user.ID); err != nil {
			return fmt.Errorf("clear roles: %w", err)
		}
		return insertRoles(ctx, tx, user.ID, user.Roles)
	})
	if err != nil {
		return nil, err
	}

	updated := *user
	updated.Roles = domain.NewRoles(user.Roles...)
	return &updated, nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// withTx rolls back explicitly on every failure path so a half-written user
// never survives.
func (r *UserRepository) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func insertRoles(ctx context.Context, tx pgx.Tx, userID string, roles domain.Roles) error {
	if len(roles) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO user_roles (user_id, role) SELECT $1, unnest($2::text[])`,
		userID, []string(roles),
	)
	if err != nil {
		return fmt.Errorf("insert roles: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u     domain.User
		dob   pgtype.Date
		roles []string
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName, &dob,
		&u.CreatedAt, &u.UpdatedAt, &roles,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	if dob.Valid {
		t := dob.Time.UTC()
		u.DOB = &t
	}
	u.Roles = domain.NewRoles(roles...)
	return &u, nil
}

func dateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return pgtype.Date{Time: *t, Valid: true}
}
